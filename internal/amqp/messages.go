package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

// LedgerEventMessage announces that one collection changed. It carries no
// entry data; consumers reload the ledger from the shared store.
type LedgerEventMessage struct {
	Kind      core.Kind `json:"kind"`
	Op        ledger.Op `json:"op"`
	ID        string    `json:"id,omitempty"`
	Count     int       `json:"count"`
	Rejected  int       `json:"rejected,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &LedgerEventMessage{
		Kind:      ev.Kind,
		Op:        ev.Op,
		ID:        ev.ID,
		Count:     ev.Count,
		Rejected:  ev.Rejected,
		Timestamp: ts,
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes a message and checks it names a
// known collection.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := core.ParseKind(string(msg.Kind)); err != nil {
		return nil, err
	}
	if msg.Op == "" {
		return nil, errors.New("missing op")
	}
	return &msg, nil
}
