//go:build integration

package amqp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

// startRabbitMQ runs a throwaway broker and returns its AMQP URL.
func startRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5672/tcp"),
			wait.ForLog("Server startup complete"),
		).WithDeadline(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("get RabbitMQ host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5672/tcp")
	if err != nil {
		t.Fatalf("get RabbitMQ port: %v", err)
	}
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestPublishAndConsumeLedgerEvent(t *testing.T) {
	url := startRabbitMQ(t)

	client, err := NewClient(url, "pennywise_test", "ledger_events_test")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	received := make(chan *LedgerEventMessage, 1)
	go func() {
		_ = client.ConsumeLedgerEvents(ctx, func(_ context.Context, msg *LedgerEventMessage) error {
			received <- msg
			cancel()
			return nil
		})
	}()

	ev := ledger.Event{Kind: core.KindExpense, Op: ledger.OpAdd, ID: "e1", Count: 3, At: time.Now().UTC()}
	if err := client.Notify(ctx, ev); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Kind != core.KindExpense || msg.Op != ledger.OpAdd || msg.ID != "e1" || msg.Count != 3 {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(20 * time.Second):
		t.Fatal("no message received")
	}
}
