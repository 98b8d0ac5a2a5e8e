package backup

import (
	"bytes"
	"encoding/json"

	"pennywise/internal/core"
)

type fieldType int

const (
	typeString fieldType = iota
	typeNumber
	typeSource
	typeDate
)

type field struct {
	name     string
	typ      fieldType
	required bool
}

// schema enumerates the fields of one record type as it appears in a
// backup file. Fields not listed are ignored.
type schema struct {
	kind   core.Kind
	fields []field
}

var (
	incomeSchema = schema{kind: core.KindIncome, fields: []field{
		{"id", typeString, true},
		{"amount", typeNumber, true},
		{"source", typeSource, true},
		{"subcategory", typeString, false},
		{"description", typeString, false},
		{"date", typeDate, true},
	}}
	expenseSchema = schema{kind: core.KindExpense, fields: []field{
		{"id", typeString, true},
		{"amount", typeNumber, true},
		{"category", typeString, true},
		{"subcategory", typeString, false},
		{"description", typeString, false},
		{"date", typeDate, true},
		{"source", typeSource, true},
	}}
	transferSchema = schema{kind: core.KindTransfer, fields: []field{
		{"id", typeString, true},
		{"amount", typeNumber, true},
		{"fromSource", typeSource, true},
		{"toSource", typeSource, true},
		{"date", typeDate, true},
		{"description", typeString, false},
	}}
)

// check reports every field of raw that does not match the schema. A null
// optional field counts as absent.
func (s schema) check(raw json.RawMessage) core.Result {
	res := core.Result{Kind: s.kind}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		res.Issues = append(res.Issues, core.Issue{Err: core.ErrWrongType})
		return res
	}
	for _, f := range s.fields {
		v, ok := obj[f.name]
		if !ok || isNull(v) {
			if f.required {
				res.Issues = append(res.Issues, core.Issue{Field: f.name, Err: core.ErrMissingField})
			}
			continue
		}
		if err := f.typ.check(v); err != nil {
			res.Issues = append(res.Issues, core.Issue{Field: f.name, Err: err})
		}
	}
	return res
}

func (t fieldType) check(v json.RawMessage) error {
	switch t {
	case typeNumber:
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil || !isNumber(v) {
			return core.ErrWrongType
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return core.ErrWrongType
	}
	switch t {
	case typeSource:
		if !core.Source(s).Valid() {
			return core.ErrInvalidSource
		}
	case typeDate:
		if _, err := core.ParseDateIn(s, nil); err != nil {
			return core.ErrInvalidDate
		}
	}
	return nil
}

func isNull(v json.RawMessage) bool { return bytes.Equal(bytes.TrimSpace(v), []byte("null")) }

// isNumber rejects quoted numbers, which json.Number would accept.
func isNumber(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && (v[0] == '-' || (v[0] >= '0' && v[0] <= '9'))
}
