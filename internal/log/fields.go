package log

import "pennywise/internal/core"

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldKind      = "kind"
	FieldEntryID   = "entry_id"
	FieldAmount    = "amount"
	FieldSource    = "source"
	FieldCategory  = "category"
	FieldCount     = "count"
	FieldRejected  = "rejected"
	FieldPeriod    = "period"
	FieldPath      = "path"
	FieldBackend   = "backend"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
)

// Error type categories.
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeImport        = "import_error"
)

// LogFields builds structured log arguments.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds the identifying fields of a ledger entry.
func (f LogFields) WithEntry(kind core.Kind, e core.Entry) LogFields {
	f[FieldKind] = string(kind)
	f[FieldEntryID] = e.EntryID()
	f[FieldAmount] = e.EntryAmount().String()
	return f
}

// ToSlice converts LogFields to a slice for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
