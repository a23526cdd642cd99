package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldOwnerID     = "owner_id"
	FieldExpenseID   = "expense_id"
	FieldAmountCents = "amount_cents"
	FieldBudgetType  = "budget_type"
	FieldThreshold   = "threshold"
	FieldError       = "error"
)

// Components defines standard component names
const (
	ComponentHTTP   = "http"
	ComponentWorker = "worker"
)
