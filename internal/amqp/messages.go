package amqp

import (
	"encoding/json"
	"time"

	"budgetwatch/internal/core"
)

// AlertMessage carries an emitted budget alert to delivery consumers.
type AlertMessage struct {
	NotificationID string    `json:"notification_id"`
	Message        string    `json:"message"`
	BudgetType     string    `json:"budget_type"`
	Threshold      string    `json:"threshold"`
	Timestamp      time.Time `json:"timestamp"`
}

// ExpenseCreatedMessage announces a newly persisted expense.
type ExpenseCreatedMessage struct {
	ExpenseID   string    `json:"expense_id"`
	OwnerID     string    `json:"owner_id"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event is the envelope shared by both message kinds.
type Event struct {
	Kind    string          `json:"kind"` // "alert" or "expense_created"
	Payload json.RawMessage `json:"payload"`
}

const (
	KindAlert          = "alert"
	KindExpenseCreated = "expense_created"
)

func NewAlertMessage(n core.Notification) *AlertMessage {
	return &AlertMessage{
		NotificationID: n.ID,
		Message:        n.Message,
		BudgetType:     string(n.BudgetType),
		Threshold:      string(n.Threshold),
		Timestamp:      n.CreatedAt,
	}
}

func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ExpenseID:   e.ID,
		OwnerID:     e.OwnerID,
		AmountCents: e.Amount.Cents,
		Timestamp:   e.CreatedAt,
	}
}

func wrapEvent(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Kind: kind, Payload: raw})
}

// EventFromJSON decodes the envelope; consumers switch on Kind.
func EventFromJSON(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
