package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"budgetwatch/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{40, 30 * time.Second}, // shift overflow also capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"unrelated error", errors.New("access refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestEventEnvelope(t *testing.T) {
	n := core.Notification{
		ID:         "n1",
		Message:    "You have exceeded your monthly budget (104% used)",
		Type:       core.NotificationBudget,
		BudgetType: core.Monthly,
		Threshold:  core.ThresholdExceeded,
		CreatedAt:  time.Now(),
	}

	body, err := wrapEvent(KindAlert, NewAlertMessage(n))
	if err != nil {
		t.Fatalf("wrapEvent failed: %v", err)
	}

	ev, err := EventFromJSON(body)
	if err != nil {
		t.Fatalf("EventFromJSON failed: %v", err)
	}
	if ev.Kind != KindAlert {
		t.Fatalf("kind = %q, want %q", ev.Kind, KindAlert)
	}

	if _, err := EventFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error for malformed body")
	}
}
