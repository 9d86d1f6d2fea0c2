package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionAppliedMessage(t *testing.T) {
	msg := NewTransactionAppliedMessage(42, "u1", "transfer")

	if msg.TransactionID != 42 {
		t.Errorf("TransactionID = %v, want 42", msg.TransactionID)
	}
	if msg.UserID != "u1" {
		t.Errorf("UserID = %v, want u1", msg.UserID)
	}
	if msg.Kind != "transfer" {
		t.Errorf("Kind = %v, want transfer", msg.Kind)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestTransactionAppliedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &TransactionAppliedMessage{
		TransactionID: 12345,
		UserID:        "user-7",
		Kind:          "expense",
		Timestamp:     timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionAppliedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TransactionAppliedMessageFromJSON() error = %v", err)
	}

	if parsed.TransactionID != msg.TransactionID {
		t.Errorf("Parsed TransactionID = %v, want %v", parsed.TransactionID, msg.TransactionID)
	}
	if parsed.UserID != msg.UserID {
		t.Errorf("Parsed UserID = %v, want %v", parsed.UserID, msg.UserID)
	}
	if parsed.Kind != msg.Kind {
		t.Errorf("Parsed Kind = %v, want %v", parsed.Kind, msg.Kind)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestTransactionAppliedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"transaction_id": "not_a_number"}`)

	_, err := TransactionAppliedMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("TransactionAppliedMessageFromJSON() should fail with invalid JSON")
	}
}
