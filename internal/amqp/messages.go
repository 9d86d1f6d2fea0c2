package amqp

import (
	"encoding/json"
	"time"
)

// TransactionAppliedMessage announces a ledger transaction that has been
// committed. It carries only identifiers; consumers fetch the full record
// from the database.
type TransactionAppliedMessage struct {
	TransactionID int64     `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Kind          string    `json:"kind"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionAppliedMessage(transactionID int64, userID, kind string) *TransactionAppliedMessage {
	return &TransactionAppliedMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Kind:          kind,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionAppliedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionAppliedMessageFromJSON(data []byte) (*TransactionAppliedMessage, error) {
	var msg TransactionAppliedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
