package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// Change kinds carried by a MonthChangedMessage.
const (
	KindExpense = "expense"
	KindIncome  = "income"
)

// MonthChangedMessage tells the report worker that a month's ledger
// changed. It carries only the coordinates; the worker re-reads the month
// from the database so messages stay valid regardless of delivery order.
type MonthChangedMessage struct {
	OwnerID   int64         `json:"ownerId"`
	Month     core.MonthKey `json:"month"`
	Kind      string        `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewMonthChangedMessage(ownerID int64, month core.MonthKey, kind string) *MonthChangedMessage {
	return &MonthChangedMessage{
		OwnerID:   ownerID,
		Month:     month,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

func (m *MonthChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MonthChangedMessageFromJSON(data []byte) (*MonthChangedMessage, error) {
	var msg MonthChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
