package amqp

import (
	"encoding/json"
	"time"
)

// PlanImportMessage notifies downstream consumers that a plan batch landed.
// It carries only the row count and timestamp; consumers re-read the plans
// from the database.
type PlanImportMessage struct {
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPlanImportMessage creates a new import notification message
func NewPlanImportMessage(rows int) *PlanImportMessage {
	return &PlanImportMessage{
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PlanImportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PlanImportMessageFromJSON creates a message from JSON bytes
func PlanImportMessageFromJSON(data []byte) (*PlanImportMessage, error) {
	var msg PlanImportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
