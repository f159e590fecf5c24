package notify

import (
	"encoding/json"
	"time"
)

const (
	ActionSchedule = "schedule"
	ActionCancel   = "cancel"
)

// ReminderMessage travels over the reminder queue. Schedule messages carry the
// full display payload so the worker never has to read the database; cancel
// messages only need the ids.
type ReminderMessage struct {
	Action     string    `json:"action"`
	UserID     int64     `json:"user_id"`
	DebtID     int64     `json:"debt_id"`
	PersonName string    `json:"person_name,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	FireAt     time.Time `json:"fire_at,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewScheduleMessage(userID, debtID int64, personName, amount string, fireAt time.Time) *ReminderMessage {
	return &ReminderMessage{
		Action:     ActionSchedule,
		UserID:     userID,
		DebtID:     debtID,
		PersonName: personName,
		Amount:     amount,
		FireAt:     fireAt,
		Timestamp:  time.Now(),
	}
}

func NewCancelMessage(userID, debtID int64) *ReminderMessage {
	return &ReminderMessage{
		Action:    ActionCancel,
		UserID:    userID,
		DebtID:    debtID,
		Timestamp: time.Now(),
	}
}

func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
