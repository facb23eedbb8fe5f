package models

import "time"

// MessageRecord is one inbound message kept for statistics
type MessageRecord struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	MessageID int       `json:"message_id" db:"message_id"`
	Text      string    `json:"text" db:"text"`
	Date      time.Time `json:"date" db:"date"`
}
