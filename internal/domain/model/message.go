package model

import "time"

const MaxMessageTextLength = 140

type Message struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	FromUserID   string    `json:"from_user_id"`
	ToUserID     string    `json:"to_user_id"`
	FromUsername *string   `json:"from_username,omitempty"` // For display
	ToUsername   *string   `json:"to_username,omitempty"`   // For display
	Read         bool      `json:"read"`
	SentAt       time.Time `json:"sent_at"`
}
