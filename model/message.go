package model

import "time"

// Message is an immutable direct message; only IsRead ever changes.
type Message struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	SenderID   int64     `json:"sender_id" gorm:"not null;index:idx_messages_sender_receiver,priority:1"`
	ReceiverID int64     `json:"receiver_id" gorm:"not null;index:idx_messages_sender_receiver,priority:2;index"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	IsRead     bool      `json:"is_read" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}

// ConversationSummary is the derived per-counterpart view of a user's inbox.
type ConversationSummary struct {
	UserID          int64     `json:"user_id"`
	Username        *string   `json:"username"`
	FullName        string    `json:"full_name"`
	AvatarURL       *string   `json:"avatar_url"`
	LastMessage     string    `json:"last_message"`
	LastMessageID   int64     `json:"last_message_id"`
	LastSenderID    int64     `json:"last_sender_id"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int64     `json:"unread_count"`
}
