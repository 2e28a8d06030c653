package model

import "time"

// Notification types emitted by the backend.
const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
	NotificationFriendAdded    = "friend_added"
	NotificationFriendRemoved  = "friend_removed"
	NotificationAdminRequest   = "admin_request"
	NotificationAdminApproved  = "admin_approved"
	NotificationAdminRejected  = "admin_rejected"
)

// Notification is append-only apart from the read flag.
type Notification struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	UserID        int64     `json:"user_id" gorm:"not null;index:idx_notifications_user_created,priority:1"`
	Type          string    `json:"type" gorm:"type:varchar(50);not null"`
	Content       string    `json:"content" gorm:"type:text;not null"`
	RelatedUserID *int64    `json:"related_user_id"`
	IsRead        bool      `json:"is_read" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_notifications_user_created,priority:2"`

	RelatedUser *RelatedUser `json:"related_user" gorm:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// RelatedUser is the actor identity shown next to a notification.
type RelatedUser struct {
	ID       int64   `json:"id"`
	Username *string `json:"username"`
	FullName string  `json:"full_name"`
}

// NotificationPage is a capped listing plus the unread count over all rows.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
}

const (
	AdminRequestPending  = "pending"
	AdminRequestApproved = "approved"
	AdminRequestRejected = "rejected"
)

// AdminRequest gates promotion of a regular user to admin.
type AdminRequest struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	RequesterID int64      `json:"requester_id" gorm:"not null;index"`
	Status      string     `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	ResolvedAt  *time.Time `json:"resolved_at"`

	Requester *UserSummary `json:"requester,omitempty" gorm:"-"`
}

func (AdminRequest) TableName() string {
	return "admin_requests"
}
