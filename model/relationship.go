package model

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship is one directed edge. An accepted friendship is stored as two
// accepted rows, one per direction; a pending request is a single row from
// requester (UserID) to target (FriendID).
type Friendship struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_friendships_pair"`
	FriendID  int64     `json:"friend_id" gorm:"not null;uniqueIndex:idx_friendships_pair;index"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Friendship) TableName() string {
	return "friendships"
}

// Friend is a counterpart row returned by friend listings.
type Friend struct {
	ID          int64      `json:"id"`
	Username    *string    `json:"username"`
	FullName    string     `json:"full_name"`
	AvatarURL   *string    `json:"avatar_url"`
	Status      string     `json:"status"`
	RequestedAt *time.Time `json:"requested_at,omitempty"`
}
