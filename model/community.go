package model

import "time"

const DefaultCommunityColor = "bg-yellow-500"

type Community struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Color        string    `json:"color" gorm:"type:varchar(50);not null"`
	CreatedBy    int64     `json:"created_by" gorm:"not null"`
	MembersCount int64     `json:"members_count" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`

	IsMember bool `json:"is_member" gorm:"-"`
}

func (Community) TableName() string {
	return "communities"
}

type CommunityMember struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	CommunityID int64     `json:"community_id" gorm:"not null;uniqueIndex:idx_community_members_pair"`
	UserID      int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_community_members_pair;index"`
	JoinedAt    time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

func (CommunityMember) TableName() string {
	return "community_members"
}

// Membership is the result of a join or leave.
type Membership struct {
	CommunityID  int64 `json:"community_id"`
	MembersCount int64 `json:"members_count"`
	IsMember     bool  `json:"is_member"`
}
