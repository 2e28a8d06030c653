package model

import "time"

// User is an account. Username, phone and email are each unique when set.
type User struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Username     *string    `json:"username,omitempty" gorm:"type:varchar(50);uniqueIndex"`
	Phone        *string    `json:"phone,omitempty" gorm:"type:varchar(20);uniqueIndex"`
	Email        *string    `json:"email,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	FullName     string     `json:"full_name" gorm:"type:varchar(255)"`
	BirthDate    *time.Time `json:"birth_date,omitempty" gorm:"type:date"`
	City         string     `json:"city,omitempty" gorm:"type:varchar(100)"`
	AvatarURL    *string    `json:"avatar_url,omitempty" gorm:"type:text"`
	Bio          string     `json:"bio,omitempty" gorm:"type:text"`
	EmailVisible bool       `json:"email_visible" gorm:"default:false"`
	IsAdmin      bool       `json:"is_admin" gorm:"default:false"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName is the name used in rendered notification text.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != nil {
		return *u.Username
	}
	if u.Phone != nil {
		return *u.Phone
	}
	return "Someone"
}

// UserSummary is the compact identity embedded in other resources.
type UserSummary struct {
	ID        int64   `json:"id"`
	Username  *string `json:"username"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

// Profile is a user as seen by a reader, with aggregate counts.
type Profile struct {
	ID               int64      `json:"id"`
	Username         *string    `json:"username"`
	Phone            *string    `json:"phone,omitempty"`
	Email            *string    `json:"email,omitempty"`
	FullName         string     `json:"full_name"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	City             string     `json:"city"`
	AvatarURL        *string    `json:"avatar_url"`
	Bio              string     `json:"bio"`
	EmailVisible     bool       `json:"email_visible"`
	IsAdmin          bool       `json:"is_admin"`
	CreatedAt        time.Time  `json:"created_at"`
	FriendsCount     int64      `json:"friends_count"`
	CommunitiesCount int64      `json:"communities_count"`
	PostsCount       int64      `json:"posts_count"`
}
