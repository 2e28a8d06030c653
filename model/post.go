package model

import "time"

// Post carries denormalized like and comment counters that are only ever
// changed in the same transaction as the underlying rows.
type Post struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	UserID        int64     `json:"user_id" gorm:"not null;index"`
	Content       string    `json:"content" gorm:"type:text;not null"`
	ImageURL      *string   `json:"image_url" gorm:"type:text"`
	MediaURL      *string   `json:"media_url" gorm:"type:text"`
	MediaType     *string   `json:"media_type" gorm:"type:varchar(20)"`
	LikesCount    int64     `json:"likes_count" gorm:"not null;default:0"`
	CommentsCount int64     `json:"comments_count" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	Author   *UserSummary `json:"author,omitempty" gorm:"-"`
	Liked    bool         `json:"liked" gorm:"-"`
	Comments []Comment    `json:"comments,omitempty" gorm:"-"`
}

func (Post) TableName() string {
	return "posts"
}

type Like struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_likes_user_post"`
	PostID    int64     `json:"post_id" gorm:"not null;uniqueIndex:idx_likes_user_post;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Like) TableName() string {
	return "likes"
}

type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	PostID    int64     `json:"post_id" gorm:"not null;index"`
	UserID    int64     `json:"user_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Author *UserSummary `json:"author,omitempty" gorm:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

// LikeState is the result of a like toggle.
type LikeState struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}
