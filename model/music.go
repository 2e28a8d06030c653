package model

import "time"

const (
	PlatformYouTube = "youtube"
	PlatformYandex  = "yandex"
)

// MusicBookmark is a link to a track hosted elsewhere. No audio is stored.
type MusicBookmark struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UserID       int64     `json:"user_id" gorm:"not null;index"`
	Platform     string    `json:"platform" gorm:"type:varchar(20);not null"`
	ExternalID   string    `json:"external_id" gorm:"type:varchar(255);not null"`
	Title        string    `json:"title" gorm:"type:varchar(500);not null"`
	Artist       string    `json:"artist" gorm:"type:varchar(255)"`
	ThumbnailURL string    `json:"thumbnail_url" gorm:"type:text"`
	URL          string    `json:"url" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (MusicBookmark) TableName() string {
	return "music_tracks"
}
