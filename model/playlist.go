package model

import "time"

type Playlist struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      int64     `json:"user_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	CoverURL    *string   `json:"cover_url" gorm:"type:text"`
	IsPublic    bool      `json:"is_public" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`

	TrackCount int64   `json:"track_count" gorm:"->;-:migration"`
	Tracks     []Track `json:"tracks,omitempty" gorm:"-"`
}

func (Playlist) TableName() string {
	return "playlists"
}

// Track positions are assigned max+1 on append; gaps are possible.
type Track struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	PlaylistID int64     `json:"playlist_id" gorm:"not null;index"`
	Title      string    `json:"title" gorm:"type:varchar(255);not null"`
	Artist     string    `json:"artist" gorm:"type:varchar(255)"`
	Duration   int       `json:"duration"`
	FileURL    string    `json:"file_url" gorm:"type:text;not null"`
	Position   int       `json:"position" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Track) TableName() string {
	return "tracks"
}
