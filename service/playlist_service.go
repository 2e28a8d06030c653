package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"young_network/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlaylistService struct {
	db *gorm.DB
}

func NewPlaylistService(db *gorm.DB) *PlaylistService {
	return &PlaylistService{db: db}
}

type CreatePlaylistInput struct {
	Name        string
	Description string
	CoverURL    string
	IsPublic    *bool
}

type AddTrackInput struct {
	PlaylistID int64
	Title      string
	Artist     string
	Duration   int
	FileURL    string
}

func (s *PlaylistService) Create(ctx context.Context, userID int64, in CreatePlaylistInput) (*model.Playlist, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name is required")
	}
	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	playlist := &model.Playlist{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CoverURL:    optional(strings.TrimSpace(in.CoverURL)),
		IsPublic:    isPublic,
	}
	if err := s.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	return playlist, nil
}

// AddTrack appends a track at max(position)+1. Only the owner may add.
func (s *PlaylistService) AddTrack(ctx context.Context, userID int64, in AddTrackInput) (*model.Track, error) {
	title := strings.TrimSpace(in.Title)
	fileURL := strings.TrimSpace(in.FileURL)
	if in.PlaylistID <= 0 || title == "" || fileURL == "" {
		return nil, model.NewValidationError("playlist_id, title and file_url are required")
	}
	if in.Duration < 0 {
		return nil, model.NewValidationError("duration must not be negative")
	}

	track := &model.Track{
		PlaylistID: in.PlaylistID,
		Title:      title,
		Artist:     strings.TrimSpace(in.Artist),
		Duration:   in.Duration,
		FileURL:    fileURL,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var playlists []model.Playlist
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", in.PlaylistID).Limit(1).Find(&playlists).Error; err != nil {
			return fmt.Errorf("failed to load playlist: %w", err)
		}
		if len(playlists) == 0 {
			return model.NewNotFoundError("Playlist")
		}
		if playlists[0].UserID != userID {
			return model.NewForbiddenError("Only the playlist owner can add tracks")
		}

		var next int
		if err := tx.Model(&model.Track{}).Select("COALESCE(MAX(position), 0) + 1").
			Where("playlist_id = ?", in.PlaylistID).Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to compute track position: %w", err)
		}
		track.Position = next
		if err := tx.Create(track).Error; err != nil {
			return fmt.Errorf("failed to add track: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

// ListByUser returns ownerID's playlists with track counts. Private
// playlists are only listed for their owner.
func (s *PlaylistService) ListByUser(ctx context.Context, ownerID, viewerID int64) ([]model.Playlist, error) {
	query := s.db.WithContext(ctx).Model(&model.Playlist{}).
		Select("playlists.*, (SELECT COUNT(*) FROM tracks WHERE tracks.playlist_id = playlists.id) AS track_count").
		Where("user_id = ?", ownerID)
	if ownerID != viewerID {
		query = query.Where("is_public = ?", true)
	}

	playlists := make([]model.Playlist, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	return playlists, nil
}

// Get returns a playlist with its tracks in position order.
func (s *PlaylistService) Get(ctx context.Context, playlistID, viewerID int64) (*model.Playlist, error) {
	db := s.db.WithContext(ctx)

	var playlist model.Playlist
	if err := db.First(&playlist, playlistID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("Playlist")
		}
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}
	if !playlist.IsPublic && playlist.UserID != viewerID {
		return nil, model.NewNotFoundError("Playlist")
	}

	tracks := make([]model.Track, 0)
	if err := db.Where("playlist_id = ?", playlistID).Order("position ASC, id ASC").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	playlist.Tracks = tracks
	playlist.TrackCount = int64(len(tracks))
	return &playlist, nil
}
