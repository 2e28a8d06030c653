package service

import (
	"context"
	"fmt"
	"strings"

	"young_network/model"
	"young_network/validation"

	"gorm.io/gorm"
)

type MusicService struct {
	db *gorm.DB
}

func NewMusicService(db *gorm.DB) *MusicService {
	return &MusicService{db: db}
}

type BookmarkInput struct {
	Platform     string
	ExternalID   string
	Title        string
	Artist       string
	ThumbnailURL string
	URL          string
}

func (s *MusicService) Create(ctx context.Context, userID int64, in BookmarkInput) (*model.MusicBookmark, error) {
	platform := strings.ToLower(strings.TrimSpace(in.Platform))
	externalID := strings.TrimSpace(in.ExternalID)
	title := strings.TrimSpace(in.Title)
	url := strings.TrimSpace(in.URL)
	if platform == "" || externalID == "" || title == "" || url == "" {
		return nil, model.NewValidationError("platform, external_id, title and url are required")
	}
	if err := validation.ValidatePlatform(platform); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	bookmark := &model.MusicBookmark{
		UserID:       userID,
		Platform:     platform,
		ExternalID:   externalID,
		Title:        title,
		Artist:       strings.TrimSpace(in.Artist),
		ThumbnailURL: strings.TrimSpace(in.ThumbnailURL),
		URL:          url,
	}
	if err := s.db.WithContext(ctx).Create(bookmark).Error; err != nil {
		return nil, fmt.Errorf("failed to save track: %w", err)
	}
	return bookmark, nil
}

// List returns userID's bookmarks, newest first, optionally for one platform.
func (s *MusicService) List(ctx context.Context, userID int64, platform string) ([]model.MusicBookmark, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if platform = strings.ToLower(strings.TrimSpace(platform)); platform != "" {
		if err := validation.ValidatePlatform(platform); err != nil {
			return nil, model.NewValidationError(err.Error())
		}
		query = query.Where("platform = ?", platform)
	}

	bookmarks := make([]model.MusicBookmark, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&bookmarks).Error; err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	return bookmarks, nil
}

// Delete removes a bookmark owned by userID. Deleting someone else's or a
// missing bookmark changes nothing.
func (s *MusicService) Delete(ctx context.Context, userID, bookmarkID int64) error {
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", bookmarkID, userID).
		Delete(&model.MusicBookmark{}).Error; err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return nil
}
