package handler

import (
	"context"
	"net/http"
	"time"

	"young_network/middleware"
	"young_network/model"
	"young_network/service"
	"young_network/utils"

	"gorm.io/gorm"
)

type MusicHandler struct {
	musicSvc *service.MusicService
}

func NewMusicFunction(db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration, musicSvc *service.MusicService) *Function {
	h := &MusicHandler{musicSvc: musicSvc}
	return newFunction("music", db, sessions, timeout).
		handle(http.MethodPost, "save", h.Save).
		fallback(http.MethodPost, "save").
		handle(http.MethodGet, "list", h.List).
		fallback(http.MethodGet, "list").
		handle(http.MethodDelete, "delete", h.Delete).
		fallback(http.MethodDelete, "delete")
}

// Save POST
func (h *MusicHandler) Save(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		UserID       int64  `json:"user_id"`
		Platform     string `json:"platform"`
		ExternalID   string `json:"external_id"`
		Title        string `json:"title"`
		Artist       string `json:"artist"`
		ThumbnailURL string `json:"thumbnail_url"`
		URL          string `json:"url"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}

	bookmark, err := h.musicSvc.Create(ctx, req.CallerID, service.BookmarkInput{
		Platform:     body.Platform,
		ExternalID:   body.ExternalID,
		Title:        body.Title,
		Artist:       body.Artist,
		ThumbnailURL: body.ThumbnailURL,
		URL:          body.URL,
	})
	if err != nil {
		return nil, err
	}
	return utils.Created(bookmark), nil
}

// List GET ?platform=
func (h *MusicHandler) List(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := req.Event.QueryID("user_id")
	if err != nil {
		return nil, err
	}
	if err := req.Self("user_id", userID); err != nil {
		return nil, err
	}

	bookmarks, err := h.musicSvc.List(ctx, req.CallerID, req.Event.Query("platform"))
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(bookmarks), nil
}

// Delete DELETE ?track_id=
func (h *MusicHandler) Delete(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := req.Event.QueryID("user_id")
	if err != nil {
		return nil, err
	}
	if err := req.Self("user_id", userID); err != nil {
		return nil, err
	}
	trackID, err := req.Event.QueryID("track_id")
	if err != nil {
		return nil, err
	}
	if trackID == 0 {
		return nil, model.NewValidationError("track_id is required")
	}

	if err := h.musicSvc.Delete(ctx, req.CallerID, trackID); err != nil {
		return nil, err
	}
	return success(), nil
}
