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

// PostsHandler serves the feed, comments, likes and playlists.
type PostsHandler struct {
	postSvc     *service.PostService
	playlistSvc *service.PlaylistService
}

func NewPostsFunction(db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration, postSvc *service.PostService, playlistSvc *service.PlaylistService) *Function {
	h := &PostsHandler{postSvc: postSvc, playlistSvc: playlistSvc}
	return newFunction("posts", db, sessions, timeout).
		handle(http.MethodPost, "create", h.Create).
		handle(http.MethodPost, "like", h.Like).
		handle(http.MethodPost, "comment", h.Comment).
		handle(http.MethodPost, "create_playlist", h.CreatePlaylist).
		handle(http.MethodPost, "add_track", h.AddTrack).
		fallback(http.MethodPost, "create").
		handlePublic(http.MethodGet, "posts", h.Feed).
		handlePublic(http.MethodGet, "post", h.Get).
		handlePublic(http.MethodGet, "playlists", h.Playlists).
		fallback(http.MethodGet, "posts")
}

// Create POST action=create
func (h *PostsHandler) Create(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		UserID    int64  `json:"user_id"`
		Content   string `json:"content"`
		ImageURL  string `json:"image_url"`
		MediaURL  string `json:"media_url"`
		MediaType string `json:"media_type"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}

	post, err := h.postSvc.Create(ctx, req.CallerID, service.CreatePostInput{
		Content:   body.Content,
		ImageURL:  body.ImageURL,
		MediaURL:  body.MediaURL,
		MediaType: body.MediaType,
	})
	if err != nil {
		return nil, err
	}
	return utils.Created(post), nil
}

type postActionBody struct {
	UserID  int64  `json:"user_id"`
	PostID  int64  `json:"post_id"`
	Content string `json:"content"`
}

func (h *PostsHandler) decodePostAction(req *Request) (*postActionBody, error) {
	var body postActionBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}
	if body.PostID <= 0 {
		return nil, model.NewValidationError("post_id is required")
	}
	return &body, nil
}

// Like POST action=like toggles the caller's like.
func (h *PostsHandler) Like(ctx context.Context, req *Request) (*utils.Response, error) {
	body, err := h.decodePostAction(req)
	if err != nil {
		return nil, err
	}
	state, err := h.postSvc.ToggleLike(ctx, body.PostID, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(state), nil
}

// Comment POST action=comment
func (h *PostsHandler) Comment(ctx context.Context, req *Request) (*utils.Response, error) {
	body, err := h.decodePostAction(req)
	if err != nil {
		return nil, err
	}
	comment, count, err := h.postSvc.AddComment(ctx, body.PostID, req.CallerID, body.Content)
	if err != nil {
		return nil, err
	}
	return utils.Created(map[string]interface{}{"comment": comment, "comments_count": count}), nil
}

// CreatePlaylist POST action=create_playlist
func (h *PostsHandler) CreatePlaylist(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		UserID      int64  `json:"user_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		CoverURL    string `json:"cover_url"`
		IsPublic    *bool  `json:"is_public"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}

	playlist, err := h.playlistSvc.Create(ctx, req.CallerID, service.CreatePlaylistInput{
		Name:        body.Name,
		Description: body.Description,
		CoverURL:    body.CoverURL,
		IsPublic:    body.IsPublic,
	})
	if err != nil {
		return nil, err
	}
	return utils.Created(map[string]interface{}{"success": true, "playlist_id": playlist.ID, "playlist": playlist}), nil
}

// AddTrack POST action=add_track
func (h *PostsHandler) AddTrack(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		PlaylistID int64  `json:"playlist_id"`
		Title      string `json:"title"`
		Artist     string `json:"artist"`
		Duration   int    `json:"duration"`
		URL        string `json:"url"`
		FileURL    string `json:"file_url"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	fileURL := body.FileURL
	if fileURL == "" {
		fileURL = body.URL
	}

	track, err := h.playlistSvc.AddTrack(ctx, req.CallerID, service.AddTrackInput{
		PlaylistID: body.PlaylistID,
		Title:      body.Title,
		Artist:     body.Artist,
		Duration:   body.Duration,
		FileURL:    fileURL,
	})
	if err != nil {
		return nil, err
	}
	return utils.Created(map[string]interface{}{"success": true, "track_id": track.ID, "track": track}), nil
}

// Feed GET type=posts&limit=&offset=&user_id=
func (h *PostsHandler) Feed(ctx context.Context, req *Request) (*utils.Response, error) {
	limit, err := req.Event.QueryInt("limit", service.DefaultFeedLimit)
	if err != nil {
		return nil, err
	}
	offset, err := req.Event.QueryInt("offset", 0)
	if err != nil {
		return nil, err
	}
	authorID, err := req.Event.QueryID("user_id")
	if err != nil {
		return nil, err
	}

	posts, err := h.postSvc.Feed(ctx, service.FeedQuery{
		Limit:    limit,
		Offset:   offset,
		AuthorID: authorID,
		ViewerID: req.CallerID,
	})
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(map[string]interface{}{"posts": posts}), nil
}

// Get GET type=post&post_id=
func (h *PostsHandler) Get(ctx context.Context, req *Request) (*utils.Response, error) {
	postID, err := req.Event.QueryID("post_id")
	if err != nil {
		return nil, err
	}
	if postID == 0 {
		return nil, model.NewValidationError("post_id is required")
	}
	post, err := h.postSvc.Get(ctx, postID, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(post), nil
}

// Playlists GET type=playlists with playlist_id for one playlist's tracks,
// or user_id for that user's playlists.
func (h *PostsHandler) Playlists(ctx context.Context, req *Request) (*utils.Response, error) {
	playlistID, err := req.Event.QueryID("playlist_id")
	if err != nil {
		return nil, err
	}
	if playlistID > 0 {
		playlist, err := h.playlistSvc.Get(ctx, playlistID, req.CallerID)
		if err != nil {
			return nil, err
		}
		return utils.SuccessResponse(map[string]interface{}{"playlist": playlist, "tracks": playlist.Tracks}), nil
	}

	ownerID, err := req.QueryUser("user_id")
	if err != nil {
		return nil, err
	}
	playlists, err := h.playlistSvc.ListByUser(ctx, ownerID, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(map[string]interface{}{"playlists": playlists}), nil
}
