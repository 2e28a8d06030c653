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

type CommunitiesHandler struct {
	communitySvc *service.CommunityService
}

func NewCommunitiesFunction(db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration, communitySvc *service.CommunityService) *Function {
	h := &CommunitiesHandler{communitySvc: communitySvc}
	return newFunction("communities", db, sessions, timeout).
		handle(http.MethodPost, "create", h.Create).
		handle(http.MethodPost, "join", h.Join).
		handle(http.MethodPost, "leave", h.Leave).
		fallback(http.MethodPost, "create").
		handlePublic(http.MethodGet, "communities", h.List).
		fallback(http.MethodGet, "communities")
}

// List GET; membership flags are filled in for an authenticated caller.
func (h *CommunitiesHandler) List(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := req.Event.QueryID("user_id")
	if err != nil {
		return nil, err
	}
	if req.Authenticated() {
		if err := req.Self("user_id", userID); err != nil {
			return nil, err
		}
	}

	communities, err := h.communitySvc.List(ctx, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(map[string]interface{}{"communities": communities}), nil
}

// Create POST action=create
func (h *CommunitiesHandler) Create(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Color       string `json:"color"`
		CreatedBy   int64  `json:"created_by"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("created_by", body.CreatedBy); err != nil {
		return nil, err
	}

	community, err := h.communitySvc.Create(ctx, req.CallerID, body.Name, body.Description, body.Color)
	if err != nil {
		return nil, err
	}
	return utils.Created(community), nil
}

type membershipBody struct {
	CommunityID int64 `json:"community_id"`
	UserID      int64 `json:"user_id"`
}

func (h *CommunitiesHandler) membership(req *Request) (int64, error) {
	var body membershipBody
	if err := req.Decode(&body); err != nil {
		return 0, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return 0, err
	}
	if body.CommunityID <= 0 {
		return 0, model.NewValidationError("community_id is required")
	}
	return body.CommunityID, nil
}

// Join POST action=join
func (h *CommunitiesHandler) Join(ctx context.Context, req *Request) (*utils.Response, error) {
	communityID, err := h.membership(req)
	if err != nil {
		return nil, err
	}
	membership, err := h.communitySvc.Join(ctx, communityID, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(membership), nil
}

// Leave POST action=leave
func (h *CommunitiesHandler) Leave(ctx context.Context, req *Request) (*utils.Response, error) {
	communityID, err := h.membership(req)
	if err != nil {
		return nil, err
	}
	membership, err := h.communitySvc.Leave(ctx, communityID, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(membership), nil
}
