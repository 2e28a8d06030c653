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

type FriendsHandler struct {
	relSvc *service.RelationshipService
}

func NewFriendsFunction(db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration, relSvc *service.RelationshipService) *Function {
	h := &FriendsHandler{relSvc: relSvc}
	return newFunction("friends", db, sessions, timeout).
		handle(http.MethodPost, "send_request", h.SendRequest).
		handle(http.MethodPost, "accept", h.Accept).
		handle(http.MethodPost, "reject", h.Reject).
		handle(http.MethodPost, "remove", h.Remove).
		handle(http.MethodPost, "add", h.Add).
		handle(http.MethodGet, "friends", h.List).
		handle(http.MethodGet, "pending", h.Pending).
		handle(http.MethodGet, "sent", h.Sent).
		handle(http.MethodGet, "status", h.Status).
		fallback(http.MethodGet, "friends")
}

type pairBody struct {
	UserID   int64 `json:"user_id"`
	FriendID int64 `json:"friend_id"`
}

func (h *FriendsHandler) pair(req *Request) (int64, error) {
	var body pairBody
	if err := req.Decode(&body); err != nil {
		return 0, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return 0, err
	}
	return body.FriendID, nil
}

// SendRequest POST action=send_request
func (h *FriendsHandler) SendRequest(ctx context.Context, req *Request) (*utils.Response, error) {
	friendID, err := h.pair(req)
	if err != nil {
		return nil, err
	}
	request, err := h.relSvc.SendRequest(ctx, req.CallerID, friendID)
	if err != nil {
		return nil, err
	}
	return utils.Created(map[string]interface{}{"success": true, "request": request}), nil
}

// Accept POST action=accept; friend_id is the requester.
func (h *FriendsHandler) Accept(ctx context.Context, req *Request) (*utils.Response, error) {
	friendID, err := h.pair(req)
	if err != nil {
		return nil, err
	}
	if err := h.relSvc.Accept(ctx, req.CallerID, friendID); err != nil {
		return nil, err
	}
	return success(), nil
}

// Reject POST action=reject
func (h *FriendsHandler) Reject(ctx context.Context, req *Request) (*utils.Response, error) {
	friendID, err := h.pair(req)
	if err != nil {
		return nil, err
	}
	if err := h.relSvc.Reject(ctx, req.CallerID, friendID); err != nil {
		return nil, err
	}
	return success(), nil
}

// Remove POST action=remove
func (h *FriendsHandler) Remove(ctx context.Context, req *Request) (*utils.Response, error) {
	friendID, err := h.pair(req)
	if err != nil {
		return nil, err
	}
	if err := h.relSvc.Remove(ctx, req.CallerID, friendID); err != nil {
		return nil, err
	}
	return success(), nil
}

// Add POST action=add
func (h *FriendsHandler) Add(ctx context.Context, req *Request) (*utils.Response, error) {
	friendID, err := h.pair(req)
	if err != nil {
		return nil, err
	}
	if err := h.relSvc.DirectAdd(ctx, req.CallerID, friendID); err != nil {
		return nil, err
	}
	return success(), nil
}

func (h *FriendsHandler) caller(req *Request) (int64, error) {
	userID, err := req.Event.QueryID("user_id")
	if err != nil {
		return 0, err
	}
	if err := req.Self("user_id", userID); err != nil {
		return 0, err
	}
	return req.CallerID, nil
}

// List GET type=friends
func (h *FriendsHandler) List(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := h.caller(req)
	if err != nil {
		return nil, err
	}
	friends, err := h.relSvc.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(friends), nil
}

// Pending GET type=pending
func (h *FriendsHandler) Pending(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := h.caller(req)
	if err != nil {
		return nil, err
	}
	requests, err := h.relSvc.ListPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(requests), nil
}

// Sent GET type=sent
func (h *FriendsHandler) Sent(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := h.caller(req)
	if err != nil {
		return nil, err
	}
	requests, err := h.relSvc.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(requests), nil
}

// Status GET type=status&friend_id=
func (h *FriendsHandler) Status(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := h.caller(req)
	if err != nil {
		return nil, err
	}
	friendID, err := req.Event.QueryID("friend_id")
	if err != nil {
		return nil, err
	}
	if friendID == 0 {
		return nil, model.NewValidationError("friend_id is required")
	}
	friends, err := h.relSvc.IsFriend(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(map[string]interface{}{"is_friend": friends}), nil
}
