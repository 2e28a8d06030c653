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

// NotificationsHandler serves the caller's notifications and the admin
// request queue.
type NotificationsHandler struct {
	notifSvc *service.NotificationService
	adminSvc *service.AdminService
}

func NewNotificationsFunction(db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration, notifSvc *service.NotificationService, adminSvc *service.AdminService) *Function {
	h := &NotificationsHandler{notifSvc: notifSvc, adminSvc: adminSvc}
	return newFunction("notifications", db, sessions, timeout).
		handle(http.MethodGet, "notifications", h.List).
		handle(http.MethodGet, "admin_requests", h.AdminRequests).
		fallback(http.MethodGet, "notifications").
		handle(http.MethodPost, "mark_read", h.MarkRead).
		handle(http.MethodPost, "mark_all_read", h.MarkAllRead).
		handle(http.MethodPost, "create", h.Create).
		handle(http.MethodPost, "resolve_admin_request", h.ResolveAdminRequest)
}

// List GET
func (h *NotificationsHandler) List(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := req.Event.QueryID("user_id")
	if err != nil {
		return nil, err
	}
	if err := req.Self("user_id", userID); err != nil {
		return nil, err
	}

	page, err := h.notifSvc.List(ctx, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(page), nil
}

// MarkRead POST action=mark_read
func (h *NotificationsHandler) MarkRead(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		UserID         int64 `json:"user_id"`
		NotificationID int64 `json:"notification_id"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}
	if body.NotificationID <= 0 {
		return nil, model.NewValidationError("notification_id is required")
	}

	if err := h.notifSvc.MarkRead(ctx, req.CallerID, body.NotificationID); err != nil {
		return nil, err
	}
	return success(), nil
}

// MarkAllRead POST action=mark_all_read
func (h *NotificationsHandler) MarkAllRead(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}

	marked, err := h.notifSvc.MarkAllRead(ctx, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(map[string]interface{}{"success": true, "marked": marked}), nil
}

// Create POST action=create notifies user_id on the caller's behalf; the
// caller is always recorded as the related user.
func (h *NotificationsHandler) Create(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		UserID  int64  `json:"user_id"`
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	n, err := h.notifSvc.Create(ctx, body.UserID, body.Type, body.Content, &req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.Created(map[string]interface{}{"success": true, "notification_id": n.ID}), nil
}

// AdminRequests GET type=admin_requests
func (h *NotificationsHandler) AdminRequests(ctx context.Context, req *Request) (*utils.Response, error) {
	requests, err := h.adminSvc.ListPending(ctx, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(map[string]interface{}{"requests": requests}), nil
}

// ResolveAdminRequest POST action=resolve_admin_request {request_id, decision}
func (h *NotificationsHandler) ResolveAdminRequest(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		RequestID int64  `json:"request_id"`
		Decision  string `json:"decision"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	request, err := h.adminSvc.Resolve(ctx, req.CallerID, body.RequestID, body.Decision)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(request), nil
}
