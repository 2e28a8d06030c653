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

type MessagesHandler struct {
	msgSvc *service.MessageService
}

func NewMessagesFunction(db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration, msgSvc *service.MessageService) *Function {
	h := &MessagesHandler{msgSvc: msgSvc}
	return newFunction("messages", db, sessions, timeout).
		handle(http.MethodPost, "send", h.Send).
		fallback(http.MethodPost, "send").
		handle(http.MethodPut, "mark_read", h.MarkRead).
		handle(http.MethodPut, "mark_thread_read", h.MarkThreadRead).
		fallback(http.MethodPut, "mark_read").
		handle(http.MethodGet, "messages", h.List).
		fallback(http.MethodGet, "messages")
}

// Send POST {sender_id, receiver_id, content}
func (h *MessagesHandler) Send(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		SenderID   int64  `json:"sender_id"`
		ReceiverID int64  `json:"receiver_id"`
		Content    string `json:"content"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("sender_id", body.SenderID); err != nil {
		return nil, err
	}

	msg, err := h.msgSvc.Send(ctx, req.CallerID, body.ReceiverID, body.Content)
	if err != nil {
		return nil, err
	}
	return utils.Created(msg), nil
}

type readBody struct {
	UserID     int64 `json:"user_id"`
	MessageID  int64 `json:"message_id"`
	WithUserID int64 `json:"with_user_id"`
}

// MarkRead PUT {user_id, message_id}
func (h *MessagesHandler) MarkRead(ctx context.Context, req *Request) (*utils.Response, error) {
	var body readBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}
	if body.MessageID <= 0 {
		return nil, model.NewValidationError("message_id is required")
	}

	if err := h.msgSvc.MarkRead(ctx, req.CallerID, body.MessageID); err != nil {
		return nil, err
	}
	return success(), nil
}

// MarkThreadRead PUT {action: mark_thread_read, with_user_id}
func (h *MessagesHandler) MarkThreadRead(ctx context.Context, req *Request) (*utils.Response, error) {
	var body readBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}
	if body.WithUserID <= 0 {
		return nil, model.NewValidationError("with_user_id is required")
	}

	marked, err := h.msgSvc.MarkThreadRead(ctx, req.CallerID, body.WithUserID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(map[string]interface{}{"success": true, "marked": marked}), nil
}

// List GET ?with_user_id= returns the thread; without it, the conversation
// summaries.
func (h *MessagesHandler) List(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := req.Event.QueryID("user_id")
	if err != nil {
		return nil, err
	}
	if err := req.Self("user_id", userID); err != nil {
		return nil, err
	}
	withUserID, err := req.Event.QueryID("with_user_id")
	if err != nil {
		return nil, err
	}

	if withUserID > 0 {
		thread, err := h.msgSvc.Thread(ctx, req.CallerID, withUserID)
		if err != nil {
			return nil, err
		}
		return utils.SuccessResponse(thread), nil
	}

	conversations, err := h.msgSvc.Conversations(ctx, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(conversations), nil
}
