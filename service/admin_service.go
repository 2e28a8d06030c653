package service

import (
	"context"
	"fmt"
	"time"

	"young_network/model"

	"gorm.io/gorm"
)

// Admin request decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// AdminService runs the admin promotion workflow. Only the bootstrap admin
// (the account registered with the configured admin phone) may act on it.
type AdminService struct {
	db         *gorm.DB
	notifSvc   *NotificationService
	adminPhone string
}

func NewAdminService(db *gorm.DB, notifSvc *NotificationService, adminPhone string) *AdminService {
	return &AdminService{db: db, notifSvc: notifSvc, adminPhone: adminPhone}
}

func (s *AdminService) authorize(db *gorm.DB, callerID int64) error {
	if s.adminPhone == "" {
		return model.NewForbiddenError("Admin access required")
	}
	var count int64
	if err := db.Model(&model.User{}).
		Where("id = ? AND phone = ?", callerID, s.adminPhone).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if count == 0 {
		return model.NewForbiddenError("Admin access required")
	}
	return nil
}

// ListPending returns pending requests, oldest first.
func (s *AdminService) ListPending(ctx context.Context, callerID int64) ([]model.AdminRequest, error) {
	db := s.db.WithContext(ctx)
	if err := s.authorize(db, callerID); err != nil {
		return nil, err
	}

	requests := make([]model.AdminRequest, 0)
	if err := db.Where("status = ?", model.AdminRequestPending).
		Order("created_at ASC, id ASC").
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to query admin requests: %w", err)
	}

	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.RequesterID)
	}
	users, err := loadUsers(db, ids)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		requests[i].Requester = summaryOf(users, requests[i].RequesterID)
	}
	return requests, nil
}

// Resolve approves or rejects a pending request exactly once. A request
// that was already resolved yields a conflict and changes nothing.
func (s *AdminService) Resolve(ctx context.Context, callerID, requestID int64, decision string) (*model.AdminRequest, error) {
	var status, notifType, content string
	switch decision {
	case DecisionApprove:
		status, notifType, content = model.AdminRequestApproved, model.NotificationAdminApproved, "Your admin request was approved"
	case DecisionReject:
		status, notifType, content = model.AdminRequestRejected, model.NotificationAdminRejected, "Your admin request was rejected"
	default:
		return nil, model.NewValidationError("decision must be approve or reject")
	}
	if requestID <= 0 {
		return nil, model.NewValidationError("request_id is required")
	}

	var request model.AdminRequest
	var notification *model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorize(tx, callerID); err != nil {
			return err
		}

		now := time.Now().UTC()
		result := tx.Model(&model.AdminRequest{}).
			Where("id = ? AND status = ?", requestID, model.AdminRequestPending).
			Updates(map[string]interface{}{"status": status, "resolved_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to resolve admin request: %w", result.Error)
		}

		if err := tx.First(&request, requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return model.NewNotFoundError("Admin request")
			}
			return fmt.Errorf("failed to load admin request: %w", err)
		}
		if result.RowsAffected == 0 {
			return model.NewConflictError("Admin request already resolved")
		}

		if status == model.AdminRequestApproved {
			if err := tx.Model(&model.User{}).Where("id = ?", request.RequesterID).
				Update("is_admin", true).Error; err != nil {
				return fmt.Errorf("failed to promote user: %w", err)
			}
		}

		var err error
		notification, err = insertNotification(tx, request.RequesterID, notifType, content, int64Ptr(callerID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifSvc.Deliver(ctx, notification)
	return &request, nil
}
