package service

import (
	"context"
	"encoding/json"
	"fmt"

	"young_network/logger"
	"young_network/model"
	"young_network/validation"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationPageSize caps a notification listing.
const NotificationPageSize = 50

// HubNotifier delivers a stored notification to its recipient's live
// connections. Delivery is best effort; the row is the source of truth.
type HubNotifier interface {
	SendNotification(ctx context.Context, userID int64, notification *model.Notification) error
}

// NotificationChannel is the Redis pub/sub channel for userID's stream.
func NotificationChannel(userID int64) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// RedisPublisher publishes notifications straight to Redis. It is used where
// no websocket hub runs in-process, such as the Lambda runtime.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) SendNotification(ctx context.Context, userID int64, notification *model.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, NotificationChannel(userID), payload).Err()
}

type NotificationService struct {
	db          *gorm.DB
	hubNotifier HubNotifier
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// SetHubNotifier wires live delivery.
func (s *NotificationService) SetHubNotifier(notifier HubNotifier) {
	s.hubNotifier = notifier
}

// insertNotification appends a row using tx, so callers can emit inside
// their own transaction.
func insertNotification(tx *gorm.DB, userID int64, notifType, content string, relatedUserID *int64) (*model.Notification, error) {
	n := &model.Notification{
		UserID:        userID,
		Type:          notifType,
		Content:       content,
		RelatedUserID: relatedUserID,
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// Deliver pushes already committed notifications to the hub.
func (s *NotificationService) Deliver(ctx context.Context, notifications ...*model.Notification) {
	if s == nil || s.hubNotifier == nil {
		return
	}
	for _, n := range notifications {
		if n == nil {
			continue
		}
		if err := s.hubNotifier.SendNotification(ctx, n.UserID, n); err != nil {
			logger.Log.Warn("notification delivery failed",
				zap.Int64("notification_id", n.ID),
				zap.Int64("user_id", n.UserID),
				zap.Error(err),
			)
		}
	}
}

// Create appends a notification for userID and delivers it.
func (s *NotificationService) Create(ctx context.Context, userID int64, notifType, content string, relatedUserID *int64) (*model.Notification, error) {
	if userID <= 0 {
		return nil, model.NewValidationError("user_id is required")
	}
	if notifType == "" {
		return nil, model.NewValidationError("type is required")
	}
	content, err := validation.ValidateContent("content", content)
	if err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	db := s.db.WithContext(ctx)
	if err := userExists(db, userID, "User"); err != nil {
		return nil, err
	}

	n, err := insertNotification(db, userID, notifType, content, relatedUserID)
	if err != nil {
		return nil, err
	}
	s.Deliver(ctx, n)
	return n, nil
}

// List returns the newest notifications for userID, each with its actor.
// UnreadCount covers every notification, not only the returned page.
func (s *NotificationService) List(ctx context.Context, userID int64) (*model.NotificationPage, error) {
	db := s.db.WithContext(ctx)

	notifications := make([]model.Notification, 0)
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(NotificationPageSize).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	var unread int64
	if err := db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	actorIDs := make([]int64, 0, len(notifications))
	for _, n := range notifications {
		if n.RelatedUserID != nil {
			actorIDs = append(actorIDs, *n.RelatedUserID)
		}
	}
	actors, err := loadUsers(db, actorIDs)
	if err != nil {
		return nil, err
	}
	for i := range notifications {
		if id := notifications[i].RelatedUserID; id != nil {
			if u, ok := actors[*id]; ok {
				notifications[i].RelatedUser = &model.RelatedUser{ID: u.ID, Username: u.Username, FullName: u.FullName}
			}
		}
	}

	return &model.NotificationPage{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead flags one of userID's notifications as read. Notifications of
// other users are left untouched without error.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error; err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllRead flags every unread notification of userID and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
