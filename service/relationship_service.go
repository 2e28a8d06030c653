package service

import (
	"context"
	"fmt"

	"young_network/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipService manages friendships as pairs of directed edges.
type RelationshipService struct {
	db       *gorm.DB
	notifSvc *NotificationService
}

func NewRelationshipService(db *gorm.DB, notifSvc *NotificationService) *RelationshipService {
	return &RelationshipService{db: db, notifSvc: notifSvc}
}

func validatePair(userID, otherID int64, selfMessage string) error {
	if userID <= 0 || otherID <= 0 {
		return model.NewValidationError("user_id and friend_id are required")
	}
	if userID == otherID {
		return model.NewValidationError(selfMessage)
	}
	return nil
}

func findEdge(tx *gorm.DB, from, to int64) (*model.Friendship, error) {
	var edges []model.Friendship
	if err := tx.Where("user_id = ? AND friend_id = ?", from, to).Limit(1).Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("failed to query friendship: %w", err)
	}
	if len(edges) == 0 {
		return nil, nil
	}
	return &edges[0], nil
}

// insertEdge inserts from→to unless a row for that direction already exists.
func insertEdge(tx *gorm.DB, from, to int64, status string) (bool, error) {
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Friendship{UserID: from, FriendID: to, Status: status})
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert friendship: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// upsertAccepted makes from→to an accepted edge whatever its prior state.
func upsertAccepted(tx *gorm.DB, from, to int64) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "friend_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"status": model.FriendshipAccepted}),
	}).Create(&model.Friendship{UserID: from, FriendID: to, Status: model.FriendshipAccepted}).Error
	if err != nil {
		return fmt.Errorf("failed to accept friendship: %w", err)
	}
	return nil
}

// SendRequest creates a pending request from requesterID to targetID.
func (s *RelationshipService) SendRequest(ctx context.Context, requesterID, targetID int64) (*model.Friendship, error) {
	if err := validatePair(requesterID, targetID, "Cannot send friend request to yourself"); err != nil {
		return nil, err
	}

	var request model.Friendship
	var notification *model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := lockUsers(tx, requesterID, targetID)
		if err != nil {
			return err
		}
		if _, ok := users[targetID]; !ok {
			return model.NewNotFoundError("User")
		}
		if _, ok := users[requesterID]; !ok {
			return model.NewNotFoundError("User")
		}

		reverse, err := findEdge(tx, targetID, requesterID)
		if err != nil {
			return err
		}
		if reverse != nil {
			if reverse.Status == model.FriendshipAccepted {
				return model.NewConflictError("Already friends")
			}
			return model.NewConflictError("This user has already sent you a friend request")
		}

		request = model.Friendship{UserID: requesterID, FriendID: targetID, Status: model.FriendshipPending}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&request)
		if result.Error != nil {
			return fmt.Errorf("failed to create friend request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return model.NewConflictError("Request already exists")
		}

		requester := users[requesterID]
		notification, err = insertNotification(tx, targetID, model.NotificationFriendRequest,
			requester.DisplayName()+" sent you a friend request", int64Ptr(requesterID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifSvc.Deliver(ctx, notification)
	return &request, nil
}

// Accept turns requesterID's pending request to acceptorID into an accepted
// friendship in both directions.
func (s *RelationshipService) Accept(ctx context.Context, acceptorID, requesterID int64) error {
	if err := validatePair(acceptorID, requesterID, "Cannot accept a request from yourself"); err != nil {
		return err
	}

	var notification *model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := lockUsers(tx, acceptorID, requesterID)
		if err != nil {
			return err
		}

		result := tx.Model(&model.Friendship{}).
			Where("user_id = ? AND friend_id = ? AND status = ?", requesterID, acceptorID, model.FriendshipPending).
			Update("status", model.FriendshipAccepted)
		if result.Error != nil {
			return fmt.Errorf("failed to accept friend request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return model.NewNotFoundError("Friend request")
		}
		if err := upsertAccepted(tx, acceptorID, requesterID); err != nil {
			return err
		}

		acceptor := users[acceptorID]
		notification, err = insertNotification(tx, requesterID, model.NotificationFriendAccepted,
			acceptor.DisplayName()+" accepted your friend request", int64Ptr(acceptorID))
		return err
	})
	if err != nil {
		return err
	}

	s.notifSvc.Deliver(ctx, notification)
	return nil
}

// Reject drops requesterID's pending request to acceptorID. Rejecting a
// request that does not exist is not an error.
func (s *RelationshipService) Reject(ctx context.Context, acceptorID, requesterID int64) error {
	if err := validatePair(acceptorID, requesterID, "Cannot reject a request from yourself"); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ? AND status = ?", requesterID, acceptorID, model.FriendshipPending).
		Delete(&model.Friendship{}).Error; err != nil {
		return fmt.Errorf("failed to reject friend request: %w", err)
	}
	return nil
}

// Remove deletes every edge between userID and friendID. Removing a
// relationship that does not exist is a no-op.
func (s *RelationshipService) Remove(ctx context.Context, userID, friendID int64) error {
	if err := validatePair(userID, friendID, "Cannot remove yourself"); err != nil {
		return err
	}

	var notification *model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := lockUsers(tx, userID, friendID)
		if err != nil {
			return err
		}

		result := tx.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
			Delete(&model.Friendship{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove friendship: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if _, ok := users[friendID]; !ok {
			return nil
		}
		actor := users[userID]
		notification, err = insertNotification(tx, friendID, model.NotificationFriendRemoved,
			actor.DisplayName()+" removed you from friends", int64Ptr(userID))
		return err
	})
	if err != nil {
		return err
	}

	s.notifSvc.Deliver(ctx, notification)
	return nil
}

// DirectAdd makes userID and friendID friends without a request. Only the
// call that creates the userID→friendID edge notifies friendID.
func (s *RelationshipService) DirectAdd(ctx context.Context, userID, friendID int64) error {
	if err := validatePair(userID, friendID, "Cannot add yourself as a friend"); err != nil {
		return err
	}

	var notification *model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := lockUsers(tx, userID, friendID)
		if err != nil {
			return err
		}
		if _, ok := users[friendID]; !ok {
			return model.NewNotFoundError("User")
		}

		created, err := insertEdge(tx, userID, friendID, model.FriendshipAccepted)
		if err != nil {
			return err
		}
		if _, err := insertEdge(tx, friendID, userID, model.FriendshipAccepted); err != nil {
			return err
		}
		if err := tx.Model(&model.Friendship{}).
			Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
				userID, friendID, friendID, userID).
			Update("status", model.FriendshipAccepted).Error; err != nil {
			return fmt.Errorf("failed to accept friendship: %w", err)
		}

		if !created {
			return nil
		}
		actor := users[userID]
		notification, err = insertNotification(tx, friendID, model.NotificationFriendAdded,
			actor.DisplayName()+" added you as a friend", int64Ptr(userID))
		return err
	})
	if err != nil {
		return err
	}

	s.notifSvc.Deliver(ctx, notification)
	return nil
}

// ListAccepted returns userID's friends ordered by username.
func (s *RelationshipService) ListAccepted(ctx context.Context, userID int64) ([]model.Friend, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("id <> ?", userID).
		Where("id IN (SELECT friend_id FROM friendships WHERE user_id = ? AND status = ?)"+
			" OR id IN (SELECT user_id FROM friendships WHERE friend_id = ? AND status = ?)",
			userID, model.FriendshipAccepted, userID, model.FriendshipAccepted).
		Order("username ASC, id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}

	friends := make([]model.Friend, 0, len(users))
	for _, u := range users {
		friends = append(friends, model.Friend{
			ID:        u.ID,
			Username:  u.Username,
			FullName:  u.FullName,
			AvatarURL: u.AvatarURL,
			Status:    model.FriendshipAccepted,
		})
	}
	return friends, nil
}

// ListPending returns requests waiting for userID's answer, newest first.
func (s *RelationshipService) ListPending(ctx context.Context, userID int64) ([]model.Friend, error) {
	return s.listRequests(ctx, "friend_id", "user_id", userID)
}

// ListSent returns requests userID is waiting on, newest first.
func (s *RelationshipService) ListSent(ctx context.Context, userID int64) ([]model.Friend, error) {
	return s.listRequests(ctx, "user_id", "friend_id", userID)
}

func (s *RelationshipService) listRequests(ctx context.Context, ownColumn, otherColumn string, userID int64) ([]model.Friend, error) {
	db := s.db.WithContext(ctx)

	var edges []model.Friendship
	if err := db.Where(ownColumn+" = ? AND status = ?", userID, model.FriendshipPending).
		Order("created_at DESC, id DESC").
		Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("failed to query friend requests: %w", err)
	}

	ids := make([]int64, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, counterpart(e, otherColumn))
	}
	users, err := loadUsers(db, ids)
	if err != nil {
		return nil, err
	}

	requests := make([]model.Friend, 0, len(edges))
	for _, e := range edges {
		u, ok := users[counterpart(e, otherColumn)]
		if !ok {
			continue
		}
		requestedAt := e.CreatedAt
		requests = append(requests, model.Friend{
			ID:          u.ID,
			Username:    u.Username,
			FullName:    u.FullName,
			AvatarURL:   u.AvatarURL,
			Status:      model.FriendshipPending,
			RequestedAt: &requestedAt,
		})
	}
	return requests, nil
}

func counterpart(e model.Friendship, column string) int64 {
	if column == "user_id" {
		return e.UserID
	}
	return e.FriendID
}

// IsFriend reports whether an accepted edge joins userID and otherID.
func (s *RelationshipService) IsFriend(ctx context.Context, userID, otherID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)) AND status = ?",
			userID, otherID, otherID, userID, model.FriendshipAccepted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}
