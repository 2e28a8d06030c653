package service

import (
	"context"
	"fmt"
	"strings"

	"young_network/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityService struct {
	db *gorm.DB
}

func NewCommunityService(db *gorm.DB) *CommunityService {
	return &CommunityService{db: db}
}

// List returns all communities, largest first, flagging viewerID's
// memberships.
func (s *CommunityService) List(ctx context.Context, viewerID int64) ([]model.Community, error) {
	db := s.db.WithContext(ctx)

	communities := make([]model.Community, 0)
	if err := db.Order("members_count DESC, id ASC").Find(&communities).Error; err != nil {
		return nil, fmt.Errorf("failed to query communities: %w", err)
	}
	if viewerID <= 0 || len(communities) == 0 {
		return communities, nil
	}

	var joined []int64
	if err := db.Model(&model.CommunityMember{}).Where("user_id = ?", viewerID).
		Pluck("community_id", &joined).Error; err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	member := make(map[int64]bool, len(joined))
	for _, id := range joined {
		member[id] = true
	}
	for i := range communities {
		communities[i].IsMember = member[communities[i].ID]
	}
	return communities, nil
}

// Create makes a community with creatorID as its first member.
func (s *CommunityService) Create(ctx context.Context, creatorID int64, name, description, color string) (*model.Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("name is required")
	}
	if len(name) > 100 {
		return nil, model.NewValidationError("name is too long")
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = model.DefaultCommunityColor
	}

	community := &model.Community{
		Name:         name,
		Description:  strings.TrimSpace(description),
		Color:        color,
		CreatedBy:    creatorID,
		MembersCount: 1,
		IsMember:     true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return fmt.Errorf("failed to create community: %w", err)
		}
		if err := tx.Create(&model.CommunityMember{CommunityID: community.ID, UserID: creatorID}).Error; err != nil {
			return fmt.Errorf("failed to add creator as member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

func communityExists(tx *gorm.DB, communityID int64) error {
	var count int64
	if err := tx.Model(&model.Community{}).Where("id = ?", communityID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up community: %w", err)
	}
	if count == 0 {
		return model.NewNotFoundError("Community")
	}
	return nil
}

func membersCount(tx *gorm.DB, communityID int64) (int64, error) {
	var count int64
	err := tx.Model(&model.Community{}).Select("members_count").Where("id = ?", communityID).Scan(&count).Error
	return count, err
}

// Join adds userID to the community. Joining twice is a conflict; the
// unique membership index decides.
func (s *CommunityService) Join(ctx context.Context, communityID, userID int64) (*model.Membership, error) {
	membership := &model.Membership{CommunityID: communityID, IsMember: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := communityExists(tx, communityID); err != nil {
			return err
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.CommunityMember{CommunityID: communityID, UserID: userID})
		if result.Error != nil {
			return fmt.Errorf("failed to join community: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return model.NewConflictError("Already a member")
		}
		if err := tx.Model(&model.Community{}).Where("id = ?", communityID).
			UpdateColumn("members_count", gorm.Expr("members_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to update members count: %w", err)
		}
		count, err := membersCount(tx, communityID)
		membership.MembersCount = count
		return err
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// Leave removes userID from the community. Leaving a community one is not
// in changes nothing.
func (s *CommunityService) Leave(ctx context.Context, communityID, userID int64) (*model.Membership, error) {
	membership := &model.Membership{CommunityID: communityID, IsMember: false}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := communityExists(tx, communityID); err != nil {
			return err
		}
		result := tx.Where("community_id = ? AND user_id = ?", communityID, userID).Delete(&model.CommunityMember{})
		if result.Error != nil {
			return fmt.Errorf("failed to leave community: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			if err := tx.Model(&model.Community{}).Where("id = ?", communityID).
				UpdateColumn("members_count", decrementClamped("members_count")).Error; err != nil {
				return fmt.Errorf("failed to update members count: %w", err)
			}
		}
		count, err := membersCount(tx, communityID)
		membership.MembersCount = count
		return err
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}
