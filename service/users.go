package service

import (
	"fmt"
	"sort"

	"young_network/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func userExists(db *gorm.DB, id int64, resource string) error {
	var count int64
	if err := db.Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if count == 0 {
		return model.NewNotFoundError(resource)
	}
	return nil
}

// loadUsers fetches users by id. Missing ids are simply absent from the map.
func loadUsers(db *gorm.DB, ids []int64) (map[int64]model.User, error) {
	users := make(map[int64]model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	var rows []model.User
	if err := db.Where("id IN ?", uniqueIDs(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

// lockUsers row-locks the given users in id order for the rest of tx, so
// concurrent operations on the same pair of users run one after another.
func lockUsers(tx *gorm.DB, ids ...int64) (map[int64]model.User, error) {
	ordered := uniqueIDs(ids)
	var rows []model.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ordered).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to lock users: %w", err)
	}
	users := make(map[int64]model.User, len(rows))
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

func summaryOf(users map[int64]model.User, id int64) *model.UserSummary {
	u, ok := users[id]
	if !ok {
		return nil
	}
	s := u.Summary()
	return &s
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func int64Ptr(v int64) *int64 {
	return &v
}
