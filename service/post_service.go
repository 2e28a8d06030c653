package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"young_network/model"
	"young_network/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

var mediaTypes = map[string]bool{"image": true, "video": true, "audio": true}

// decrementClamped lowers column by one without going below zero.
func decrementClamped(column string) clause.Expr {
	return gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
}

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

type CreatePostInput struct {
	Content   string
	ImageURL  string
	MediaURL  string
	MediaType string
}

type FeedQuery struct {
	Limit    int
	Offset   int
	AuthorID int64
	ViewerID int64
}

func (s *PostService) Create(ctx context.Context, userID int64, in CreatePostInput) (*model.Post, error) {
	content, err := validation.ValidateContent("content", in.Content)
	if err != nil {
		return nil, model.NewValidationError(err.Error())
	}
	mediaType := strings.ToLower(strings.TrimSpace(in.MediaType))
	if in.MediaURL != "" && !mediaTypes[mediaType] {
		return nil, model.NewValidationError("media_type must be image, video or audio")
	}
	if in.MediaURL == "" {
		mediaType = ""
	}

	db := s.db.WithContext(ctx)
	post := &model.Post{
		UserID:    userID,
		Content:   content,
		ImageURL:  optional(strings.TrimSpace(in.ImageURL)),
		MediaURL:  optional(strings.TrimSpace(in.MediaURL)),
		MediaType: optional(mediaType),
	}
	if err := db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	authors, err := loadUsers(db, []int64{userID})
	if err != nil {
		return nil, err
	}
	post.Author = summaryOf(authors, userID)
	return post, nil
}

// ToggleLike likes the post if userID has not, and unlikes it otherwise.
// The counter moves in the same transaction and only when a row changed.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID int64) (*model.LikeState, error) {
	state := &model.LikeState{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}

		deleted := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.Like{})
		if deleted.Error != nil {
			return fmt.Errorf("failed to remove like: %w", deleted.Error)
		}
		if deleted.RowsAffected > 0 {
			if err := tx.Model(&model.Post{}).Where("id = ?", postID).
				UpdateColumn("likes_count", decrementClamped("likes_count")).Error; err != nil {
				return fmt.Errorf("failed to update likes count: %w", err)
			}
			state.Liked = false
		} else {
			inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.Like{PostID: postID, UserID: userID})
			if inserted.Error != nil {
				return fmt.Errorf("failed to add like: %w", inserted.Error)
			}
			if inserted.RowsAffected > 0 {
				if err := tx.Model(&model.Post{}).Where("id = ?", postID).
					UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
					return fmt.Errorf("failed to update likes count: %w", err)
				}
			}
			state.Liked = true
		}

		return tx.Model(&model.Post{}).Select("likes_count").Where("id = ?", postID).
			Scan(&state.LikesCount).Error
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func postExists(tx *gorm.DB, postID int64) error {
	var count int64
	if err := tx.Model(&model.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up post: %w", err)
	}
	if count == 0 {
		return model.NewNotFoundError("Post")
	}
	return nil
}

// AddComment appends a comment and bumps the post's comment counter.
func (s *PostService) AddComment(ctx context.Context, postID, userID int64, content string) (*model.Comment, int64, error) {
	content, err := validation.ValidateContent("content", content)
	if err != nil {
		return nil, 0, model.NewValidationError(err.Error())
	}

	comment := &model.Comment{PostID: postID, UserID: userID, Content: content}
	var commentsCount int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		if err := tx.Model(&model.Post{}).Where("id = ?", postID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to update comments count: %w", err)
		}
		return tx.Model(&model.Post{}).Select("comments_count").Where("id = ?", postID).
			Scan(&commentsCount).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return comment, commentsCount, nil
}

// Feed lists posts newest first, optionally by one author.
func (s *PostService) Feed(ctx context.Context, q FeedQuery) ([]model.Post, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultFeedLimit
	}
	if q.Limit > MaxFeedLimit {
		q.Limit = MaxFeedLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	db := s.db.WithContext(ctx)
	query := db.Order("created_at DESC, id DESC").Limit(q.Limit).Offset(q.Offset)
	if q.AuthorID > 0 {
		query = query.Where("user_id = ?", q.AuthorID)
	}

	posts := make([]model.Post, 0)
	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	if err := s.decorate(db, posts, q.ViewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

// Get returns one post with its comments, oldest comment first.
func (s *PostService) Get(ctx context.Context, postID, viewerID int64) (*model.Post, error) {
	db := s.db.WithContext(ctx)

	var post model.Post
	if err := db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("Post")
		}
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	comments := make([]model.Comment, 0)
	if err := db.Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	ids := []int64{post.UserID}
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	users, err := loadUsers(db, ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Author = summaryOf(users, comments[i].UserID)
	}
	post.Author = summaryOf(users, post.UserID)
	post.Comments = comments

	posts := []model.Post{post}
	if err := s.markLiked(db, posts, viewerID); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *PostService) decorate(db *gorm.DB, posts []model.Post, viewerID int64) error {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	users, err := loadUsers(db, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].Author = summaryOf(users, posts[i].UserID)
	}
	return s.markLiked(db, posts, viewerID)
}

func (s *PostService) markLiked(db *gorm.DB, posts []model.Post, viewerID int64) error {
	if viewerID <= 0 || len(posts) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	var liked []int64
	if err := db.Model(&model.Like{}).Where("user_id = ? AND post_id IN ?", viewerID, ids).
		Pluck("post_id", &liked).Error; err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}
	set := make(map[int64]bool, len(liked))
	for _, id := range liked {
		set[id] = true
	}
	for i := range posts {
		posts[i].Liked = set[posts[i].ID]
	}
	return nil
}
