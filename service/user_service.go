package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"young_network/model"
	"young_network/storage"
	"young_network/utils"
	"young_network/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserOptions are the deployment-level registration rules.
type UserOptions struct {
	AdminPhone     string
	MaxUsers       int
	RequireConsent bool
	BcryptCost     int
}

type UserService struct {
	db       *gorm.DB
	notifSvc *NotificationService
	store    storage.ObjectStore
	opts     UserOptions

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(db *gorm.DB, notifSvc *NotificationService, store storage.ObjectStore, opts UserOptions) *UserService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &UserService{db: db, notifSvc: notifSvc, store: store, opts: opts}
}

type RegisterInput struct {
	Username      string
	Email         string
	Phone         string
	Password      string
	FullName      string
	City          string
	BirthDate     string
	AgeConfirmed  bool
	TermsAccepted bool
}

type LoginInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

type ProfileUpdate struct {
	FullName     *string
	Bio          *string
	City         *string
	BirthDate    *string
	Email        *string
	EmailVisible *bool
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseBirthDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, model.NewValidationError("birth_date must be YYYY-MM-DD")
	}
	return &t, nil
}

// IsAdminPhone reports whether phone is the configured bootstrap admin.
func (s *UserService) IsAdminPhone(phone string) bool {
	return s.opts.AdminPhone != "" && phone == s.opts.AdminPhone
}

// Register creates an account. The unique indexes decide conflicts; there
// is no lookup before the insert.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := validation.NormalizePhone(in.Phone)

	if username == "" && phone == "" {
		return nil, model.NewValidationError("username or phone is required")
	}
	if username != "" {
		if err := validation.ValidateUsername(username); err != nil {
			return nil, model.NewValidationError(err.Error())
		}
	}
	if phone != "" {
		if err := validation.ValidatePhone(phone); err != nil {
			return nil, model.NewValidationError(err.Error())
		}
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, model.NewValidationError(err.Error())
		}
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, model.NewValidationError(err.Error())
	}
	if s.opts.RequireConsent {
		if !in.AgeConfirmed {
			return nil, model.NewValidationError("age_confirmed is required")
		}
		if !in.TermsAccepted {
			return nil, model.NewValidationError("terms_accepted is required")
		}
	}
	birthDate, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	isAdmin := s.IsAdminPhone(phone)
	user := &model.User{
		Username:     optional(username),
		Email:        optional(email),
		Phone:        optional(phone),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		City:         strings.TrimSpace(in.City),
		BirthDate:    birthDate,
		IsAdmin:      isAdmin,
	}

	var notification *model.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.opts.MaxUsers > 0 && !isAdmin {
			var count int64
			if err := tx.Model(&model.User{}).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count users: %w", err)
			}
			if count >= int64(s.opts.MaxUsers) {
				return model.NewForbiddenError("Registration limit reached")
			}
		}

		if err := tx.Create(user).Error; err != nil {
			if utils.IsDuplicateKey(err) {
				return model.NewConflictError("User already exists")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if isAdmin {
			return nil
		}
		admin, err := s.findAdmin(tx)
		if err != nil || admin == nil {
			return err
		}
		request := &model.AdminRequest{RequesterID: user.ID, Status: model.AdminRequestPending}
		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("failed to create admin request: %w", err)
		}
		notification, err = insertNotification(tx, admin.ID, model.NotificationAdminRequest,
			user.DisplayName()+" requested admin access", int64Ptr(user.ID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifSvc.Deliver(ctx, notification)
	return user, nil
}

// findAdmin returns the bootstrap admin account, or nil if it has not
// registered yet.
func (s *UserService) findAdmin(db *gorm.DB) (*model.User, error) {
	if s.opts.AdminPhone == "" {
		return nil, nil
	}
	var admins []model.User
	if err := db.Where("phone = ?", s.opts.AdminPhone).Limit(1).Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
	if len(admins) == 0 {
		return nil, nil
	}
	return &admins[0], nil
}

func (s *UserService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.opts.BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// Login checks credentials. Unknown identifiers and wrong passwords fail
// the same way.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*model.User, error) {
	invalid := model.NewUnauthorizedError("Invalid credentials")

	query := s.db.WithContext(ctx)
	switch {
	case strings.TrimSpace(in.Phone) != "":
		query = query.Where("phone = ?", validation.NormalizePhone(in.Phone))
	case strings.TrimSpace(in.Username) != "":
		query = query.Where("username = ?", strings.TrimSpace(in.Username))
	case strings.TrimSpace(in.Email) != "":
		query = query.Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email)))
	default:
		return nil, model.NewValidationError("username, phone or email is required")
	}
	if in.Password == "" {
		return nil, model.NewValidationError("password is required")
	}

	var users []model.User
	if err := query.Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(users) == 0 {
		s.compareDummy(in.Password)
		return nil, invalid
	}
	user := &users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

// GetUser loads a user row.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewNotFoundError("User")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// GetProfile returns id's profile as seen by viewerID (0 for anonymous).
func (s *UserService) GetProfile(ctx context.Context, id, viewerID int64) (*model.Profile, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	profile := &model.Profile{
		ID:           user.ID,
		Username:     user.Username,
		FullName:     user.FullName,
		BirthDate:    user.BirthDate,
		City:         user.City,
		AvatarURL:    user.AvatarURL,
		Bio:          user.Bio,
		EmailVisible: user.EmailVisible,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
	}
	self := viewerID == user.ID
	if self || user.EmailVisible {
		profile.Email = user.Email
	}
	if self {
		profile.Phone = user.Phone
	}

	if err := db.Model(&model.Friendship{}).
		Where("user_id = ? AND status = ?", id, model.FriendshipAccepted).
		Count(&profile.FriendsCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count friends: %w", err)
	}
	if err := db.Model(&model.CommunityMember{}).Where("user_id = ?", id).
		Count(&profile.CommunitiesCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count communities: %w", err)
	}
	if err := db.Model(&model.Post{}).Where("user_id = ?", id).
		Count(&profile.PostsCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	return profile, nil
}

// UpdateProfile applies the non-nil fields of in.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (*model.Profile, error) {
	updates := map[string]interface{}{}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.City != nil {
		updates["city"] = strings.TrimSpace(*in.City)
	}
	if in.BirthDate != nil {
		birthDate, err := parseBirthDate(strings.TrimSpace(*in.BirthDate))
		if err != nil {
			return nil, err
		}
		updates["birth_date"] = birthDate
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" {
			if err := validation.ValidateEmail(email); err != nil {
				return nil, model.NewValidationError(err.Error())
			}
		}
		updates["email"] = optional(email)
	}
	if in.EmailVisible != nil {
		updates["email_visible"] = *in.EmailVisible
	}
	if len(updates) == 0 {
		return nil, model.NewValidationError("no profile fields to update")
	}

	result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if utils.IsDuplicateKey(result.Error) {
			return nil, model.NewConflictError("Email already in use")
		}
		return nil, fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, model.NewNotFoundError("User")
	}
	return s.GetProfile(ctx, id, id)
}

// UpdateAvatar stores the image and records its URL on the user.
func (s *UserService) UpdateAvatar(ctx context.Context, id int64, payload string) (string, error) {
	avatar, err := DecodeAvatar(payload)
	if err != nil {
		return "", err
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return "", err
	}
	if s.store == nil {
		return "", model.NewInternalError(errors.New("avatar storage is not configured"))
	}

	url, err := s.store.Put(ctx, avatar.Key, avatar.Data, avatar.ContentType)
	if err != nil {
		return "", model.NewInternalError(fmt.Errorf("failed to store avatar: %w", err))
	}

	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("avatar_url", url).Error; err != nil {
		return "", fmt.Errorf("failed to save avatar url: %w", err)
	}
	return url, nil
}
