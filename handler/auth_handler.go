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

// AuthHandler covers accounts: registration, login, sessions and profiles.
type AuthHandler struct {
	userSvc  *service.UserService
	sessions *middleware.Sessions
}

// authResponse is a user with a freshly issued session token.
type authResponse struct {
	*model.User
	AuthToken string `json:"auth_token"`
}

func NewAuthFunction(db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration, userSvc *service.UserService) *Function {
	h := &AuthHandler{userSvc: userSvc, sessions: sessions}
	return newFunction("auth", db, sessions, timeout).
		handlePublic(http.MethodPost, "register", h.Register).
		handlePublic(http.MethodPost, "login", h.Login).
		handle(http.MethodPost, "logout", h.Logout).
		handle(http.MethodPost, "update_profile", h.UpdateProfile).
		handle(http.MethodPost, "update_avatar", h.UpdateAvatar).
		fallback(http.MethodPost, "login").
		handlePublic(http.MethodGet, "profile", h.GetProfile).
		fallback(http.MethodGet, "profile")
}

func (h *AuthHandler) issue(user *model.User, status int) (*utils.Response, error) {
	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	return utils.JSON(status, authResponse{User: user, AuthToken: token}), nil
}

// Register POST action=register
func (h *AuthHandler) Register(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		Username      string `json:"username"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		Password      string `json:"password"`
		FullName      string `json:"full_name"`
		City          string `json:"city"`
		BirthDate     string `json:"birth_date"`
		AgeConfirmed  bool   `json:"age_confirmed"`
		TermsAccepted bool   `json:"terms_accepted"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	user, err := h.userSvc.Register(ctx, service.RegisterInput{
		Username:      body.Username,
		Email:         body.Email,
		Phone:         body.Phone,
		Password:      body.Password,
		FullName:      body.FullName,
		City:          body.City,
		BirthDate:     body.BirthDate,
		AgeConfirmed:  body.AgeConfirmed,
		TermsAccepted: body.TermsAccepted,
	})
	if err != nil {
		return nil, err
	}
	return h.issue(user, http.StatusCreated)
}

// Login POST action=login
func (h *AuthHandler) Login(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	user, err := h.userSvc.Login(ctx, service.LoginInput{
		Username: body.Username,
		Email:    body.Email,
		Phone:    body.Phone,
		Password: body.Password,
	})
	if err != nil {
		return nil, err
	}
	return h.issue(user, http.StatusOK)
}

// Logout POST action=logout
func (h *AuthHandler) Logout(ctx context.Context, req *Request) (*utils.Response, error) {
	if err := h.sessions.Revoke(ctx, middleware.TokenFromEvent(req.Event)); err != nil {
		return nil, err
	}
	return success(), nil
}

// UpdateProfile POST action=update_profile
func (h *AuthHandler) UpdateProfile(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		UserID       int64   `json:"user_id"`
		FullName     *string `json:"full_name"`
		Bio          *string `json:"bio"`
		City         *string `json:"city"`
		BirthDate    *string `json:"birth_date"`
		Email        *string `json:"email"`
		EmailVisible *bool   `json:"email_visible"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}

	profile, err := h.userSvc.UpdateProfile(ctx, req.CallerID, service.ProfileUpdate{
		FullName:     body.FullName,
		Bio:          body.Bio,
		City:         body.City,
		BirthDate:    body.BirthDate,
		Email:        body.Email,
		EmailVisible: body.EmailVisible,
	})
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(profile), nil
}

// UpdateAvatar POST action=update_avatar
func (h *AuthHandler) UpdateAvatar(ctx context.Context, req *Request) (*utils.Response, error) {
	var body struct {
		UserID int64  `json:"user_id"`
		Image  string `json:"image"`
	}
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	if err := req.Self("user_id", body.UserID); err != nil {
		return nil, err
	}

	url, err := h.userSvc.UpdateAvatar(ctx, req.CallerID, body.Image)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(map[string]interface{}{"success": true, "avatar_url": url}), nil
}

// GetProfile GET ?user_id=
func (h *AuthHandler) GetProfile(ctx context.Context, req *Request) (*utils.Response, error) {
	userID, err := req.QueryUser("user_id")
	if err != nil {
		return nil, err
	}
	profile, err := h.userSvc.GetProfile(ctx, userID, req.CallerID)
	if err != nil {
		return nil, err
	}
	return utils.SuccessResponse(profile), nil
}
