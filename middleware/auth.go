package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"young_network/model"
	"young_network/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

var errTokenRevoked = errors.New("token revoked")

// Claims JWT claims. ID (jti) identifies the session for revocation.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Sessions issues and resolves auth tokens. Logged-out token ids are kept in
// Redis until the token would have expired anyway.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration, rdb *redis.Client) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, rdb: rdb, now: time.Now}
}

// Issue signs a new token for userID.
func (s *Sessions) Issue(userID int64) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Sessions) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// ValidateToken returns the user a live token belongs to.
func (s *Sessions) ValidateToken(ctx context.Context, tokenString string) (int64, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil && claims.ID != "" {
		n, err := s.rdb.Exists(ctx, revokedKeyPrefix+claims.ID).Result()
		if err != nil {
			return 0, model.NewInternalError(fmt.Errorf("failed to check session: %w", err))
		}
		if n > 0 {
			return 0, errTokenRevoked
		}
	}
	return claims.UserID, nil
}

// Revoke invalidates tokenString for the rest of its lifetime.
func (s *Sessions) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return model.NewUnauthorizedError("Invalid token")
	}
	if s.rdb == nil {
		return model.NewInternalError(errors.New("session store not configured"))
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedKeyPrefix+claims.ID, claims.UserID, ttl).Err(); err != nil {
		return model.NewInternalError(fmt.Errorf("failed to revoke session: %w", err))
	}
	return nil
}

// TokenFromEvent reads X-Auth-Token, falling back to an Authorization
// bearer token.
func TokenFromEvent(ev *utils.Event) string {
	if token := strings.TrimSpace(ev.Header("X-Auth-Token")); token != "" {
		return token
	}
	parts := strings.SplitN(ev.Header("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Authenticate resolves the caller of ev. ok is false when no token was sent.
func (s *Sessions) Authenticate(ctx context.Context, ev *utils.Event) (userID int64, ok bool, err error) {
	token := TokenFromEvent(ev)
	if token == "" {
		return 0, false, nil
	}
	userID, err = s.ValidateToken(ctx, token)
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return 0, true, appErr
		}
		return 0, true, model.NewUnauthorizedError("Invalid or expired token")
	}
	return userID, true, nil
}
