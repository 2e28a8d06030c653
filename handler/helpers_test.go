package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"young_network/middleware"
	"young_network/service"
	"young_network/testutil"
	"young_network/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	rdb      *redis.Client
	mr       *miniredis.Miniredis
	sessions *middleware.Sessions
	notifSvc *service.NotificationService
	svcs     *Services
	router   *Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	sessions := middleware.NewSessions("handler-test-secret", time.Hour, rdb)
	notifSvc := service.NewNotificationService(db)

	svcs := &Services{
		Users: service.NewUserService(db, notifSvc, testutil.NewMemoryStore(), service.UserOptions{
			AdminPhone: "+10000000000",
			BcryptCost: bcrypt.MinCost,
		}),
		Relationships: service.NewRelationshipService(db, notifSvc),
		Messages:      service.NewMessageService(db),
		Posts:         service.NewPostService(db),
		Playlists:     service.NewPlaylistService(db),
		Communities:   service.NewCommunityService(db),
		Notifications: notifSvc,
		Admin:         service.NewAdminService(db, notifSvc, "+10000000000"),
		Music:         service.NewMusicService(db),
	}
	return &testEnv{
		db:       db,
		rdb:      rdb,
		mr:       mr,
		sessions: sessions,
		notifSvc: notifSvc,
		svcs:     svcs,
		router:   NewRouter(db, sessions, 5*time.Second, svcs),
	}
}

// call dispatches one event. body may be nil, a string, or any JSON value.
func (e *testEnv) call(t *testing.T, function, method, token string, query map[string]string, body interface{}) *utils.Response {
	t.Helper()
	ev := &utils.Event{
		HTTPMethod:            method,
		Headers:               map[string]string{},
		QueryStringParameters: query,
	}
	if token != "" {
		ev.Headers["X-Auth-Token"] = token
	}
	switch b := body.(type) {
	case nil:
	case string:
		ev.Body = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		ev.Body = string(raw)
	}
	resp := e.router.Dispatch(context.Background(), function, ev)
	require.NotNil(t, resp)
	return resp
}

func decode(t *testing.T, resp *utils.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(resp.Body), v), resp.Body)
}

func errorOf(t *testing.T, resp *utils.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	return body.Error
}

type registered struct {
	ID        int64  `json:"id"`
	AuthToken string `json:"auth_token"`
}

func (e *testEnv) register(t *testing.T, username, phone string) registered {
	t.Helper()
	resp := e.call(t, "auth", http.MethodPost, "", nil, map[string]interface{}{
		"action":   "register",
		"username": username,
		"phone":    phone,
		"password": "Passw0rdX",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	var out registered
	decode(t, resp, &out)
	require.NotZero(t, out.ID)
	require.NotEmpty(t, out.AuthToken)
	return out
}

func id(v int64) string {
	return fmt.Sprintf("%d", v)
}
