package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"young_network/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestPreflightListsMethods(t *testing.T) {
	env := newTestEnv(t)

	resp := env.call(t, "messages", http.MethodOptions, "", nil, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	methods := resp.Headers["Access-Control-Allow-Methods"]
	for _, m := range []string{"GET", "POST", "PUT", "OPTIONS"} {
		assert.Contains(t, methods, m)
	}
	assert.Equal(t, "86400", resp.Headers["Access-Control-Max-Age"])
	assert.Contains(t, resp.Headers["Access-Control-Allow-Headers"], "X-Auth-Token")
}

func TestMissingDatabaseIsConfigurationError(t *testing.T) {
	env := newTestEnv(t)
	router := NewRouter(nil, env.sessions, time.Second, env.svcs)

	env.router = router
	resp := env.call(t, "friends", http.MethodGet, "", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Database configuration error", errorOf(t, resp))

	// Preflight still works without a database.
	resp = env.call(t, "friends", http.MethodOptions, "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDispatchRejections(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "+10000000001")

	tests := []struct {
		name     string
		function string
		method   string
		token    string
		query    map[string]string
		body     interface{}
		status   int
		message  string
	}{
		{"unknown function", "nope", http.MethodGet, "", nil, nil, http.StatusNotFound, "Function nope not found"},
		{"method not allowed", "friends", http.MethodPatch, alice.AuthToken, nil, nil, http.StatusMethodNotAllowed, "Method not allowed"},
		{"unknown action", "friends", http.MethodPost, alice.AuthToken, nil, map[string]string{"action": "bogus"}, http.StatusBadRequest, "Unknown action: bogus"},
		{"no default action", "friends", http.MethodPost, alice.AuthToken, nil, map[string]string{}, http.StatusBadRequest, "action is required"},
		{"invalid json", "messages", http.MethodPost, alice.AuthToken, nil, "{not json", http.StatusBadRequest, ""},
		{"anonymous", "friends", http.MethodGet, "", nil, nil, http.StatusUnauthorized, "Authentication required"},
		{"bad token", "friends", http.MethodGet, "garbage", nil, nil, http.StatusUnauthorized, "Invalid or expired token"},
		{"other user's id", "messages", http.MethodPost, alice.AuthToken, nil,
			map[string]interface{}{"sender_id": alice.ID + 100, "receiver_id": 1, "content": "x"},
			http.StatusForbidden, "sender_id does not match the authenticated user"},
		{"invalid query id", "friends", http.MethodGet, alice.AuthToken, map[string]string{"user_id": "abc"}, nil, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.call(t, tt.function, tt.method, tt.token, tt.query, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, resp.Body)
			if tt.message != "" {
				assert.Equal(t, tt.message, errorOf(t, resp))
			}
		})
	}
}

func TestGetActionFromTypeParameter(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "root", "+10000000000")
	env.register(t, "bob", "+10000000002")

	resp := env.call(t, "notifications", http.MethodGet, admin.AuthToken, map[string]string{"type": "admin_requests"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	var out struct {
		Requests []model.AdminRequest `json:"requests"`
	}
	decode(t, resp, &out)
	require.Len(t, out.Requests, 1)
	assert.Equal(t, model.AdminRequestPending, out.Requests[0].Status)
}

func TestPublicActionsAcceptAnonymousCallers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "+10000000001")

	resp := env.call(t, "communities", http.MethodGet, "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Body, `{"communities":`), resp.Body)

	resp = env.call(t, "auth", http.MethodGet, "", map[string]string{"user_id": id(alice.ID)}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	resp = env.call(t, "auth", http.MethodGet, "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDispatchRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	env := newTestEnv(t)
	alice := env.register(t, "alice", "+10000000001")
	resp := env.call(t, "friends", http.MethodGet, alice.AuthToken, map[string]string{"type": "pending"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, s := range recorder.Ended() {
		if s.Name() != "friends.pending" {
			continue
		}
		found = true
		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range s.Attributes() {
			attrs[kv.Key] = kv.Value
		}
		assert.Equal(t, "friends", attrs["function.name"].AsString())
		assert.Equal(t, alice.ID, attrs["user.id"].AsInt64())
		assert.EqualValues(t, http.StatusOK, attrs["http.response.status_code"].AsInt64())
	}
	assert.True(t, found)
}
