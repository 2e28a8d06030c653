package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"young_network/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEventHeaderIsCaseInsensitive(t *testing.T) {
	ev := &Event{Headers: map[string]string{"x-auth-token": "abc"}}
	assert.Equal(t, "abc", ev.Header("X-Auth-Token"))
	assert.Equal(t, "", ev.Header("Authorization"))
}

func TestEventMethodDefaultsToGet(t *testing.T) {
	assert.Equal(t, "GET", (&Event{}).Method())
	assert.Equal(t, "POST", (&Event{HTTPMethod: "post"}).Method())
}

func TestEventQueryID(t *testing.T) {
	ev := &Event{QueryStringParameters: map[string]string{"user_id": "42", "bad": "x", "neg": "-1"}}

	id, err := ev.QueryID("user_id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = ev.QueryID("missing")
	require.NoError(t, err)
	assert.Zero(t, id)

	for _, key := range []string{"bad", "neg"} {
		_, err = ev.QueryID(key)
		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, model.CodeValidation, appErr.Code)
	}
}

func TestEventQueryInt(t *testing.T) {
	ev := &Event{QueryStringParameters: map[string]string{"limit": "5"}}
	n, err := ev.QueryInt("limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = ev.QueryInt("offset", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEventDecodeBody(t *testing.T) {
	var req struct {
		Action string `json:"action"`
		UserID int64  `json:"user_id"`
	}

	ev := &Event{Body: `{"action":"send_request","user_id":7}`}
	require.NoError(t, ev.DecodeBody(&req))
	assert.Equal(t, "send_request", req.Action)
	assert.Equal(t, int64(7), req.UserID)

	encoded := &Event{Body: base64.StdEncoding.EncodeToString([]byte(`{"action":"accept"}`)), IsBase64Encoded: true}
	action, err := encoded.BodyAction("")
	require.NoError(t, err)
	assert.Equal(t, "accept", action)

	empty := &Event{}
	action, err = empty.BodyAction("login")
	require.NoError(t, err)
	assert.Equal(t, "login", action)

	broken := &Event{Body: "{not json"}
	assert.Error(t, broken.DecodeBody(&req))
}

func TestJSONResponseEnvelope(t *testing.T) {
	resp := Created(map[string]int{"id": 1})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.JSONEq(t, `{"id":1}`, resp.Body)
	assert.False(t, resp.IsBase64Encoded)
}

func TestPreflight(t *testing.T) {
	resp := Preflight(http.MethodGet, http.MethodPost)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Equal(t, "GET, POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	assert.Equal(t, "Content-Type, X-User-Id, X-Auth-Token", resp.Headers["Access-Control-Allow-Headers"])
	assert.Equal(t, "86400", resp.Headers["Access-Control-Max-Age"])
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"Validation", model.NewValidationError("content required"), http.StatusBadRequest, "content required"},
		{"Wrapped Conflict", fmt.Errorf("join: %w", model.NewConflictError("Already a member")), http.StatusConflict, "Already a member"},
		{"Method", model.NewMethodNotAllowedError(), http.StatusMethodNotAllowed, "Method not allowed"},
		{"Configuration", model.NewConfigurationError(), http.StatusInternalServerError, "Database configuration error"},
		{"Raw Storage Error", errors.New(`pq: relation "users" does not exist`), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, tt.wantBody, body["error"])
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, IsDuplicateKey(gorm.ErrRecordNotFound))
}
