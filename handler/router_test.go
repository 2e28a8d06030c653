package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(env *testEnv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	env.router.Mount(r)
	return r
}

func TestMountServesFunctionsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	r := newEngine(env)

	body := `{"action":"register","username":"alice","phone":"+10000000001","password":"Passw0rdX"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	var out registered
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.AuthToken)

	req = httptest.NewRequest(http.MethodGet, "/api/friends?type=friends", nil)
	req.Header.Set("Authorization", "Bearer "+out.AuthToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[]`, w.Body.String())

	req = httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "OPTIONS")

	req = httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFunctionName(t *testing.T) {
	tests := []struct {
		req  events.APIGatewayProxyRequest
		want string
	}{
		{events.APIGatewayProxyRequest{PathParameters: map[string]string{"function": "posts"}, Path: "/x/auth"}, "posts"},
		{events.APIGatewayProxyRequest{Path: "/prod/api/messages"}, "messages"},
		{events.APIGatewayProxyRequest{Path: "/api/music/"}, "music"},
		{events.APIGatewayProxyRequest{Path: "friends"}, "friends"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, functionName(tt.req))
	}
}

func TestLambdaHandler(t *testing.T) {
	env := newTestEnv(t)
	handle := env.router.LambdaHandler()
	ctx := context.Background()

	resp, err := handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/api/auth",
		Body:       `{"action":"register","username":"alice","phone":"+10000000001","password":"Passw0rdX"}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	var out registered
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))

	resp, err = handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/api/notifications",
		Headers:               map[string]string{"x-auth-token": out.AuthToken},
		QueryStringParameters: map[string]string{"user_id": id(out.ID)},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.JSONEq(t, `{"notifications":[],"unread_count":0}`, resp.Body)

	resp, err = handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/nope"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
