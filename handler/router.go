package handler

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"young_network/middleware"
	"young_network/model"
	"young_network/service"
	"young_network/utils"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services bundles what the functions call into.
type Services struct {
	Users         *service.UserService
	Relationships *service.RelationshipService
	Messages      *service.MessageService
	Posts         *service.PostService
	Playlists     *service.PlaylistService
	Communities   *service.CommunityService
	Notifications *service.NotificationService
	Admin         *service.AdminService
	Music         *service.MusicService
}

// Router maps function names to functions.
type Router struct {
	functions map[string]*Function
}

func NewRouter(db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration, svcs *Services) *Router {
	r := &Router{functions: make(map[string]*Function)}
	for _, f := range []*Function{
		NewAuthFunction(db, sessions, timeout, svcs.Users),
		NewFriendsFunction(db, sessions, timeout, svcs.Relationships),
		NewMessagesFunction(db, sessions, timeout, svcs.Messages),
		NewPostsFunction(db, sessions, timeout, svcs.Posts, svcs.Playlists),
		NewCommunitiesFunction(db, sessions, timeout, svcs.Communities),
		NewNotificationsFunction(db, sessions, timeout, svcs.Notifications, svcs.Admin),
		NewMusicFunction(db, sessions, timeout, svcs.Music),
	} {
		r.functions[f.Name()] = f
	}
	return r
}

// Function returns the named function, or nil.
func (r *Router) Function(name string) *Function {
	return r.functions[name]
}

// Dispatch hands ev to the named function.
func (r *Router) Dispatch(ctx context.Context, name string, ev *utils.Event) *utils.Response {
	f, ok := r.functions[name]
	if !ok {
		return utils.FromError(model.NewNotFoundError("Function " + name))
	}
	return f.Handle(ctx, ev)
}

func firstValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Mount serves every function at /api/<name>.
func (r *Router) Mount(group gin.IRoutes) {
	group.Any("/api/:function", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		ev := &utils.Event{
			HTTPMethod:            c.Request.Method,
			Path:                  c.Request.URL.Path,
			Headers:               firstValues(c.Request.Header),
			QueryStringParameters: firstValues(c.Request.URL.Query()),
			Body:                  string(body),
		}
		writeResponse(c, r.Dispatch(c.Request.Context(), c.Param("function"), ev))
	})
}

func writeResponse(c *gin.Context, resp *utils.Response) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		if decoded, err := base64.StdEncoding.DecodeString(resp.Body); err == nil {
			body = decoded
		}
	}
	contentType := resp.Headers["Content-Type"]
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	c.Data(resp.StatusCode, contentType, body)
}

// functionName picks the function from an API Gateway request: the
// {function} path parameter, else the last path segment.
func functionName(req events.APIGatewayProxyRequest) string {
	if name := req.PathParameters["function"]; name != "" {
		return name
	}
	path := strings.TrimRight(req.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// LambdaHandler adapts the router to API Gateway proxy events.
func (r *Router) LambdaHandler() func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		ev := &utils.Event{
			HTTPMethod:            req.HTTPMethod,
			Path:                  req.Path,
			Headers:               req.Headers,
			QueryStringParameters: req.QueryStringParameters,
			Body:                  req.Body,
			IsBase64Encoded:       req.IsBase64Encoded,
		}
		resp := r.Dispatch(ctx, functionName(req), ev)
		return events.APIGatewayProxyResponse{
			StatusCode:      resp.StatusCode,
			Headers:         resp.Headers,
			Body:            resp.Body,
			IsBase64Encoded: resp.IsBase64Encoded,
		}, nil
	}
}
