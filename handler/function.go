package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"young_network/logger"
	"young_network/middleware"
	"young_network/model"
	"young_network/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tracerName = "young_network/handler"

// Request is one dispatched call: the raw event plus the resolved caller.
type Request struct {
	Event    *utils.Event
	Action   string
	CallerID int64
}

// Authenticated reports whether a valid token came with the request.
func (r *Request) Authenticated() bool {
	return r.CallerID > 0
}

// Decode unmarshals the request body into v.
func (r *Request) Decode(v interface{}) error {
	return r.Event.DecodeBody(v)
}

// Self checks a client-supplied user id against the caller. Zero means the
// field was omitted.
func (r *Request) Self(field string, supplied int64) error {
	if supplied != 0 && supplied != r.CallerID {
		return model.NewForbiddenError(field + " does not match the authenticated user")
	}
	return nil
}

// QueryUser resolves a user id query parameter, defaulting to the caller.
func (r *Request) QueryUser(key string) (int64, error) {
	id, err := r.Event.QueryID(key)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		id = r.CallerID
	}
	if id == 0 {
		return 0, model.NewValidationError(key + " is required")
	}
	return id, nil
}

type actionFunc func(ctx context.Context, req *Request) (*utils.Response, error)

type route struct {
	handle actionFunc
	public bool
}

// Function is one independently deployable endpoint. It answers a fixed set
// of methods and dispatches each on an action name.
type Function struct {
	name     string
	db       *gorm.DB
	sessions *middleware.Sessions
	timeout  time.Duration

	methods  []string
	routes   map[string]map[string]route
	defaults map[string]string
}

func newFunction(name string, db *gorm.DB, sessions *middleware.Sessions, timeout time.Duration) *Function {
	return &Function{
		name:     name,
		db:       db,
		sessions: sessions,
		timeout:  timeout,
		routes:   make(map[string]map[string]route),
		defaults: make(map[string]string),
	}
}

// Name is the path segment the function is mounted under.
func (f *Function) Name() string {
	return f.name
}

func (f *Function) on(method, action string, handle actionFunc, public bool) *Function {
	if _, ok := f.routes[method]; !ok {
		f.routes[method] = make(map[string]route)
		f.methods = append(f.methods, method)
	}
	f.routes[method][action] = route{handle: handle, public: public}
	return f
}

// handle registers an authenticated action.
func (f *Function) handle(method, action string, h actionFunc) *Function {
	return f.on(method, action, h, false)
}

// handlePublic registers an action that anonymous callers may use.
func (f *Function) handlePublic(method, action string, h actionFunc) *Function {
	return f.on(method, action, h, true)
}

// fallback sets the action used when a request names none.
func (f *Function) fallback(method, action string) *Function {
	f.defaults[method] = action
	return f
}

func (f *Function) action(ev *utils.Event, method string) (string, error) {
	if method == http.MethodGet || method == http.MethodDelete {
		if action := ev.Query("action"); action != "" {
			return action, nil
		}
		if action := ev.Query("type"); action != "" {
			return action, nil
		}
		return f.defaults[method], nil
	}
	return ev.BodyAction(f.defaults[method])
}

// Handle runs one event through preflight, configuration, dispatch and
// authentication checks. It never returns nil.
func (f *Function) Handle(ctx context.Context, ev *utils.Event) (resp *utils.Response) {
	start := time.Now()
	method := ev.Method()
	action := ""

	if method == http.MethodOptions {
		return utils.Preflight(f.methods...)
	}

	defer func() {
		if rec := recover(); rec != nil {
			resp = utils.FromError(model.NewInternalError(fmt.Errorf("panic: %v", rec)))
		}
		if resp == nil {
			resp = utils.FromError(model.NewInternalError(fmt.Errorf("%s/%s returned no response", f.name, action)))
		}
		elapsed := time.Since(start)
		middleware.RecordFunctionCall(f.name, action, resp.StatusCode, elapsed)
		logger.Log.Info("function call",
			zap.String("function", f.name),
			zap.String("method", method),
			zap.String("action", action),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", elapsed),
		)
	}()

	if f.db == nil {
		return utils.FromError(model.NewConfigurationError())
	}

	routes, ok := f.routes[method]
	if !ok {
		return utils.FromError(model.NewMethodNotAllowedError())
	}

	var err error
	action, err = f.action(ev, method)
	if err != nil {
		return utils.FromError(err)
	}
	r, ok := routes[action]
	if !ok {
		if action == "" {
			return utils.BadRequest("action is required")
		}
		return utils.BadRequest("Unknown action: " + action)
	}

	var span trace.Span
	ctx, span = otel.Tracer(tracerName).Start(ctx, f.name+"."+action, trace.WithAttributes(
		attribute.String("function.name", f.name),
		attribute.String("function.action", action),
		attribute.String("http.request.method", method),
	))
	defer func() {
		if resp != nil {
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			if resp.StatusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
			}
		}
		span.End()
	}()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req := &Request{Event: ev, Action: action}
	if f.sessions != nil {
		userID, sent, err := f.sessions.Authenticate(ctx, ev)
		switch {
		case err != nil && !r.public:
			return utils.FromError(err)
		case err != nil:
			// A stale token must not lock the caller out of login.
			logger.Log.Debug("ignoring invalid token on public action",
				zap.String("function", f.name), zap.String("action", action))
		case sent:
			req.CallerID = userID
		}
	}
	if req.Authenticated() {
		span.SetAttributes(attribute.Int64("user.id", req.CallerID))
	}
	if !r.public && !req.Authenticated() {
		return utils.FromError(model.NewUnauthorizedError("Authentication required"))
	}

	resp, err = r.handle(ctx, req)
	if err != nil {
		span.RecordError(err)
		return utils.FromError(err)
	}
	return resp
}

// success is the body of mutations that return nothing else.
func success() *utils.Response {
	return utils.SuccessResponse(map[string]interface{}{"success": true})
}
