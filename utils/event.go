package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"young_network/model"
)

// Event is the transport-neutral request handed to every function.
type Event struct {
	HTTPMethod            string            `json:"httpMethod"`
	Path                  string            `json:"path,omitempty"`
	Headers               map[string]string `json:"headers"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
	Body                  string            `json:"body"`
	IsBase64Encoded       bool              `json:"isBase64Encoded"`
}

// Method returns the upper-cased HTTP method, defaulting to GET.
func (e *Event) Method() string {
	if e.HTTPMethod == "" {
		return "GET"
	}
	return strings.ToUpper(e.HTTPMethod)
}

// Header looks a header up case-insensitively.
func (e *Event) Header(name string) string {
	if v, ok := e.Headers[name]; ok {
		return v
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func (e *Event) Query(key string) string {
	return strings.TrimSpace(e.QueryStringParameters[key])
}

// QueryID parses an optional numeric query parameter. A missing parameter
// yields 0 and no error.
func (e *Event) QueryID(key string) (int64, error) {
	raw := e.Query(key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(key + " must be a positive integer")
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter with a fallback.
func (e *Event) QueryInt(key string, fallback int) (int, error) {
	raw := e.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, model.NewValidationError(key + " must be a non-negative integer")
	}
	return n, nil
}

func (e *Event) rawBody() ([]byte, error) {
	if e.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(e.Body)
		if err != nil {
			return nil, model.NewValidationError("Invalid request body encoding")
		}
		return decoded, nil
	}
	return []byte(e.Body), nil
}

// DecodeBody unmarshals the JSON body into v. An empty body decodes as {}.
func (e *Event) DecodeBody(v interface{}) error {
	raw, err := e.rawBody()
	if err != nil {
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return model.NewValidationError("Invalid JSON body")
	}
	return nil
}

// BodyAction returns the body's "action" field, or fallback when absent.
func (e *Event) BodyAction(fallback string) (string, error) {
	var probe struct {
		Action string `json:"action"`
	}
	if err := e.DecodeBody(&probe); err != nil {
		return "", err
	}
	if probe.Action == "" {
		return fallback, nil
	}
	return probe.Action, nil
}
