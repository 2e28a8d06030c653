package utils

import (
	"encoding/json"
	"net/http"
	"strings"

	"young_network/logger"
	"young_network/model"

	"go.uber.org/zap"
)

// AllowedHeaders are the request headers every function accepts cross-origin.
const AllowedHeaders = "Content-Type, X-User-Id, X-Auth-Token"

// Response is the envelope every function returns.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

func jsonHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// JSON encodes data as the response body.
func JSON(status int, data interface{}) *Response {
	body, err := json.Marshal(data)
	if err != nil {
		logger.ErrorWithFields("failed to encode response", err)
		return ErrorResponse(http.StatusInternalServerError, "Internal server error")
	}
	return &Response{StatusCode: status, Headers: jsonHeaders(), Body: string(body)}
}

// SuccessResponse is a 200 with data.
func SuccessResponse(data interface{}) *Response {
	return JSON(http.StatusOK, data)
}

// Created is a 201 with data.
func Created(data interface{}) *Response {
	return JSON(http.StatusCreated, data)
}

// ErrorResponse renders {"error": message}.
func ErrorResponse(status int, message string) *Response {
	body, _ := json.Marshal(map[string]string{"error": message})
	return &Response{StatusCode: status, Headers: jsonHeaders(), Body: string(body)}
}

func BadRequest(message string) *Response {
	return ErrorResponse(http.StatusBadRequest, message)
}

// FromError renders err. Internal failures are logged and reported with a
// generic message only.
func FromError(err error) *Response {
	appErr := model.AsAppError(err)
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError && appErr.Err != nil {
		logger.Log.Error("request failed", zap.String("code", appErr.Code), zap.Error(appErr.Err))
	}
	return ErrorResponse(status, appErr.Message)
}

// Preflight answers a CORS OPTIONS request.
func Preflight(methods ...string) *Response {
	allowed := append(append([]string{}, methods...), http.MethodOptions)
	return &Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": strings.Join(allowed, ", "),
			"Access-Control-Allow-Headers": AllowedHeaders,
			"Access-Control-Max-Age":       "86400",
		},
		Body: "",
	}
}
