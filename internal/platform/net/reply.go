package net

import (
	"net/http"

	perr "cardanoidx/internal/platform/errors"
)

// Wire is the JSON body of every gateway response
// a success carries data; a failure carries kind, error and the offending field
type Wire struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Kind       string `json:"kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Field      string `json:"field,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// Success wraps data in a 200 envelope
func Success(data any, reqID string) (int, Wire) {
	return http.StatusOK, Wire{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		RequestID:  reqID,
		Data:       data,
	}
}

// Failure maps err to its status and error envelope; a nil err is a success with no data
func Failure(err error, reqID string) (int, Wire) {
	if err == nil {
		return Success(nil, reqID)
	}
	p := perr.Describe(err)
	return p.Status, Wire{
		StatusCode: p.Status,
		Status:     http.StatusText(p.Status),
		Kind:       p.Kind,
		Error:      p.Message,
		Field:      p.Field,
		RequestID:  reqID,
	}
}
