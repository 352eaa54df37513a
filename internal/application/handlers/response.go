// Package handlers is the command boundary shared by the CLI and the tool server.
package handlers

import "github.com/ersonp/folio/internal/domain/errs"

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Response is the envelope every command result is rendered into.
type Response struct {
	Status string        `json:"status"`
	Data   any           `json:"data,omitempty"`
	Error  *errs.Payload `json:"error,omitempty"`
}

// OK wraps a successful result.
func OK(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// Fail wraps an error. Errors without a domain kind are reported as internal
// without their message.
func Fail(err error) Response {
	p := errs.ToPayload(err)
	return Response{Status: StatusError, Error: &p}
}

// Respond builds the envelope for a command result.
func Respond(data any, err error) Response {
	if err != nil {
		return Fail(err)
	}
	return OK(data)
}
