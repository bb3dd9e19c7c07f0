// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"errors"
	"fmt"

	"github.com/jeranaias/newsdesk/internal/util"
)

// Error variables for dispatch failures.
var (
	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = errors.New("upstream error")

	// ErrInvalidMode indicates a mode other than chat or assistant.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrMissingReply indicates a 2xx body without reply text.
	ErrMissingReply = errors.New("reply text missing")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// UpstreamError describes a failed backend call: the backend could not be
// reached, answered with a non-2xx status, or sent a body that could not be
// decoded.
type UpstreamError struct {
	// Endpoint is the request path, e.g. "/chat".
	Endpoint string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Message is a short excerpt of the response body, if any.
	Message string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("backend %s", e.Endpoint)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Unwrap returns the underlying cause.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// maxErrorExcerpt bounds how much of an error body ends up in messages.
const maxErrorExcerpt = 200

func excerpt(body []byte) string {
	return util.TruncateWidth(util.OneLine(util.SanitizeText(string(body))), maxErrorExcerpt)
}
