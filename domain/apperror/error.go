// Package apperror defines the failure taxonomy shared by the OAuth, publish and
// revoke flows and its mapping onto HTTP status codes.
package apperror

import (
	"context"
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindConfiguration  Kind = "configuration"
	KindAuthentication Kind = "authentication"
	KindTokenExchange  Kind = "token_exchange"
	KindProfileFetch   Kind = "profile_fetch"
	KindPublish        Kind = "publish"
	KindNetwork        Kind = "network"
	KindTimeout        Kind = "timeout"
	KindInternal       Kind = "internal"
)

// Error carries the failure kind, the platform it came from and, for upstream
// rejections, the raw diagnostic payload returned by the platform.
type Error struct {
	Kind     Kind
	Platform string
	Message  string
	Upstream string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Platform != "" {
		msg = e.Platform + ": " + msg
	}
	switch {
	case e.Upstream != "":
		msg += ": " + e.Upstream
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, platform, message string) *Error {
	return &Error{Kind: kind, Platform: platform, Message: message}
}

func Wrap(kind Kind, platform, message string, err error) *Error {
	return &Error{Kind: kind, Platform: platform, Message: message, Err: err}
}

// Upstream builds an error that surfaces the platform's response body verbatim.
func Upstream(kind Kind, platform, message, payload string) *Error {
	return &Error{Kind: kind, Platform: platform, Message: message, Upstream: payload}
}

func Validation(message string) *Error { return New(KindValidation, "", message) }

// KindOf reports the kind of err; context deadlines count as timeouts and
// anything unclassified is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable is true for transport failures only; upstream rejections are never retried.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindTimeout:
		return true
	}
	return false
}

func HTTPStatus(err error) int {
	return StatusForKind(KindOf(err))
}

func StatusForKind(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindTokenExchange, KindProfileFetch, KindPublish, KindNetwork:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
