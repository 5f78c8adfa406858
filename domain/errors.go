// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type FailureKind int

const (
	TransportFailure = FailureKind(iota + 1)
	ValidationFailure
	ContentDecodingFailure
	ConfigurationFailure
)

func (k FailureKind) String() string {
	switch k {
	case TransportFailure:
		return "transport failure"
	case ValidationFailure:
		return "validation failure"
	case ContentDecodingFailure:
		return "content decoding failure"
	case ConfigurationFailure:
		return "configuration failure"
	}
	return fmt.Sprintf("unknown failure %d", int(k))
}

// Failure is an error of one of the known kinds. Status carries the HTTP status of a transport
// failure and is 0 when no response was received.
type Failure struct {
	Kind   FailureKind
	Status int
	Err    error
}

func NewTransportFailure(status int, err error) *Failure {
	return &Failure{Kind: TransportFailure, Status: status, Err: err}
}

func NewValidationFailure(err error) *Failure {
	return &Failure{Kind: ValidationFailure, Err: err}
}

func NewContentDecodingFailure(err error) *Failure {
	return &Failure{Kind: ContentDecodingFailure, Err: err}
}

func NewConfigurationFailure(err error) *Failure {
	return &Failure{Kind: ConfigurationFailure, Err: err}
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s (%d %s): %v", f.Kind, f.Status, f.Category(), f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Category names the status of a transport failure.
func (f *Failure) Category() string {
	switch f.Status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "invalid credential"
	case http.StatusTooManyRequests:
		return "rate limited"
	}
	return "unclassified"
}

// Hint is a human readable suggestion for the operator, empty if there is none.
func (f *Failure) Hint() string {
	switch f.Status {
	case http.StatusBadRequest:
		return "check the api key and the request format"
	case http.StatusUnauthorized:
		return "check the api key"
	case http.StatusTooManyRequests:
		return "rate limit exceeded, consider a larger Throttle"
	}
	return ""
}

// IsKind reports whether err wraps a Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}
