// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package location

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by reverse geocoders that have no answer for a coordinate.
var ErrNotFound = errors.New("location not found")

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	// KindUnknown is an unclassified failure.
	KindUnknown ErrorKind = iota
	// ProviderUnavailable means the provider has no credential configured.
	ProviderUnavailable
	// ProviderTransportError covers network failures, timeouts and non-2xx statuses.
	ProviderTransportError
	// ProviderParseError means the response could not be decoded.
	ProviderParseError
	// NoResults is a valid, empty response.
	NoResults
	// Canceled means the caller abandoned the request, e.g. a superseded query.
	Canceled
)

func (k ErrorKind) String() string {
	switch k {
	case ProviderUnavailable:
		return "provider_unavailable"
	case ProviderTransportError:
		return "transport_error"
	case ProviderParseError:
		return "parse_error"
	case NoResults:
		return "no_results"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ProviderError is the error adapters return. The Resolver turns every one of
// them into an empty branch plus a diagnostics report.
type ProviderError struct {
	Kind      ErrorKind
	Provider  Source
	Operation string
	// Status is the HTTP status or the provider's own status string, when there is one.
	Status string
	Err    error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s/%s: %s", e.Provider, e.Operation, e.Kind)
	if e.Status != "" {
		msg += " (" + e.Status + ")"
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match NoResults errors.
func (e *ProviderError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == NoResults
}

// NewProviderError builds a ProviderError.
func NewProviderError(kind ErrorKind, provider Source, op string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Operation: op, Err: err}
}

// WithStatus returns a copy of e carrying the given status.
func (e *ProviderError) WithStatus(status string) *ProviderError {
	c := *e
	c.Status = status

	return &c
}

// KindOf extracts the ErrorKind from an error. Cancellation wins over any
// kind an adapter attached; deadlines are transport errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	if errors.Is(err, ErrNotFound) {
		return NoResults
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ProviderTransportError
	}

	return KindUnknown
}

// IsTimeoutError reports whether err came from a deadline.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// ClassifyHTTPStatus turns a non-2xx HTTP status into a ProviderError.
func ClassifyHTTPStatus(provider Source, op string, statusCode int) *ProviderError {
	var msg string

	switch statusCode {
	case http.StatusTooManyRequests:
		msg = "rate limit reached"
	case http.StatusUnauthorized, http.StatusForbidden:
		msg = "credential rejected or quota exceeded"
	case http.StatusBadRequest:
		msg = "invalid request"
	case http.StatusNotFound:
		return NewProviderError(NoResults, provider, op, ErrNotFound).WithStatus(http.StatusText(statusCode))
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		msg = "service unavailable"
	default:
		msg = "unexpected response"
	}

	return NewProviderError(ProviderTransportError, provider, op, errors.New(msg)).
		WithStatus(fmt.Sprintf("%d", statusCode))
}
