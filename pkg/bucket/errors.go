// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package bucket

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
)

var (
	// ErrNotFound matches any TransportError whose provider code or HTTP
	// status signals absence.
	ErrNotFound = errors.New("not found")

	ErrInvalidDescriptor = errors.New("invalid bucket descriptor")
)

const (
	codeBucketAlreadyOwnedByYou = "BucketAlreadyOwnedByYou"
	codeBucketAlreadyExists     = "BucketAlreadyExists"
)

var notFoundCodes = map[string]struct{}{
	"NotFound":     {},
	"NoSuchKey":    {},
	"NoSuchBucket": {},
	"404":          {},
}

// TransportError is a failed remote call. Function names the S3 operation,
// Code carries the provider error code when one was returned.
type TransportError struct {
	Function   string
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Function)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Code != "" && !strings.Contains(e.Message, e.Code) {
		b.WriteString(" (")
		b.WriteString(e.Code)
		b.WriteString(")")
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) classify absence.
func (e *TransportError) Is(target error) bool {
	return target == ErrNotFound && e.NotFound()
}

// NotFound reports whether the provider said the resource does not exist.
func (e *TransportError) NotFound() bool {
	if _, ok := notFoundCodes[e.Code]; ok {
		return true
	}
	return e.StatusCode == http.StatusNotFound
}

// transportError classifies err returned by the S3 call named function.
// Errors that are already classified are returned as-is.
func transportError(function string, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	te = &TransportError{
		Function: function,
		Message:  err.Error(),
		Err:      err,
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		te.Code = apiErr.ErrorCode()
		if msg := apiErr.ErrorMessage(); msg != "" {
			te.Message = msg
		}
	}

	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) {
		te.StatusCode = statusErr.HTTPStatusCode()
	}

	return te
}
