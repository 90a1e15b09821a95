// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"net/http"
)

// New creates a RodentError for a registered code. Unknown codes fall back
// to a generic internal error definition.
func New(code ErrorCode, details string) *RodentError {
	def, ok := errorDefinitions[code]
	if !ok {
		def = errorDefinitions[ServerInternalError]
	}
	return &RodentError{
		Code:       code,
		Domain:     def.domain,
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
		Metadata:   make(map[string]string),
	}
}

// Wrap converts err into a RodentError with the given code. When err is
// already a RodentError its metadata is carried over and the original code is
// recorded as metadata, so the most specific context survives re-wrapping.
func Wrap(err error, code ErrorCode) *RodentError {
	if err == nil {
		return New(code, "")
	}

	var re *RodentError
	if stderrors.As(err, &re) {
		wrapped := New(code, re.Details)
		if re.Details == "" {
			wrapped.Details = re.Message
		}
		maps.Copy(wrapped.Metadata, re.Metadata)
		if re.Code != code {
			wrapped.Metadata["cause_code"] = fmt.Sprintf("%d", re.Code)
			wrapped.Metadata["cause"] = re.Message
		}
		wrapped.cause = re
		return wrapped
	}

	wrapped := New(code, err.Error())
	wrapped.cause = err
	return wrapped
}

// WithMetadata attaches a key/value pair and returns the receiver for chaining
func (e *RodentError) WithMetadata(key, value string) *RodentError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// WithDetails replaces the details string
func (e *RodentError) WithDetails(details string) *RodentError {
	e.Details = details
	return e
}

func (e *RodentError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s-%d] %s: %s", e.Domain, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As
func (e *RodentError) Unwrap() error {
	return e.cause
}

// Is reports whether err (or anything it wraps) is a RodentError with code
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var re *RodentError
		if !stderrors.As(err, &re) {
			return false
		}
		if re.Code == code {
			return true
		}
		err = re.cause
	}
	return false
}

// CodeOf returns the code of the outermost RodentError, or zero
func CodeOf(err error) ErrorCode {
	var re *RodentError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return 0
}

// HTTPStatusOf returns the HTTP status for err, defaulting to 500
func HTTPStatusOf(err error) int {
	var re *RodentError
	if stderrors.As(err, &re) && re.HTTPStatus != 0 {
		return re.HTTPStatus
	}
	return http.StatusInternalServerError
}
