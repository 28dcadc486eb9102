// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package manager

import (
	"errors"
	"fmt"
)

// ErrDriverNotResolved matches every error returned when a manager cannot
// produce a driver.
var ErrDriverNotResolved = errors.New("driver not resolved")

// Code classifies why a driver could not be resolved.
type Code string

const (
	// CodeNoDefaultDriver means no name was given and no default is configured.
	CodeNoDefaultDriver Code = "no_default_driver"
	// CodeUnsupportedDriver means no creator or factory method matches the name.
	CodeUnsupportedDriver Code = "unsupported_driver"
	// CodeInvalidDriver means a factory method has the wrong signature or
	// returned a value of the wrong type.
	CodeInvalidDriver Code = "invalid_driver"
)

// Error is returned by Manager.Driver.
type Error struct {
	Code     Code              // Machine-readable reason
	Message  string            // English message for logs
	Metadata map[string]string // "manager" and "driver", for templating
	Cause    error             // Creator error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches ErrDriverNotResolved and any *Error with the same code.
func (e *Error) Is(target error) bool {
	if target == ErrDriverNotResolved {
		return e.Code != ""
	}
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// MessageID is the translation key for this error.
func (e *Error) MessageID() string {
	return "errors.driver." + string(e.Code)
}

// TemplateData exposes Metadata for message templates.
func (e *Error) TemplateData() map[string]any {
	out := make(map[string]any, len(e.Metadata))
	for k, v := range e.Metadata {
		out[k] = v
	}
	return out
}

func newError(code Code, managerName, driver string, cause error) *Error {
	var msg string
	switch code {
	case CodeNoDefaultDriver:
		msg = "no default driver configured"
	case CodeInvalidDriver:
		msg = fmt.Sprintf("driver %q has an invalid factory", driver)
	default:
		msg = fmt.Sprintf("driver %q is not supported", driver)
	}
	if managerName != "" {
		msg = managerName + ": " + msg
	}
	return &Error{
		Code:     code,
		Message:  msg,
		Metadata: map[string]string{"manager": managerName, "driver": driver},
		Cause:    cause,
	}
}
