// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

/*
Package errors holds the errors returned by authority resolution.

Client side failures (malformed authorities, failed validation, incomplete discovery documents) are
returned as ClientError values carrying a stable Code. Transport failures are returned as CallErr,
which keeps the HTTP request and response for diagnosis:

	if err != nil {
		switch errors.Code(err) {
		case errors.CodeUpnRequiredForValidation:
			// ask for a user principal name and retry
		case "":
			log.Println(errors.Verbose(err))
		}
	}
*/
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kylelemons/godebug/pretty"
)

// Stable error codes carried by ClientError. Instance discovery may also surface the code sent by the
// service, such as "invalid_instance".
const (
	CodeInvalidAuthorityFormat         = "invalid_authority_format"
	CodeInvalidAuthorityPath           = "invalid_authority_path"
	CodeUnsupportedAuthorityType       = "invalid_authority_type"
	CodeB2CAuthorityInvalidPath        = "b2c_authority_invalid_path"
	CodeUnsupportedAuthorityValidation = "unsupported_authority_validation"
	CodeUpnRequiredForValidation       = "upn_required_for_validation"
	CodeInvalidUPN                     = "invalid_upn"
	CodeInvalidAuthority               = "invalid_authority"
	CodeAuthorityValidationFailed      = "authority_validation_failed"
	CodeTenantDiscoveryFailed          = "tenant_discovery_failed"
	CodeInvalidInstance                = "invalid_instance"
	CodeUserRealmDiscoveryFailed       = "user_realm_discovery_failed"
)

var prettyConf = &pretty.Config{IncludeUnexported: false, SkipZeroFields: true, TrackCycles: true}

type verboser interface {
	Verbose() string
}

// Verbose prints the most verbose error that the error message has.
func Verbose(err error) string {
	var v verboser
	if errors.As(err, &v) {
		return v.Verbose()
	}
	return err.Error()
}

// New is equivalent to errors.New().
func New(text string) error {
	return errors.New(text)
}

// ClientError is returned when an authority cannot be used as given. Message never contains PII.
type ClientError struct {
	Code    string
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements error.Error().
func (e *ClientError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *ClientError with the same Code.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Code == e.Code
}

// NewClientError returns a *ClientError with the given code and message.
func NewClientError(code, format string, a ...any) error {
	return &ClientError{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Code returns the Code of the first *ClientError in err's chain, or "" if there is none.
func Code(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// CallErr represents an HTTP call error. Has a Verbose() method that allows getting the
// http.Request and Response objects. Implements error.
type CallErr struct {
	Req *http.Request
	// Resp contains response body
	Resp *http.Response
	Err  error
}

// Errors implements error.Error().
func (e CallErr) Error() string {
	return e.Err.Error()
}

// Unwrap returns the transport error.
func (e CallErr) Unwrap() error {
	return e.Err
}

// Verbose prints a versbose error message with the request or response.
func (e CallErr) Verbose() string {
	var resp *http.Response
	if e.Resp != nil {
		cp := *e.Resp
		// request and TLS state only add noise
		cp.Request = nil
		cp.TLS = nil
		resp = &cp
	}
	return fmt.Sprintf("%s:\nRequest:\n%s\nResponse:\n%s", e.Err, prettyConf.Sprint(e.Req), prettyConf.Sprint(resp))
}
