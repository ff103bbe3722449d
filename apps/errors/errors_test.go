// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package errors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestCode(t *testing.T) {
	tests := []struct {
		desc string
		err  error
		want string
	}{
		{desc: "client error", err: NewClientError(CodeInvalidAuthorityPath, "no path"), want: CodeInvalidAuthorityPath},
		{desc: "wrapped client error", err: fmt.Errorf("resolving: %w", NewClientError(CodeTenantDiscoveryFailed, "x")), want: CodeTenantDiscoveryFailed},
		{desc: "service code", err: &ClientError{Code: "invalid_instance", Message: "AADSTS50049"}, want: CodeInvalidInstance},
		{desc: "plain error", err: errors.New("boom"), want: ""},
		{desc: "call error", err: CallErr{Err: errors.New("boom")}, want: ""},
	}

	for _, test := range tests {
		if got := Code(test.err); got != test.want {
			t.Errorf("TestCode(%s): got %q, want %q", test.desc, got, test.want)
		}
	}
}

func TestClientErrorIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewClientError(CodeUpnRequiredForValidation, "upn is required"))
	if !errors.Is(err, &ClientError{Code: CodeUpnRequiredForValidation}) {
		t.Errorf("TestClientErrorIs: errors.Is() returned false for a matching code")
	}
	if errors.Is(err, &ClientError{Code: CodeInvalidUPN}) {
		t.Errorf("TestClientErrorIs: errors.Is() returned true for a different code")
	}
}

func TestClientErrorMessage(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := &ClientError{Code: CodeAuthorityValidationFailed, Message: "webfinger failed", Err: cause}
	if got, want := err.Error(), "authority_validation_failed: webfinger failed"; got != want {
		t.Errorf("TestClientErrorMessage: got %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Errorf("TestClientErrorMessage: cause was not unwrapped")
	}
	if got := (&ClientError{Code: CodeInvalidInstance}).Error(); got != CodeInvalidInstance {
		t.Errorf("TestClientErrorMessage: got %q, want %q", got, CodeInvalidInstance)
	}
}

func TestVerbose(t *testing.T) {
	u, _ := url.Parse("https://login.microsoftonline.com/common/discovery/instance")
	err := fmt.Errorf("discovery: %w", CallErr{
		Req:  &http.Request{Method: http.MethodGet, URL: u},
		Resp: &http.Response{StatusCode: http.StatusBadRequest, Body: io.NopCloser(strings.NewReader(""))},
		Err:  errors.New("reply status code was 400"),
	})

	got := Verbose(err)
	for _, want := range []string{"reply status code was 400", "Request:", "Response:", "StatusCode: 400"} {
		if !strings.Contains(got, want) {
			t.Errorf("TestVerbose: output missing %q:\n%s", want, got)
		}
	}

	if got := Verbose(CallErr{Err: errors.New("no response")}); !strings.Contains(got, "no response") {
		t.Errorf("TestVerbose: nil response not handled: %s", got)
	}
	if got := Verbose(errors.New("plain")); got != "plain" {
		t.Errorf("TestVerbose: got %q, want %q", got, "plain")
	}
}
