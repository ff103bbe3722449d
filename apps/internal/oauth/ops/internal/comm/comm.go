// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package comm provides helpers for communicating with HTTP backends.
package comm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"runtime"

	"github.com/AzureAD/msal-instance-go/apps/errors"
	"github.com/AzureAD/msal-instance-go/apps/internal/version"
	"github.com/google/uuid"
)

// HTTPClient represents an HTTP client.
// It's usually an *http.Client from the standard library.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)

	// CloseIdleConnections closes any idle connections in a "keep-alive" state.
	CloseIdleConnections()
}

// Client provides a wrapper to our *http.Client that handles serialization needs.
type Client struct {
	client HTTPClient
}

// New returns a new Client object.
func New(httpClient HTTPClient) *Client {
	if httpClient == nil {
		panic("http.Client cannot == nil")
	}

	return &Client{client: httpClient}
}

// JSONCall connects to the REST endpoint passing the HTTP query values, headers and JSON conversion
// of body in the HTTP body. A nil body makes the call a GET. The response is JSON unmarshalled into
// resp, which must be a pointer to a struct.
func (c *Client) JSONCall(ctx context.Context, endpoint string, headers http.Header, qv url.Values, body, resp interface{}) error {
	if qv == nil {
		qv = url.Values{}
	}

	v := reflect.ValueOf(resp)
	if err := c.checkResp(v); err != nil {
		return err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("could not parse path URL(%s): %w", endpoint, err)
	}
	// endpoints such as the DRS contract carry their own query string
	merged := u.Query()
	for k, vals := range qv {
		for _, val := range vals {
			merged.Add(k, val)
		}
	}
	u.RawQuery = merged.Encode()

	headers = addStdHeaders(headers)

	req := &http.Request{Method: http.MethodGet, URL: u, Header: headers}

	if body != nil {
		headers.Set("Content-Type", "application/json; charset=utf-8")
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bug: conn.Call(): could not marshal the body object: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewBuffer(data))
		req.Method = http.MethodPost
	}

	data, err := c.do(ctx, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, resp); err != nil {
		return fmt.Errorf("json decode error: %w\njson message bytes were: %s", err, string(data))
	}
	return nil
}

func (c *Client) checkResp(v reflect.Value) error {
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("bug: resp argument must a *struct, was %T", v.Interface())
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("bug: resp argument must be a *struct, was %T", v.Interface())
	}
	return nil
}

// do makes the HTTP call to the server and returns the contents of the body. On a non-200 reply the
// returned errors.CallErr holds a response whose Body can still be read.
func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req = req.WithContext(ctx)

	reply, err := c.client.Do(req)
	if err != nil {
		return nil, errors.CallErr{
			Req: req,
			Err: fmt.Errorf("server response error:\n %w", err),
		}
	}
	defer reply.Body.Close()

	data, err := io.ReadAll(reply.Body)
	if err != nil {
		return nil, errors.CallErr{
			Req:  req,
			Resp: reply,
			Err:  fmt.Errorf("could not read the body of an HTTP Response: %w", err),
		}
	}
	reply.Body = io.NopCloser(bytes.NewReader(data))

	if reply.StatusCode != http.StatusOK {
		return nil, errors.CallErr{
			Req:  req,
			Resp: reply,
			Err:  fmt.Errorf("http call(%s)(%s) error: reply status code was %d:\n%s", req.URL.String(), req.Method, reply.StatusCode, string(data)),
		}
	}

	return data, nil
}

// testID is set by tests to make the client-request-id header predictable.
var testID string

// addStdHeaders adds the standard headers we use on all calls.
func addStdHeaders(headers http.Header) http.Header {
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Accept", "application/json")
	headers.Set("x-client-sku", "MSAL.Go")
	headers.Set("x-client-os", runtime.GOOS)
	headers.Set("x-client-cpu", runtime.GOARCH)
	headers.Set("x-client-ver", version.Version)
	if headers.Get("client-request-id") == "" {
		id := testID
		if id == "" {
			id = uuid.New().String()
		}
		headers.Set("client-request-id", id)
	}
	headers.Set("return-client-request-id", "false")
	return headers
}
