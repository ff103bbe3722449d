// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package mock provides an HTTP client returning canned discovery replies, for tests that drive
// resolution end to end.
package mock

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type response struct {
	body     []byte
	callback func(*http.Request)
	code     int
	headers  http.Header
}

type responseOption interface {
	apply(*response)
}

type respOpt func(*response)

func (fn respOpt) apply(r *response) {
	fn(r)
}

// WithBody sets the HTTP response's body to the specified value.
func WithBody(b []byte) responseOption {
	return respOpt(func(r *response) {
		r.body = b
	})
}

// WithCallback sets a callback to invoke before returning the response.
func WithCallback(callback func(*http.Request)) responseOption {
	return respOpt(func(r *response) {
		r.callback = callback
	})
}

// WithHTTPHeader sets the HTTP headers of the response to the specified value.
func WithHTTPHeader(header http.Header) responseOption {
	return respOpt(func(r *response) {
		r.headers = header
	})
}

// WithHTTPStatusCode sets the HTTP statusCode of response to the specified value.
func WithHTTPStatusCode(statusCode int) responseOption {
	return respOpt(func(r *response) {
		r.code = statusCode
	})
}

// Client is a mock HTTP client that returns a sequence of responses. Use AppendResponse to specify the sequence.
// It is safe for concurrent use.
type Client struct {
	mu    sync.Mutex
	resp  []response
	calls []string
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) AppendResponse(opts ...responseOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := response{code: http.StatusOK, headers: http.Header{}}
	for _, o := range opts {
		o.apply(&r)
	}
	c.resp = append(c.resp, r)
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.resp) == 0 {
		panic(fmt.Sprintf(`no response for "%s"`, req.URL.String()))
	}
	resp := c.resp[0]
	c.resp = c.resp[1:]
	c.calls = append(c.calls, req.URL.Scheme+"://"+req.URL.Host+req.URL.Path)
	if resp.callback != nil {
		resp.callback(req)
	}
	res := http.Response{Header: resp.headers, StatusCode: resp.code, Request: req}
	res.Body = io.NopCloser(bytes.NewReader(resp.body))
	return &res, nil
}

// Calls returns the URLs requested so far, without their query strings.
func (c *Client) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Pending returns the number of responses not yet consumed.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.resp)
}

// CloseIdleConnections implements the comm.HTTPClient interface
func (*Client) CloseIdleConnections() {}

// GetIDToken returns an HS256 signed ID token carrying tenant in its "tid" claim.
func GetIDToken(tenant, issuer string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"aud": "client",
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
		"iss": issuer,
		"tid": tenant,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("mock"))
	if err != nil {
		panic(err)
	}
	return s
}

// GetInstanceDiscoveryBody returns an instance discovery reply for host whose metadata lists aliases.
// host is always listed first.
func GetInstanceDiscoveryBody(host, tenant string, aliases ...string) []byte {
	authority := fmt.Sprintf("https://%s/%s", host, tenant)
	all := append([]string{host}, aliases...)
	body := fmt.Sprintf(`{"tenant_discovery_endpoint": "%s/v2.0/.well-known/openid-configuration","api-version": "1.1","metadata": [{"preferred_network": "%s","preferred_cache": "%s","aliases": ["%s"]}]}`,
		authority, host, host, strings.Join(all, `","`),
	)
	return []byte(body)
}

// GetErrorBody returns an OAuth error reply.
func GetErrorBody(code, description string) []byte {
	return []byte(fmt.Sprintf(`{"error": "%s","error_description": "%s","error_codes": [50049],"correlation_id": "d2fa3d58-0a1d-4d1d-b4cd-6b9b0d5f1a2e"}`, code, description))
}

// GetTenantDiscoveryBody returns an OpenID configuration for https://host/tenant. Passing
// "{tenant}" as tenant yields a document with the tenant placeholder.
func GetTenantDiscoveryBody(host, tenant string) []byte {
	authority := fmt.Sprintf("https://%s/%s", host, tenant)
	content := strings.ReplaceAll(`{"token_endpoint": "{authority}/oauth2/v2.0/token",
		"token_endpoint_auth_methods_supported": [
			"client_secret_post",
			"private_key_jwt",
			"client_secret_basic"
		],
		"jwks_uri": "{authority}/discovery/v2.0/keys",
		"response_modes_supported": [
			"query",
			"fragment",
			"form_post"
		],
		"subject_types_supported": [
			"pairwise"
		],
		"id_token_signing_alg_values_supported": [
			"RS256"
		],
		"issuer": "{authority}/v2.0",
		"request_uri_parameter_supported": false,
		"authorization_endpoint": "{authority}/oauth2/v2.0/authorize",
		"device_authorization_endpoint": "{authority}/oauth2/v2.0/devicecode",
		"http_logout_supported": true,
		"frontchannel_logout_supported": true,
		"end_session_endpoint": "{authority}/oauth2/v2.0/logout",
		"tenant_region_scope": "NA",
		"cloud_instance_name": "microsoftonline.com",
		"cloud_graph_host_name": "graph.windows.net",
		"msgraph_host": "graph.microsoft.com"
	}`, "{authority}", authority)
	return []byte(content)
}

// GetADFSTenantDiscoveryBody returns an ADFS OpenID configuration for https://host/adfs.
func GetADFSTenantDiscoveryBody(host string) []byte {
	return []byte(strings.ReplaceAll(`{"issuer": "https://{host}/adfs",
		"authorization_endpoint": "https://{host}/adfs/oauth2/authorize/",
		"token_endpoint": "https://{host}/adfs/oauth2/token/",
		"end_session_endpoint": "https://{host}/adfs/oauth2/logout",
		"jwks_uri": "https://{host}/adfs/discovery/keys",
		"access_token_issuer": "http://{host}/adfs/services/trust"
	}`, "{host}", host))
}

// GetDRSBody returns a device registration contract naming the ADFS server at adfsHost.
func GetDRSBody(adfsHost string) []byte {
	return []byte(fmt.Sprintf(`{"DeviceRegistrationService": {"RegistrationEndpoint": "https://%[1]s/EnrollmentServer/DeviceEnrollmentWebService.svc","RegistrationResourceId": "urn:ms-drs:%[1]s","ServiceVersion": "1.0"},
		"AuthenticationService": {"OAuth2": {"AuthCodeEndpoint": "https://%[1]s/adfs/oauth2/authorize","TokenEndpoint": "https://%[1]s/adfs/oauth2/token"}},
		"IdentityProviderService": {"PassiveAuthEndpoint": "https://%[1]s/adfs/ls"}}`, adfsHost))
}

// GetWebFingerBody returns a WebFinger reply from adfsHost vouching for each of realms.
func GetWebFingerBody(adfsHost string, realms ...string) []byte {
	links := make([]string, 0, len(realms))
	for _, r := range realms {
		links = append(links, fmt.Sprintf(`{"rel": "http://schemas.microsoft.com/rel/trusted-realm","href": "%s"}`, r))
	}
	return []byte(fmt.Sprintf(`{"subject": "https://%s","links": [%s]}`, adfsHost, strings.Join(links, ",")))
}

// GetUserRealmBody returns a user realm reply. A non-empty adfsHost makes the account federated.
func GetUserRealmBody(domain, adfsHost string) []byte {
	if adfsHost == "" {
		return []byte(fmt.Sprintf(`{"ver": "1.0","account_type": "Managed","domain_name": "%s","cloud_instance_name": "microsoftonline.com","cloud_audience_urn": "urn:federation:MicrosoftOnline"}`, domain))
	}
	return []byte(fmt.Sprintf(`{"ver": "1.0","account_type": "Federated","domain_name": "%s","federation_protocol": "WSTrust","federation_metadata_url": "https://%s/adfs/services/trust/mex","federation_active_auth_url": "https://%s/adfs/services/trust/2005/usernamemixed","cloud_instance_name": "microsoftonline.com","cloud_audience_urn": "urn:federation:MicrosoftOnline"}`, domain, adfsHost, adfsHost))
}
