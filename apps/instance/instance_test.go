// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package instance

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/AzureAD/msal-instance-go/apps/errors"
	"github.com/AzureAD/msal-instance-go/apps/internal/mock"
	"github.com/kylelemons/godebug/pretty"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const (
	testTenantID = "9188040d-6c67-4c5b-b112-36a304b66dad"
	testUPN      = "user@fabrikam.com"
)

func newTestResolver(t *testing.T, client *mock.Client, options ...Option) *Resolver {
	t.Helper()
	opts := append([]Option{WithHTTPClient(client), WithCache(NewCache())}, options...)
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("New(): got err == %s, want err == nil", err)
	}
	return r
}

func expectURL(t *testing.T, want string) func(*http.Request) {
	return func(r *http.Request) {
		got := r.URL.Scheme + "://" + r.URL.Host + r.URL.Path
		if got != want {
			t.Errorf("request URL: got %s, want %s", got, want)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(WithCache(nil)); err == nil {
		t.Errorf("TestNew(nil cache): got err == nil, want err != nil")
	}
	r, err := New()
	if err != nil {
		t.Fatalf("TestNew(defaults): got err == %s, want err == nil", err)
	}
	if r.client == nil {
		t.Errorf("TestNew(defaults): resolver has no client")
	}
}

func TestNewTransportSpans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(mock.GetTenantDiscoveryBody("login.microsoftonline.com", "{tenant}"))
	}))
	defer srv.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	client := &http.Client{Transport: newTransport(tp)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if n := len(recorder.Ended()); n != 1 {
		t.Errorf("TestNewTransportSpans: got %d spans, want 1", n)
	}
}

func TestCreateAuthority(t *testing.T) {
	tests := []struct {
		desc      string
		authority string
		wantType  AuthorityType
		wantURI   string
		wantCode  string
	}{
		{
			desc:      "AAD",
			authority: "https://login.microsoftonline.com/Contoso.onmicrosoft.com",
			wantType:  AAD,
			wantURI:   "https://login.microsoftonline.com/contoso.onmicrosoft.com/",
		},
		{
			desc:      "B2C",
			authority: "https://contoso.b2clogin.com/tfp/contoso.onmicrosoft.com/B2C_1_SignIn",
			wantType:  B2C,
			wantURI:   "https://contoso.b2clogin.com/tfp/contoso.onmicrosoft.com/b2c_1_signin/",
		},
		{desc: "Error: ADFS", authority: "https://fs.contoso.com/adfs/", wantCode: errors.CodeUnsupportedAuthorityType},
		{desc: "Error: B2C without policy", authority: "https://contoso.b2clogin.com/tfp/contoso/", wantCode: errors.CodeB2CAuthorityInvalidPath},
		{desc: "Error: empty", authority: "", wantCode: errors.CodeInvalidAuthorityFormat},
		{desc: "Error: http", authority: "http://login.microsoftonline.com/common/", wantCode: errors.CodeInvalidAuthorityFormat},
	}

	// no responses: creating an authority must not touch the network
	r := newTestResolver(t, mock.NewClient())
	for _, test := range tests {
		a, err := r.CreateAuthority(test.authority, true)
		if test.wantCode != "" {
			if errors.Code(err) != test.wantCode {
				t.Errorf("TestCreateAuthority(%s): got err %v, want code %s", test.desc, err, test.wantCode)
			}
			continue
		}
		if err != nil {
			t.Errorf("TestCreateAuthority(%s): got err == %s, want err == nil", test.desc, err)
			continue
		}
		if a.Type() != test.wantType || a.CanonicalAuthority() != test.wantURI || !a.ValidateAuthority() || a.Resolved() {
			t.Errorf("TestCreateAuthority(%s): got type %s uri %s validate %v resolved %v", test.desc, a.Type(), a.CanonicalAuthority(), a.ValidateAuthority(), a.Resolved())
		}
		if a.TokenEndpoint() != "" {
			t.Errorf("TestCreateAuthority(%s): unresolved authority has token endpoint %s", test.desc, a.TokenEndpoint())
		}
	}
}

func TestDetectAuthorityType(t *testing.T) {
	tests := []struct {
		authority string
		want      AuthorityType
		err       bool
	}{
		{authority: "https://fs.contoso.com/ADFS", want: ADFS},
		{authority: "https://contoso.b2clogin.com/TFP/contoso/policy", want: B2C},
		{authority: "https://login.microsoftonline.com/common", want: AAD},
		{authority: "https://login.microsoftonline.com", err: true},
	}

	for _, test := range tests {
		got, err := DetectAuthorityType(test.authority)
		switch {
		case err == nil && test.err:
			t.Errorf("TestDetectAuthorityType(%s): got err == nil, want err != nil", test.authority)
		case err != nil && !test.err:
			t.Errorf("TestDetectAuthorityType(%s): got err == %s, want err == nil", test.authority, err)
		case got != test.want:
			t.Errorf("TestDetectAuthorityType(%s): got %s, want %s", test.authority, got, test.want)
		}
	}
}

func TestResolveEndpointsTrustedHost(t *testing.T) {
	client := mock.NewClient()
	client.AppendResponse(
		mock.WithBody(mock.GetTenantDiscoveryBody("login.microsoftonline.com", "{tenant}")),
		mock.WithCallback(expectURL(t, "https://login.microsoftonline.com/"+testTenantID+"/v2.0/.well-known/openid-configuration")),
	)
	r := newTestResolver(t, client)

	a, err := r.CreateAuthority("https://login.microsoftonline.com/"+testTenantID, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.ResolveEndpoints(context.Background(), ""); err != nil {
		t.Fatalf("TestResolveEndpointsTrustedHost: got err == %s, want err == nil", err)
	}

	want := map[string]string{
		"authorization": "https://login.microsoftonline.com/" + testTenantID + "/oauth2/v2.0/authorize",
		"token":         "https://login.microsoftonline.com/" + testTenantID + "/oauth2/v2.0/token",
		"end_session":   "https://login.microsoftonline.com/" + testTenantID + "/oauth2/v2.0/logout",
		"audience":      "https://login.microsoftonline.com/" + testTenantID + "/v2.0",
	}
	got := map[string]string{
		"authorization": a.AuthorizationEndpoint(),
		"token":         a.TokenEndpoint(),
		"end_session":   a.EndSessionEndpoint(),
		"audience":      a.SelfSignedJwtAudience(),
	}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Errorf("TestResolveEndpointsTrustedHost: -want/+got:\n%s", diff)
	}
	if !a.Resolved() || a.IsTenantless() {
		t.Errorf("TestResolveEndpointsTrustedHost: got resolved %v tenantless %v", a.Resolved(), a.IsTenantless())
	}

	// resolving again, on the same or a new authority, is served without network access
	if err := a.ResolveEndpoints(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	again, err := r.CreateAuthority("https://LOGIN.microsoftonline.com/"+testTenantID+"/", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := again.ResolveEndpoints(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if again.TokenEndpoint() != a.TokenEndpoint() {
		t.Errorf("TestResolveEndpointsTrustedHost: cached token endpoint %s, want %s", again.TokenEndpoint(), a.TokenEndpoint())
	}
	if n := len(client.Calls()); n != 1 {
		t.Errorf("TestResolveEndpointsTrustedHost: got %d requests, want 1", n)
	}
}

func TestResolveEndpointsTenantless(t *testing.T) {
	client := mock.NewClient()
	client.AppendResponse(mock.WithBody(mock.GetTenantDiscoveryBody("login.microsoftonline.com", "{tenant}")))
	r := newTestResolver(t, client)

	a, err := r.CreateAuthority("https://login.microsoftonline.com/common/", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.ResolveEndpoints(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if !a.IsTenantless() {
		t.Errorf("TestResolveEndpointsTenantless: got IsTenantless() == false")
	}
	if got := a.TokenEndpoint(); got != "https://login.microsoftonline.com/common/oauth2/v2.0/token" {
		t.Errorf("TestResolveEndpointsTenantless: got token endpoint %s", got)
	}

	if err := a.UpdateTenantFromIDToken(mock.GetIDToken(testTenantID, "https://login.microsoftonline.com/"+testTenantID+"/v2.0")); err != nil {
		t.Fatal(err)
	}
	if got, want := a.CanonicalAuthority(), "https://login.microsoftonline.com/"+testTenantID+"/"; got != want {
		t.Errorf("TestResolveEndpointsTenantless: got authority %s after tenant update, want %s", got, want)
	}
	if a.IsTenantless() {
		t.Errorf("TestResolveEndpointsTenantless: authority is still tenantless after tenant update")
	}
	if err := a.UpdateTenantFromIDToken("not-a-token"); err == nil {
		t.Errorf("TestResolveEndpointsTenantless: malformed ID token accepted")
	}
}

func TestResolveEndpointsInstanceDiscovery(t *testing.T) {
	client := mock.NewClient()
	client.AppendResponse(
		mock.WithBody(mock.GetInstanceDiscoveryBody("login.contoso.com", "tenant")),
		mock.WithCallback(func(r *http.Request) {
			expectURL(t, "https://login.microsoftonline.com/common/discovery/instance")(r)
			if got := r.URL.Query().Get("authorization_endpoint"); got != "https://login.contoso.com/tenant/oauth2/v2.0/authorize" {
				t.Errorf("authorization_endpoint: got %s", got)
			}
			if got := r.URL.Query().Get("api-version"); got != "1.1" {
				t.Errorf("api-version: got %s", got)
			}
		}),
	)
	client.AppendResponse(
		mock.WithBody(mock.GetTenantDiscoveryBody("login.contoso.com", "tenant")),
		mock.WithCallback(expectURL(t, "https://login.contoso.com/tenant/v2.0/.well-known/openid-configuration")),
	)
	r := newTestResolver(t, client)

	a, err := r.CreateAuthority("https://login.contoso.com/tenant/", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.ResolveEndpoints(context.Background(), ""); err != nil {
		t.Fatalf("TestResolveEndpointsInstanceDiscovery: got err == %s, want err == nil", err)
	}
	if got := a.TokenEndpoint(); got != "https://login.contoso.com/tenant/oauth2/v2.0/token" {
		t.Errorf("TestResolveEndpointsInstanceDiscovery: got token endpoint %s", got)
	}
	if client.Pending() != 0 {
		t.Errorf("TestResolveEndpointsInstanceDiscovery: %d responses were not requested", client.Pending())
	}
}

func TestResolveEndpointsNoValidation(t *testing.T) {
	client := mock.NewClient()
	client.AppendResponse(
		mock.WithBody(mock.GetTenantDiscoveryBody("login.contoso.com", "tenant")),
		mock.WithCallback(expectURL(t, "https://login.contoso.com/tenant/v2.0/.well-known/openid-configuration")),
	)
	r := newTestResolver(t, client)

	a, err := r.CreateAuthority("https://login.contoso.com/tenant/", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.ResolveEndpoints(context.Background(), ""); err != nil {
		t.Fatalf("TestResolveEndpointsNoValidation: got err == %s, want err == nil", err)
	}
}

func TestResolveEndpointsFailure(t *testing.T) {
	tests := []struct {
		desc      string
		authority string
		wantCode  string
	}{
		{
			desc:      "instance discovery rejects the host",
			authority: "https://login.contoso.com/tenant/",
			wantCode:  errors.CodeInvalidInstance,
		},
		{
			desc:      "openid configuration without issuer",
			authority: "https://login.microsoftonline.com/tenant/",
			wantCode:  errors.CodeTenantDiscoveryFailed,
		},
		{
			desc:      "B2C validation on an untrusted host",
			authority: "https://login.contoso.com/tfp/tenant/policy/",
			wantCode:  errors.CodeUnsupportedAuthorityValidation,
		},
	}

	for _, test := range tests {
		client := mock.NewClient()
		switch test.wantCode {
		case errors.CodeInvalidInstance:
			client.AppendResponse(
				mock.WithHTTPStatusCode(http.StatusBadRequest),
				mock.WithBody(mock.GetErrorBody("invalid_instance", "AADSTS50049: Unknown or invalid instance.")),
			)
		case errors.CodeTenantDiscoveryFailed:
			client.AppendResponse(mock.WithBody([]byte(`{"authorization_endpoint": "a", "token_endpoint": "t"}`)))
		}
		cache := NewCache()
		r := newTestResolver(t, client, WithCache(cache))

		a, err := r.CreateAuthority(test.authority, true)
		if err != nil {
			t.Fatal(err)
		}
		err = a.ResolveEndpoints(context.Background(), "")
		if errors.Code(err) != test.wantCode {
			t.Errorf("TestResolveEndpointsFailure(%s): got err %v, want code %s", test.desc, err, test.wantCode)
		}
		if a.Resolved() || a.TokenEndpoint() != "" {
			t.Errorf("TestResolveEndpointsFailure(%s): failed resolution left the authority resolved", test.desc)
		}
		if cache.Len() != 0 {
			t.Errorf("TestResolveEndpointsFailure(%s): failed resolution was cached", test.desc)
		}
	}
}

func TestResolveEndpointsB2C(t *testing.T) {
	client := mock.NewClient()
	client.AppendResponse(
		mock.WithBody(mock.GetTenantDiscoveryBody("contoso.b2clogin.com", "tfp/contoso.onmicrosoft.com/b2c_1_signin")),
		mock.WithCallback(expectURL(t, "https://login.microsoftonline.com/tfp/contoso.onmicrosoft.com/b2c_1_signin/.well-known/openid-configuration")),
	)
	r := newTestResolver(t, client)

	a, err := r.CreateAuthority("https://contoso.b2clogin.com/tfp/contoso.onmicrosoft.com/B2C_1_SignIn/", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.UpdateCanonicalAuthority(context.Background()); err != nil {
		t.Fatalf("TestResolveEndpointsB2C: trusted B2C host rejected: %s", err)
	}
	if err := a.ResolveEndpoints(context.Background(), ""); err != nil {
		t.Fatalf("TestResolveEndpointsB2C: got err == %s, want err == nil", err)
	}
	if got := a.TokenEndpoint(); got != "https://contoso.b2clogin.com/tfp/contoso.onmicrosoft.com/b2c_1_signin/oauth2/v2.0/token" {
		t.Errorf("TestResolveEndpointsB2C: got token endpoint %s", got)
	}

	a.UpdateTenantID("fabrikam.onmicrosoft.com")
	if got := a.CanonicalAuthority(); got != "https://contoso.b2clogin.com/tfp/fabrikam.onmicrosoft.com/b2c_1_signin/" {
		t.Errorf("TestResolveEndpointsB2C: got authority %s after tenant update", got)
	}

	untrusted, err := r.CreateAuthority("https://login.contoso.com/tfp/tenant/policy/", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := untrusted.UpdateCanonicalAuthority(context.Background()); errors.Code(err) != errors.CodeUnsupportedAuthorityValidation {
		t.Errorf("TestResolveEndpointsB2C: got %v for an untrusted host, want %s", err, errors.CodeUnsupportedAuthorityValidation)
	}
}

func TestUpdateCanonicalAuthority(t *testing.T) {
	client := mock.NewClient()
	client.AppendResponse(
		mock.WithBody(mock.GetInstanceDiscoveryBody("login.partner.microsoftonline.cn", "tenant", "login.chinacloudapi.cn")),
		mock.WithCallback(expectURL(t, "https://login.chinacloudapi.cn/common/discovery/instance")),
	)
	cache := NewCache()
	r := newTestResolver(t, client, WithCache(cache))

	for _, host := range []string{"login.chinacloudapi.cn", "login.partner.microsoftonline.cn", "login.chinacloudapi.cn"} {
		a, err := r.CreateAuthority("https://"+host+"/tenant/", true)
		if err != nil {
			t.Fatal(err)
		}
		if err := a.UpdateCanonicalAuthority(context.Background()); err != nil {
			t.Fatalf("TestUpdateCanonicalAuthority(%s): got err == %s, want err == nil", host, err)
		}
		if got := a.CanonicalAuthority(); got != "https://login.partner.microsoftonline.cn/tenant/" {
			t.Errorf("TestUpdateCanonicalAuthority(%s): got %s", host, got)
		}
	}

	// instance metadata survives Clear
	cache.Clear()
	a, err := r.CreateAuthority("https://login.chinacloudapi.cn/other/", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.UpdateCanonicalAuthority(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(client.Calls()); n != 1 {
		t.Errorf("TestUpdateCanonicalAuthority: got %d requests, want 1", n)
	}
}

func TestFederatedAuthority(t *testing.T) {
	tests := []struct {
		desc     string
		drs      func(*mock.Client)
		webIDs   []string
		wantCode string
	}{
		{
			desc: "on-premise DRS",
			drs: func(c *mock.Client) {
				c.AppendResponse(
					mock.WithBody(mock.GetDRSBody("fs.fabrikam.com")),
					mock.WithCallback(expectURL(t, "https://enterpriseregistration.fabrikam.com/enrollmentserver/contract")),
				)
			},
			webIDs: []string{"https://fs.fabrikam.com"},
		},
		{
			desc: "cloud DRS fallback",
			drs: func(c *mock.Client) {
				c.AppendResponse(mock.WithHTTPStatusCode(http.StatusNotFound))
				c.AppendResponse(
					mock.WithBody(mock.GetDRSBody("fs.fabrikam.com")),
					mock.WithCallback(expectURL(t, "https://enterpriseregistration.windows.net/fabrikam.com/enrollmentserver/contract")),
				)
			},
			webIDs: []string{"https://FS.fabrikam.com"},
		},
		{
			desc: "Error: not a trusted realm",
			drs: func(c *mock.Client) {
				c.AppendResponse(mock.WithBody(mock.GetDRSBody("fs.fabrikam.com")))
			},
			webIDs:   []string{"https://fs.contoso.com"},
			wantCode: errors.CodeAuthorityValidationFailed,
		},
	}

	for _, test := range tests {
		client := mock.NewClient()
		client.AppendResponse(
			mock.WithBody(mock.GetUserRealmBody("fabrikam.com", "fs.fabrikam.com")),
			mock.WithCallback(expectURL(t, "https://login.microsoftonline.com/common/UserRealm/"+testUPN)),
		)
		test.drs(client)
		client.AppendResponse(
			mock.WithBody(mock.GetWebFingerBody("fs.fabrikam.com", test.webIDs...)),
			mock.WithCallback(func(r *http.Request) {
				expectURL(t, "https://fs.fabrikam.com/adfs/.well-known/webfinger")(r)
				if got := r.URL.Query().Get("resource"); got != "https://fs.fabrikam.com" {
					t.Errorf("webfinger resource: got %s", got)
				}
			}),
		)
		if test.wantCode == "" {
			client.AppendResponse(
				mock.WithBody(mock.GetADFSTenantDiscoveryBody("fs.fabrikam.com")),
				mock.WithCallback(expectURL(t, "https://fs.fabrikam.com/adfs/.well-known/openid-configuration")),
			)
		}
		r := newTestResolver(t, client)

		aad, err := r.CreateAuthority("https://login.microsoftonline.com/common/", true)
		if err != nil {
			t.Fatal(err)
		}
		adfs, err := r.FederatedAuthority(context.Background(), aad, testUPN)
		if err != nil {
			t.Errorf("TestFederatedAuthority(%s): user realm lookup failed: %s", test.desc, err)
			continue
		}
		if adfs.Type() != ADFS || adfs.CanonicalAuthority() != "https://fs.fabrikam.com/adfs/" || !adfs.ValidateAuthority() {
			t.Errorf("TestFederatedAuthority(%s): got %s %s validate %v", test.desc, adfs.Type(), adfs.CanonicalAuthority(), adfs.ValidateAuthority())
		}

		err = adfs.ResolveEndpoints(context.Background(), testUPN)
		switch {
		case test.wantCode != "":
			if errors.Code(err) != test.wantCode {
				t.Errorf("TestFederatedAuthority(%s): got err %v, want code %s", test.desc, err, test.wantCode)
			}
			continue
		case err != nil:
			t.Errorf("TestFederatedAuthority(%s): got err == %s, want err == nil", test.desc, err)
			continue
		}
		if got := adfs.TokenEndpoint(); got != "https://fs.fabrikam.com/adfs/oauth2/token/" {
			t.Errorf("TestFederatedAuthority(%s): got token endpoint %s", test.desc, got)
		}
		if client.Pending() != 0 {
			t.Errorf("TestFederatedAuthority(%s): %d responses were not requested", test.desc, client.Pending())
		}

		// resolution is a no-op once resolved
		if err := adfs.ResolveEndpoints(context.Background(), ""); err != nil {
			t.Errorf("TestFederatedAuthority(%s): resolved authority failed: %s", test.desc, err)
		}
	}
}

func TestFederatedAuthorityManaged(t *testing.T) {
	client := mock.NewClient()
	client.AppendResponse(mock.WithBody(mock.GetUserRealmBody("contoso.com", "")))
	r := newTestResolver(t, client)

	aad, err := r.CreateAuthority("https://login.microsoftonline.com/common/", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.FederatedAuthority(context.Background(), aad, "user@contoso.com"); errors.Code(err) != errors.CodeUserRealmDiscoveryFailed {
		t.Errorf("TestFederatedAuthorityManaged: got %v, want code %s", err, errors.CodeUserRealmDiscoveryFailed)
	}
	if _, err := r.FederatedAuthority(context.Background(), aad, ""); errors.Code(err) != errors.CodeUpnRequiredForValidation {
		t.Errorf("TestFederatedAuthorityManaged: got %v for an empty UPN", err)
	}
}

func TestCacheSharing(t *testing.T) {
	client := mock.NewClient()
	client.AppendResponse(mock.WithBody(mock.GetTenantDiscoveryBody("login.microsoftonline.com", "{tenant}")))
	cache := NewCache()
	first := newTestResolver(t, client, WithCache(cache))
	second := newTestResolver(t, client, WithCache(cache))

	for _, r := range []*Resolver{first, second} {
		a, err := r.CreateAuthority("https://login.microsoftonline.com/contoso.com/", true)
		if err != nil {
			t.Fatal(err)
		}
		if err := a.ResolveEndpoints(context.Background(), ""); err != nil {
			t.Fatal(err)
		}
	}
	if cache.Len() != 1 {
		t.Errorf("TestCacheSharing: got %d cached authorities, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("TestCacheSharing: got %d cached authorities after Clear, want 0", cache.Len())
	}
	if DefaultCache() == cache || DefaultCache() == nil {
		t.Errorf("TestCacheSharing: unexpected default cache")
	}
}

func TestPiiLogging(t *testing.T) {
	for _, pii := range []bool{false, true} {
		buf := &bytes.Buffer{}
		l := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		client := mock.NewClient()
		client.AppendResponse(mock.WithBody(mock.GetTenantDiscoveryBody("login.microsoftonline.com", "{tenant}")))
		r := newTestResolver(t, client, WithLogger(l), WithPiiLogging(pii))

		a, err := r.CreateAuthority("https://login.microsoftonline.com/contoso.com/", true)
		if err != nil {
			t.Fatal(err)
		}
		if err := a.ResolveEndpoints(context.Background(), ""); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "authority endpoints resolved") {
			t.Errorf("TestPiiLogging(%v): resolution was not logged:\n%s", pii, out)
		}
		if got := strings.Contains(out, "contoso.com"); got != pii {
			t.Errorf("TestPiiLogging(%v): authority in logs == %v", pii, got)
		}
	}
}

func TestAuthorityFromCloud(t *testing.T) {
	tests := []struct {
		desc   string
		cfg    cloud.Configuration
		tenant string
		want   string
		err    bool
	}{
		{desc: "public", cfg: cloud.AzurePublic, tenant: "contoso.com", want: "https://login.microsoftonline.com/contoso.com/"},
		{desc: "china", cfg: cloud.AzureChina, tenant: "/tenant/", want: "https://login.chinacloudapi.cn/tenant/"},
		{desc: "government", cfg: cloud.AzureGovernment, tenant: "organizations", want: "https://login.microsoftonline.us/organizations/"},
		{desc: "Error: no tenant", cfg: cloud.AzurePublic, err: true},
		{desc: "Error: no host", cfg: cloud.Configuration{}, tenant: "contoso.com", err: true},
	}

	for _, test := range tests {
		got, err := AuthorityFromCloud(test.cfg, test.tenant)
		switch {
		case err == nil && test.err:
			t.Errorf("TestAuthorityFromCloud(%s): got err == nil, want err != nil", test.desc)
		case err != nil && !test.err:
			t.Errorf("TestAuthorityFromCloud(%s): got err == %s, want err == nil", test.desc, err)
		case got != test.want:
			t.Errorf("TestAuthorityFromCloud(%s): got %s, want %s", test.desc, got, test.want)
		}
	}
}
