// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package authority parses, validates and classifies authority URLs and talks to the discovery
// endpoints that describe them.
package authority

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/AzureAD/msal-instance-go/apps/errors"
)

const (
	authorizationEndpoint     = "https://%v/%v/oauth2/v2.0/authorize"
	instanceDiscoveryEndpoint = "https://%v/common/discovery/instance"
	defaultHost               = "login.microsoftonline.com"

	// TenantPlaceholder is substituted with the authority's tenant in discovered endpoints.
	TenantPlaceholder = "{tenant}"

	aadOpenIDConfigurationPath = "v2.0/.well-known/openid-configuration"
	openIDConfigurationPath    = ".well-known/openid-configuration"

	adfsSegment = "adfs"
	b2cSegment  = "tfp"
)

// Type is the kind of identity provider an authority points at.
type Type string

// These are the authority types.
const (
	AAD  Type = "MSSTS"
	ADFS Type = "ADFS"
	B2C  Type = "B2C"
)

type jsonCaller interface {
	JSONCall(ctx context.Context, endpoint string, headers http.Header, qv url.Values, body, resp interface{}) error
}

var aadTrustedHostList = map[string]bool{
	"login.windows.net":            true, // Microsoft Azure Worldwide - Used in validation scenarios where host is not this list
	"login.chinacloudapi.cn":       true, // Microsoft Azure China
	"login.microsoftonline.de":     true, // Microsoft Azure Blackforest
	"login-us.microsoftonline.com": true, // Microsoft Azure US Government - Legacy
	"login.microsoftonline.us":     true, // Microsoft Azure US Government
	"login.microsoftonline.com":    true, // Microsoft Azure Worldwide
	"login.cloudgovapi.us":         true, // Microsoft Azure US Government
}

// TrustedHost checks if an AAD host is trusted/valid.
func TrustedHost(host string) bool {
	return aadTrustedHostList[host]
}

// b2cTrustedHost reports whether a B2C host can be used with validation on.
func b2cTrustedHost(host string) bool {
	return TrustedHost(host) || host == "b2clogin.com" || strings.HasSuffix(host, ".b2clogin.com")
}

// OAuthResponseBase holds the OAuth error fields the service may add to any discovery reply.
type OAuthResponseBase struct {
	Error            string `json:"error"`
	SubError         string `json:"suberror"`
	ErrorDescription string `json:"error_description"`
	ErrorCodes       []int  `json:"error_codes"`
	CorrelationID    string `json:"correlation_id"`
	Claims           string `json:"claims"`
}

// TenantDiscoveryResponse is the tenant endpoints from the OpenID configuration endpoint.
type TenantDiscoveryResponse struct {
	OAuthResponseBase

	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	Issuer                string `json:"issuer"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// Validate validates that the response had the correct values required.
func (r *TenantDiscoveryResponse) Validate() error {
	switch "" {
	case r.AuthorizationEndpoint:
		return errors.NewClientError(errors.CodeTenantDiscoveryFailed, "authorize endpoint was not found in the openid configuration")
	case r.TokenEndpoint:
		return errors.NewClientError(errors.CodeTenantDiscoveryFailed, "token endpoint was not found in the openid configuration")
	case r.Issuer:
		return errors.NewClientError(errors.CodeTenantDiscoveryFailed, "issuer was not found in the openid configuration")
	}
	return nil
}

// InstanceDiscoveryMetadata describes one cloud and the host aliases it is known by.
type InstanceDiscoveryMetadata struct {
	PreferredNetwork        string   `json:"preferred_network"`
	PreferredCache          string   `json:"preferred_cache"`
	TenantDiscoveryEndpoint string   `json:"tenant_discovery_endpoint"`
	Aliases                 []string `json:"aliases"`
}

// InstanceDiscoveryResponse is the reply of the AAD instance discovery endpoint.
type InstanceDiscoveryResponse struct {
	OAuthResponseBase

	TenantDiscoveryEndpoint string                      `json:"tenant_discovery_endpoint"`
	Metadata                []InstanceDiscoveryMetadata `json:"metadata"`
}

// Endpoints consists of the endpoints from the tenant discovery response.
type Endpoints struct {
	AuthorizationEndpoint string
	TokenEndpoint         string
	EndSessionEndpoint    string
	SelfSignedJwtAudience string
	authorityHost         string
}

// NewEndpoints creates an Endpoints object.
func NewEndpoints(authorizationEndpoint, tokenEndpoint, endSessionEndpoint, selfSignedJwtAudience, authorityHost string) Endpoints {
	return Endpoints{authorizationEndpoint, tokenEndpoint, endSessionEndpoint, selfSignedJwtAudience, authorityHost}
}

// EndpointsFromDiscovery builds Endpoints from a validated tenant discovery response, replacing
// {tenant} with tenant.
func EndpointsFromDiscovery(tdr TenantDiscoveryResponse, tenant, authorityHost string) Endpoints {
	sub := func(s string) string { return strings.ReplaceAll(s, TenantPlaceholder, tenant) }
	return NewEndpoints(sub(tdr.AuthorizationEndpoint), sub(tdr.TokenEndpoint), sub(tdr.EndSessionEndpoint), sub(tdr.Issuer), authorityHost)
}

// AuthorityHost is the host of the authority the endpoints were discovered for.
func (e Endpoints) AuthorityHost() string {
	return e.authorityHost
}

// Info consists of information about the authority.
type Info struct {
	// Host is the authority's host, including a port if one was given.
	Host                  string
	CanonicalAuthorityURI string
	AuthorityType         Type
	UserRealmURIPrefix    string
	ValidateAuthority     bool
	// Tenant is the first path segment. For B2C this is the "tfp" prefix.
	Tenant string
	// IsTenantless is set during resolution when Tenant is "common" or "organizations".
	IsTenantless bool
}

// Canonicalize returns the lowercase form of an authority ending in "/".
func Canonicalize(authority string) string {
	if strings.TrimSpace(authority) != "" && !strings.HasSuffix(authority, "/") {
		authority += "/"
	}
	return strings.ToLower(authority)
}

// Validate checks that authority is an absolute https URL with a path of at least one segment.
func Validate(authority string) (*url.URL, error) {
	if strings.TrimSpace(authority) == "" {
		return nil, errors.NewClientError(errors.CodeInvalidAuthorityFormat, "authority cannot be empty")
	}
	u, err := url.Parse(authority)
	if err != nil {
		return nil, &errors.ClientError{Code: errors.CodeInvalidAuthorityFormat, Message: "authority is not a well formed URI", Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, errors.NewClientError(errors.CodeInvalidAuthorityFormat, "authority must be an absolute URI")
	}
	if u.Scheme != "https" {
		return nil, errors.NewClientError(errors.CodeInvalidAuthorityFormat, "authority must use https")
	}
	if u.Path == "" {
		return nil, errors.NewClientError(errors.CodeInvalidAuthorityFormat, "authority path cannot be empty")
	}
	if len(pathSegments(u)) == 0 {
		return nil, errors.NewClientError(errors.CodeInvalidAuthorityPath, "authority path must have at least one segment")
	}
	return u, nil
}

// Classify returns the authority type from the first path segment of u.
func Classify(u *url.URL) Type {
	segments := pathSegments(u)
	if len(segments) == 0 {
		return AAD
	}
	switch strings.ToLower(segments[0]) {
	case adfsSegment:
		return ADFS
	case b2cSegment:
		return B2C
	}
	return AAD
}

func pathSegments(u *url.URL) []string {
	return strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
}

func newInfo(authorityType Type, host, canonicalAuthorityURI, tenant string, validateAuthority bool) Info {
	return Info{
		Host:                  host,
		CanonicalAuthorityURI: canonicalAuthorityURI,
		AuthorityType:         authorityType,
		UserRealmURIPrefix:    fmt.Sprintf("https://%v/common/userrealm/", host),
		ValidateAuthority:     validateAuthority,
		Tenant:                tenant,
	}
}

// NewInfoFromAuthorityURI creates an Info for an AAD or B2C authority. ADFS authorities are rejected;
// they can only be reached through a federation lookup, see NewInfoFromADFS.
func NewInfoFromAuthorityURI(authority string, validateAuthority bool) (Info, error) {
	u, err := Validate(Canonicalize(authority))
	if err != nil {
		return Info{}, err
	}

	segments := pathSegments(u)
	switch Classify(u) {
	case ADFS:
		return Info{}, errors.NewClientError(errors.CodeUnsupportedAuthorityType, "ADFS is not a supported authority")
	case B2C:
		if len(segments) < 3 {
			return Info{}, errors.NewClientError(errors.CodeB2CAuthorityInvalidPath, "B2C authority must have the form https://host/tfp/tenant/policy/")
		}
		canonical := fmt.Sprintf("https://%v/%v/%v/%v/", u.Host, segments[0], segments[1], segments[2])
		return newInfo(B2C, u.Host, canonical, segments[0], validateAuthority), nil
	}
	canonical := fmt.Sprintf("https://%v/%v/", u.Host, segments[0])
	return newInfo(AAD, u.Host, canonical, segments[0], validateAuthority), nil
}

// NewInfoFromADFS creates an Info for an ADFS authority discovered through a federation lookup.
func NewInfoFromADFS(authority string, validateAuthority bool) (Info, error) {
	u, err := Validate(Canonicalize(authority))
	if err != nil {
		return Info{}, err
	}
	if Classify(u) != ADFS {
		return Info{}, errors.NewClientError(errors.CodeUnsupportedAuthorityType, "federated authority is not an ADFS authority")
	}
	return newInfo(ADFS, u.Host, fmt.Sprintf("https://%v/%v/", u.Host, adfsSegment), adfsSegment, validateAuthority), nil
}

func tenantless(tenant string) bool {
	switch strings.ToLower(tenant) {
	case "common", "organizations":
		return true
	}
	return false
}

// WithTenantless returns a copy of i with IsTenantless computed from Tenant.
func (i Info) WithTenantless() Info {
	i.IsTenantless = tenantless(i.Tenant)
	return i
}

// OpenIDConfigurationEndpoint returns the OpenID configuration endpoint used when no network
// discovery is needed.
func (i Info) OpenIDConfigurationEndpoint() string {
	switch i.AuthorityType {
	case B2C:
		u, err := url.Parse(i.CanonicalAuthorityURI)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("https://%s%s%s", defaultHost, u.Path, openIDConfigurationPath)
	case ADFS:
		return i.CanonicalAuthorityURI + openIDConfigurationPath
	}
	return i.CanonicalAuthorityURI + aadOpenIDConfigurationPath
}

// UpdateTenantID returns a copy of i using tenant. AAD authorities change only when they are tenantless,
// B2C authorities replace their tenant segment and ADFS authorities are left alone.
func (i Info) UpdateTenantID(tenant string) Info {
	tenant = strings.ToLower(strings.TrimSpace(tenant))
	if tenant == "" {
		return i
	}
	switch i.AuthorityType {
	case AAD:
		if !tenantless(i.Tenant) {
			return i
		}
		i.CanonicalAuthorityURI = fmt.Sprintf("https://%v/%v/", i.Host, tenant)
		i.Tenant = tenant
		i.IsTenantless = false
	case B2C:
		u, err := url.Parse(i.CanonicalAuthorityURI)
		if err != nil {
			return i
		}
		segments := pathSegments(u)
		if len(segments) < 3 {
			return i
		}
		i.CanonicalAuthorityURI = fmt.Sprintf("https://%v/%v/%v/%v/", i.Host, segments[0], tenant, segments[2])
	}
	return i
}

// WithHost returns a copy of i whose authority uses host.
func (i Info) WithHost(host string) Info {
	if host == "" || host == i.Host {
		return i
	}
	i.CanonicalAuthorityURI = strings.Replace(i.CanonicalAuthorityURI, "https://"+i.Host+"/", "https://"+host+"/", 1)
	i.UserRealmURIPrefix = fmt.Sprintf("https://%v/common/userrealm/", host)
	i.Host = host
	return i
}

// B2CTrusted reports whether i's host may be used as a B2C authority with validation on.
func (i Info) B2CTrusted() bool {
	return b2cTrustedHost(i.Host)
}

// Client represents the REST calls to authority backends.
type Client struct {
	// Comm provides the HTTP transport client.
	Comm jsonCaller // *comm.Client
}

// TenantDiscovery gets the OpenID configuration document at endpoint.
func (c Client) TenantDiscovery(ctx context.Context, endpoint string) (TenantDiscoveryResponse, error) {
	resp := TenantDiscoveryResponse{}
	err := c.Comm.JSONCall(ctx, endpoint, http.Header{}, nil, nil, &resp)
	return resp, err
}

// AADInstanceDiscovery calls the AAD instance discovery endpoint for authorityInfo. An OAuth error sent
// back by the service is returned as an *errors.ClientError carrying the service's code.
func (c Client) AADInstanceDiscovery(ctx context.Context, authorityInfo Info) (InstanceDiscoveryResponse, error) {
	discoveryHost := defaultHost
	if TrustedHost(authorityInfo.Host) {
		discoveryHost = authorityInfo.Host
	}

	endpoint := fmt.Sprintf(instanceDiscoveryEndpoint, discoveryHost)
	qv := url.Values{}
	qv.Set("api-version", "1.1")
	qv.Set("authorization_endpoint", fmt.Sprintf(authorizationEndpoint, authorityInfo.Host, authorityInfo.Tenant))

	resp := InstanceDiscoveryResponse{}
	if err := c.Comm.JSONCall(ctx, endpoint, http.Header{}, qv, nil, &resp); err != nil {
		return resp, serviceError(err)
	}
	return resp, nil
}

// serviceError turns an OAuth error carried by a non-200 reply into an *errors.ClientError.
func serviceError(err error) error {
	var callErr errors.CallErr
	if !stderrors.As(err, &callErr) || callErr.Resp == nil || callErr.Resp.Body == nil {
		return err
	}
	var base OAuthResponseBase
	if json.NewDecoder(callErr.Resp.Body).Decode(&base) != nil || base.Error == "" {
		return err
	}
	return &errors.ClientError{Code: base.Error, Message: base.ErrorDescription, Err: err}
}
