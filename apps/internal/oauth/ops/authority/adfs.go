// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package authority

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/AzureAD/msal-instance-go/apps/errors"
)

const (
	drsOnPremiseEndpoint = "https://enterpriseregistration.%s/enrollmentserver/contract"
	drsCloudEndpoint     = "https://enterpriseregistration.windows.net/%s/enrollmentserver/contract"
	webFingerEndpoint    = "https://%s/adfs/.well-known/webfinger"
	userRealmEndpoint    = "https://%s/common/UserRealm/%s"

	// TrustedRealmRel is the WebFinger link relation an ADFS server uses to vouch for an authority.
	TrustedRealmRel = "http://schemas.microsoft.com/rel/trusted-realm"
)

// IdentityProviderService is the part of a device registration (DRS) document naming the ADFS server.
type IdentityProviderService struct {
	PassiveAuthEndpoint string `json:"PassiveAuthEndpoint"`
}

// DRSMetadata is the device registration service contract of a domain.
type DRSMetadata struct {
	IdentityProviderService IdentityProviderService `json:"IdentityProviderService"`
}

// WebFingerLink is a single link of a WebFinger reply.
type WebFingerLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// WebFingerResponse is the reply of an ADFS WebFinger endpoint.
type WebFingerResponse struct {
	Subject string          `json:"subject"`
	Links   []WebFingerLink `json:"links"`
}

// Trusts reports whether the reply holds a trusted-realm link to resource. Both rel and href are
// compared case-insensitively.
func (r WebFingerResponse) Trusts(resource string) bool {
	for _, l := range r.Links {
		if strings.EqualFold(l.Rel, TrustedRealmRel) && strings.EqualFold(l.Href, resource) {
			return true
		}
	}
	return false
}

// UserRealm is used to determine whether an account is federated to an ADFS server.
type UserRealm struct {
	AccountType       string `json:"account_type"`
	DomainName        string `json:"domain_name"`
	CloudInstanceName string `json:"cloud_instance_name"`
	CloudAudienceURN  string `json:"cloud_audience_urn"`

	// required if accountType is Federated
	FederationProtocol    string `json:"federation_protocol"`
	FederationMetadataURL string `json:"federation_metadata_url"`
}

// Federated reports whether the account is federated.
func (u UserRealm) Federated() bool {
	return strings.EqualFold(u.AccountType, "Federated")
}

// FederatedAuthority returns the ADFS authority serving a federated account.
func (u UserRealm) FederatedAuthority() (string, error) {
	if !u.Federated() {
		return "", errors.NewClientError(errors.CodeUserRealmDiscoveryFailed, "account type %q is not federated", u.AccountType)
	}
	if u.FederationMetadataURL == "" {
		return "", errors.NewClientError(errors.CodeUserRealmDiscoveryFailed, "federation metadata URL of user realm is missing")
	}
	m, err := url.Parse(u.FederationMetadataURL)
	if err != nil || m.Host == "" {
		return "", errors.NewClientError(errors.CodeUserRealmDiscoveryFailed, "federation metadata URL of user realm is malformed")
	}
	return fmt.Sprintf("https://%s/%s/", m.Host, adfsSegment), nil
}

// DomainFromUPN returns the domain part of a user principal name.
func DomainFromUPN(upn string) (string, error) {
	if strings.TrimSpace(upn) == "" {
		return "", errors.NewClientError(errors.CodeUpnRequiredForValidation, "user principal name is required for ADFS authority validation")
	}
	i := strings.LastIndex(upn, "@")
	if i < 0 || i == len(upn)-1 {
		return "", errors.NewClientError(errors.CodeInvalidUPN, "user principal name does not contain a domain")
	}
	return strings.ToLower(upn[i+1:]), nil
}

// DRSMetadata gets the device registration contract of domain, either from the domain's own
// enterprise registration host or from the cloud DRS.
func (c Client) DRSMetadata(ctx context.Context, domain string, onPremise bool) (DRSMetadata, error) {
	endpoint := fmt.Sprintf(drsCloudEndpoint, domain)
	if onPremise {
		endpoint = fmt.Sprintf(drsOnPremiseEndpoint, domain)
	}
	qv := url.Values{}
	qv.Set("api-version", "1.0")

	resp := DRSMetadata{}
	err := c.Comm.JSONCall(ctx, endpoint, http.Header{}, qv, nil, &resp)
	return resp, err
}

// WebFinger asks the ADFS server behind passiveAuthEndpoint whether it trusts resource.
func (c Client) WebFinger(ctx context.Context, passiveAuthEndpoint, resource string) (WebFingerResponse, error) {
	u, err := url.Parse(passiveAuthEndpoint)
	if err != nil || u.Host == "" {
		return WebFingerResponse{}, errors.NewClientError(errors.CodeInvalidAuthority, "passive auth endpoint is malformed")
	}
	qv := url.Values{}
	qv.Set("resource", resource)
	qv.Set("rel", TrustedRealmRel)

	resp := WebFingerResponse{}
	err = c.Comm.JSONCall(ctx, fmt.Sprintf(webFingerEndpoint, u.Host), http.Header{}, qv, nil, &resp)
	return resp, err
}

// UserRealm looks up the realm of upn at the authority's host.
func (c Client) UserRealm(ctx context.Context, authorityInfo Info, upn string) (UserRealm, error) {
	endpoint := fmt.Sprintf(userRealmEndpoint, authorityInfo.Host, url.PathEscape(upn))
	qv := url.Values{}
	qv.Set("api-version", "1.0")

	resp := UserRealm{}
	err := c.Comm.JSONCall(ctx, endpoint, http.Header{}, qv, nil, &resp)
	return resp, err
}
