// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package instance

import (
	"context"
	"sync"

	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/authority"
)

// Authority is an authority created by a Resolver. It starts unresolved; ResolveEndpoints fills in
// its endpoints. Methods are safe for concurrent use.
type Authority struct {
	resolver *Resolver

	mu        sync.Mutex
	info      authority.Info
	endpoints authority.Endpoints
	resolved  bool
}

func (a *Authority) snapshot() authority.Info {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.info
}

// ResolveEndpoints discovers the authority's endpoints. userPrincipalName is required for validated
// ADFS authorities and ignored otherwise. Once it succeeds, further calls do nothing. On failure the
// authority stays unresolved.
func (a *Authority) ResolveEndpoints(ctx context.Context, userPrincipalName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resolved {
		return nil
	}
	info, endpoints, err := a.resolver.client.ResolveEndpoints(ctx, a.info, userPrincipalName)
	if err != nil {
		return err
	}
	a.info = info
	a.endpoints = endpoints
	a.resolved = true
	return nil
}

// UpdateCanonicalAuthority moves an AAD authority to the preferred network host of its cloud,
// running instance discovery if the host is not cached. B2C authorities on an untrusted host fail
// when validation is on. Call it before ResolveEndpoints.
func (a *Authority) UpdateCanonicalAuthority(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	info, err := a.resolver.client.UpdateCanonicalAuthority(ctx, a.info)
	if err != nil {
		return err
	}
	a.info = info
	return nil
}

// UpdateTenantID replaces the authority's tenant with the one returned by the server. Only
// tenantless AAD authorities and B2C authorities change. Resolved endpoints are kept.
func (a *Authority) UpdateTenantID(tenantID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.info = a.info.UpdateTenantID(tenantID)
}

// UpdateTenantFromIDToken applies UpdateTenantID with the "tid" claim of rawIDToken.
func (a *Authority) UpdateTenantFromIDToken(rawIDToken string) error {
	tid, err := authority.TenantFromIDToken(rawIDToken)
	if err != nil {
		return err
	}
	a.UpdateTenantID(tid)
	return nil
}

// CanonicalAuthority is the lowercase authority URL ending in "/".
func (a *Authority) CanonicalAuthority() string {
	return a.snapshot().CanonicalAuthorityURI
}

// Host is the authority's host, including a port if one was given.
func (a *Authority) Host() string {
	return a.snapshot().Host
}

// Type is the authority's type.
func (a *Authority) Type() AuthorityType {
	return a.snapshot().AuthorityType
}

// Tenant is the first path segment of the authority.
func (a *Authority) Tenant() string {
	return a.snapshot().Tenant
}

// ValidateAuthority reports whether the authority is validated during resolution.
func (a *Authority) ValidateAuthority() bool {
	return a.snapshot().ValidateAuthority
}

// IsTenantless reports whether a resolved authority is "common" or "organizations".
func (a *Authority) IsTenantless() bool {
	return a.snapshot().IsTenantless
}

// Resolved reports whether ResolveEndpoints has succeeded.
func (a *Authority) Resolved() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolved
}

func (a *Authority) endpointsSnapshot() authority.Endpoints {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.endpoints
}

// AuthorizationEndpoint is empty until the authority is resolved.
func (a *Authority) AuthorizationEndpoint() string {
	return a.endpointsSnapshot().AuthorizationEndpoint
}

// TokenEndpoint is empty until the authority is resolved.
func (a *Authority) TokenEndpoint() string {
	return a.endpointsSnapshot().TokenEndpoint
}

// EndSessionEndpoint is empty until the authority is resolved, and stays empty when the OpenID
// configuration has none.
func (a *Authority) EndSessionEndpoint() string {
	return a.endpointsSnapshot().EndSessionEndpoint
}

// SelfSignedJwtAudience is the issuer of the resolved authority.
func (a *Authority) SelfSignedJwtAudience() string {
	return a.endpointsSnapshot().SelfSignedJwtAudience
}
