// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package oauth

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/AzureAD/msal-instance-go/apps/errors"
	"github.com/AzureAD/msal-instance-go/apps/internal/logger"
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/authority"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type fetchAuthority interface {
	TenantDiscovery(ctx context.Context, endpoint string) (authority.TenantDiscoveryResponse, error)
	AADInstanceDiscovery(ctx context.Context, authorityInfo authority.Info) (authority.InstanceDiscoveryResponse, error)
	DRSMetadata(ctx context.Context, domain string, onPremise bool) (authority.DRSMetadata, error)
	WebFinger(ctx context.Context, passiveAuthEndpoint, resource string) (authority.WebFingerResponse, error)
	UserRealm(ctx context.Context, authorityInfo authority.Info, upn string) (authority.UserRealm, error)
}

// authorityEndpoint resolves authorities to their endpoints, using the validated authority and
// instance discovery caches to avoid repeating network discovery.
type authorityEndpoint struct {
	rest      fetchAuthority
	validated *ValidatedAuthorities
	instances *InstanceCache
	logger    *logger.Logger
	tracer    trace.Tracer
}

func newAuthorityEndpoint(rest fetchAuthority, validated *ValidatedAuthorities, instances *InstanceCache, l *logger.Logger, tracer trace.Tracer) *authorityEndpoint {
	return &authorityEndpoint{rest: rest, validated: validated, instances: instances, logger: l, tracer: tracer}
}

// logEvent writes msg once without PII and once with pii fields added.
func (m *authorityEndpoint) logEvent(ctx context.Context, level logger.Level, msg, correlationID string, fields []any, pii []any) {
	base := append([]any{logger.Field("correlation_id", correlationID)}, fields...)
	m.logger.Log(ctx, level, msg, base...)
	m.logger.LogPii(ctx, level, msg, append(base, pii...)...)
}

// ResolveEndpoints gets the authorization and token endpoints and creates an AuthorityEndpoints instance.
// The returned Info carries the tenantless flag and, on a cache hit, the cached authority's fields.
// Nothing is cached unless resolution succeeds.
func (m *authorityEndpoint) ResolveEndpoints(ctx context.Context, authorityInfo authority.Info, userPrincipalName string) (authority.Info, authority.Endpoints, error) {
	id := uuid.New().String()
	info := authorityInfo.WithTenantless()

	m.logEvent(ctx, logger.Info, "resolving authority endpoints", id,
		[]any{logger.Field("authority_type", info.AuthorityType)},
		[]any{logger.Field("authority", info.CanonicalAuthorityURI)},
	)
	m.logEvent(ctx, logger.Debug, "authority tenantless check", id,
		[]any{logger.Field("tenantless", info.IsTenantless)},
		[]any{logger.Field("tenant", info.Tenant)},
	)

	cached, found, err := m.cachedEndpoints(info, userPrincipalName)
	if err != nil {
		m.logEvent(ctx, logger.Err, "validated authority cache check failed", id, []any{logger.Field("code", errors.Code(err))}, nil)
		return authority.Info{}, authority.Endpoints{}, err
	}
	if found {
		m.logEvent(ctx, logger.Info, "authority found in validated authority cache", id, nil,
			[]any{logger.Field("authority", info.CanonicalAuthorityURI)},
		)
		return cached.Info, cached.Endpoints, nil
	}
	m.logEvent(ctx, logger.Info, "authority not found in validated authority cache", id, nil,
		[]any{logger.Field("authority", info.CanonicalAuthorityURI), logger.Field("upn", userPrincipalName)},
	)

	endpoint, discovered, err := m.openIDConfigurationEndpoint(ctx, info, userPrincipalName, id)
	if err != nil {
		m.logEvent(ctx, logger.Err, "could not determine the openid configuration endpoint", id, []any{logger.Field("code", errors.Code(err))}, nil)
		return authority.Info{}, authority.Endpoints{}, err
	}

	resp, err := m.tenantDiscovery(ctx, endpoint)
	if err != nil {
		m.logEvent(ctx, logger.Err, "tenant discovery failed", id, nil, []any{logger.Field("endpoint", endpoint)})
		return authority.Info{}, authority.Endpoints{}, err
	}
	if err := resp.Validate(); err != nil {
		m.logEvent(ctx, logger.Err, "tenant discovery response is incomplete", id, nil, []any{logger.Field("endpoint", endpoint)})
		return authority.Info{}, authority.Endpoints{}, fmt.Errorf("ResolveEndpoints(): %w", err)
	}

	endpoints := authority.EndpointsFromDiscovery(resp, info.Tenant, info.Host)
	if discovered != nil {
		m.instances.Add(info.Host, *discovered)
	}
	m.addCachedEndpoints(info, userPrincipalName, endpoints)

	m.logEvent(ctx, logger.Info, "authority endpoints resolved", id, nil,
		[]any{logger.Field("authority", info.CanonicalAuthorityURI), logger.Field("token_endpoint", endpoints.TokenEndpoint)},
	)
	return info, endpoints, nil
}

// cachedEndpoints checks the validated authority cache. ADFS authorities need a UPN whose domain
// was validated before; the UPN is required even when the authority is not cached.
func (m *authorityEndpoint) cachedEndpoints(authorityInfo authority.Info, userPrincipalName string) (ValidatedAuthority, bool, error) {
	switch authorityInfo.AuthorityType {
	case authority.ADFS:
		domain, err := authority.DomainFromUPN(userPrincipalName)
		if err != nil {
			return ValidatedAuthority{}, false, err
		}
		va, ok := m.validated.LookupForDomain(authorityInfo.CanonicalAuthorityURI, domain)
		return va, ok, nil
	case authority.AAD, authority.B2C:
		va, ok := m.validated.Lookup(authorityInfo.CanonicalAuthorityURI)
		return va, ok, nil
	}
	return ValidatedAuthority{}, false, fmt.Errorf("unknown authority type %q", authorityInfo.AuthorityType)
}

func (m *authorityEndpoint) addCachedEndpoints(authorityInfo authority.Info, userPrincipalName string, endpoints authority.Endpoints) {
	domain := ""
	if authorityInfo.AuthorityType == authority.ADFS {
		// cachedEndpoints already checked the UPN
		domain, _ = authority.DomainFromUPN(userPrincipalName)
	}
	m.validated.Add(ValidatedAuthority{Info: authorityInfo, Endpoints: endpoints}, domain)
}

// openIDConfigurationEndpoint returns the OpenID configuration endpoint of the authority. When it
// came from instance discovery, the discovery response is returned too; the caller caches it once
// resolution has succeeded.
func (m *authorityEndpoint) openIDConfigurationEndpoint(ctx context.Context, authorityInfo authority.Info, userPrincipalName, correlationID string) (string, *authority.InstanceDiscoveryResponse, error) {
	switch authorityInfo.AuthorityType {
	case authority.AAD:
		if authorityInfo.ValidateAuthority && !authority.TrustedHost(authorityInfo.Host) {
			resp, err := m.discoverInstance(ctx, authorityInfo)
			if err != nil {
				return "", nil, err
			}
			return resp.TenantDiscoveryEndpoint, &resp, nil
		}
		return authorityInfo.OpenIDConfigurationEndpoint(), nil, nil

	case authority.B2C:
		if authorityInfo.ValidateAuthority && !authorityInfo.B2CTrusted() {
			return "", nil, errors.NewClientError(errors.CodeUnsupportedAuthorityValidation, "validation is not supported for this B2C authority host")
		}
		return authorityInfo.OpenIDConfigurationEndpoint(), nil, nil

	case authority.ADFS:
		if !authorityInfo.ValidateAuthority {
			return authorityInfo.OpenIDConfigurationEndpoint(), nil, nil
		}
		if err := m.validateADFS(ctx, authorityInfo, userPrincipalName, correlationID); err != nil {
			return "", nil, err
		}
		return authorityInfo.OpenIDConfigurationEndpoint(), nil, nil
	}
	return "", nil, fmt.Errorf("unknown authority type %q", authorityInfo.AuthorityType)
}

// validateADFS finds the ADFS server for the UPN's domain through DRS and asks it, with WebFinger,
// whether it vouches for the authority.
func (m *authorityEndpoint) validateADFS(ctx context.Context, authorityInfo authority.Info, userPrincipalName, correlationID string) error {
	domain, err := authority.DomainFromUPN(userPrincipalName)
	if err != nil {
		return err
	}

	drs, err := m.drsMetadata(ctx, domain, correlationID)
	if err != nil {
		return err
	}
	passive := drs.IdentityProviderService.PassiveAuthEndpoint
	if passive == "" {
		return errors.NewClientError(errors.CodeInvalidAuthority, "DRS response has no passive auth endpoint")
	}

	resource := "https://" + authorityInfo.Host
	ctx, span := m.startSpan(ctx, "adfs.webfinger", attribute.String("authority.host", authorityInfo.Host))
	wf, err := m.rest.WebFinger(ctx, passive, resource)
	if err != nil {
		var callErr errors.CallErr
		if stderrors.As(err, &callErr) && callErr.Resp != nil {
			err = &errors.ClientError{Code: errors.CodeAuthorityValidationFailed, Message: "webfinger request was rejected", Err: err}
		}
		endSpan(span, err)
		return err
	}
	if !wf.Trusts(resource) {
		err = errors.NewClientError(errors.CodeAuthorityValidationFailed, "ADFS server does not list the authority as a trusted realm")
		endSpan(span, err)
		m.logEvent(ctx, logger.Warn, "webfinger validation failed", correlationID, nil,
			[]any{logger.Field("resource", resource), logger.Field("passive_auth_endpoint", passive)},
		)
		return err
	}
	endSpan(span, nil)
	m.logEvent(ctx, logger.Info, "ADFS authority validated", correlationID, nil, []any{logger.Field("domain", domain)})
	return nil
}

// drsMetadata asks the domain's on-premise DRS first and falls back to the cloud DRS on any failure.
func (m *authorityEndpoint) drsMetadata(ctx context.Context, domain, correlationID string) (authority.DRSMetadata, error) {
	resp, err := m.drs(ctx, domain, true)
	if err == nil {
		return resp, nil
	}
	m.logEvent(ctx, logger.Warn, "on-premise DRS lookup failed, trying cloud DRS", correlationID, nil, []any{logger.Field("domain", domain)})
	return m.drs(ctx, domain, false)
}

func (m *authorityEndpoint) drs(ctx context.Context, domain string, onPremise bool) (authority.DRSMetadata, error) {
	ctx, span := m.startSpan(ctx, "adfs.drs", attribute.Bool("drs.on_premise", onPremise))
	resp, err := m.rest.DRSMetadata(ctx, domain, onPremise)
	endSpan(span, err)
	return resp, err
}

func (m *authorityEndpoint) tenantDiscovery(ctx context.Context, endpoint string) (authority.TenantDiscoveryResponse, error) {
	ctx, span := m.startSpan(ctx, "tenant.discovery")
	resp, err := m.rest.TenantDiscovery(ctx, endpoint)
	endSpan(span, err)
	return resp, err
}

// discoverInstance calls instance discovery for authorityInfo. It does not cache the result.
// When validating, a reply without a tenant discovery endpoint fails with the service's own error.
func (m *authorityEndpoint) discoverInstance(ctx context.Context, authorityInfo authority.Info) (authority.InstanceDiscoveryResponse, error) {
	ctx, span := m.startSpan(ctx, "instance.discovery", attribute.Bool("authority.validate", authorityInfo.ValidateAuthority))
	resp, err := m.rest.AADInstanceDiscovery(ctx, authorityInfo)
	if err == nil && authorityInfo.ValidateAuthority && resp.TenantDiscoveryEndpoint == "" {
		code := resp.Error
		if code == "" {
			code = errors.CodeInvalidInstance
		}
		err = &errors.ClientError{Code: code, Message: resp.ErrorDescription}
	}
	endSpan(span, err)
	if err != nil {
		return authority.InstanceDiscoveryResponse{}, err
	}
	return resp, nil
}

// instanceMetadata returns the cached metadata for the authority's host, discovering it once if needed.
// Concurrent callers share one discovery request, which is not canceled with any caller's context;
// each caller stops waiting when its own context is done.
func (m *authorityEndpoint) instanceMetadata(ctx context.Context, authorityInfo authority.Info) (authority.InstanceDiscoveryMetadata, error) {
	if md, ok := m.instances.Lookup(authorityInfo.Host); ok {
		return md, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := m.instances.group.DoChan(authorityInfo.Host, func() (interface{}, error) {
		if md, ok := m.instances.Lookup(authorityInfo.Host); ok {
			return md, nil
		}
		resp, err := m.discoverInstance(shared, authorityInfo)
		if err != nil {
			return nil, err
		}
		m.instances.Add(authorityInfo.Host, resp)
		md, _ := m.instances.Lookup(authorityInfo.Host)
		return md, nil
	})
	select {
	case <-ctx.Done():
		return authority.InstanceDiscoveryMetadata{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return authority.InstanceDiscoveryMetadata{}, r.Err
		}
		return r.Val.(authority.InstanceDiscoveryMetadata), nil
	}
}

// UpdateCanonicalAuthority moves an AAD authority to the preferred network host of its cloud. B2C
// authorities are checked against the trusted hosts; ADFS authorities are returned unchanged.
func (m *authorityEndpoint) UpdateCanonicalAuthority(ctx context.Context, authorityInfo authority.Info) (authority.Info, error) {
	switch authorityInfo.AuthorityType {
	case authority.AAD:
		md, err := m.instanceMetadata(ctx, authorityInfo)
		if err != nil {
			return authority.Info{}, err
		}
		updated := authorityInfo.WithHost(md.PreferredNetwork)
		if updated.Host != authorityInfo.Host {
			m.logger.Log(ctx, logger.Info, "authority host moved to preferred network")
			m.logger.LogPii(ctx, logger.Info, "authority host moved to preferred network", logger.Field("from", authorityInfo.Host), logger.Field("to", updated.Host))
		}
		return updated, nil
	case authority.B2C:
		if authorityInfo.ValidateAuthority && !authorityInfo.B2CTrusted() {
			return authority.Info{}, errors.NewClientError(errors.CodeUnsupportedAuthorityValidation, "validation is not supported for this B2C authority host")
		}
	}
	return authorityInfo, nil
}

// FederatedAuthority looks up the user realm of userPrincipalName at an AAD authority and returns the
// ADFS authority the account is federated to.
func (m *authorityEndpoint) FederatedAuthority(ctx context.Context, authorityInfo authority.Info, userPrincipalName string) (authority.Info, error) {
	if authorityInfo.AuthorityType != authority.AAD {
		return authority.Info{}, errors.NewClientError(errors.CodeUnsupportedAuthorityType, "user realm discovery needs an AAD authority")
	}
	if _, err := authority.DomainFromUPN(userPrincipalName); err != nil {
		return authority.Info{}, err
	}

	ctx, span := m.startSpan(ctx, "user_realm")
	realm, err := m.rest.UserRealm(ctx, authorityInfo, userPrincipalName)
	endSpan(span, err)
	if err != nil {
		return authority.Info{}, err
	}
	adfs, err := realm.FederatedAuthority()
	if err != nil {
		m.logger.Log(ctx, logger.Warn, "account is not federated", logger.Field("account_type", realm.AccountType))
		m.logger.LogPii(ctx, logger.Warn, "account is not federated", logger.Field("account_type", realm.AccountType), logger.Field("upn", userPrincipalName))
		return authority.Info{}, err
	}
	m.logger.Log(ctx, logger.Info, "account is federated to ADFS")
	m.logger.LogPii(ctx, logger.Info, "account is federated to ADFS", logger.Field("authority", adfs))
	return authority.NewInfoFromADFS(adfs, authorityInfo.ValidateAuthority)
}
