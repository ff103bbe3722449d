// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package oauth resolves authorities to the endpoints used for token requests. It owns the
// validated authority and instance discovery caches and the per-variant discovery rules.
package oauth

import (
	"context"

	"github.com/AzureAD/msal-instance-go/apps/internal/logger"
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops"
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/authority"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ResolveEndpointer contains the methods for resolving authority endpoints.
type ResolveEndpointer interface {
	ResolveEndpoints(ctx context.Context, authorityInfo authority.Info, userPrincipalName string) (authority.Info, authority.Endpoints, error)
	UpdateCanonicalAuthority(ctx context.Context, authorityInfo authority.Info) (authority.Info, error)
	FederatedAuthority(ctx context.Context, authorityInfo authority.Info, userPrincipalName string) (authority.Info, error)
}

// Options configures a Client.
type Options struct {
	Validated      *ValidatedAuthorities
	Instances      *InstanceCache
	Logger         *logger.Logger
	TracerProvider trace.TracerProvider
}

// Client resolves authorities through the REST clients in Authority.
type Client struct {
	Resolver  ResolveEndpointer
	Authority fetchAuthority
}

// New is the constructor for Client. Nil caches in opts are replaced by new empty ones.
func New(httpClient ops.HTTPClient, opts Options) *Client {
	r := ops.New(httpClient)
	return newClient(r.Authority(), opts)
}

func newClient(rest fetchAuthority, opts Options) *Client {
	if opts.Validated == nil {
		opts.Validated = NewValidatedAuthorities()
	}
	if opts.Instances == nil {
		opts.Instances = NewInstanceCache()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	tracer := opts.TracerProvider.Tracer(tracerName)
	return &Client{
		Resolver:  newAuthorityEndpoint(rest, opts.Validated, opts.Instances, opts.Logger, tracer),
		Authority: rest,
	}
}

// ResolveEndpoints gets the authorization and token endpoints for authorityInfo.
func (c *Client) ResolveEndpoints(ctx context.Context, authorityInfo authority.Info, userPrincipalName string) (authority.Info, authority.Endpoints, error) {
	return c.Resolver.ResolveEndpoints(ctx, authorityInfo, userPrincipalName)
}

// UpdateCanonicalAuthority applies the variant's canonical authority rules to authorityInfo.
func (c *Client) UpdateCanonicalAuthority(ctx context.Context, authorityInfo authority.Info) (authority.Info, error) {
	return c.Resolver.UpdateCanonicalAuthority(ctx, authorityInfo)
}

// FederatedAuthority returns the ADFS authority userPrincipalName is federated to.
func (c *Client) FederatedAuthority(ctx context.Context, authorityInfo authority.Info, userPrincipalName string) (authority.Info, error) {
	return c.Resolver.FederatedAuthority(ctx, authorityInfo, userPrincipalName)
}
