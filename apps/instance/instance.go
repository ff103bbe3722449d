// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

/*
Package instance resolves authority URLs to the endpoints used for token requests.

An authority is created from a URL, optionally moved to the preferred host of its cloud and then
resolved. Resolution results are cached per process, so only the first resolution of an authority
touches the network:

	resolver, err := instance.New()
	if err != nil {
		// handle error
	}
	a, err := resolver.CreateAuthority("https://login.microsoftonline.com/contoso.onmicrosoft.com", true)
	if err != nil {
		// handle error
	}
	if err := a.ResolveEndpoints(ctx, ""); err != nil {
		// handle error
	}
	fmt.Println(a.TokenEndpoint())

ADFS authorities cannot be created directly. They are found through the user realm of a federated
account with Resolver.FederatedAuthority.
*/
package instance

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AzureAD/msal-instance-go/apps/internal/logger"
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth"
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops"
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/authority"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// AuthorityType is the kind of identity provider an authority points at.
type AuthorityType = authority.Type

// These are the authority types.
const (
	AAD  AuthorityType = authority.AAD
	ADFS AuthorityType = authority.ADFS
	B2C  AuthorityType = authority.B2C
)

// HTTPClient represents an HTTP client.
// It's usually an *http.Client from the standard library.
type HTTPClient = ops.HTTPClient

// Options configures the Resolver's behavior.
type Options struct {
	// HTTPClient sends discovery requests. When nil, an *http.Client whose transport creates a span
	// for every request is used. This can be set with the WithHTTPClient() option.
	HTTPClient HTTPClient

	// Logger receives log events. There is no logging by default.
	// This can be set with the WithLogger() option.
	Logger *slog.Logger

	// PiiLogging adds authorities, hosts and user principal names to log events.
	// This can be set with the WithPiiLogging() option.
	PiiLogging bool

	// Cache holds resolved authorities and instance metadata. The default is shared by every
	// Resolver in the process. This can be set with the WithCache() option.
	Cache *Cache

	// TracerProvider creates the spans wrapping discovery requests. The default is the global provider.
	// This can be set with the WithTracerProvider() option.
	TracerProvider trace.TracerProvider
}

func (o Options) validate() error {
	if o.Cache == nil {
		return fmt.Errorf("Cache cannot be nil")
	}
	return nil
}

// Option is an optional argument to the New constructor.
type Option func(o *Options)

// WithHTTPClient allows for a custom HTTP client to be set.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(o *Options) {
		o.HTTPClient = httpClient
	}
}

// WithLogger sets the logger receiving log events.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithPiiLogging enables or disables logging of personal data. It has no effect without WithLogger.
func WithPiiLogging(enabled bool) Option {
	return func(o *Options) {
		o.PiiLogging = enabled
	}
}

// WithCache sets the cache used by the Resolver. Use NewCache() to isolate a Resolver from the
// process-wide cache.
func WithCache(c *Cache) Option {
	return func(o *Options) {
		o.Cache = c
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		o.TracerProvider = tp
	}
}

// Resolver creates authorities and resolves their endpoints. It is safe for concurrent use.
type Resolver struct {
	client *oauth.Client
}

// New is the constructor for Resolver.
func New(options ...Option) (*Resolver, error) {
	opts := Options{Cache: defaultCache}
	for _, o := range options {
		o(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Transport: newTransport(opts.TracerProvider)}
	}

	var l *logger.Logger
	if opts.Logger != nil {
		l = logger.New(opts.Logger, opts.PiiLogging)
	}
	client := oauth.New(opts.HTTPClient, oauth.Options{
		Validated:      opts.Cache.validated,
		Instances:      opts.Cache.instances,
		Logger:         l,
		TracerProvider: opts.TracerProvider,
	})
	return &Resolver{client: client}, nil
}

// CreateAuthority creates an unresolved AAD or B2C authority. When validateAuthority is true the
// authority's host is checked during resolution. ADFS authorities are rejected.
func (r *Resolver) CreateAuthority(authorityURI string, validateAuthority bool) (*Authority, error) {
	info, err := authority.NewInfoFromAuthorityURI(authorityURI, validateAuthority)
	if err != nil {
		return nil, err
	}
	return &Authority{resolver: r, info: info}, nil
}

// FederatedAuthority looks up the user realm of userPrincipalName at the AAD authority aad. If the
// account is federated, it returns an unresolved ADFS authority with the validation setting of aad.
func (r *Resolver) FederatedAuthority(ctx context.Context, aad *Authority, userPrincipalName string) (*Authority, error) {
	info, err := r.client.FederatedAuthority(ctx, aad.snapshot(), userPrincipalName)
	if err != nil {
		return nil, err
	}
	return &Authority{resolver: r, info: info}, nil
}

// DetectAuthorityType returns the type of authorityURI without any network access.
func DetectAuthorityType(authorityURI string) (AuthorityType, error) {
	u, err := authority.Validate(authority.Canonicalize(authorityURI))
	if err != nil {
		return "", err
	}
	return authority.Classify(u), nil
}

// newTransport wraps http.DefaultTransport so each discovery request gets a client span. A nil tp
// means the global tracer provider.
func newTransport(tp trace.TracerProvider) http.RoundTripper {
	var opts []otelhttp.Option
	if tp != nil {
		opts = append(opts, otelhttp.WithTracerProvider(tp))
	}
	return otelhttp.NewTransport(http.DefaultTransport, opts...)
}
