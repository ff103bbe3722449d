// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

/*
Package ops provides operations to various backend services using REST clients.

The REST type provides several clients that can be used to communicate to backends.
Usage is simple:

	rest := ops.New(http.DefaultClient)

	// Creates an authority client and calls the AADInstanceDiscovery() method.
	resp, err := rest.Authority().AADInstanceDiscovery(ctx, authorityInfo)
*/
package ops

import (
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/authority"
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/internal/comm"
)

// HTTPClient represents an HTTP client.
// It's usually an *http.Client from the standard library.
type HTTPClient = comm.HTTPClient

// REST provides REST clients for communicating with various backends used by MSAL.
type REST struct {
	client *comm.Client
}

// New is the constructor for REST.
func New(httpClient HTTPClient) *REST {
	return &REST{client: comm.New(httpClient)}
}

// Authority returns a client for querying information about various authorities.
func (r *REST) Authority() authority.Client {
	return authority.Client{Comm: r.client}
}
