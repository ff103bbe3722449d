// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package instance

import (
	"github.com/AzureAD/msal-instance-go/apps/internal/oauth"
)

// defaultCache is shared by every Resolver created without WithCache.
var defaultCache = NewCache()

// Cache holds resolved authorities and AAD instance metadata. Entries live until Clear is called.
// A Cache is safe for concurrent use.
type Cache struct {
	validated *oauth.ValidatedAuthorities
	instances *oauth.InstanceCache
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		validated: oauth.NewValidatedAuthorities(),
		instances: oauth.NewInstanceCache(),
	}
}

// DefaultCache returns the process-wide Cache.
func DefaultCache() *Cache {
	return defaultCache
}

// Clear removes every resolved authority. Instance metadata is kept.
func (c *Cache) Clear() {
	c.validated.Clear()
}

// Len returns the number of resolved authorities.
func (c *Cache) Len() int {
	return c.validated.Len()
}
