// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package oauth

import (
	"sync"

	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/authority"
	"golang.org/x/sync/singleflight"
)

// InstanceCache holds AAD instance discovery metadata keyed by every host alias it names. It is safe
// for concurrent use and entries are never replaced once stored.
type InstanceCache struct {
	entries sync.Map // host -> authority.InstanceDiscoveryMetadata
	// group coalesces concurrent discovery for a host that is not cached yet.
	group singleflight.Group
}

// NewInstanceCache returns an empty cache.
func NewInstanceCache() *InstanceCache {
	return &InstanceCache{}
}

// Lookup returns the metadata cached for host.
func (c *InstanceCache) Lookup(host string) (authority.InstanceDiscoveryMetadata, bool) {
	v, ok := c.entries.Load(host)
	if !ok {
		return authority.InstanceDiscoveryMetadata{}, false
	}
	return v.(authority.InstanceDiscoveryMetadata), true
}

// Add stores each metadata entry of resp under all of its aliases, then makes sure host itself has an
// entry so a host the service does not know about is not looked up again.
func (c *InstanceCache) Add(host string, resp authority.InstanceDiscoveryResponse) {
	for _, md := range resp.Metadata {
		for _, alias := range md.Aliases {
			c.entries.LoadOrStore(alias, md)
		}
	}
	c.entries.LoadOrStore(host, authority.InstanceDiscoveryMetadata{
		PreferredNetwork: host,
		PreferredCache:   host,
		Aliases:          []string{host},
	})
}

// Len returns the number of cached hosts.
func (c *InstanceCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
