// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package oauth

import (
	"sync"

	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/authority"
)

// ValidatedAuthority is a resolved authority as stored in ValidatedAuthorities.
type ValidatedAuthority struct {
	Info      authority.Info
	Endpoints authority.Endpoints
}

type validatedEntry struct {
	authority ValidatedAuthority

	mu sync.Mutex
	// domains holds the UPN domains an ADFS authority was validated for. It only grows.
	domains map[string]bool
}

func (e *validatedEntry) addDomain(domain string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.domains == nil {
		e.domains = map[string]bool{}
	}
	e.domains[domain] = true
}

func (e *validatedEntry) hasDomain(domain string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.domains[domain]
}

// ValidatedAuthorities caches resolved authorities by canonical authority URI. It is safe for
// concurrent use. The first entry stored for an authority wins.
type ValidatedAuthorities struct {
	entries sync.Map // canonical authority URI -> *validatedEntry
}

// NewValidatedAuthorities returns an empty cache.
func NewValidatedAuthorities() *ValidatedAuthorities {
	return &ValidatedAuthorities{}
}

// Lookup returns the entry for canonicalAuthorityURI.
func (v *ValidatedAuthorities) Lookup(canonicalAuthorityURI string) (ValidatedAuthority, bool) {
	e, ok := v.entries.Load(canonicalAuthorityURI)
	if !ok {
		return ValidatedAuthority{}, false
	}
	return e.(*validatedEntry).authority, true
}

// LookupForDomain returns the entry for canonicalAuthorityURI if it was validated for domain.
func (v *ValidatedAuthorities) LookupForDomain(canonicalAuthorityURI, domain string) (ValidatedAuthority, bool) {
	e, ok := v.entries.Load(canonicalAuthorityURI)
	if !ok || !e.(*validatedEntry).hasDomain(domain) {
		return ValidatedAuthority{}, false
	}
	return e.(*validatedEntry).authority, true
}

// Add stores va unless its authority is already present. A non-empty domain is added to the
// stored entry's validated domains either way.
func (v *ValidatedAuthorities) Add(va ValidatedAuthority, domain string) {
	e, _ := v.entries.LoadOrStore(va.Info.CanonicalAuthorityURI, &validatedEntry{authority: va})
	if domain != "" {
		e.(*validatedEntry).addDomain(domain)
	}
}

// Clear removes every entry.
func (v *ValidatedAuthorities) Clear() {
	v.entries.Clear()
}

// Len returns the number of cached authorities.
func (v *ValidatedAuthorities) Len() int {
	n := 0
	v.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
