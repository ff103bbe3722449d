// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package fake provides testify mocks of the authority REST client.
package fake

import (
	"context"

	"github.com/AzureAD/msal-instance-go/apps/internal/oauth/ops/authority"
	"github.com/stretchr/testify/mock"
)

// MockAuthority is a mock of the authority REST client. Expectations are matched on every argument
// except the context.
type MockAuthority struct {
	mock.Mock
}

func (m *MockAuthority) TenantDiscovery(ctx context.Context, endpoint string) (authority.TenantDiscoveryResponse, error) {
	args := m.Called(endpoint)
	return args.Get(0).(authority.TenantDiscoveryResponse), args.Error(1)
}

func (m *MockAuthority) AADInstanceDiscovery(ctx context.Context, authorityInfo authority.Info) (authority.InstanceDiscoveryResponse, error) {
	args := m.Called(authorityInfo.Host)
	return args.Get(0).(authority.InstanceDiscoveryResponse), args.Error(1)
}

func (m *MockAuthority) DRSMetadata(ctx context.Context, domain string, onPremise bool) (authority.DRSMetadata, error) {
	args := m.Called(domain, onPremise)
	return args.Get(0).(authority.DRSMetadata), args.Error(1)
}

func (m *MockAuthority) WebFinger(ctx context.Context, passiveAuthEndpoint, resource string) (authority.WebFingerResponse, error) {
	args := m.Called(passiveAuthEndpoint, resource)
	return args.Get(0).(authority.WebFingerResponse), args.Error(1)
}

func (m *MockAuthority) UserRealm(ctx context.Context, authorityInfo authority.Info, upn string) (authority.UserRealm, error) {
	args := m.Called(authorityInfo.Host, upn)
	return args.Get(0).(authority.UserRealm), args.Error(1)
}
