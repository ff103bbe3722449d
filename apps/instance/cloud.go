// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package instance

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
)

// AuthorityFromCloud returns the authority URL for tenant in the cloud described by cfg, such as
// cloud.AzurePublic or cloud.AzureChina.
func AuthorityFromCloud(cfg cloud.Configuration, tenant string) (string, error) {
	host := strings.TrimSuffix(strings.TrimSpace(cfg.ActiveDirectoryAuthorityHost), "/")
	if host == "" {
		return "", fmt.Errorf("cloud configuration has no ActiveDirectoryAuthorityHost")
	}
	tenant = strings.Trim(strings.TrimSpace(tenant), "/")
	if tenant == "" {
		return "", fmt.Errorf("tenant cannot be empty")
	}
	return host + "/" + tenant + "/", nil
}
