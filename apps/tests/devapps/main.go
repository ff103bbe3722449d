// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/AzureAD/msal-instance-go/apps/errors"
	"github.com/AzureAD/msal-instance-go/apps/instance"
)

func main() {
	ctx := context.Background()
	config := CreateConfig("config.json")

	// Choose a sample to run.
	exampleType := "1"

	resolver, err := instance.New(
		instance.WithLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		instance.WithPiiLogging(config.PiiLogging),
	)
	if err != nil {
		log.Fatal(err)
	}

	switch exampleType {
	case "1":
		resolveAuthority(ctx, resolver, config)

		// this time the endpoints come from the cache!
		resolveAuthority(ctx, resolver, config)
	case "2":
		resolveFederatedAuthority(ctx, resolver, config)
	}
}

// authority returns the configured authority, or the authority of the configured cloud and tenant.
func authority(config *Config) string {
	if config.Authority != "" {
		return config.Authority
	}
	c := cloud.AzurePublic
	switch config.Cloud {
	case "china":
		c = cloud.AzureChina
	case "government":
		c = cloud.AzureGovernment
	}
	tenant := config.Tenant
	if tenant == "" {
		tenant = "common"
	}
	a, err := instance.AuthorityFromCloud(c, tenant)
	if err != nil {
		log.Fatal(err)
	}
	return a
}

func resolveAuthority(ctx context.Context, resolver *instance.Resolver, config *Config) {
	a, err := resolver.CreateAuthority(authority(config), config.ValidateAuthority)
	if err != nil {
		log.Fatal(err)
	}
	if err := a.UpdateCanonicalAuthority(ctx); err != nil {
		log.Fatal(errors.Verbose(err))
	}
	if err := a.ResolveEndpoints(ctx, config.Username); err != nil {
		log.Fatal(errors.Verbose(err))
	}
	printAuthority(a)
}

func resolveFederatedAuthority(ctx context.Context, resolver *instance.Resolver, config *Config) {
	aad, err := resolver.CreateAuthority(authority(config), config.ValidateAuthority)
	if err != nil {
		log.Fatal(err)
	}
	adfs, err := resolver.FederatedAuthority(ctx, aad, config.Username)
	if err != nil {
		log.Fatal(errors.Verbose(err))
	}
	if err := adfs.ResolveEndpoints(ctx, config.Username); err != nil {
		log.Fatal(errors.Verbose(err))
	}
	printAuthority(adfs)
}

func printAuthority(a *instance.Authority) {
	fmt.Printf("\n%s authority %s\n", a.Type(), a.CanonicalAuthority())
	fmt.Printf("authorization endpoint %s\n", a.AuthorizationEndpoint())
	fmt.Printf("token endpoint %s\n", a.TokenEndpoint())
	fmt.Printf("end session endpoint %s\n", a.EndSessionEndpoint())
	fmt.Printf("self signed jwt audience %s\n\n", a.SelfSignedJwtAudience())
}
