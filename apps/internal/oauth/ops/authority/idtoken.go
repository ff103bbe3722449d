// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package authority

import (
	"github.com/AzureAD/msal-instance-go/apps/errors"
	"github.com/golang-jwt/jwt/v5"
)

// idTokenClaims holds the claims read from an ID token when updating a tenantless authority.
type idTokenClaims struct {
	TenantID string `json:"tid"`
	jwt.RegisteredClaims
}

// TenantFromIDToken returns the "tid" claim of rawIDToken. The signature is not verified; the token
// is expected to come from a token response that was already validated.
func TenantFromIDToken(rawIDToken string) (string, error) {
	claims := idTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, &claims); err != nil {
		return "", err
	}
	if claims.TenantID == "" {
		return "", errors.New("id token has no tid claim")
	}
	return claims.TenantID, nil
}
