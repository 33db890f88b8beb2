package oidc

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDomain   = "ourfood.eu.auth0.com"
	testClientID = "portal-client"
	testSecret   = "portal-secret"
)

func signIDToken(t *testing.T, secret string, mutate func(*idTokenClaims)) string {
	t.Helper()
	claims := idTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer(testDomain),
			Subject:   "auth0|123",
			Audience:  jwt.ClaimStrings{testClientID},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Name:  "Ada",
		Email: "ada@example.com",
		Nonce: "nonce-1",
	}
	if mutate != nil {
		mutate(&claims)
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestHMACVerifier_Verify(t *testing.T) {
	v, err := NewHMACVerifier(testDomain, testClientID, testSecret)
	require.NoError(t, err)

	claims, err := v.Verify(signIDToken(t, testSecret, nil), "nonce-1")

	require.NoError(t, err)
	assert.Equal(t, "auth0|123", claims.Identity.Subject)
	assert.Equal(t, "Ada", claims.Identity.Name)
	assert.Equal(t, []string{testClientID}, claims.Audience)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v, err := NewHMACVerifier("https://"+testDomain+"/", testClientID, testSecret)
	require.NoError(t, err)

	cases := map[string]struct {
		token string
		nonce string
	}{
		"wrong secret":   {signIDToken(t, "other", nil), "nonce-1"},
		"wrong nonce":    {signIDToken(t, testSecret, nil), "nonce-2"},
		"wrong audience": {signIDToken(t, testSecret, func(c *idTokenClaims) { c.Audience = jwt.ClaimStrings{"someone-else"} }), "nonce-1"},
		"wrong issuer":   {signIDToken(t, testSecret, func(c *idTokenClaims) { c.Issuer = "https://evil.example/" }), "nonce-1"},
		"expired":        {signIDToken(t, testSecret, func(c *idTokenClaims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour)) }), "nonce-1"},
		"garbage":        {"not-a-jwt", "nonce-1"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tc.token, tc.nonce)
			assert.Error(t, err)
		})
	}
}

func TestNewHMACVerifier_RequiresSecret(t *testing.T) {
	_, err := NewHMACVerifier(testDomain, testClientID, "")
	assert.Error(t, err)
}

func TestIssuer(t *testing.T) {
	assert.Equal(t, "https://a.auth0.com/", Issuer("a.auth0.com"))
	assert.Equal(t, "https://a.auth0.com/", Issuer("https://a.auth0.com/"))
}
