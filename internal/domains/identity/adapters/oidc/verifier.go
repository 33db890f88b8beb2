package oidc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
)

var errNonceMismatch = errors.New("nonce mismatch")

type idTokenClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

// HMACVerifier verifies HS256 id_tokens signed with the application's client
// secret.
type HMACVerifier struct {
	secret   []byte
	issuer   string
	clientID string
	leeway   time.Duration
}

// NewHMACVerifier builds a verifier for tokens issued by https://<domain>/ to clientID.
func NewHMACVerifier(domainName, clientID, clientSecret string) (*HMACVerifier, error) {
	if strings.TrimSpace(clientSecret) == "" {
		return nil, errors.New("client secret is required to verify id tokens")
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("client id is required to verify id tokens")
	}
	return &HMACVerifier{
		secret:   []byte(clientSecret),
		issuer:   Issuer(domainName),
		clientID: clientID,
		leeway:   30 * time.Second,
	}, nil
}

// Verify checks signature, issuer, audience, expiry and nonce.
func (v *HMACVerifier) Verify(rawIDToken, nonce string) (*ports.Claims, error) {
	var claims idTokenClaims
	_, err := jwt.ParseWithClaims(rawIDToken, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	if nonce == "" || claims.Nonce != nonce {
		return nil, errNonceMismatch
	}
	return &ports.Claims{
		Identity: domain.Identity{
			Subject: claims.Subject,
			Name:    claims.Name,
			Email:   claims.Email,
		},
		Audience: []string(claims.Audience),
		Nonce:    claims.Nonce,
	}, nil
}

// Issuer is the iss claim of tokens minted by domainName.
func Issuer(domainName string) string {
	domainName = strings.TrimSpace(domainName)
	domainName = strings.TrimPrefix(strings.TrimPrefix(domainName, "https://"), "http://")
	return "https://" + strings.TrimSuffix(domainName, "/") + "/"
}

var _ ports.TokenVerifier = (*HMACVerifier)(nil)
