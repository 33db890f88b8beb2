package ports

import (
	"context"
	"errors"
	"net/http"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
)

var (
	// ErrUnauthorized is returned when a call needs a signed-in user and there is none.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCallback is returned when the login callback fails verification.
	ErrInvalidCallback = errors.New("invalid login callback")
)

// Provider is the identity status collaborator. LoginWithRedirect answers the
// request with a redirect to the hosted login page and returns without waiting
// for the login to finish.
type Provider interface {
	Status(ctx context.Context) domain.Status
	LoginWithRedirect(w http.ResponseWriter, r *http.Request) error
}

// TokenVerifier validates the id_token handed back by the identity provider.
type TokenVerifier interface {
	Verify(rawIDToken, nonce string) (*Claims, error)
}

// Claims are the verified id_token claims the portal relies on.
type Claims struct {
	Identity domain.Identity
	Audience []string
	Nonce    string
}
