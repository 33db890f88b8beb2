package ports

import (
	"context"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
)

type sessionKey struct{}

type accessTokenKey struct{}

// WithSession stores the resolved session on ctx.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session stored by WithSession, if any.
func SessionFrom(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*domain.Session)
	return session, ok && session != nil
}

// WithAccessToken stores the bearer token for outbound API calls.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFrom returns the bearer token for outbound calls. A session on
// ctx is used when no explicit token was set.
func AccessTokenFrom(ctx context.Context) string {
	if token, ok := ctx.Value(accessTokenKey{}).(string); ok && token != "" {
		return token
	}
	if session, ok := SessionFrom(ctx); ok {
		return session.AccessToken
	}
	return ""
}
