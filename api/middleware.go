package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/config"
	"github.com/linesmerrill/court-session-api/models"
)

// ErrUnauthorized is returned for a missing, malformed or expired token
var ErrUnauthorized = errors.New("unauthorized")

type identityKey struct{}

// Claims is the token body issued at login
type Claims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Guard issues identity tokens and authenticates bearer requests with them
type Guard struct {
	secret        []byte
	ttl           time.Duration
	authenticator auth.Authenticator
	now           func() time.Time
}

// NewGuard sets up go-guardian with a cached bearer strategy. Tokens are
// HS256 JWTs signed with secret; the cache holds a validated token for ttl.
func NewGuard(ctx context.Context, secret string, ttl time.Duration) *Guard {
	g := &Guard{secret: []byte(secret), ttl: ttl, now: time.Now}
	cache := store.NewFIFO(ctx, ttl)
	g.authenticator = auth.New()
	g.authenticator.EnableStrategy(bearer.CachedStrategyKey, bearer.New(g.validate, cache))
	return g
}

// Issue signs a token for identity
func (g *Guard) Issue(identity models.Identity) (string, time.Time, error) {
	now := g.now()
	expires := now.Add(g.ttl)
	claims := Claims{
		Name: identity.DisplayName,
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates a token and returns the identity it was issued for
func (g *Guard) Parse(token string) (models.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now))
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return models.Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return models.Identity{ID: claims.Subject, DisplayName: claims.Name, Role: claims.Role}, nil
}

func (g *Guard) validate(_ context.Context, _ *http.Request, token string) (auth.Info, error) {
	identity, err := g.Parse(token)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(identity.DisplayName, identity.ID, []string{string(identity.Role)}, nil), nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's identity on the request context
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := g.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Debugw("unauthorized", "url", r.URL.Path, "error", err)
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
			return
		}
		identity := models.Identity{ID: info.ID(), DisplayName: info.UserName()}
		if groups := info.Groups(); len(groups) > 0 {
			identity.Role = models.Role(groups[0])
		}
		zap.S().Debugw("identity authenticated", "user_id", identity.ID)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the identity the middleware authenticated
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok
}
