package api

import (
	"errors"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// DefaultKeyCacheTTL bounds how long a resolved signing key is reused.
const DefaultKeyCacheTTL = 15 * time.Minute

// clockSkew is tolerated on exp/nbf/iat checks.
const clockSkew = time.Minute

// AuthConfig selects how bearer tokens are verified. A non-empty
// SharedSecret switches to HS256 local mode and the JWKS is ignored.
type AuthConfig struct {
	Audience     string
	Issuer       string
	SharedSecret string
	KeyCacheTTL  time.Duration
}

// Auth validates incoming JWT tokens and yields the workspace user ID
// from the sub claim.
type Auth struct {
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
	secret   []byte
	parser   *jwt.Parser

	keyCache    sync.Map
	keyCacheTTL time.Duration
	now         func() time.Time
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewAuth creates an Auth. jwks may be nil in local mode.
func NewAuth(jwks *keyfunc.JWKS, cfg AuthConfig) *Auth {
	a := &Auth{
		jwks:        jwks,
		audience:    cfg.Audience,
		issuer:      cfg.Issuer,
		keyCacheTTL: cfg.KeyCacheTTL,
		now:         time.Now,
	}
	if cfg.SharedSecret != "" {
		a.secret = []byte(cfg.SharedSecret)
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	} else {
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	}
	return a
}

// LocalMode reports whether tokens are verified with the shared secret.
func (a *Auth) LocalMode() bool { return len(a.secret) > 0 }

// UserIDFromAuthHeader extracts the user identifier from the Authorization header.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	token, err := bearerTokenFromString(h)
	if err != nil {
		return "", err
	}
	return a.UserIDFromToken(token)
}

// UserIDFromToken verifies a compact JWT and returns its subject.
func (a *Auth) UserIDFromToken(token string) (string, error) {
	if token == "" {
		return "", errBadAuthorization
	}
	parsed, err := a.parser.Parse(token, a.keyFor)
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := a.now()
	if !claims.VerifyExpiresAt(now.Add(-clockSkew).Unix(), true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now.Add(clockSkew).Unix(), false) {
		return "", errors.New("token not valid yet")
	}
	if !claims.VerifyIssuedAt(now.Add(clockSkew).Unix(), false) {
		return "", errors.New("token used before issued")
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, true) {
		return "", errors.New("invalid audience")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return "", errors.New("invalid issuer")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func (a *Auth) keyFor(token *jwt.Token) (any, error) {
	if a.LocalMode() {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	}
	if a.jwks == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := token.Header["kid"].(string)
	cacheable := kid != "" && a.keyCacheTTL > 0
	if cacheable {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if a.now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}

	key, err := a.jwks.Keyfunc(token)
	if err != nil {
		return nil, err
	}
	if cacheable {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: a.now().Add(a.keyCacheTTL)})
	}
	return key, nil
}
