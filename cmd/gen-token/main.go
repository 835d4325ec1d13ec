// Command gen-token mints HS256 bearer tokens for servers running in local
// auth mode. The secret comes from LOCAL_AUTH_SHARED_SECRET or TEST_JWT_SECRET.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
)

func main() {
	var (
		ttl      = flag.Duration("ttl", time.Hour, "token lifetime")
		audience = flag.String("aud", "", "audience claim")
		issuer   = flag.String("iss", "", "issuer claim")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: gen-token [flags] <workspace-user-id>")
	}
	secret := os.Getenv("LOCAL_AUTH_SHARED_SECRET")
	if secret == "" {
		secret = os.Getenv("TEST_JWT_SECRET")
	}

	tok, err := mint(secret, flag.Arg(0), *audience, *issuer, *ttl, time.Now())
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Print(tok)
}

func mint(secret, sub, aud, iss string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("LOCAL_AUTH_SHARED_SECRET or TEST_JWT_SECRET must be set")
	}
	if sub == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	claims := jwt.MapClaims{
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if aud != "" {
		claims["aud"] = aud
	}
	if iss != "" {
		claims["iss"] = iss
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
