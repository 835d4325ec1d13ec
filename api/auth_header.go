package api

import (
	"errors"
	"strings"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

const bearerPrefix = "Bearer "

// bearerTokenFromString returns the compact JWT carried by a bearer header.
// Anything that is not three dot separated segments is rejected before
// signature checks run.
func bearerTokenFromString(raw string) (string, error) {
	raw = strings.Trim(raw, " ")
	if raw == "" {
		return "", errMissingAuthorization
	}
	token, ok := strings.CutPrefix(raw, bearerPrefix)
	if !ok || token == "" {
		return "", errBadAuthorization
	}
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}
