package authclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// inspectStoredToken decides whether a persisted credential is worth
// hydrating. The token is opaque per the API contract, but when it happens to
// be a JWT its unverified claims let us catch an expired token or an identity
// mismatch at startup without burning a network round trip. Signature
// verification is the server's job, never the client's.
func inspectStoredToken(raw, expectedIdentityID string, now time.Time) (Identity, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		// Not a JWT. Hydrate as-is and let the first API call decide.
		return Identity{ID: expectedIdentityID}, true
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Time.Before(now) {
		return Identity{}, false
	}

	sub, _ := claims.GetSubject()
	if expectedIdentityID != "" && sub != "" && sub != expectedIdentityID {
		return Identity{}, false
	}

	id := expectedIdentityID
	if id == "" {
		id = sub
	}

	return Identity{ID: id}, true
}
