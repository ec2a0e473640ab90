// Package streamtoken issues short-lived JWTs for organizations that are
// stream-API enabled. It is not part of the broker's own authentication
// path — the broker never sees a JWT, only the bespoke HMAC token verified
// by internal/token — but it gives consumers of org_has_stream_api a
// concrete, signed credential to hand to downstream stream-API clients.
package streamtoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload embedded in an issued stream-API token.
type Claims struct {
	OrgID string `json:"org_id"`
	jwt.RegisteredClaims
}

// Service signs and verifies stream-API tokens with a single HMAC secret,
// matching the broker token's server secret so operators only manage one
// shared value.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// New builds a Service. An empty secret makes Issue always fail, the same
// fail-closed posture internal/token takes.
func New(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Issue signs a stream-API token for orgID, valid for the configured TTL.
func (s *Service) Issue(orgID string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("stream-API token issuance disabled: empty secret")
	}

	now := time.Now()
	claims := Claims{
		OrgID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verify parses and validates a stream-API token, returning the embedded
// organization id.
func (s *Service) Verify(tokenString string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("stream-API token verification disabled: empty secret")
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("verifying stream-API token: %w", err)
	}
	if !tok.Valid {
		return "", fmt.Errorf("invalid stream-API token")
	}

	return claims.OrgID, nil
}
