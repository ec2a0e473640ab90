// Package token implements TokenVerifier (spec §4.3): verification of a
// stateless, HMAC-signed API token carrying (login, org_id, issued_at).
// Tokens are never expired at this layer — revocation happens by the
// issuer removing the referenced user from AuthDataSource.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aras-services/broker-auth/internal/apperr"
	"github.com/aras-services/broker-auth/internal/domain"
)

// segmentCount is the fixed number of dot-separated segments a
// well-formed token carries: login, org_id, issued_at, MAC.
const segmentCount = 4

// Verifier verifies tokens against a single pre-shared server secret,
// loaded once at startup and never mutated.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier. A Verifier built with an empty secret
// rejects every token it is given (spec §6: "rejecting tokens if empty"),
// rather than verifying against a known-empty key.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// LooksLikeToken is the cheap structural check IdentityResolver uses to
// decide whether a password-field value is worth handing to Verify at all,
// versus a plain component secret. It only checks segment count, not the
// MAC — a malformed value with the right shape still goes through Verify
// so that failure is logged as bad_credential rather than silently
// falling through to component-credential matching.
func LooksLikeToken(s string) bool {
	return strings.Count(s, ".") == segmentCount-1
}

// Verify checks token's structure and MAC, returning the embedded
// identity on success.
func (v *Verifier) Verify(tok string) (domain.APIToken, error) {
	if len(v.secret) == 0 {
		return domain.APIToken{}, apperr.BadCredential("token verification disabled: empty server secret")
	}

	parts := strings.Split(tok, ".")
	if len(parts) != segmentCount {
		return domain.APIToken{}, apperr.BadCredential("malformed token structure")
	}

	loginPart, orgPart, issuedPart, macPart := parts[0], parts[1], parts[2], parts[3]

	wantMAC, err := computeMAC(v.secret, loginPart, orgPart, issuedPart)
	if err != nil {
		return domain.APIToken{}, apperr.BadCredential("malformed token payload")
	}

	gotMAC, err := base64.RawURLEncoding.DecodeString(macPart)
	if err != nil {
		return domain.APIToken{}, apperr.BadCredential("malformed token MAC encoding")
	}

	if subtle.ConstantTimeCompare(wantMAC, gotMAC) != 1 {
		return domain.APIToken{}, apperr.BadCredential("token MAC mismatch")
	}

	login, err := decodeSegment(loginPart)
	if err != nil {
		return domain.APIToken{}, apperr.BadCredential("malformed token login")
	}
	orgID, err := decodeSegment(orgPart)
	if err != nil {
		return domain.APIToken{}, apperr.BadCredential("malformed token org id")
	}
	issuedRaw, err := decodeSegment(issuedPart)
	if err != nil {
		return domain.APIToken{}, apperr.BadCredential("malformed token timestamp")
	}

	issuedUnix, err := strconv.ParseInt(issuedRaw, 10, 64)
	if err != nil {
		return domain.APIToken{}, apperr.BadCredential("malformed token timestamp")
	}

	if login == "" || orgID == "" {
		return domain.APIToken{}, apperr.BadCredential("missing token fields")
	}

	return domain.APIToken{
		Login:    login,
		OrgID:    orgID,
		IssuedAt: time.Unix(issuedUnix, 0).UTC(),
	}, nil
}

// computeMAC recomputes the HMAC-SHA256 over the canonical serialization
// of the three payload segments exactly as they appear on the wire — the
// MAC is over the encoded segments, not the decoded values, so verification
// never needs to re-derive the issuer's exact encoding choices.
func computeMAC(secret []byte, loginPart, orgPart, issuedPart string) ([]byte, error) {
	mac := hmac.New(sha256.New, secret)
	payload := strings.Join([]string{loginPart, orgPart, issuedPart}, ".")
	if _, err := mac.Write([]byte(payload)); err != nil {
		return nil, fmt.Errorf("computing token MAC: %w", err)
	}
	return mac.Sum(nil), nil
}

func decodeSegment(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeSegment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// Issue mints a token for (login, orgID) at issuedAt, signed with secret.
// It lives alongside Verify so the wire format has exactly one
// implementation on each side of the round trip (spec §8 property 7);
// production issuance happens out of scope (spec §3), but this is the
// canonical encoder the issuer and this package's tests both exercise.
func Issue(secret string, login, orgID string, issuedAt time.Time) (string, error) {
	if secret == "" {
		return "", apperr.BadCredential("cannot issue tokens with an empty server secret")
	}

	loginPart := encodeSegment(login)
	orgPart := encodeSegment(orgID)
	issuedPart := encodeSegment(strconv.FormatInt(issuedAt.Unix(), 10))

	mac, err := computeMAC([]byte(secret), loginPart, orgPart, issuedPart)
	if err != nil {
		return "", err
	}

	macPart := base64.RawURLEncoding.EncodeToString(mac)
	return strings.Join([]string{loginPart, orgPart, issuedPart, macPart}, "."), nil
}
