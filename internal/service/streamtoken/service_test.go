package streamtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	svc := New("shared-secret", time.Hour)

	tok, err := svc.Issue("example.org")
	require.NoError(t, err)

	orgID, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "example.org", orgID)
}

func TestIssue_EmptySecretFails(t *testing.T) {
	svc := New("", time.Hour)

	_, err := svc.Issue("example.org")
	assert.Error(t, err)
}

func TestVerify_EmptySecretFails(t *testing.T) {
	svc := New("shared-secret", time.Hour)
	tok, err := svc.Issue("example.org")
	require.NoError(t, err)

	other := New("", time.Hour)
	_, err = other.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_WrongSecretFails(t *testing.T) {
	svc := New("shared-secret", time.Hour)
	tok, err := svc.Issue("example.org")
	require.NoError(t, err)

	other := New("a-different-secret", time.Hour)
	_, err = other.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_ExpiredTokenFails(t *testing.T) {
	svc := New("shared-secret", -time.Minute)
	tok, err := svc.Issue("example.org")
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_MalformedTokenFails(t *testing.T) {
	svc := New("shared-secret", time.Hour)

	_, err := svc.Verify("not-a-jwt")
	assert.Error(t, err)
}
