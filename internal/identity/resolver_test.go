package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aras-services/broker-auth/internal/authdb/fake"
	"github.com/aras-services/broker-auth/internal/domain"
	"github.com/aras-services/broker-auth/internal/token"
	"github.com/aras-services/broker-auth/pkg/password"
)

const serverSecret = "shared-secret"

func newFixture() (*fake.Source, *Resolver) {
	hash, _ := password.HashPassword("hunter2")
	src := fake.New().
		WithUser(domain.UserRecord{ID: uuid.New(), Login: "alice", OrgID: "example.org", Tags: nil}).
		WithOrg("example.org", fake.Org{StreamAPIEnabled: true, PushExchange: "_push.example.org"}).
		WithComponent(domain.ComponentRecord{ID: uuid.New(), Login: "svc-pipeline", SecretHash: hash, IsAdministrator: true})

	resolver := New(src, token.NewVerifier(serverSecret))
	return src, resolver
}

func TestResolve_CertificateDerivedLogin(t *testing.T) {
	_, resolver := newFixture()

	p, err := resolver.Resolve(context.Background(), "alice@example.org", "ignored")
	require.NoError(t, err)
	assert.True(t, p.IsUser())
	assert.Equal(t, "alice", p.UserLogin)
	assert.Equal(t, "example.org", p.OrgID)
	assert.True(t, p.StreamAPIEnabled)
}

func TestResolve_CertificateDerivedLogin_UnknownUser(t *testing.T) {
	_, resolver := newFixture()

	_, err := resolver.Resolve(context.Background(), "nobody@example.org", "ignored")
	assert.Error(t, err)
}

func TestResolve_ComponentCredential(t *testing.T) {
	_, resolver := newFixture()

	p, err := resolver.Resolve(context.Background(), "svc-pipeline", "hunter2")
	require.NoError(t, err)
	assert.True(t, p.IsComponent())
	assert.True(t, p.IsAdministrator)
}

func TestResolve_ComponentCredential_WrongSecret(t *testing.T) {
	_, resolver := newFixture()

	_, err := resolver.Resolve(context.Background(), "svc-pipeline", "not-the-secret")
	assert.Error(t, err)
}

func TestResolve_APIToken(t *testing.T) {
	_, resolver := newFixture()

	tok, err := token.Issue(serverSecret, "alice", "example.org", time.Now())
	require.NoError(t, err)

	p, err := resolver.Resolve(context.Background(), "alice", tok)
	require.NoError(t, err)
	assert.True(t, p.IsUser())
	assert.Equal(t, "example.org", p.OrgID)
}

func TestResolve_APIToken_LoginMismatch(t *testing.T) {
	_, resolver := newFixture()

	tok, err := token.Issue(serverSecret, "alice", "example.org", time.Now())
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "someone-else", tok)
	assert.Error(t, err)
}

func TestResolve_UnrecognizedCredentialDenies(t *testing.T) {
	_, resolver := newFixture()

	_, err := resolver.Resolve(context.Background(), "alice@example.org_no_match", "not-a-token")
	assert.Error(t, err)
}

func TestIdentify_ComponentByNameOnly(t *testing.T) {
	_, resolver := newFixture()

	p, err := resolver.Identify(context.Background(), "svc-pipeline")
	require.NoError(t, err)
	assert.True(t, p.IsComponent())
}

func TestIdentify_CertificateDerivedLogin(t *testing.T) {
	_, resolver := newFixture()

	p, err := resolver.Identify(context.Background(), "alice@example.org")
	require.NoError(t, err)
	assert.True(t, p.IsUser())
}
