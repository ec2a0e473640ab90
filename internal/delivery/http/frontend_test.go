package http

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aras-services/broker-auth/config"
	"github.com/aras-services/broker-auth/internal/authdb/fake"
	"github.com/aras-services/broker-auth/internal/domain"
	"github.com/aras-services/broker-auth/internal/identity"
	"github.com/aras-services/broker-auth/internal/policy"
	"github.com/aras-services/broker-auth/internal/resource"
	"github.com/aras-services/broker-auth/internal/token"
	"github.com/aras-services/broker-auth/pkg/password"
)

func testPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		DefaultVHost:       "/",
		PushExchangePrefix: "_push",
		AutogenQueuePrefix: "stomp",
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *fake.Source) {
	t.Helper()

	hash, err := password.HashPassword("s3cret")
	require.NoError(t, err)

	src := fake.New().
		WithUser(domain.UserRecord{ID: uuid.New(), Login: "alice", OrgID: "example.org"}).
		WithOrg("example.org", fake.Org{StreamAPIEnabled: true, PushExchange: "_push.example.org"}).
		WithOrg("other.org", fake.Org{StreamAPIEnabled: true, PushExchange: "_push.other.org"}).
		WithComponent(domain.ComponentRecord{ID: uuid.New(), Login: "svc-pipeline", SecretHash: hash, IsAdministrator: true})

	resolver := identity.New(src, token.NewVerifier("test-secret"))
	classifier := resource.New(testPolicyConfig())
	engine := policy.New()
	logger := zap.NewNop()

	frontend := NewFrontend(resolver, classifier, engine, logger)

	r := chi.NewRouter()
	frontend.Routes(r)

	return httptest.NewServer(r), src
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values) string {
	t.Helper()

	resp, err := srv.Client().Post(srv.URL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// TestDefaultDeny covers Testable Property 1: every endpoint denies a
// request missing a required field.
func TestDefaultDeny(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	cases := []struct {
		path string
		form url.Values
	}{
		{"/user", url.Values{"username": {"alice@example.org"}}},
		{"/vhost", url.Values{"username": {"alice@example.org"}, "vhost": {"/"}}},
		{"/vhost", url.Values{"username": {"alice@example.org"}, "vhost": {"/"}, "ip": {""}}},
		{"/resource", url.Values{"username": {"alice@example.org"}, "vhost": {"/"}}},
		{"/topic", url.Values{"username": {"alice@example.org"}, "vhost": {"/"}}},
		{"/topic", url.Values{
			"username": {"alice@example.org"}, "vhost": {"/"},
			"resource": {"topic"}, "permission": {"read"}, "routing_key": {"example.org.events.#"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, "deny", postForm(t, srv, tc.path, tc.form))
		})
	}
}

func TestUserEndpoint_ComponentAdministrator(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	body := postForm(t, srv, "/user", url.Values{
		"username": {"svc-pipeline"},
		"password": {"s3cret"},
	})
	assert.Equal(t, "allow administrator", body)
}

func TestUserEndpoint_CertificateDerivedUser(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	body := postForm(t, srv, "/user", url.Values{
		"username": {"alice@example.org"},
		"password": {"ignored"},
	})
	assert.Equal(t, "allow", body)
}

func TestUserEndpoint_UnknownIdentityDenies(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	body := postForm(t, srv, "/user", url.Values{
		"username": {"nobody@example.org"},
		"password": {"not-a-token"},
	})
	assert.Equal(t, "deny", body)
}

// TestVhostIsolation covers Testable Property 2.
func TestVhostIsolation(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	allowed := postForm(t, srv, "/vhost", url.Values{
		"username": {"alice@example.org"}, "vhost": {"/"}, "ip": {"10.0.0.1"},
	})
	assert.Equal(t, "allow", allowed)

	denied := postForm(t, srv, "/vhost", url.Values{
		"username": {"alice@example.org"}, "vhost": {"other"}, "ip": {"10.0.0.1"},
	})
	assert.Equal(t, "deny", denied)
}

// TestResourcePushExchangeOwnership covers Testable Property 5.
func TestResourcePushExchangeOwnership(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	own := postForm(t, srv, "/resource", url.Values{
		"username": {"alice@example.org"}, "vhost": {"/"},
		"resource": {"exchange"}, "name": {"_push.example.org"}, "permission": {"read"},
	})
	assert.Equal(t, "allow", own)

	other := postForm(t, srv, "/resource", url.Values{
		"username": {"alice@example.org"}, "vhost": {"/"},
		"resource": {"exchange"}, "name": {"_push.other.org"}, "permission": {"read"},
	})
	assert.Equal(t, "deny", other)
}

// TestTopicScoping covers Testable Property 6 and the concrete scenario in
// spec §8.
func TestTopicScoping(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	body := postForm(t, srv, "/topic", url.Values{
		"username": {"alice@example.org"}, "vhost": {"/"},
		"resource": {"topic"}, "name": {"_push"}, "permission": {"read"},
		"routing_key": {"example.org.events.#"},
	})
	assert.Equal(t, "allow", body)

	denied := postForm(t, srv, "/topic", url.Values{
		"username": {"alice@example.org"}, "vhost": {"/"},
		"resource": {"topic"}, "name": {"_push"}, "permission": {"read"},
		"routing_key": {"other.org.events.#"},
	})
	assert.Equal(t, "deny", denied)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
