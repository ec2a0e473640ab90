package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aras-services/broker-auth/config"
	"github.com/aras-services/broker-auth/internal/domain"
)

func testConfig() config.PolicyConfig {
	return config.PolicyConfig{
		DefaultVHost:            "/",
		PushExchangePrefix:      "_push",
		AutogenQueuePrefix:      "stomp",
		SharedInfrastructureCSV: "exchange:dead-letter,queue:retry-queue",
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := New(testConfig())
	pushExchange := "_push.example.org"

	cases := []struct {
		name         string
		ref          domain.ResourceRef
		push         string
		wantCategory domain.ResourceCategory
		wantVhostOK  bool
	}{
		{"wrong vhost", domain.ResourceRef{Vhost: "other", Kind: domain.ResourceExchange, Name: "amq.direct"}, pushExchange, domain.CategoryUnknown, false},
		{"system exchange", domain.ResourceRef{Vhost: "/", Kind: domain.ResourceExchange, Name: "amq.direct"}, pushExchange, domain.CategorySystem, true},
		{"autogen queue", domain.ResourceRef{Vhost: "/", Kind: domain.ResourceQueue, Name: "stomp-subscription-123"}, pushExchange, domain.CategoryPrivateAutogen, true},
		{"own push exchange", domain.ResourceRef{Vhost: "/", Kind: domain.ResourceExchange, Name: "_push.example.org"}, pushExchange, domain.CategoryPushExchange, true},
		{"other org push exchange is unknown", domain.ResourceRef{Vhost: "/", Kind: domain.ResourceExchange, Name: "_push.other.org"}, pushExchange, domain.CategoryUnknown, true},
		{"shared infra exchange", domain.ResourceRef{Vhost: "/", Kind: domain.ResourceExchange, Name: "dead-letter"}, pushExchange, domain.CategorySharedInfrastructure, true},
		{"shared infra queue", domain.ResourceRef{Vhost: "/", Kind: domain.ResourceQueue, Name: "retry-queue"}, pushExchange, domain.CategorySharedInfrastructure, true},
		{"unknown queue", domain.ResourceRef{Vhost: "/", Kind: domain.ResourceQueue, Name: "arbitrary"}, pushExchange, domain.CategoryUnknown, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			category, vhostOK := c.Classify(tc.ref, tc.push)
			assert.Equal(t, tc.wantCategory, category)
			assert.Equal(t, tc.wantVhostOK, vhostOK)
		})
	}
}

// TestClassifier_ClassifyTopic covers Testable Property 6 and the worked
// example of spec §8, which uses a dotted org id (example.org).
func TestClassifier_ClassifyTopic(t *testing.T) {
	c := New(testConfig())

	cases := []struct {
		name       string
		routingKey string
		orgID      string
		want       domain.ResourceCategory
	}{
		{"exact org id match", "example.org", "example.org", domain.CategoryPushExchange},
		{"dotted org scoped routing key", "example.org.events.#", "example.org", domain.CategoryPushExchange},
		{"single-label org id", "acme.events", "acme", domain.CategoryPushExchange},
		{"different org", "other.org.events", "example.org", domain.CategoryUnknown},
		{"prefix collision is not a scope match", "example.organization.events", "example.org", domain.CategoryUnknown},
		{"empty org id", "example.org.events", "", domain.CategoryUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.ClassifyTopic(tc.routingKey, tc.orgID))
		})
	}
}

func TestClassifier_VhostAllowed(t *testing.T) {
	c := New(testConfig())
	assert.True(t, c.VhostAllowed("/"))
	assert.False(t, c.VhostAllowed("other"))
}
