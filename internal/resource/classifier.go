// Package resource implements ResourceClassifier (spec §4.5): a pure
// function from a (vhost, kind, name) triple — or a topic routing key — to
// a semantic ResourceCategory. It performs no I/O, which is what makes the
// policy table exhaustively testable without a database.
package resource

import (
	"strings"

	"github.com/aras-services/broker-auth/config"
	"github.com/aras-services/broker-auth/internal/domain"
)

// Classifier holds the configured inputs ResourceClassifier needs: the
// accepted vhost, the known shared-infrastructure set, and the
// auto-generated-queue prefix. It carries no database handle.
type Classifier struct {
	defaultVHost       string
	autogenQueuePrefix string
	sharedInfra        map[sharedKey]struct{}
}

type sharedKey struct {
	kind domain.ResourceKind
	name string
}

// New builds a Classifier from policy configuration.
func New(policy config.PolicyConfig) *Classifier {
	shared := make(map[sharedKey]struct{})
	for _, r := range policy.SharedInfrastructure() {
		shared[sharedKey{kind: domain.ResourceKind(r.Kind), name: r.Name}] = struct{}{}
	}
	return &Classifier{
		defaultVHost:       policy.DefaultVHost,
		autogenQueuePrefix: policy.AutogenQueuePrefix,
		sharedInfra:        shared,
	}
}

// systemExchangePrefix is the broker's own reserved exchange namespace;
// it is not configurable because the broker itself reserves it.
const systemExchangePrefix = "amq."

// Classify implements the five-step decision in spec §4.5. vhostOK is
// false whenever the requested vhost is not the single configured one —
// callers must treat that as an outright rejection before even looking at
// the category.
func (c *Classifier) Classify(ref domain.ResourceRef, pushExchangeName string) (category domain.ResourceCategory, vhostOK bool) {
	if ref.Vhost != c.defaultVHost {
		return domain.CategoryUnknown, false
	}

	if ref.Kind == domain.ResourceExchange && strings.HasPrefix(ref.Name, systemExchangePrefix) {
		return domain.CategorySystem, true
	}

	if ref.Kind == domain.ResourceQueue && strings.HasPrefix(ref.Name, c.autogenQueuePrefix) {
		return domain.CategoryPrivateAutogen, true
	}

	if ref.Kind == domain.ResourceExchange && pushExchangeName != "" && ref.Name == pushExchangeName {
		return domain.CategoryPushExchange, true
	}

	if _, ok := c.sharedInfra[sharedKey{kind: ref.Kind, name: ref.Name}]; ok {
		return domain.CategorySharedInfrastructure, true
	}

	return domain.CategoryUnknown, true
}

// ClassifyTopic implements the routing-key scoping rule of spec §4.5.
// The routing key's organization scope is the leading run of
// dot-separated labels that matches orgID exactly — this is the rule that
// correctly scopes both single-label org ids ("acme") and domain-like org
// ids containing their own dots ("example.org"), which a naive
// split-on-first-dot cannot do (see DESIGN.md for the worked example).
// Anything else, including any routing key carrying a wildcard in its
// scope position, classifies as unknown.
func (c *Classifier) ClassifyTopic(routingKey, orgID string) domain.ResourceCategory {
	if orgID == "" || routingKey == "" {
		return domain.CategoryUnknown
	}

	if routingKey == orgID || strings.HasPrefix(routingKey, orgID+".") {
		return domain.CategoryPushExchange
	}

	return domain.CategoryUnknown
}

// VhostAllowed reports whether vhost is the single configured value; used
// directly by the /vhost decision which has no resource kind or name to
// classify.
func (c *Classifier) VhostAllowed(vhost string) bool {
	return vhost == c.defaultVHost
}
