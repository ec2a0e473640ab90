// Package policy implements PolicyEngine (spec §4.6): pure decision
// functions over (principal, resource, action, configuration). There is no
// state machine — every decision is recomputed from a point-in-time read
// of the data source plus the classification ResourceClassifier already
// produced. All defaults are deny.
package policy

import "github.com/aras-services/broker-auth/internal/domain"

// Engine has no fields today — it exists as a named type so the decision
// methods read as a cohesive component. Callers hold a concrete *Engine.
type Engine struct{}

// New constructs the policy engine.
func New() *Engine {
	return &Engine{}
}

// Vhost implements the vhost decision: allow iff the principal is a
// component, or is a user whose organization has stream-API enabled, and
// in both cases only for the single configured vhost — vhost equality is
// checked by the caller via resource.Classifier.VhostAllowed before this
// is reached, so this method only answers the principal-side half of the
// rule. Returns the tag set for {administrator} on an administrator
// component, empty otherwise.
func (e *Engine) Vhost(p domain.Principal) (allow bool, tags []string) {
	switch p.Kind {
	case domain.PrincipalComponent:
		if p.IsAdministrator {
			return true, []string{"administrator"}
		}
		return true, nil
	case domain.PrincipalUser:
		return p.StreamAPIEnabled, nil
	default:
		return false, nil
	}
}

// Resource implements the resource decision table of spec §4.6. Rules are
// evaluated in the order the spec lists them; the first matching row wins.
func (e *Engine) Resource(p domain.Principal, category domain.ResourceCategory, action domain.Action) bool {
	// The administrator row matches "any" category first, ahead of the
	// catch-all unknown-category deny — an administrator component is
	// universal even over resources nothing else recognizes.
	if p.Kind == domain.PrincipalComponent && p.IsAdministrator {
		return true
	}

	if category == domain.CategoryUnknown {
		return false
	}

	switch p.Kind {
	case domain.PrincipalComponent:
		return category == domain.CategorySharedInfrastructure
	case domain.PrincipalUser:
		switch category {
		case domain.CategoryPushExchange:
			return action == domain.ActionRead
		case domain.CategoryPrivateAutogen:
			return true
		case domain.CategorySystem:
			return action == domain.ActionRead
		default:
			return false
		}
	default:
		return false
	}
}

// Topic implements the topic decision: only read is ever granted, and
// only when the routing key's organization scope resolves to the
// principal's own push exchange.
func (e *Engine) Topic(p domain.Principal, category domain.ResourceCategory, action domain.Action) bool {
	if action != domain.ActionRead {
		return false
	}
	return category == domain.CategoryPushExchange
}

// UserTags implements the user-tags decision: the broker-visible tag list
// attached to the principal's session.
func (e *Engine) UserTags(p domain.Principal) []string {
	return p.Tags
}
