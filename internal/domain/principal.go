// Package domain holds the types shared across the policy pipeline:
// principals, organizations, resources, and the repository interfaces that
// AuthDataSource implements. None of these types perform I/O themselves.
package domain

// PrincipalKind tags which variant of Principal is populated. The
// PolicyEngine dispatches on this tag rather than on an interface
// hierarchy — adding a new principal kind is a new constant plus new rows
// in the decision tables, not a new type hierarchy.
type PrincipalKind string

const (
	PrincipalComponent PrincipalKind = "component"
	PrincipalUser      PrincipalKind = "user"
)

// Principal is an authenticated identity. Exactly one of the Component or
// User branches is meaningful, selected by Kind.
type Principal struct {
	Kind PrincipalKind

	// Component branch.
	ComponentLogin string
	IsAdministrator bool

	// User branch.
	UserLogin string
	OrgID     string

	// Capabilities, populated from AuthDataSource regardless of kind.
	PushExchangeName string
	StreamAPIEnabled bool
	Tags             []string
}

// NewComponentPrincipal builds the component variant of Principal.
func NewComponentPrincipal(login string, administrator bool, tags []string) Principal {
	return Principal{
		Kind:            PrincipalComponent,
		ComponentLogin:  login,
		IsAdministrator: administrator,
		Tags:            tags,
	}
}

// NewUserPrincipal builds the user variant of Principal.
func NewUserPrincipal(login, orgID, pushExchange string, streamAPIEnabled bool, tags []string) Principal {
	return Principal{
		Kind:             PrincipalUser,
		UserLogin:        login,
		OrgID:            orgID,
		PushExchangeName: pushExchange,
		StreamAPIEnabled: streamAPIEnabled,
		Tags:             tags,
	}
}

// IsComponent reports whether this principal is a service account.
func (p Principal) IsComponent() bool {
	return p.Kind == PrincipalComponent
}

// IsUser reports whether this principal is a human account.
func (p Principal) IsUser() bool {
	return p.Kind == PrincipalUser
}
