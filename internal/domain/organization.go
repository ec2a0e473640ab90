package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization is identified by a stable, domain-like string id. Every
// active User references exactly one existing Organization.
type Organization struct {
	ID               string    `json:"id" db:"id"`
	PushExchangeName string    `json:"push_exchange_name" db:"push_exchange_name"`
	StreamAPIEnabled bool      `json:"stream_api_enabled" db:"stream_api_enabled"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// UserRecord is the AuthDataSource projection of a human principal.
type UserRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Login     string    `json:"login" db:"login"`
	OrgID     string    `json:"org_id" db:"org_id"`
	Tags      []string  `json:"tags" db:"tags"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ComponentRecord is the AuthDataSource projection of a service-account
// principal. SecretHash is a bcrypt hash of the component's shared secret,
// never the secret itself.
type ComponentRecord struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Login           string    `json:"login" db:"login"`
	SecretHash      string    `json:"-" db:"secret_hash"`
	Role            string    `json:"role" db:"role"`
	IsAdministrator bool      `json:"is_administrator" db:"is_administrator"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// TagList returns the broker-visible tag list for a component: just
// "administrator" for an administrator component (its role is not added),
// otherwise its role tag if one is set, otherwise nil.
func (c ComponentRecord) TagList() []string {
	if c.IsAdministrator {
		return []string{"administrator"}
	}
	if c.Role != "" {
		return []string{c.Role}
	}
	return nil
}

// DerivePushExchangeName is the pure function (org_id, prefix) ->
// push-exchange name named in AuthDataSource's contract (spec §4.4): the
// configured prefix followed by a literal dot and the organization id.
func DerivePushExchangeName(prefix, orgID string) string {
	return prefix + "." + orgID
}
