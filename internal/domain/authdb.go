package domain

import "context"

// AuthDataSource is the read-only projection of the external auth database
// (spec §4.4). Implementations must be safe for concurrent callers; no
// write path exists through this interface — mutation happens through the
// out-of-scope administrative tooling.
type AuthDataSource interface {
	// LookupUser returns the user record for (login, orgID), or ok=false
	// if no such active user exists.
	LookupUser(ctx context.Context, login, orgID string) (rec UserRecord, ok bool, err error)

	// LookupComponent returns the component record for login, or ok=false
	// if no such component exists.
	LookupComponent(ctx context.Context, login string) (rec ComponentRecord, ok bool, err error)

	// OrgHasStreamAPI reports whether the organization may use the broker
	// at all.
	OrgHasStreamAPI(ctx context.Context, orgID string) (bool, error)

	// OrgPushExchange returns the derived push-exchange name for orgID.
	// This is a pure function of (orgID, configured prefix) and
	// implementations may compute it without a round trip.
	OrgPushExchange(ctx context.Context, orgID string) (string, error)
}
