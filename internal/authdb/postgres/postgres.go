// Package postgres implements domain.AuthDataSource as a read-only
// projection over the auth_db schema, in the query style of the teacher's
// internal/repository/postgres package: explicit SQL, QueryRow/Scan,
// pgx.ErrNoRows translated into the ok=false return rather than an error.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aras-services/broker-auth/internal/domain"
)

// Source is the Postgres-backed domain.AuthDataSource. It holds nothing
// but the pool — no caching, no mutable state.
type Source struct {
	db           *pgxpool.Pool
	exchangePrefix string
}

// New builds a Source. exchangePrefix is the configured push-exchange
// prefix (PolicyConfig.PushExchangePrefix); OrgPushExchange computes the
// derived name without a round trip, per spec §4.4.
func New(db *pgxpool.Pool, exchangePrefix string) *Source {
	return &Source{db: db, exchangePrefix: exchangePrefix}
}

// LookupUser returns the user row for (login, orgID), scoped to the
// organization so a login that exists under a different org never matches.
func (s *Source) LookupUser(ctx context.Context, login, orgID string) (domain.UserRecord, bool, error) {
	const query = `
		SELECT id, login, org_id, tags, created_at
		FROM users
		WHERE login = $1 AND org_id = $2
	`

	var rec domain.UserRecord
	err := s.db.QueryRow(ctx, query, login, orgID).Scan(
		&rec.ID, &rec.Login, &rec.OrgID, &rec.Tags, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserRecord{}, false, nil
		}
		return domain.UserRecord{}, false, fmt.Errorf("looking up user: %w", err)
	}

	return rec, true, nil
}

// LookupComponent returns the component row for login.
func (s *Source) LookupComponent(ctx context.Context, login string) (domain.ComponentRecord, bool, error) {
	const query = `
		SELECT id, login, secret_hash, role, is_administrator, created_at
		FROM components
		WHERE login = $1
	`

	var rec domain.ComponentRecord
	err := s.db.QueryRow(ctx, query, login).Scan(
		&rec.ID, &rec.Login, &rec.SecretHash, &rec.Role, &rec.IsAdministrator, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ComponentRecord{}, false, nil
		}
		return domain.ComponentRecord{}, false, fmt.Errorf("looking up component: %w", err)
	}

	return rec, true, nil
}

// OrgHasStreamAPI reports the stream_api_enabled flag on the organization
// row. A missing organization is treated as stream-API disabled rather
// than an error — the caller already holds a verified user whose foreign
// key guarantees the organization exists; absence here means the schema
// invariant was violated and default-deny is the correct response anyway.
func (s *Source) OrgHasStreamAPI(ctx context.Context, orgID string) (bool, error) {
	const query = `SELECT stream_api_enabled FROM organizations WHERE id = $1`

	var enabled bool
	err := s.db.QueryRow(ctx, query, orgID).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("checking stream-API flag: %w", err)
	}

	return enabled, nil
}

// OrgPushExchange computes the push-exchange name directly, per the
// AuthDataSource contract's "implementations may compute it without a
// round trip" allowance.
func (s *Source) OrgPushExchange(_ context.Context, orgID string) (string, error) {
	return domain.DerivePushExchangeName(s.exchangePrefix, orgID), nil
}
