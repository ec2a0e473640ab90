package domain

import "time"

// APIToken is the verified payload of a stateless HMAC-signed bearer
// credential, carrying (login, org_id) plus the time the issuer minted it.
// The core never expires tokens on IssuedAt — revocation happens by the
// issuer removing the referenced user from AuthDataSource.
type APIToken struct {
	Login    string
	OrgID    string
	IssuedAt time.Time
}
