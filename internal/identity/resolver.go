// Package identity implements IdentityResolver (spec §4.2): turning the
// `/user` endpoint's (username, password) pair into a verified
// domain.Principal, trying certificate-derived identity, then API-token,
// then component credential, in that fixed order.
package identity

import (
	"context"
	"strings"

	"github.com/aras-services/broker-auth/internal/apperr"
	"github.com/aras-services/broker-auth/internal/domain"
	"github.com/aras-services/broker-auth/internal/token"
	"github.com/aras-services/broker-auth/pkg/password"
)

// Resolver ties together the auth data source and the token verifier; it
// holds no per-request state.
type Resolver struct {
	source   domain.AuthDataSource
	verifier *token.Verifier
}

// New builds a Resolver.
func New(source domain.AuthDataSource, verifier *token.Verifier) *Resolver {
	return &Resolver{source: source, verifier: verifier}
}

// Resolve runs the three-step resolution order. Any returned error is an
// *apperr.Error; the caller collapses it to deny without inspecting it.
func (r *Resolver) Resolve(ctx context.Context, login, pass string) (domain.Principal, error) {
	if login == "" {
		return domain.Principal{}, apperr.Malformed("empty username")
	}

	if cn, org, ok := splitSubjectLogin(login); ok {
		return r.resolveCertificate(ctx, cn, org)
	}

	if token.LooksLikeToken(pass) {
		return r.resolveToken(ctx, login, pass)
	}

	return r.resolveComponent(ctx, login, pass)
}

// splitSubjectLogin recognizes the "<cn>@<o>" shape the broker sends when
// it has already authenticated the client by certificate and passes the
// subject through as the SASL EXTERNAL login. A bare "@" with nothing on
// either side is not a subject identity.
func splitSubjectLogin(login string) (cn, org string, ok bool) {
	i := strings.LastIndex(login, "@")
	if i <= 0 || i == len(login)-1 {
		return "", "", false
	}
	return login[:i], login[i+1:], true
}

func (r *Resolver) resolveCertificate(ctx context.Context, cn, org string) (domain.Principal, error) {
	rec, found, err := r.source.LookupUser(ctx, cn, org)
	if err != nil {
		return domain.Principal{}, apperr.DataSourceUnavailable(err)
	}
	if !found {
		return domain.Principal{}, apperr.UnknownIdentity("no such user for certificate subject")
	}
	return r.buildUserPrincipal(ctx, rec)
}

func (r *Resolver) resolveToken(ctx context.Context, login, tok string) (domain.Principal, error) {
	claims, err := r.verifier.Verify(tok)
	if err != nil {
		return domain.Principal{}, err
	}
	if claims.Login != login {
		return domain.Principal{}, apperr.BadCredential("token identity does not match username field")
	}

	rec, found, err := r.source.LookupUser(ctx, claims.Login, claims.OrgID)
	if err != nil {
		return domain.Principal{}, apperr.DataSourceUnavailable(err)
	}
	if !found {
		return domain.Principal{}, apperr.UnknownIdentity("no such user for token identity")
	}
	return r.buildUserPrincipal(ctx, rec)
}

func (r *Resolver) resolveComponent(ctx context.Context, login, secret string) (domain.Principal, error) {
	rec, found, err := r.source.LookupComponent(ctx, login)
	if err != nil {
		return domain.Principal{}, apperr.DataSourceUnavailable(err)
	}
	if !found {
		return domain.Principal{}, apperr.UnknownIdentity("no such component")
	}
	if verifyErr := password.VerifyPassword(rec.SecretHash, secret); verifyErr != nil {
		return domain.Principal{}, apperr.BadCredential("component secret does not match")
	}
	return domain.NewComponentPrincipal(rec.Login, rec.IsAdministrator, rec.TagList()), nil
}

// Identify resolves a login for the vhost/resource/topic endpoints, which
// the broker calls after the initial `/user` handshake already succeeded
// and therefore carry no password field to re-verify. It recognizes the
// same certificate-derived "<cn>@<o>" shape as Resolve, and otherwise
// looks up login as a component by name alone — no secret comparison,
// since the broker is asking "what can the already-authenticated
// principal do", not "is this credential valid".
func (r *Resolver) Identify(ctx context.Context, login string) (domain.Principal, error) {
	if login == "" {
		return domain.Principal{}, apperr.Malformed("empty username")
	}

	if cn, org, ok := splitSubjectLogin(login); ok {
		return r.resolveCertificate(ctx, cn, org)
	}

	rec, found, err := r.source.LookupComponent(ctx, login)
	if err != nil {
		return domain.Principal{}, apperr.DataSourceUnavailable(err)
	}
	if !found {
		return domain.Principal{}, apperr.UnknownIdentity("no such identity")
	}
	return domain.NewComponentPrincipal(rec.Login, rec.IsAdministrator, rec.TagList()), nil
}

// buildUserPrincipal fills in the capability fields every user principal
// carries regardless of which step resolved the login.
func (r *Resolver) buildUserPrincipal(ctx context.Context, rec domain.UserRecord) (domain.Principal, error) {
	streamAPI, err := r.source.OrgHasStreamAPI(ctx, rec.OrgID)
	if err != nil {
		return domain.Principal{}, apperr.DataSourceUnavailable(err)
	}
	pushExchange, err := r.source.OrgPushExchange(ctx, rec.OrgID)
	if err != nil {
		return domain.Principal{}, apperr.DataSourceUnavailable(err)
	}
	return domain.NewUserPrincipal(rec.Login, rec.OrgID, pushExchange, streamAPI, rec.Tags), nil
}
