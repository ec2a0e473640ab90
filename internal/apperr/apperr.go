// Package apperr names the error kinds the policy pipeline can produce
// (spec §7). Every kind collapses to the single observable outcome "deny"
// at the HTTP boundary; the kind only controls how the incident is logged.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies why a request failed, for logging purposes only. It must
// never be serialized into an HTTP response body.
type Kind string

const (
	KindMalformedRequest       Kind = "malformed_request"
	KindUnknownIdentity        Kind = "unknown_identity"
	KindBadCredential          Kind = "bad_credential"
	KindDataSourceUnavailable  Kind = "data_source_unavailable"
	KindPolicyDeny             Kind = "policy_deny"
)

// Error wraps an underlying cause with the kind used to decide its log
// level. The message is never sent to the broker.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an *Error of the given kind wrapping cause (which may be nil).
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// Malformed reports a missing or enum-invalid request field.
func Malformed(msg string) *Error {
	return New(KindMalformedRequest, errors.New(msg))
}

// UnknownIdentity reports a login that resolves to no principal.
func UnknownIdentity(msg string) *Error {
	return New(KindUnknownIdentity, errors.New(msg))
}

// BadCredential reports a password or token that fails verification.
func BadCredential(msg string) *Error {
	return New(KindBadCredential, errors.New(msg))
}

// DataSourceUnavailable reports a pool-saturation or connection failure.
func DataSourceUnavailable(cause error) *Error {
	return New(KindDataSourceUnavailable, cause)
}

// PolicyDeny reports a verified identity whose action is not permitted.
func PolicyDeny(msg string) *Error {
	return New(KindPolicyDeny, errors.New(msg))
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, and
// KindDataSourceUnavailable for anything unrecognized — an unexpected
// error must fail closed and still get logged at a loud level.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDataSourceUnavailable
}
