// Package http implements HTTPFrontend (spec §4.1): the four fixed,
// form-encoded broker endpoints plus a liveness probe. Every response body
// is plaintext — either "allow", "allow <tags...>", or "deny" — and every
// well-formed request gets HTTP 200; the broker reads the body, not the
// status line.
package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aras-services/broker-auth/internal/apperr"
	"github.com/aras-services/broker-auth/internal/domain"
	"github.com/aras-services/broker-auth/internal/identity"
	"github.com/aras-services/broker-auth/internal/policy"
	"github.com/aras-services/broker-auth/internal/resource"
)

// userRequest, vhostRequest, resourceRequest and topicRequest mirror the
// broker's four fixed form bodies (spec §6). Required-field presence is
// expressed as `validate:"required"` rather than hand-rolled emptiness
// checks, matching how the teacher's own handlers validate request DTOs.
type userRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type vhostRequest struct {
	Username string `validate:"required"`
	Vhost    string `validate:"required"`
	Ip       string `validate:"required"`
}

type resourceRequest struct {
	Username   string `validate:"required"`
	Vhost      string `validate:"required"`
	Kind       string `validate:"required"`
	Name       string `validate:"required"`
	Permission string `validate:"required"`
}

type topicRequest struct {
	Username   string `validate:"required"`
	Vhost      string `validate:"required"`
	Kind       string `validate:"required"`
	Name       string `validate:"required"`
	Permission string `validate:"required"`
	RoutingKey string `validate:"required"`
}

// Frontend wires the four pipeline stages behind the broker's HTTP
// contract. It holds no per-request state.
type Frontend struct {
	resolver   *identity.Resolver
	classifier *resource.Classifier
	engine     *policy.Engine
	logger     *zap.Logger
	validate   *validator.Validate
}

// NewFrontend builds a Frontend.
func NewFrontend(resolver *identity.Resolver, classifier *resource.Classifier, engine *policy.Engine, logger *zap.Logger) *Frontend {
	return &Frontend{resolver: resolver, classifier: classifier, engine: engine, logger: logger, validate: validator.New()}
}

// Routes registers the broker endpoints and the liveness probe onto r.
func (f *Frontend) Routes(r chi.Router) {
	r.Get("/healthz", f.handleHealthz)
	r.Post("/user", f.handleUser)
	r.Post("/vhost", f.handleVhost)
	r.Post("/resource", f.handleResource)
	r.Post("/topic", f.handleTopic)
}

func (f *Frontend) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleUser implements the /user decision: resolve an identity from
// (username, password) and report its tag list on success.
func (f *Frontend) handleUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.deny(w, r, apperr.Malformed("invalid form body"))
		return
	}

	req := userRequest{Username: r.FormValue("username"), Password: r.FormValue("password")}
	if err := f.validate.Struct(req); err != nil {
		f.deny(w, r, apperr.Malformed("missing user fields"))
		return
	}

	principal, err := f.resolver.Resolve(r.Context(), req.Username, req.Password)
	if err != nil {
		f.deny(w, r, err)
		return
	}

	f.allow(w, f.engine.UserTags(principal))
}

// handleVhost implements the /vhost decision. ip is required per spec §6
// but is an opaque log datum per spec §9 — it feeds no policy rule, only
// the log line.
func (f *Frontend) handleVhost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.deny(w, r, apperr.Malformed("invalid form body"))
		return
	}

	req := vhostRequest{Username: r.FormValue("username"), Vhost: r.FormValue("vhost"), Ip: r.FormValue("ip")}
	if err := f.validate.Struct(req); err != nil {
		f.deny(w, r, apperr.Malformed("missing vhost fields"))
		return
	}

	principal, err := f.resolver.Identify(r.Context(), req.Username)
	if err != nil {
		f.deny(w, r, err, zap.String("ip", req.Ip))
		return
	}

	if !f.classifier.VhostAllowed(req.Vhost) {
		f.deny(w, r, apperr.PolicyDeny("vhost not configured"), zap.String("ip", req.Ip))
		return
	}

	allow, tags := f.engine.Vhost(principal)
	if !allow {
		f.deny(w, r, apperr.PolicyDeny("vhost denied"), zap.String("ip", req.Ip))
		return
	}

	f.logger.Info("vhost request allowed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("ip", req.Ip),
	)
	f.allow(w, tags)
}

// handleResource implements the /resource decision.
func (f *Frontend) handleResource(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.deny(w, r, apperr.Malformed("invalid form body"))
		return
	}

	req := resourceRequest{
		Username:   r.FormValue("username"),
		Vhost:      r.FormValue("vhost"),
		Kind:       r.FormValue("resource"),
		Name:       r.FormValue("name"),
		Permission: r.FormValue("permission"),
	}
	if err := f.validate.Struct(req); err != nil {
		f.deny(w, r, apperr.Malformed("missing resource fields"))
		return
	}

	kind, ok := domain.ParseResourceKind(req.Kind)
	if !ok {
		f.deny(w, r, apperr.Malformed("unknown resource kind"))
		return
	}
	action, ok := domain.ParseAction(req.Permission)
	if !ok {
		f.deny(w, r, apperr.Malformed("unknown permission"))
		return
	}

	principal, err := f.resolver.Identify(r.Context(), req.Username)
	if err != nil {
		f.deny(w, r, err)
		return
	}

	ref := domain.ResourceRef{Vhost: req.Vhost, Kind: kind, Name: req.Name}
	category, vhostOK := f.classifier.Classify(ref, principal.PushExchangeName)
	if !vhostOK {
		f.deny(w, r, apperr.PolicyDeny("vhost not configured"))
		return
	}

	if !f.engine.Resource(principal, category, action) {
		f.deny(w, r, apperr.PolicyDeny("resource denied"))
		return
	}

	f.allow(w, nil)
}

// handleTopic implements the /topic decision: routing_key replaces name's
// usual role in classification, but name is still a required field (spec
// §6) and must be rejected as malformed when absent even though it feeds
// no rule here.
func (f *Frontend) handleTopic(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.deny(w, r, apperr.Malformed("invalid form body"))
		return
	}

	req := topicRequest{
		Username:   r.FormValue("username"),
		Vhost:      r.FormValue("vhost"),
		Kind:       r.FormValue("resource"),
		Name:       r.FormValue("name"),
		Permission: r.FormValue("permission"),
		RoutingKey: r.FormValue("routing_key"),
	}
	if err := f.validate.Struct(req); err != nil {
		f.deny(w, r, apperr.Malformed("missing topic fields"))
		return
	}

	if domain.ResourceKind(req.Kind) != domain.ResourceTopic {
		f.deny(w, r, apperr.Malformed("unexpected resource kind for /topic"))
		return
	}
	action, ok := domain.ParseAction(req.Permission)
	if !ok {
		f.deny(w, r, apperr.Malformed("unknown permission"))
		return
	}

	principal, err := f.resolver.Identify(r.Context(), req.Username)
	if err != nil {
		f.deny(w, r, err)
		return
	}

	if !f.classifier.VhostAllowed(req.Vhost) {
		f.deny(w, r, apperr.PolicyDeny("vhost not configured"))
		return
	}

	category := f.classifier.ClassifyTopic(req.RoutingKey, principal.OrgID)
	if !f.engine.Topic(principal, category, action) {
		f.deny(w, r, apperr.PolicyDeny("topic denied"))
		return
	}

	f.allow(w, nil)
}

func (f *Frontend) allow(w http.ResponseWriter, tags []string) {
	body := "allow"
	if len(tags) > 0 {
		body += " " + strings.Join(tags, " ")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// deny always writes HTTP 200 with body "deny" — the broker only reads the
// body — and logs err at the level its kind demands without ever leaking
// it into the response. Extra fields (e.g. the /vhost ip datum) are
// attached to the log line only.
func (f *Frontend) deny(w http.ResponseWriter, r *http.Request, err error, fields ...zap.Field) {
	f.logDenied(r, err, fields...)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("deny"))
}

func (f *Frontend) logDenied(r *http.Request, err error, fields ...zap.Field) {
	kind := apperr.KindOf(err)
	reqID := middleware.GetReqID(r.Context())

	base := append([]zap.Field{zap.String("request_id", reqID), zap.String("kind", string(kind))}, fields...)

	switch kind {
	case apperr.KindDataSourceUnavailable:
		f.logger.Error("request denied", append(base, zap.Error(err))...)
	case apperr.KindMalformedRequest:
		f.logger.Warn("request denied", base...)
	default:
		f.logger.Info("request denied", base...)
	}
}
