// Package main implements a small read-only debug tool for on-call
// operators: "what would /resource have returned for this input". It talks to the same AuthDataSource, ResourceClassifier and
// PolicyEngine as the production server, but never writes anything and is
// never on the broker's request path.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aras-services/broker-auth/config"
	"github.com/aras-services/broker-auth/internal/authdb/postgres"
	"github.com/aras-services/broker-auth/internal/domain"
	"github.com/aras-services/broker-auth/internal/identity"
	authmiddleware "github.com/aras-services/broker-auth/internal/middleware"
	"github.com/aras-services/broker-auth/internal/policy"
	"github.com/aras-services/broker-auth/internal/resource"
	"github.com/aras-services/broker-auth/internal/service/streamtoken"
	"github.com/aras-services/broker-auth/internal/token"
)

// Gateway wraps the decision pipeline for the debug HTTP surface.
type Gateway struct {
	resolver    *identity.Resolver
	classifier  *resource.Classifier
	engine      *policy.Engine
	streamToken *streamtoken.Service
}

type resourceQuery struct {
	Username   string `json:"username"`
	Vhost      string `json:"vhost"`
	Resource   string `json:"resource"`
	Name       string `json:"name"`
	Permission string `json:"permission"`
}

type resourceVerdict struct {
	Allow    bool   `json:"allow"`
	Category string `json:"category"`
	Reason   string `json:"reason,omitempty"`
}

type streamTokenRequest struct {
	OrgID string `json:"org_id"`
}

type streamTokenResponse struct {
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

// HandleHealthCheck reports liveness for the debug tool itself.
func (gw *Gateway) HandleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleResourceQuery answers "what would /resource return" without ever
// calling the broker, by running the exact same pipeline the production
// server runs for that endpoint.
func (gw *Gateway) HandleResourceQuery(w http.ResponseWriter, r *http.Request) {
	var q resourceQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	kind, ok := domain.ParseResourceKind(q.Resource)
	if !ok {
		writeJSON(w, resourceVerdict{Allow: false, Reason: "unknown resource kind"})
		return
	}
	action, ok := domain.ParseAction(q.Permission)
	if !ok {
		writeJSON(w, resourceVerdict{Allow: false, Reason: "unknown permission"})
		return
	}

	principal, err := gw.resolver.Identify(ctx, q.Username)
	if err != nil {
		writeJSON(w, resourceVerdict{Allow: false, Reason: "identity: " + err.Error()})
		return
	}

	ref := domain.ResourceRef{Vhost: q.Vhost, Kind: kind, Name: q.Name}
	category, vhostOK := gw.classifier.Classify(ref, principal.PushExchangeName)
	if !vhostOK {
		writeJSON(w, resourceVerdict{Allow: false, Category: string(category), Reason: "vhost not configured"})
		return
	}

	allow := gw.engine.Resource(principal, category, action)
	writeJSON(w, resourceVerdict{Allow: allow, Category: string(category)})
}

// HandleIssueStreamToken mints a stream-API JWT for an organization on
// request, so an operator can hand a client a working token without
// waiting for whatever system normally triggers issuance.
func (gw *Gateway) HandleIssueStreamToken(w http.ResponseWriter, r *http.Request) {
	var req streamTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrgID == "" {
		writeJSON(w, streamTokenResponse{Error: "org_id is required"})
		return
	}

	tok, err := gw.streamToken.Issue(req.OrgID)
	if err != nil {
		writeJSON(w, streamTokenResponse{Error: err.Error()})
		return
	}
	writeJSON(w, streamTokenResponse{Token: tok})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// SetupRoutes builds the debug mux. Separate from the broker-facing chi
// router in cmd/server on purpose — this tool is never meant to share a
// listener or a middleware chain with the production request path.
func (gw *Gateway) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(authmiddleware.NewCORSMiddleware())
	r.HandleFunc("/health", gw.HandleHealthCheck).Methods("GET")
	r.HandleFunc("/debug/resource", gw.HandleResourceQuery).Methods("POST")
	r.HandleFunc("/debug/stream-token", gw.HandleIssueStreamToken).Methods("POST")
	return r
}

func main() {
	port := os.Getenv("ADMINQUERY_PORT")
	if port == "" {
		port = "7701"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := pgxpool.New(context.Background(), cfg.GetDSN())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	source := postgres.New(db, cfg.Policy.PushExchangePrefix)
	verifier := token.NewVerifier(cfg.Token.ServerSecret)

	gw := &Gateway{
		resolver:    identity.New(source, verifier),
		classifier:  resource.New(cfg.Policy),
		engine:      policy.New(),
		streamToken: streamtoken.New(cfg.Token.ServerSecret, cfg.Token.StreamTokenTTL),
	}
	router := gw.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("adminquery debug tool starting on port %s", port)
	log.Fatal(server.ListenAndServe())
}
