package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/entrypass/server/internal/entrypass/service"
	"github.com/entrypass/server/internal/entrypass/types"
	"github.com/entrypass/server/internal/ledger"
)

type Dependencies struct {
	Logger *zap.Logger
	Addr   string

	Collections  *service.CollectionManager
	Issuance     *service.IssuanceEngine
	Verification *service.VerificationEngine
	Revocation   *service.RevocationEngine
	Queries      *service.Queries
	Accounts     *service.Accounts

	// Limiter throttles the mutating and verify routes. Nil disables it.
	Limiter Limiter
	// Ready backs /healthz. Nil always reports ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux

	collections  *service.CollectionManager
	issuance     *service.IssuanceEngine
	verification *service.VerificationEngine
	revocation   *service.RevocationEngine
	queries      *service.Queries
	accounts     *service.Accounts
	ready        func(ctx context.Context) error
}

// Signed wraps a request body with the signer's ed25519 signature over
// its canonical encoding. Signature is base64 in JSON.
type Signed[T any] struct {
	Request   T      `json:"request"`
	Signature []byte `json:"signature"`
}

type collectionList struct {
	Collections []types.PassCollection `json:"collections"`
}

type passList struct {
	Passes []types.UserPass `json:"passes"`
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger:       logger,
		mux:          mux,
		collections:  d.Collections,
		issuance:     d.Issuance,
		verification: d.Verification,
		revocation:   d.Revocation,
		queries:      d.Queries,
		accounts:     d.Accounts,
		ready:        d.Ready,
	}

	limited := func(route string, h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(d.Limiter, logger, route, h)
	}

	mux.HandleFunc("POST /v1/collections", limited("create_collection", s.handleCreateCollection))
	mux.HandleFunc("GET /v1/collections", s.handleListCollections)
	mux.HandleFunc("GET /v1/collections/{address}", s.handleGetCollection)
	mux.HandleFunc("GET /v1/organizers/{organizer}/collections/{name}", s.handleCollectionByName)

	mux.HandleFunc("POST /v1/passes", limited("purchase_pass", s.handlePurchasePass))
	mux.HandleFunc("POST /v1/passes/verify", limited("verify_pass", s.handleVerifyPass))
	mux.HandleFunc("POST /v1/passes/revoke", limited("revoke_pass", s.handleRevokePass))
	mux.HandleFunc("GET /v1/passes/{address}", s.handleGetPass)
	mux.HandleFunc("GET /v1/owners/{owner}/passes", s.handlePassesByOwner)

	mux.HandleFunc("GET /v1/accounts/{address}", s.handleGetAccount)
	mux.HandleFunc("POST /v1/accounts/{address}/deposit", limited("deposit", s.handleDeposit))

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	handler := requestIDMiddleware(loggingMiddleware(logger, mux))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Collections ──────────────────────────────────────────────────────────────

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req Signed[types.CreateCollectionRequest]
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	c, err := s.collections.Create(r.Context(), req.Request, req.Signature)
	if err != nil {
		s.writeServiceError(w, r, "create_collection", err)
		return
	}
	respond(w, r, http.StatusCreated, c)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	var organizer *ledger.Address
	if v := r.URL.Query().Get("organizer"); v != "" {
		addr, err := ledger.ParseAddress(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_address", err.Error())
			return
		}
		organizer = &addr
	}

	cs, err := s.queries.Collections(r.Context(), organizer)
	if err != nil {
		s.writeServiceError(w, r, "list_collections", err)
		return
	}
	respond(w, r, http.StatusOK, collectionList{Collections: cs})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	c, err := s.queries.Collection(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, "get_collection", err)
		return
	}
	respond(w, r, http.StatusOK, c)
}

func (s *Server) handleCollectionByName(w http.ResponseWriter, r *http.Request) {
	organizer, ok := pathAddress(w, r, "organizer")
	if !ok {
		return
	}
	c, err := s.queries.CollectionByName(r.Context(), organizer, r.PathValue("name"))
	if err != nil {
		s.writeServiceError(w, r, "get_collection", err)
		return
	}
	respond(w, r, http.StatusOK, c)
}

// ── Passes ───────────────────────────────────────────────────────────────────

func (s *Server) handlePurchasePass(w http.ResponseWriter, r *http.Request) {
	var req Signed[types.PurchasePassRequest]
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	p, err := s.issuance.Purchase(r.Context(), req.Request, req.Signature)
	if err != nil {
		s.writeServiceError(w, r, "purchase_pass", err)
		return
	}
	respond(w, r, http.StatusCreated, p)
}

// handleVerifyPass answers 200 for both valid and invalid passes; the
// outcome is in the body.
func (s *Server) handleVerifyPass(w http.ResponseWriter, r *http.Request) {
	var req types.VerifyPassRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	v, err := s.verification.Verify(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "verify_pass", err)
		return
	}
	respond(w, r, http.StatusOK, v)
}

func (s *Server) handleRevokePass(w http.ResponseWriter, r *http.Request) {
	var req Signed[types.RevokePassRequest]
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	p, err := s.revocation.Revoke(r.Context(), req.Request, req.Signature)
	if err != nil {
		s.writeServiceError(w, r, "revoke_pass", err)
		return
	}
	respond(w, r, http.StatusOK, p)
}

func (s *Server) handleGetPass(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	p, err := s.queries.Pass(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, "get_pass", err)
		return
	}
	respond(w, r, http.StatusOK, p)
}

func (s *Server) handlePassesByOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathAddress(w, r, "owner")
	if !ok {
		return
	}
	ps, err := s.queries.PassesByOwner(r.Context(), owner)
	if err != nil {
		s.writeServiceError(w, r, "list_passes", err)
		return
	}
	respond(w, r, http.StatusOK, passList{Passes: ps})
}

// ── Accounts ─────────────────────────────────────────────────────────────────

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	acct, err := s.accounts.Balance(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, "get_account", err)
		return
	}
	respond(w, r, http.StatusOK, acct)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	var req types.DepositRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_body", err.Error())
		return
	}

	acct, err := s.accounts.Deposit(r.Context(), addr, req.Amount)
	if err != nil {
		s.writeServiceError(w, r, "deposit", err)
		return
	}
	respond(w, r, http.StatusOK, acct)
}

// ── Health ───────────────────────────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathAddress(w http.ResponseWriter, r *http.Request, name string) (ledger.Address, bool) {
	addr, err := ledger.ParseAddress(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_address", err.Error())
		return ledger.Address{}, false
	}
	return addr, true
}
