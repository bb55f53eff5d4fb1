package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/member"
	"condo-ballots/internal/domain/tally"
	"condo-ballots/internal/domain/vote"
	jwtpkg "condo-ballots/internal/platform/jwt"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Services struct {
	Ballots *ballot.Service
	Votes   *vote.Service
	Tally   *tally.Evaluator
	Members *member.Directory
}

// Limits configures request throttling. Zero values select the defaults.
type Limits struct {
	VoteRate  rate.Limit
	VoteBurst int
}

func (l Limits) withDefaults() Limits {
	if l.VoteRate == 0 {
		l.VoteRate = rate.Every(time.Minute / 10)
	}
	if l.VoteBurst <= 0 {
		l.VoteBurst = 3
	}
	return l
}

type Handler struct {
	ballotSvc *ballot.Service
	voteSvc   *vote.Service
	tally     *tally.Evaluator
	members   *member.Directory
	jwtMgr    *jwtpkg.Manager
	db        Pinger
}

func NewRouter(svc Services, jwtMgr *jwtpkg.Manager, db Pinger, limits Limits) http.Handler {
	limits = limits.withDefaults()
	h := &Handler{
		ballotSvc: svc.Ballots,
		voteSvc:   svc.Votes,
		tally:     svc.Tally,
		members:   svc.Members,
		jwtMgr:    jwtMgr,
		db:        db,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(jwtMgr))

		r.Get("/ballots", h.handleListBallots)
		r.Get("/ballots/{id}", h.handleGetBallot)
		r.With(RateLimitVotes(limits.VoteRate, limits.VoteBurst)).Post("/ballots/{id}/votes", h.handleCastVote)
		r.Get("/ballots/{id}/my-vote", h.handleMyVote)
		r.Get("/ballots/{id}/results", h.handleResults)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(member.RoleAdmin))
			r.Post("/ballots", h.handleCreateBallot)
			r.Patch("/ballots/{id}", h.handleUpdateBallot)
			r.Delete("/ballots/{id}", h.handleDeleteBallot)
			r.Post("/ballots/{id}/open", h.handleOpenBallot)
			r.Post("/ballots/{id}/close", h.handleCloseBallot)
			r.Post("/ballots/{id}/publish", h.handlePublishBallot)
			r.Get("/ballots/{id}/export.csv", h.handleExport)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not ready",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
