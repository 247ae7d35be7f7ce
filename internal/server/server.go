// Package server is the operator HTTP API. It translates HTTP intents into
// session operations; all auction semantics live in the engine, the handlers
// only decode, dispatch and map errors to status codes.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jensholdgaard/auction-desk/internal/auction"
	"github.com/jensholdgaard/auction-desk/internal/config"
	"github.com/jensholdgaard/auction-desk/internal/intake"
	"github.com/jensholdgaard/auction-desk/internal/telemetry"
)

// Server holds the API's collaborators.
type Server struct {
	session *auction.Session
	intake  *intake.Parser
	cfg     config.AuctionConfig
	logger  *slog.Logger
}

// New creates the operator API server.
func New(session *auction.Session, cfg config.AuctionConfig, logger *slog.Logger) *Server {
	return &Server{
		session: session,
		intake:  &intake.Parser{DefaultBasePrice: cfg.DefaultBasePrice},
		cfg:     cfg,
		logger:  logger,
	}
}

// Routes builds the router. There is no auth: the API is the single
// operator's own surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)

		r.Route("/auction", func(r chi.Router) {
			r.Post("/start", s.handleStart)
			r.Post("/sell", s.handleSell)
			r.Post("/unsold", s.handleUnsold)
			r.Post("/pass", s.handlePass)
			r.Post("/next", s.handleNext)
			r.Post("/undo", s.handleUndo)
			r.Post("/transfer", s.handleTransfer)
			r.Post("/status", s.handleSetStatus)
			r.Post("/select", s.handleSelect)
			r.Post("/end", s.handleEnd)
		})

		r.Route("/bid", func(r chi.Router) {
			r.Post("/set", s.handleBidSet)
			r.Post("/increment", s.handleBidIncrement)
			r.Post("/reset", s.handleBidReset)
			r.Post("/team", s.handleBidTeam)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", s.handleListTeams)
			r.Post("/", s.handleAddTeam)
			r.Put("/{id}", s.handleUpdateTeam)
			r.Delete("/{id}", s.handleDeleteTeam)
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", s.handleListPlayers)
			r.Post("/", s.handleAddPlayer)
			r.Post("/import", s.handleImport)
			r.Put("/{id}", s.handleUpdatePlayer)
			r.Delete("/{id}", s.handleDeletePlayer)
		})

		r.Get("/export", s.handleExport)
		r.Post("/reset", s.handleReset)
	})

	return r
}

// errBadRequest marks malformed requests that never reached the engine.
var errBadRequest = errors.New("bad request")

// statusFor maps engine errors to HTTP status codes. Rejections never mutate
// state, so conflict-class codes are accurate rather than advisory.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auction.ErrPlayerNotFound), errors.Is(err, auction.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrTeamNotSelected), errors.Is(err, auction.ErrInvalidAmount),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrAlreadySold),
		errors.Is(err, auction.ErrAlreadyAssigned),
		errors.Is(err, auction.ErrInsufficientBudget),
		errors.Is(err, auction.ErrSetupIncomplete),
		errors.Is(err, auction.ErrNothingToUndo),
		errors.Is(err, auction.ErrAuctionStarted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		telemetry.LogWithTrace(r.Context(), s.logger).ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
