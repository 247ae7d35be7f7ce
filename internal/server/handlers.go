package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jensholdgaard/auction-desk/internal/auction"
	"github.com/jensholdgaard/auction-desk/internal/export"
)

// statePayload is the full view the operator UI polls: the committed snapshot
// plus the transient bid state, which lives only in the session.
type statePayload struct {
	State        auction.State `json:"state"`
	BidPrice     int           `json:"bidPrice"`
	BidTeamID    string        `json:"bidTeamId,omitempty"`
	NextBidStep  int           `json:"nextBidStep"`
	AllProcessed bool          `json:"allProcessed"`
}

func (s *Server) statePayload() statePayload {
	snap := s.session.Snapshot()
	price, teamID := s.session.Bid()
	return statePayload{
		State:        snap,
		BidPrice:     price,
		BidTeamID:    teamID,
		NextBidStep:  s.cfg.IncrementFor(price),
		AllProcessed: snap.AllProcessed(),
	}
}

// commitPayload is returned by operations that produce a history entry.
type commitPayload struct {
	Entry auction.HistoryEntry `json:"entry"`
	statePayload
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Start(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		TeamID   string `json:"teamId"`
		Price    int    `json:"price"`
	}
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.TeamID == "" {
		// Fall back to the team selected through the bid surface.
		_, req.TeamID = s.session.Bid()
	}

	entry, err := s.session.Sell(r.Context(), req.PlayerID, req.TeamID, req.Price)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commitPayload{Entry: entry, statePayload: s.statePayload()})
}

func (s *Server) handleUnsold(w http.ResponseWriter, r *http.Request) {
	playerID := optionalPlayer(r)
	entry, err := s.session.MarkUnsold(r.Context(), playerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commitPayload{Entry: entry, statePayload: s.statePayload()})
}

func (s *Server) handlePass(w http.ResponseWriter, r *http.Request) {
	playerID := optionalPlayer(r)
	entry, err := s.session.Pass(r.Context(), playerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commitPayload{Entry: entry, statePayload: s.statePayload()})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if err := s.session.MoveToNext(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	entry, err := s.session.Undo(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commitPayload{Entry: entry, statePayload: s.statePayload()})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		TeamID   string `json:"teamId"`
		Price    int    `json:"price"`
	}
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.session.Transfer(r.Context(), req.PlayerID, req.TeamID, req.Price); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string         `json:"playerId"`
		Status   auction.Status `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.session.SetStatus(r.Context(), req.PlayerID, req.Status); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.session.SelectPlayer(r.Context(), req.PlayerID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.session.End(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleBidSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price int `json:"price"`
	}
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.session.SetPrice(req.Price); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleBidIncrement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Amount <= 0 {
		// No explicit amount: use the configured tier for the current price.
		price, _ := s.session.Bid()
		req.Amount = s.cfg.IncrementFor(price)
	}
	if err := s.session.IncrementPrice(req.Amount); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleBidReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ResetPrice(); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleBidTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID string `json:"teamId"`
	}
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.session.SelectTeam(req.TeamID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleListTeams(w http.ResponseWriter, _ *http.Request) {
	snap := s.session.Snapshot()
	writeJSON(w, http.StatusOK, snap.Teams)
}

func (s *Server) handleAddTeam(w http.ResponseWriter, r *http.Request) {
	var team auction.Team
	if err := decode(r, &team); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	if err := s.session.AddTeam(r.Context(), team); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.statePayload())
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	var team auction.Team
	if err := decode(r, &team); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	team.ID = chi.URLParam(r, "id")
	if err := s.session.UpdateTeam(r.Context(), team); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteTeam(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleListPlayers(w http.ResponseWriter, _ *http.Request) {
	snap := s.session.Snapshot()
	writeJSON(w, http.StatusOK, snap.Players)
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var player auction.Player
	if err := decode(r, &player); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	if player.BasePrice == 0 {
		player.BasePrice = s.cfg.DefaultBasePrice
	}
	if err := s.session.AddPlayers(r.Context(), []auction.Player{player}); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.statePayload())
}

// handleImport ingests a CSV body of players and appends them to the pool.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	players, err := s.intake.Parse(r.Body)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if len(players) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: no players in import", errBadRequest))
		return
	}
	if err := s.session.AddPlayers(r.Context(), players); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.statePayload())
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var player auction.Player
	if err := decode(r, &player); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	player.ID = chi.URLParam(r, "id")
	if err := s.session.UpdatePlayer(r.Context(), player); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeletePlayer(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

// handleExport streams the results document as JSON or CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	switch format := r.URL.Query().Get("format"); format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="auction-results.csv"`)
		if err := export.WriteCSV(w, &snap); err != nil {
			s.respondError(w, r, err)
		}
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="auction-results.json"`)
		if err := export.WriteJSON(w, &snap); err != nil {
			s.respondError(w, r, err)
		}
	default:
		s.respondError(w, r, fmt.Errorf("%w: unknown format %q", errBadRequest, format))
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statePayload())
}

// optionalPlayer pulls playerId from the body if one was sent; an absent or
// empty body targets the current lot.
func optionalPlayer(r *http.Request) string {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	_ = decode(r, &req)
	return req.PlayerID
}
