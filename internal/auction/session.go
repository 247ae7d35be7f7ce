package auction

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/auction-desk/internal/clock"
)

// Notifier receives committed auction events (sold, unsold, passed). It is a
// read-only consumer; failures are logged and never block a commit.
type Notifier interface {
	LotCommitted(ctx context.Context, entry HistoryEntry)
}

// Session owns the live auction snapshot and the transient bidding state
// (current price, selected team) that exists between commits. Operations run
// one at a time: read state, validate, compute the next snapshot, persist it,
// then swap it in. A persistence failure leaves the previous snapshot in
// place, so a failed operation is never observable as committed.
type Session struct {
	mu    sync.Mutex
	state *State

	// Transient bid state; reset whenever the cursor moves.
	bidPrice  int
	bidTeamID string

	snapshots Store
	logger    *slog.Logger
	tracer    trace.Tracer
	clock     clock.Clock
	notifier  Notifier
}

// NewSession creates a session around an existing snapshot.
func NewSession(state *State, snapshots Store, logger *slog.Logger, tp trace.TracerProvider, clk clock.Clock) *Session {
	s := &Session{
		state:     state,
		snapshots: snapshots,
		logger:    logger,
		tracer:    tp.Tracer("github.com/jensholdgaard/auction-desk/internal/auction"),
		clock:     clk,
	}
	s.resetBid()
	return s
}

// Restore builds a session from storage: the persisted snapshot when one
// exists, otherwise a fresh pre-start snapshot composed from the team and
// player collections.
func Restore(ctx context.Context, snapshots Store, logger *slog.Logger, tp trace.TracerProvider, clk clock.Clock) (*Session, error) {
	state, err := snapshots.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading auction state: %w", err)
	}
	if state == nil {
		teams, err := snapshots.LoadTeams(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading teams: %w", err)
		}
		players, err := snapshots.LoadPlayers(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading players: %w", err)
		}
		state = &State{Teams: teams, Players: players}
	}
	return NewSession(state, snapshots, logger, tp, clk), nil
}

// SetNotifier installs a committed-event consumer.
func (s *Session) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Snapshot returns a deep copy of the committed state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state.Clone()
}

// Bid returns the transient bid state: current price and selected team.
func (s *Session) Bid() (price int, teamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bidPrice, s.bidTeamID
}

// Started reports whether the auction has begun.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AuctionStarted
}

// commit clones the committed state, applies mutate to the clone, persists
// the result and swaps it in. Guard failures and persistence failures both
// leave the committed state untouched.
func (s *Session) commit(ctx context.Context, mutate func(*State) error) error {
	next := s.state.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.state = next
	return nil
}

// persist writes the full snapshot through the storage collaborator. The
// collections go first and the state row last: Restore prefers LoadState, so
// the new snapshot only becomes authoritative once the final write lands. A
// failure partway through leaves the previous state row in place and the
// stale collections are ignored on restore.
func (s *Session) persist(ctx context.Context, state *State) error {
	if err := s.snapshots.ReplaceTeams(ctx, state.Teams); err != nil {
		return fmt.Errorf("persisting teams: %w", err)
	}
	if err := s.snapshots.ReplacePlayers(ctx, state.Players); err != nil {
		return fmt.Errorf("persisting players: %w", err)
	}
	if err := s.snapshots.ReplaceState(ctx, state); err != nil {
		return fmt.Errorf("persisting auction state: %w", err)
	}
	return nil
}

// resetBid re-derives the transient bid from the current lot: price back to
// the floor, team deselected. Called with the lock held.
func (s *Session) resetBid() {
	s.bidTeamID = ""
	if p := s.state.CurrentPlayer(); p != nil {
		s.bidPrice = p.BasePrice
	} else {
		s.bidPrice = 0
	}
}

// notify hands a committed entry to the notifier, if one is installed.
func (s *Session) notify(ctx context.Context, entry HistoryEntry) {
	if s.notifier != nil {
		s.notifier.LotCommitted(ctx, entry)
	}
}

// Start begins the auction, fixing the working set to the currently
// available players.
func (s *Session) Start(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "Session.Start")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.commit(ctx, func(st *State) error { return st.Start() })
	if err != nil {
		return err
	}
	s.resetBid()

	s.logger.InfoContext(ctx, "auction started",
		slog.Int("teams", len(s.state.Teams)),
		slog.Int("players", len(s.state.Players)),
	)
	return nil
}

// Sell commits a sale. An empty playerID targets the current lot; a
// non-positive price uses the transient bid price.
func (s *Session) Sell(ctx context.Context, playerID, teamID string, price int) (HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "Session.Sell",
		trace.WithAttributes(
			attribute.String("player.id", playerID),
			attribute.String("team.id", teamID),
			attribute.Int("price", price),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if playerID == "" {
		p := s.state.CurrentPlayer()
		if p == nil {
			return HistoryEntry{}, ErrPlayerNotFound
		}
		playerID = p.ID
	}
	if price <= 0 {
		price = s.bidPrice
	}
	// With the cursor past the last lot the bid price is zero; a sale must
	// never commit at a non-positive price.
	if price <= 0 {
		return HistoryEntry{}, ErrInvalidAmount
	}

	var entry HistoryEntry
	err := s.commit(ctx, func(st *State) error {
		var err error
		entry, err = st.Sell(playerID, teamID, price, s.clock.Now().UTC())
		return err
	})
	if err != nil {
		return HistoryEntry{}, err
	}
	s.resetBid()
	s.notify(ctx, entry)

	s.logger.InfoContext(ctx, "player sold",
		slog.String("player", entry.PlayerName),
		slog.String("team", entry.TeamName),
		slog.Int("price", entry.Price),
	)
	return entry, nil
}

// MarkUnsold records that the player found no buyer.
func (s *Session) MarkUnsold(ctx context.Context, playerID string) (HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "Session.MarkUnsold",
		trace.WithAttributes(attribute.String("player.id", playerID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if playerID == "" {
		p := s.state.CurrentPlayer()
		if p == nil {
			return HistoryEntry{}, ErrPlayerNotFound
		}
		playerID = p.ID
	}

	var entry HistoryEntry
	err := s.commit(ctx, func(st *State) error {
		var err error
		entry, err = st.MarkUnsold(playerID, s.clock.Now().UTC())
		return err
	})
	if err != nil {
		return HistoryEntry{}, err
	}
	s.resetBid()
	s.notify(ctx, entry)

	s.logger.InfoContext(ctx, "player unsold", slog.String("player", entry.PlayerName))
	return entry, nil
}

// Pass skips the player, recording the event without touching their status.
func (s *Session) Pass(ctx context.Context, playerID string) (HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "Session.Pass",
		trace.WithAttributes(attribute.String("player.id", playerID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if playerID == "" {
		p := s.state.CurrentPlayer()
		if p == nil {
			return HistoryEntry{}, ErrPlayerNotFound
		}
		playerID = p.ID
	}

	var entry HistoryEntry
	err := s.commit(ctx, func(st *State) error {
		var err error
		entry, err = st.Pass(playerID, s.clock.Now().UTC())
		return err
	})
	if err != nil {
		return HistoryEntry{}, err
	}
	s.resetBid()
	s.notify(ctx, entry)

	s.logger.InfoContext(ctx, "player passed", slog.String("player", entry.PlayerName))
	return entry, nil
}

// Undo reverses the most recent committed action.
func (s *Session) Undo(ctx context.Context) (HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "Session.Undo")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	var entry HistoryEntry
	err := s.commit(ctx, func(st *State) error {
		var err error
		entry, err = st.Undo()
		return err
	})
	if err != nil {
		return HistoryEntry{}, err
	}
	s.resetBid()

	s.logger.InfoContext(ctx, "action undone",
		slog.String("action", string(entry.Action)),
		slog.String("player", entry.PlayerName),
	)
	return entry, nil
}

// Transfer reassigns a player to another team. Not undoable.
func (s *Session) Transfer(ctx context.Context, playerID, teamID string, price int) error {
	ctx, span := s.tracer.Start(ctx, "Session.Transfer",
		trace.WithAttributes(
			attribute.String("player.id", playerID),
			attribute.String("team.id", teamID),
			attribute.Int("price", price),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func(st *State) error { return st.Transfer(playerID, teamID, price) }); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "player transferred",
		slog.String("player_id", playerID),
		slog.String("team_id", teamID),
	)
	return nil
}

// SetStatus is the manual status override. Not undoable.
func (s *Session) SetStatus(ctx context.Context, playerID string, status Status) error {
	ctx, span := s.tracer.Start(ctx, "Session.SetStatus",
		trace.WithAttributes(
			attribute.String("player.id", playerID),
			attribute.String("status", string(status)),
		),
	)
	defer span.End()

	if !ValidStatus(status) {
		return fmt.Errorf("unknown status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func(st *State) error { return st.SetStatus(playerID, status) }); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "status overridden",
		slog.String("player_id", playerID),
		slog.String("status", string(status)),
	)
	return nil
}

// SelectPlayer relocates the cursor to the given player and resets the
// transient bid state.
func (s *Session) SelectPlayer(ctx context.Context, playerID string) error {
	ctx, span := s.tracer.Start(ctx, "Session.SelectPlayer",
		trace.WithAttributes(attribute.String("player.id", playerID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func(st *State) error { return st.SelectPlayer(playerID) }); err != nil {
		return err
	}
	s.resetBid()
	return nil
}

// MoveToNext advances the cursor without recording anything.
func (s *Session) MoveToNext(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "Session.MoveToNext")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func(st *State) error { st.MoveToNext(); return nil }); err != nil {
		return err
	}
	s.resetBid()
	return nil
}

// End marks the auction completed. Always explicit, never inferred.
func (s *Session) End(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "Session.End")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, func(st *State) error { st.End(); return nil }); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "auction ended",
		slog.Int("players", len(s.state.Players)),
		slog.Int("teams", len(s.state.Teams)),
	)
	return nil
}

// Reset wipes all collections and returns the session to an empty pre-start
// snapshot.
func (s *Session) Reset(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "Session.Reset")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.snapshots.ClearAll(ctx); err != nil {
		return fmt.Errorf("clearing storage: %w", err)
	}
	s.state = &State{}
	s.resetBid()

	s.logger.InfoContext(ctx, "auction reset")
	return nil
}
