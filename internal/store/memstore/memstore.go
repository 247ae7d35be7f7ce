// Package memstore provides an in-memory store.Driver. It is the analog of
// the single-device local storage the auction desk grew out of, and doubles
// as the storage double in unit tests. Contents do not survive a restart.
package memstore

import (
	"context"
	"sync"

	"github.com/jensholdgaard/auction-desk/internal/auction"
	"github.com/jensholdgaard/auction-desk/internal/config"
	"github.com/jensholdgaard/auction-desk/internal/store"
)

func init() {
	store.Register("memory", openMemory)
}

// closerFunc adapts a func() error into an io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openMemory(_ context.Context, _ config.DatabaseConfig) (*store.Backend, error) {
	s := New()
	return &store.Backend{
		Snapshots: s,
		Closer:    closerFunc(func() error { return nil }),
		Ping:      func(context.Context) error { return nil },
	}, nil
}

// Store is an in-memory auction.Store. Safe for concurrent use. All loads
// and replaces deep-copy so callers never share backing arrays with the
// stored snapshot.
type Store struct {
	mu      sync.Mutex
	teams   []auction.Team
	players []auction.Player
	state   *auction.State
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) LoadTeams(_ context.Context) ([]auction.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTeams(s.teams), nil
}

func (s *Store) ReplaceTeams(_ context.Context, teams []auction.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = copyTeams(teams)
	return nil
}

func (s *Store) LoadPlayers(_ context.Context) ([]auction.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auction.Player(nil), s.players...), nil
}

func (s *Store) ReplacePlayers(_ context.Context, players []auction.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = append([]auction.Player(nil), players...)
	return nil
}

func (s *Store) LoadState(_ context.Context) (*auction.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

func (s *Store) ReplaceState(_ context.Context, state *auction.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	return nil
}

func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = nil
	s.players = nil
	s.state = nil
	return nil
}

func copyTeams(teams []auction.Team) []auction.Team {
	out := make([]auction.Team, len(teams))
	for i, t := range teams {
		roster := make([]auction.Player, len(t.Players))
		copy(roster, t.Players)
		t.Players = roster
		out[i] = t
	}
	return out
}
