package auction

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Setup operations: creating, editing and deleting team and player
// identities. These are only legal before the auction starts; once started
// the engine mutates nothing but statuses, prices and budgets.

// AddTeam registers a team. The caller assigns the id.
func (s *Session) AddTeam(ctx context.Context, t Team) error {
	ctx, span := s.tracer.Start(ctx, "Session.AddTeam",
		trace.WithAttributes(attribute.String("team.id", t.ID)),
	)
	defer span.End()

	if t.ID == "" || t.Name == "" {
		return fmt.Errorf("team id and name are required")
	}
	if t.Budget < 0 {
		return fmt.Errorf("budget must be non-negative")
	}
	t.RemainingBudget = t.Budget
	t.Players = nil

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, func(st *State) error {
		if st.AuctionStarted {
			return ErrAuctionStarted
		}
		if st.team(t.ID) != nil {
			return fmt.Errorf("team %s already exists", t.ID)
		}
		st.Teams = append(st.Teams, t)
		return nil
	})
}

// UpdateTeam edits a team's name, color or budget. A budget edit adjusts the
// remaining budget by the same delta so committed spend is preserved.
func (s *Session) UpdateTeam(ctx context.Context, t Team) error {
	ctx, span := s.tracer.Start(ctx, "Session.UpdateTeam",
		trace.WithAttributes(attribute.String("team.id", t.ID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, func(st *State) error {
		if st.AuctionStarted {
			return ErrAuctionStarted
		}
		existing := st.team(t.ID)
		if existing == nil {
			return ErrTeamNotFound
		}
		existing.Name = t.Name
		existing.Color = t.Color
		if t.Budget != existing.Budget {
			existing.RemainingBudget += t.Budget - existing.Budget
			existing.Budget = t.Budget
		}
		return nil
	})
}

// DeleteTeam removes a team identity.
func (s *Session) DeleteTeam(ctx context.Context, teamID string) error {
	ctx, span := s.tracer.Start(ctx, "Session.DeleteTeam",
		trace.WithAttributes(attribute.String("team.id", teamID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, func(st *State) error {
		if st.AuctionStarted {
			return ErrAuctionStarted
		}
		for i := range st.Teams {
			if st.Teams[i].ID == teamID {
				st.Teams = append(st.Teams[:i], st.Teams[i+1:]...)
				return nil
			}
		}
		return ErrTeamNotFound
	})
}

// AddPlayers appends players to the pool, typically from bulk intake.
func (s *Session) AddPlayers(ctx context.Context, players []Player) error {
	ctx, span := s.tracer.Start(ctx, "Session.AddPlayers",
		trace.WithAttributes(attribute.Int("count", len(players))),
	)
	defer span.End()

	for _, p := range players {
		if p.ID == "" || p.Name == "" {
			return fmt.Errorf("player id and name are required")
		}
		if p.BasePrice < 0 {
			return fmt.Errorf("base price must be non-negative")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, func(st *State) error {
		if st.AuctionStarted {
			return ErrAuctionStarted
		}
		for _, p := range players {
			if st.player(p.ID) != nil {
				return fmt.Errorf("player %s already exists", p.ID)
			}
			p.Status = StatusAvailable
			p.CurrentPrice = 0
			p.TeamID = ""
			st.Players = append(st.Players, p)
		}
		return nil
	})
}

// UpdatePlayer edits a player's descriptive fields. Status, price and team
// assignment are not editable here; those belong to the auction operations.
func (s *Session) UpdatePlayer(ctx context.Context, p Player) error {
	ctx, span := s.tracer.Start(ctx, "Session.UpdatePlayer",
		trace.WithAttributes(attribute.String("player.id", p.ID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, func(st *State) error {
		if st.AuctionStarted {
			return ErrAuctionStarted
		}
		existing := st.player(p.ID)
		if existing == nil {
			return ErrPlayerNotFound
		}
		existing.Name = p.Name
		existing.BasePrice = p.BasePrice
		existing.Category = p.Category
		existing.Role = p.Role
		existing.Intro = p.Intro
		existing.PhotoRef = p.PhotoRef
		return nil
	})
}

// DeletePlayer removes a player identity.
func (s *Session) DeletePlayer(ctx context.Context, playerID string) error {
	ctx, span := s.tracer.Start(ctx, "Session.DeletePlayer",
		trace.WithAttributes(attribute.String("player.id", playerID)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, func(st *State) error {
		if st.AuctionStarted {
			return ErrAuctionStarted
		}
		for i := range st.Players {
			if st.Players[i].ID == playerID {
				st.Players = append(st.Players[:i], st.Players[i+1:]...)
				return nil
			}
		}
		return ErrPlayerNotFound
	})
}
