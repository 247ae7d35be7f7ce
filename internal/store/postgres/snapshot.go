package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/auction-desk/internal/auction"
)

// stateKey is the single auction_state row; the engine persists whole
// snapshots, so one row is all there ever is.
const stateKey = "current"

// SnapshotStore implements auction.Store with sqlx.
type SnapshotStore struct {
	db *sqlx.DB
}

// NewSnapshotStore returns a new SnapshotStore.
func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// teamRow is the teams table shape. The roster is denormalized into a jsonb
// column, matching the snapshot model; position preserves supply order.
type teamRow struct {
	ID              string          `db:"id"`
	Name            string          `db:"name"`
	Color           string          `db:"color"`
	Budget          int             `db:"budget"`
	RemainingBudget int             `db:"remaining_budget"`
	Roster          json.RawMessage `db:"roster"`
	Position        int             `db:"position"`
}

type playerRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	BasePrice    int    `db:"base_price"`
	Category     string `db:"category"`
	Role         string `db:"role"`
	Intro        string `db:"intro"`
	PhotoRef     string `db:"photo_ref"`
	Status       string `db:"status"`
	CurrentPrice int    `db:"current_price"`
	TeamID       string `db:"team_id"`
	Position     int    `db:"position"`
}

func (s *SnapshotStore) LoadTeams(ctx context.Context) ([]auction.Team, error) {
	var rows []teamRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM teams ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}
	teams := make([]auction.Team, 0, len(rows))
	for _, r := range rows {
		t := auction.Team{
			ID:              r.ID,
			Name:            r.Name,
			Color:           r.Color,
			Budget:          r.Budget,
			RemainingBudget: r.RemainingBudget,
		}
		if len(r.Roster) > 0 {
			if err := json.Unmarshal(r.Roster, &t.Players); err != nil {
				return nil, fmt.Errorf("decoding roster for team %s: %w", r.ID, err)
			}
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func (s *SnapshotStore) ReplaceTeams(ctx context.Context, teams []auction.Team) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM teams`); err != nil {
		return fmt.Errorf("clearing teams: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO teams (id, name, color, budget, remaining_budget, roster, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, t := range teams {
		roster, err := json.Marshal(t.Players)
		if err != nil {
			return fmt.Errorf("encoding roster for team %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.Name, t.Color, t.Budget, t.RemainingBudget, roster, i); err != nil {
			return fmt.Errorf("inserting team %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SnapshotStore) LoadPlayers(ctx context.Context) ([]auction.Player, error) {
	var rows []playerRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM players ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("loading players: %w", err)
	}
	players := make([]auction.Player, 0, len(rows))
	for _, r := range rows {
		players = append(players, auction.Player{
			ID:           r.ID,
			Name:         r.Name,
			BasePrice:    r.BasePrice,
			Category:     r.Category,
			Role:         r.Role,
			Intro:        r.Intro,
			PhotoRef:     r.PhotoRef,
			Status:       auction.Status(r.Status),
			CurrentPrice: r.CurrentPrice,
			TeamID:       r.TeamID,
		})
	}
	return players, nil
}

func (s *SnapshotStore) ReplacePlayers(ctx context.Context, players []auction.Player) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players`); err != nil {
		return fmt.Errorf("clearing players: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO players (id, name, base_price, category, role, intro, photo_ref, status, current_price, team_id, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, p := range players {
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.BasePrice, p.Category, p.Role, p.Intro, p.PhotoRef,
			string(p.Status), p.CurrentPrice, p.TeamID, i,
		); err != nil {
			return fmt.Errorf("inserting player %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SnapshotStore) LoadState(ctx context.Context) (*auction.State, error) {
	var data json.RawMessage
	err := s.db.GetContext(ctx, &data, `SELECT data FROM auction_state WHERE id = $1`, stateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading auction state: %w", err)
	}
	var state auction.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding auction state: %w", err)
	}
	return &state, nil
}

func (s *SnapshotStore) ReplaceState(ctx context.Context, state *auction.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding auction state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO auction_state (id, data, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		stateKey, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("replacing auction state: %w", err)
	}
	return nil
}

func (s *SnapshotStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"auction_state", "teams", "players"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return tx.Commit()
}
