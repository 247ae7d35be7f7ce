// Package export serializes the auction results for download or printing.
// It is a read-only consumer of the snapshot and never mutates it.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jensholdgaard/auction-desk/internal/auction"
)

// TeamResult is one team's line in the results document.
type TeamResult struct {
	Team        string         `json:"team"`
	TotalBudget int            `json:"totalBudget"`
	Spent       int            `json:"spent"`
	Remaining   int            `json:"remaining"`
	Players     []PlayerResult `json:"players"`
}

// PlayerResult is one bought player in a team's results.
type PlayerResult struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Role     string `json:"role,omitempty"`
	Category string `json:"category,omitempty"`
}

// Results builds the per-team results document from a snapshot.
func Results(state *auction.State) []TeamResult {
	out := make([]TeamResult, 0, len(state.Teams))
	for _, t := range state.Teams {
		r := TeamResult{
			Team:        t.Name,
			TotalBudget: t.Budget,
			Spent:       t.Spent(),
			Remaining:   t.RemainingBudget,
			Players:     make([]PlayerResult, 0, len(t.Players)),
		}
		for _, p := range t.Players {
			r.Players = append(r.Players, PlayerResult{
				Name:     p.Name,
				Price:    p.CurrentPrice,
				Role:     p.Role,
				Category: p.Category,
			})
		}
		out = append(out, r)
	}
	return out
}

// WriteJSON writes the results document as indented JSON.
func WriteJSON(w io.Writer, state *auction.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Results(state)); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// WriteCSV writes the results flattened to one row per bought player, with
// a trailing summary row per team.
func WriteCSV(w io.Writer, state *auction.State) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"team", "player", "price", "role", "category", "spent", "remaining"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range Results(state) {
		for _, p := range r.Players {
			row := []string{r.Team, p.Name, strconv.Itoa(p.Price), p.Role, p.Category, "", ""}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing player row: %w", err)
			}
		}
		summary := []string{r.Team, "", "", "", "", strconv.Itoa(r.Spent), strconv.Itoa(r.Remaining)}
		if err := cw.Write(summary); err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
