package auction

import "time"

// Status is a player's position in the auction lifecycle.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	StatusUnsold    Status = "unsold"
	StatusPassed    Status = "passed"
)

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusSold, StatusUnsold, StatusPassed:
		return true
	}
	return false
}

// Action is the kind of committed auction event recorded in history.
type Action string

const (
	ActionSold   Action = "sold"
	ActionUnsold Action = "unsold"
	ActionPassed Action = "passed"
)

// Player is one lot in the auction pool. CurrentPrice and TeamID are set
// iff Status is StatusSold.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BasePrice    int    `json:"basePrice"`
	Category     string `json:"category,omitempty"`
	Role         string `json:"role,omitempty"`
	Intro        string `json:"intro,omitempty"`
	PhotoRef     string `json:"photoRef,omitempty"`
	Status       Status `json:"status"`
	CurrentPrice int    `json:"currentPrice,omitempty"`
	TeamID       string `json:"teamId,omitempty"`
}

// Team is a bidder with a finite budget. Players holds denormalized
// snapshots of the roster; it is a cache rebuilt by every committed
// mutation, never an independent source of truth.
type Team struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Color           string   `json:"color"`
	Budget          int      `json:"budget"`
	RemainingBudget int      `json:"remainingBudget"`
	Players         []Player `json:"players"`
}

// Spent returns how much of the team's budget has been committed.
func (t *Team) Spent() int { return t.Budget - t.RemainingBudget }

// HistoryEntry is one committed auction action, most recent first.
// Only sell, unsold and pass are recorded; transfers and manual status
// overrides are corrections and bypass history.
type HistoryEntry struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Action     Action    `json:"action"`
	TeamID     string    `json:"teamId,omitempty"`
	TeamName   string    `json:"teamName,omitempty"`
	Price      int       `json:"price,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// State is the full auction snapshot. It is persisted verbatim after every
// committed operation.
type State struct {
	Teams              []Team         `json:"teams"`
	Players            []Player       `json:"players"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	AuctionStarted     bool           `json:"auctionStarted"`
	AuctionCompleted   bool           `json:"auctionCompleted"`
	History            []HistoryEntry `json:"history"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{
		Teams:              make([]Team, len(s.Teams)),
		Players:            make([]Player, len(s.Players)),
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		AuctionStarted:     s.AuctionStarted,
		AuctionCompleted:   s.AuctionCompleted,
		History:            make([]HistoryEntry, len(s.History)),
	}
	copy(c.Players, s.Players)
	copy(c.History, s.History)
	for i, t := range s.Teams {
		roster := make([]Player, len(t.Players))
		copy(roster, t.Players)
		t.Players = roster
		c.Teams[i] = t
	}
	return c
}

// CurrentPlayer returns the lot at the cursor, or nil when the cursor has
// advanced past the last player.
func (s *State) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// AllProcessed reports whether the cursor has moved past every player.
// It unlocks the end-auction affordance; it never ends the auction itself.
func (s *State) AllProcessed() bool {
	return s.AuctionStarted && s.CurrentPlayerIndex >= len(s.Players)
}

func (s *State) player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *State) team(id string) *Team {
	for i := range s.Teams {
		if s.Teams[i].ID == id {
			return &s.Teams[i]
		}
	}
	return nil
}

// rosterTeam returns the team whose roster contains the player, if any.
func (s *State) rosterTeam(playerID string) *Team {
	for i := range s.Teams {
		for _, p := range s.Teams[i].Players {
			if p.ID == playerID {
				return &s.Teams[i]
			}
		}
	}
	return nil
}
