package auction

import "time"

// Transition methods on State. Every method validates all guards before the
// first mutation so a rejected call leaves the state untouched. Callers that
// need commit semantics (persist-then-swap) should mutate a Clone; that is
// what Session does.

// Start begins the auction. The working set is fixed to the players that are
// available at start time, in the order they were supplied.
func (s *State) Start() error {
	if s.AuctionStarted {
		return ErrAuctionStarted
	}
	if len(s.Teams) == 0 || len(s.Players) == 0 {
		return ErrSetupIncomplete
	}
	available := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Status == StatusAvailable {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		return ErrSetupIncomplete
	}
	s.Players = available
	s.AuctionStarted = true
	s.CurrentPlayerIndex = 0
	return nil
}

// Sell commits the current bid: the player goes to the team at the given
// price, the team's budget is debited, the roster and history are updated
// and the cursor advances. Guards are evaluated in order and a budget equal
// to the price is affordable.
func (s *State) Sell(playerID, teamID string, price int, now time.Time) (HistoryEntry, error) {
	if teamID == "" {
		return HistoryEntry{}, ErrTeamNotSelected
	}
	p := s.player(playerID)
	if p == nil {
		return HistoryEntry{}, ErrPlayerNotFound
	}
	if p.Status == StatusSold {
		return HistoryEntry{}, ErrAlreadySold
	}
	// Defensive: the roster cache and the player collection must agree.
	if s.rosterTeam(playerID) != nil {
		return HistoryEntry{}, ErrAlreadyAssigned
	}
	t := s.team(teamID)
	if t == nil {
		return HistoryEntry{}, ErrTeamNotFound
	}
	if t.RemainingBudget < price {
		return HistoryEntry{}, ErrInsufficientBudget
	}

	p.Status = StatusSold
	p.CurrentPrice = price
	p.TeamID = teamID
	t.RemainingBudget -= price
	t.Players = append(t.Players, *p)

	entry := HistoryEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Action:     ActionSold,
		TeamID:     t.ID,
		TeamName:   t.Name,
		Price:      price,
		Timestamp:  now,
	}
	s.pushHistory(entry)
	s.CurrentPlayerIndex++
	return entry, nil
}

// MarkUnsold records that no team bought the player. The status changes to
// unsold, any sale is cleared, and the cursor advances. There are no budget
// or team guards.
func (s *State) MarkUnsold(playerID string, now time.Time) (HistoryEntry, error) {
	p := s.player(playerID)
	if p == nil {
		return HistoryEntry{}, ErrPlayerNotFound
	}

	s.releaseFromTeam(p)
	p.Status = StatusUnsold

	entry := HistoryEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Action:     ActionUnsold,
		Timestamp:  now,
	}
	s.pushHistory(entry)
	s.CurrentPlayerIndex++
	return entry, nil
}

// Pass skips the player without touching their stored status: only a history
// entry is recorded and the cursor advances. Undo of a pass therefore only
// pops history.
func (s *State) Pass(playerID string, now time.Time) (HistoryEntry, error) {
	p := s.player(playerID)
	if p == nil {
		return HistoryEntry{}, ErrPlayerNotFound
	}

	entry := HistoryEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Action:     ActionPassed,
		Timestamp:  now,
	}
	s.pushHistory(entry)
	s.CurrentPlayerIndex++
	return entry, nil
}

// Undo reverses exactly the most recent history entry and decrements the
// cursor, floored at zero. Transfers and status overrides are not in history
// and are never reverted here.
func (s *State) Undo() (HistoryEntry, error) {
	if len(s.History) == 0 {
		return HistoryEntry{}, ErrNothingToUndo
	}
	entry := s.History[0]
	s.History = s.History[1:]

	switch entry.Action {
	case ActionSold:
		if p := s.player(entry.PlayerID); p != nil {
			p.Status = StatusAvailable
			p.CurrentPrice = 0
			p.TeamID = ""
		}
		if t := s.team(entry.TeamID); t != nil {
			t.RemainingBudget += entry.Price
			t.Players = removeFromRoster(t.Players, entry.PlayerID)
		}
	case ActionUnsold:
		if p := s.player(entry.PlayerID); p != nil {
			p.Status = StatusAvailable
		}
	case ActionPassed:
		// Pass never mutated the player; popping history is the whole undo.
	}

	if s.CurrentPlayerIndex > 0 {
		s.CurrentPlayerIndex--
	}
	return entry, nil
}

// Transfer reassigns a player to another team outside the normal sell flow.
// A non-positive price defaults to the player's current price, falling back
// to the base price. The previous team, if any, is credited back its spend.
// Transfers are corrections: they are not recorded in history.
func (s *State) Transfer(playerID, teamID string, price int) error {
	if teamID == "" {
		return ErrTeamNotSelected
	}
	p := s.player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	dest := s.team(teamID)
	if dest == nil {
		return ErrTeamNotFound
	}
	if price <= 0 {
		price = p.CurrentPrice
		if price <= 0 {
			price = p.BasePrice
		}
	}
	if dest.RemainingBudget < price {
		return ErrInsufficientBudget
	}

	s.releaseFromTeam(p)
	p.Status = StatusSold
	p.CurrentPrice = price
	p.TeamID = dest.ID
	dest.RemainingBudget -= price
	dest.Players = append(dest.Players, *p)
	return nil
}

// SetStatus is the manual override: the status is set unconditionally, and
// when the new status is not sold any existing sale is unwound (team credited,
// roster entry removed, price cleared). Not recorded in history.
func (s *State) SetStatus(playerID string, status Status) error {
	p := s.player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if status != StatusSold {
		s.releaseFromTeam(p)
	}
	p.Status = status
	return nil
}

// SelectPlayer moves the cursor directly to the given player.
func (s *State) SelectPlayer(playerID string) error {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			s.CurrentPlayerIndex = i
			return nil
		}
	}
	return ErrPlayerNotFound
}

// MoveToNext advances the cursor. It always succeeds; the cursor may move
// past the last player, which only signals that every lot has been offered.
func (s *State) MoveToNext() {
	s.CurrentPlayerIndex++
}

// End marks the auction completed. Completion is always an explicit operator
// action; it is never inferred from the cursor position.
func (s *State) End() {
	s.AuctionCompleted = true
}

// releaseFromTeam unwinds any sale recorded on the player: the owning team
// is credited the spend and the roster entry removed, and the player's
// price/team fields are cleared.
func (s *State) releaseFromTeam(p *Player) {
	if p.TeamID != "" {
		if t := s.team(p.TeamID); t != nil {
			t.RemainingBudget += p.CurrentPrice
			t.Players = removeFromRoster(t.Players, p.ID)
		}
	}
	p.CurrentPrice = 0
	p.TeamID = ""
}

// pushHistory prepends the entry; history is ordered most recent first.
func (s *State) pushHistory(e HistoryEntry) {
	s.History = append([]HistoryEntry{e}, s.History...)
}

func removeFromRoster(roster []Player, playerID string) []Player {
	out := roster[:0]
	for _, p := range roster {
		if p.ID != playerID {
			out = append(out, p)
		}
	}
	return out
}
