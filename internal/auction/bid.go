package auction

// Transient bid helpers. The current bid price and the selected team live
// outside the committed snapshot: they are session-local scratch state that
// feeds Sell and are reset whenever the cursor moves. None of these touch
// storage.

// SetPrice sets the current bid outright.
func (s *Session) SetPrice(price int) error {
	if price <= 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidPrice = price
	return nil
}

// IncrementPrice raises the current bid by a strictly positive amount.
func (s *Session) IncrementPrice(amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidPrice += amount
	return nil
}

// ResetPrice restores the bid to the current lot's floor price and clears
// the team selection.
func (s *Session) ResetPrice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentPlayer() == nil {
		return ErrPlayerNotFound
	}
	s.resetBid()
	return nil
}

// SelectTeam records which team the operator intends to sell to.
func (s *Session) SelectTeam(teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if teamID != "" && s.state.team(teamID) == nil {
		return ErrTeamNotFound
	}
	s.bidTeamID = teamID
	return nil
}
