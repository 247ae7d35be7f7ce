package auction

import "errors"

// Errors returned by auction operations. Every one of these is a rejected
// operation: when any is returned the committed state (teams, players,
// history, cursor) is exactly as it was before the call.
var (
	ErrSetupIncomplete    = errors.New("setup incomplete: teams and players are required")
	ErrTeamNotSelected    = errors.New("no team selected")
	ErrAlreadySold        = errors.New("player is already sold")
	ErrAlreadyAssigned    = errors.New("player is already on a team roster")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrTeamNotFound       = errors.New("team not found")
	ErrNothingToUndo      = errors.New("nothing to undo")

	// ErrPlayerNotFound covers operations addressed at an unknown player id.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidAmount rejects non-positive bid increments.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrAuctionStarted rejects setup mutations after the auction has begun.
	ErrAuctionStarted = errors.New("auction already started")
)
