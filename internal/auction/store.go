package auction

import "context"

// Store is the durable-storage collaborator. The contract is whole-collection
// read/replace: the engine never issues partial updates or queries. LoadState
// returns (nil, nil) when no snapshot has been persisted yet.
type Store interface {
	LoadTeams(ctx context.Context) ([]Team, error)
	ReplaceTeams(ctx context.Context, teams []Team) error
	LoadPlayers(ctx context.Context) ([]Player, error)
	ReplacePlayers(ctx context.Context, players []Player) error
	LoadState(ctx context.Context) (*State, error)
	ReplaceState(ctx context.Context, state *State) error
	ClearAll(ctx context.Context) error
}
