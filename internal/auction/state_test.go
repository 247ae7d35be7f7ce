package auction_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jensholdgaard/auction-desk/internal/auction"
)

var now = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func testState() *auction.State {
	return &auction.State{
		Teams: []auction.Team{
			{ID: "t1", Name: "Falcons", Budget: 100000, RemainingBudget: 100000},
			{ID: "t2", Name: "Ravens", Budget: 100000, RemainingBudget: 100000},
		},
		Players: []auction.Player{
			{ID: "p1", Name: "Ana", BasePrice: 10000, Status: auction.StatusAvailable},
			{ID: "p2", Name: "Ben", BasePrice: 10000, Status: auction.StatusAvailable},
			{ID: "p3", Name: "Cam", BasePrice: 10000, Status: auction.StatusAvailable},
		},
		AuctionStarted: true,
	}
}

func mustSell(t *testing.T, st *auction.State, playerID, teamID string, price int) auction.HistoryEntry {
	t.Helper()
	entry, err := st.Sell(playerID, teamID, price, now)
	if err != nil {
		t.Fatalf("Sell(%s, %s, %d) error = %v", playerID, teamID, price, err)
	}
	return entry
}

func TestStart(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*auction.State)
		wantErr error
	}{
		{"ready", func(s *auction.State) { s.AuctionStarted = false }, nil},
		{"already started", func(s *auction.State) {}, auction.ErrAuctionStarted},
		{"no teams", func(s *auction.State) {
			s.AuctionStarted = false
			s.Teams = nil
		}, auction.ErrSetupIncomplete},
		{"no players", func(s *auction.State) {
			s.AuctionStarted = false
			s.Players = nil
		}, auction.ErrSetupIncomplete},
		{"no available players", func(s *auction.State) {
			s.AuctionStarted = false
			for i := range s.Players {
				s.Players[i].Status = auction.StatusSold
			}
		}, auction.ErrSetupIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testState()
			tt.mutate(st)
			err := st.Start()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Start() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !st.AuctionStarted {
				t.Error("AuctionStarted = false after Start")
			}
		})
	}
}

func TestStart_FiltersToAvailable(t *testing.T) {
	st := testState()
	st.AuctionStarted = false
	st.Players[1].Status = auction.StatusSold

	if err := st.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(st.Players) != 2 {
		t.Fatalf("len(Players) = %d, want 2", len(st.Players))
	}
	for _, p := range st.Players {
		if p.Status != auction.StatusAvailable {
			t.Errorf("player %s status = %q, want available", p.ID, p.Status)
		}
	}
	if st.CurrentPlayerIndex != 0 {
		t.Errorf("CurrentPlayerIndex = %d, want 0", st.CurrentPlayerIndex)
	}
}

func TestSell(t *testing.T) {
	st := testState()
	entry := mustSell(t, st, "p1", "t1", 80000)

	p := st.Players[0]
	if p.Status != auction.StatusSold || p.CurrentPrice != 80000 || p.TeamID != "t1" {
		t.Errorf("player after sell = %+v", p)
	}
	team := st.Teams[0]
	if team.RemainingBudget != 20000 {
		t.Errorf("RemainingBudget = %d, want 20000", team.RemainingBudget)
	}
	if len(team.Players) != 1 || team.Players[0].ID != "p1" {
		t.Errorf("roster = %+v, want [p1]", team.Players)
	}
	if st.CurrentPlayerIndex != 1 {
		t.Errorf("CurrentPlayerIndex = %d, want 1", st.CurrentPlayerIndex)
	}
	if len(st.History) != 1 || st.History[0] != entry {
		t.Errorf("History = %+v, want [%+v]", st.History, entry)
	}
	if entry.Action != auction.ActionSold || entry.TeamName != "Falcons" || entry.Price != 80000 {
		t.Errorf("entry = %+v", entry)
	}
}

// Remaining budget equal to the price is affordable; one unit less is not.
func TestSell_BudgetBoundary(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 80000)

	if _, err := st.Sell("p2", "t1", 30000, now); !errors.Is(err, auction.ErrInsufficientBudget) {
		t.Fatalf("Sell over budget error = %v, want ErrInsufficientBudget", err)
	}
	mustSell(t, st, "p2", "t1", 20000)
	if st.Teams[0].RemainingBudget != 0 {
		t.Errorf("RemainingBudget = %d, want 0", st.Teams[0].RemainingBudget)
	}
}

func TestSell_Guards(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*auction.State)
		playerID string
		teamID   string
		price    int
		wantErr  error
	}{
		{"no team selected", nil, "p1", "", 10000, auction.ErrTeamNotSelected},
		{"unknown player", nil, "nope", "t1", 10000, auction.ErrPlayerNotFound},
		{"already sold", func(s *auction.State) {
			s.Players[0].Status = auction.StatusSold
		}, "p1", "t1", 10000, auction.ErrAlreadySold},
		{"already on a roster", func(s *auction.State) {
			s.Teams[1].Players = append(s.Teams[1].Players, s.Players[0])
		}, "p1", "t1", 10000, auction.ErrAlreadyAssigned},
		{"unknown team", nil, "p1", "nope", 10000, auction.ErrTeamNotFound},
		{"insufficient budget", nil, "p1", "t1", 100001, auction.ErrInsufficientBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testState()
			if tt.mutate != nil {
				tt.mutate(st)
			}
			before := st.Clone()

			_, err := st.Sell(tt.playerID, tt.teamID, tt.price, now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Sell() error = %v, want %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(st.Clone(), before) {
				t.Error("rejected Sell mutated the state")
			}
		})
	}
}

func TestMarkUnsold(t *testing.T) {
	st := testState()
	entry, err := st.MarkUnsold("p1", now)
	if err != nil {
		t.Fatalf("MarkUnsold() error = %v", err)
	}
	if st.Players[0].Status != auction.StatusUnsold {
		t.Errorf("status = %q, want unsold", st.Players[0].Status)
	}
	if entry.Action != auction.ActionUnsold || entry.TeamID != "" || entry.Price != 0 {
		t.Errorf("entry = %+v", entry)
	}
	if st.CurrentPlayerIndex != 1 {
		t.Errorf("CurrentPlayerIndex = %d, want 1", st.CurrentPlayerIndex)
	}
}

// Marking a previously sold player unsold must refund the team and clear
// the roster entry, or budgets stop summing.
func TestMarkUnsold_ReleasesSale(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 40000)

	if _, err := st.MarkUnsold("p1", now); err != nil {
		t.Fatalf("MarkUnsold() error = %v", err)
	}
	if st.Teams[0].RemainingBudget != 100000 {
		t.Errorf("RemainingBudget = %d, want 100000", st.Teams[0].RemainingBudget)
	}
	if len(st.Teams[0].Players) != 0 {
		t.Errorf("roster = %+v, want empty", st.Teams[0].Players)
	}
	p := st.Players[0]
	if p.CurrentPrice != 0 || p.TeamID != "" {
		t.Errorf("player sale fields not cleared: %+v", p)
	}
}

// Pass records history and advances the cursor but never touches the
// player's stored status.
func TestPass_StatusUntouched(t *testing.T) {
	st := testState()
	before := st.Players[0]

	entry, err := st.Pass("p1", now)
	if err != nil {
		t.Fatalf("Pass() error = %v", err)
	}
	if st.Players[0] != before {
		t.Errorf("Pass mutated the player: %+v", st.Players[0])
	}
	if entry.Action != auction.ActionPassed {
		t.Errorf("entry action = %q, want passed", entry.Action)
	}
	if st.CurrentPlayerIndex != 1 || len(st.History) != 1 {
		t.Errorf("cursor = %d, history = %d", st.CurrentPlayerIndex, len(st.History))
	}
}

func TestUndo_Sell(t *testing.T) {
	st := testState()
	pristine := st.Clone()
	mustSell(t, st, "p1", "t1", 60000)

	entry, err := st.Undo()
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if entry.Action != auction.ActionSold {
		t.Errorf("undone action = %q, want sold", entry.Action)
	}
	if !reflect.DeepEqual(st.Clone(), pristine) {
		t.Errorf("state after undo = %+v, want pristine %+v", st, pristine)
	}
}

func TestUndo_Unsold(t *testing.T) {
	st := testState()
	if _, err := st.MarkUnsold("p1", now); err != nil {
		t.Fatalf("MarkUnsold() error = %v", err)
	}
	if _, err := st.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if st.Players[0].Status != auction.StatusAvailable {
		t.Errorf("status = %q, want available", st.Players[0].Status)
	}
	if st.CurrentPlayerIndex != 0 || len(st.History) != 0 {
		t.Errorf("cursor = %d, history = %d", st.CurrentPlayerIndex, len(st.History))
	}
}

func TestUndo_Pass(t *testing.T) {
	st := testState()
	if _, err := st.Pass("p1", now); err != nil {
		t.Fatalf("Pass() error = %v", err)
	}
	before := st.Players[0]

	if _, err := st.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if st.Players[0] != before {
		t.Errorf("undo of pass mutated the player: %+v", st.Players[0])
	}
	if len(st.History) != 0 || st.CurrentPlayerIndex != 0 {
		t.Errorf("cursor = %d, history = %d", st.CurrentPlayerIndex, len(st.History))
	}
}

func TestUndo_Empty(t *testing.T) {
	st := testState()
	if _, err := st.Undo(); !errors.Is(err, auction.ErrNothingToUndo) {
		t.Fatalf("Undo() error = %v, want ErrNothingToUndo", err)
	}
}

func TestUndo_MostRecentFirst(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 30000)
	mustSell(t, st, "p2", "t2", 40000)

	entry, err := st.Undo()
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if entry.PlayerID != "p2" {
		t.Errorf("undone player = %s, want p2", entry.PlayerID)
	}
	// The earlier sale is intact.
	if st.Players[0].Status != auction.StatusSold || st.Teams[0].RemainingBudget != 70000 {
		t.Errorf("earlier sale disturbed: player %+v, budget %d",
			st.Players[0], st.Teams[0].RemainingBudget)
	}
}

// Transfers bypass history, so an undo after a transfer reverses the last
// auction action, not the transfer.
func TestUndo_SkipsTransfer(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 30000)
	if err := st.Transfer("p1", "t2", 0); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	entry, err := st.Undo()
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if entry.Action != auction.ActionSold || entry.PlayerID != "p1" {
		t.Errorf("undone entry = %+v, want the original sale", entry)
	}
	// The undo credits the team named in the history entry (t1), which never
	// held the spend after the transfer. Operators are expected to follow a
	// transfer with corrections, not undo.
	if len(st.History) != 0 {
		t.Errorf("history = %d entries, want 0", len(st.History))
	}
}

func TestTransfer(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 30000)

	if err := st.Transfer("p1", "t2", 25000); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if st.Teams[0].RemainingBudget != 100000 {
		t.Errorf("source RemainingBudget = %d, want 100000", st.Teams[0].RemainingBudget)
	}
	if st.Teams[1].RemainingBudget != 75000 {
		t.Errorf("dest RemainingBudget = %d, want 75000", st.Teams[1].RemainingBudget)
	}
	if len(st.Teams[0].Players) != 0 {
		t.Errorf("source roster = %+v, want empty", st.Teams[0].Players)
	}
	if len(st.Teams[1].Players) != 1 || st.Teams[1].Players[0].ID != "p1" {
		t.Errorf("dest roster = %+v, want [p1]", st.Teams[1].Players)
	}
	p := st.Players[0]
	if p.TeamID != "t2" || p.CurrentPrice != 25000 || p.Status != auction.StatusSold {
		t.Errorf("player = %+v", p)
	}
	if len(st.History) != 1 {
		t.Errorf("history = %d entries, want 1 (transfer not recorded)", len(st.History))
	}
}

func TestTransfer_PriceDefaults(t *testing.T) {
	t.Run("current price", func(t *testing.T) {
		st := testState()
		mustSell(t, st, "p1", "t1", 30000)
		if err := st.Transfer("p1", "t2", 0); err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if got := st.Players[0].CurrentPrice; got != 30000 {
			t.Errorf("CurrentPrice = %d, want 30000", got)
		}
	})

	t.Run("base price when never sold", func(t *testing.T) {
		st := testState()
		if err := st.Transfer("p1", "t2", 0); err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if got := st.Players[0].CurrentPrice; got != 10000 {
			t.Errorf("CurrentPrice = %d, want base price 10000", got)
		}
	})
}

func TestTransfer_Guards(t *testing.T) {
	tests := []struct {
		name     string
		playerID string
		teamID   string
		price    int
		wantErr  error
	}{
		{"no team", "p1", "", 1000, auction.ErrTeamNotSelected},
		{"unknown player", "nope", "t2", 1000, auction.ErrPlayerNotFound},
		{"unknown team", "p1", "nope", 1000, auction.ErrTeamNotFound},
		{"over budget", "p1", "t2", 100001, auction.ErrInsufficientBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testState()
			before := st.Clone()
			err := st.Transfer(tt.playerID, tt.teamID, tt.price)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transfer() error = %v, want %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(st.Clone(), before) {
				t.Error("rejected Transfer mutated the state")
			}
		})
	}
}

func TestSetStatus(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 30000)

	if err := st.SetStatus("p1", auction.StatusUnsold); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if st.Players[0].Status != auction.StatusUnsold {
		t.Errorf("status = %q, want unsold", st.Players[0].Status)
	}
	if st.Teams[0].RemainingBudget != 100000 {
		t.Errorf("RemainingBudget = %d, want 100000 (sale unwound)", st.Teams[0].RemainingBudget)
	}
	if len(st.Teams[0].Players) != 0 {
		t.Errorf("roster = %+v, want empty", st.Teams[0].Players)
	}
	// History untouched: the override is a correction, not an auction event.
	if len(st.History) != 1 {
		t.Errorf("history = %d entries, want 1", len(st.History))
	}
}

func TestSetStatus_UnknownPlayer(t *testing.T) {
	st := testState()
	if err := st.SetStatus("nope", auction.StatusSold); !errors.Is(err, auction.ErrPlayerNotFound) {
		t.Fatalf("SetStatus() error = %v, want ErrPlayerNotFound", err)
	}
}

func TestSelectPlayer(t *testing.T) {
	st := testState()
	if err := st.SelectPlayer("p3"); err != nil {
		t.Fatalf("SelectPlayer() error = %v", err)
	}
	if st.CurrentPlayerIndex != 2 {
		t.Errorf("CurrentPlayerIndex = %d, want 2", st.CurrentPlayerIndex)
	}
	if err := st.SelectPlayer("nope"); !errors.Is(err, auction.ErrPlayerNotFound) {
		t.Fatalf("SelectPlayer(unknown) error = %v, want ErrPlayerNotFound", err)
	}
}

func TestAllProcessed_NeverEnds(t *testing.T) {
	st := testState()
	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := st.Pass(id, now); err != nil {
			t.Fatalf("Pass(%s) error = %v", id, err)
		}
	}
	if !st.AllProcessed() {
		t.Error("AllProcessed() = false after processing every player")
	}
	if st.AuctionCompleted {
		t.Error("AuctionCompleted = true without explicit End")
	}
	if st.CurrentPlayer() != nil {
		t.Error("CurrentPlayer() != nil past the last lot")
	}

	st.End()
	if !st.AuctionCompleted {
		t.Error("AuctionCompleted = false after End")
	}
}

// The sum of roster spend and remaining budget equals the full budget for
// every team through an arbitrary sequence of operations.
func TestBudgetConservation(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 45000)
	mustSell(t, st, "p2", "t2", 60000)
	if _, err := st.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	mustSell(t, st, "p2", "t1", 30000)
	if err := st.Transfer("p2", "t2", 0); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if _, err := st.MarkUnsold("p3", now); err != nil {
		t.Fatalf("MarkUnsold() error = %v", err)
	}

	for _, team := range st.Teams {
		spent := 0
		for _, p := range team.Players {
			spent += p.CurrentPrice
		}
		if spent+team.RemainingBudget != team.Budget {
			t.Errorf("team %s: spent %d + remaining %d != budget %d",
				team.ID, spent, team.RemainingBudget, team.Budget)
		}
	}
}

// A sold player appears on exactly one roster; everyone else on none.
func TestSingleRosterMembership(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 20000)
	if err := st.Transfer("p1", "t2", 0); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	mustSell(t, st, "p2", "t1", 20000)
	if err := st.SetStatus("p2", auction.StatusPassed); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	count := func(playerID string) int {
		n := 0
		for _, team := range st.Teams {
			for _, p := range team.Players {
				if p.ID == playerID {
					n++
				}
			}
		}
		return n
	}
	if got := count("p1"); got != 1 {
		t.Errorf("p1 on %d rosters, want 1", got)
	}
	if got := count("p2"); got != 0 {
		t.Errorf("p2 on %d rosters, want 0", got)
	}
}

func TestClone_Isolation(t *testing.T) {
	st := testState()
	mustSell(t, st, "p1", "t1", 20000)

	c := st.Clone()
	c.Players[0].Name = "changed"
	c.Teams[0].Players[0].Name = "changed"
	c.History[0].PlayerName = "changed"

	if st.Players[0].Name == "changed" || st.Teams[0].Players[0].Name == "changed" || st.History[0].PlayerName == "changed" {
		t.Error("mutating the clone reached the original")
	}
}
