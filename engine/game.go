package engine

import (
	"context"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Phase names used in counters, facts, and events.
const (
	PhaseNight = "night"
	PhaseDay   = "day"
)

// Config carries everything a Game needs beyond its variant logic.
type Config struct {
	Seats           []Seat
	Table           RoleTable
	Recorder        Recorder
	Seed            int64         // 0 means draw a crypto seed
	DecisionTimeout time.Duration // per agent call
	MaxRounds       int           // forced-resolution round cap
	Budget          time.Duration // wall-clock cap for the whole game
}

// Game is the shared state every variant drives: roster, hidden knowledge,
// counters, and the event trail. All mutation happens on the coordinating
// goroutine; concurrent agent gathering joins before any state is touched.
type Game struct {
	ID     string
	Roster *Roster
	Notes  *Notebook
	Rec    Recorder
	Rand   *rand.Rand

	DecisionTimeout time.Duration
	MaxRounds       int
	Budget          time.Duration

	Round       int
	NightNumber int
	DayNumber   int
	Phase       string

	// Tracker is the election-failure counter (or the variant's
	// equivalent). Mutate it only through FailedVote and ResetTracker.
	Tracker int

	winner    string
	winnerSet bool
	seq       int
	started   time.Time
}

// NewGame validates the seat list against the role table, deals roles, and
// returns a game ready to run. The only hard failure mode is a SetupError.
func NewGame(cfg Config) (*Game, error) {
	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = NewSeed(); err != nil {
			return nil, &SetupError{Reason: err.Error()}
		}
	}
	rng := NewRand(seed)

	roles, err := cfg.Table.RolesFor(len(cfg.Seats))
	if err != nil {
		return nil, err
	}
	roster, err := AssignRoles(cfg.Seats, roles, rng)
	if err != nil {
		return nil, err
	}

	rec := cfg.Recorder
	if rec == nil {
		rec = Nop{}
	}
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 50
	}
	budget := cfg.Budget
	if budget <= 0 {
		budget = 2 * time.Hour
	}

	g := &Game{
		ID:              uuid.NewString(),
		Roster:          roster,
		Notes:           NewNotebook(),
		Rec:             rec,
		Rand:            rng,
		DecisionTimeout: defaultTimeout(cfg.DecisionTimeout),
		MaxRounds:       maxRounds,
		Budget:          budget,
	}

	for _, p := range roster.Players {
		g.record(Event{
			Kind:       EventGameStart,
			Actor:      p.Name,
			Detail:     "role=" + p.Role.Name() + " team=" + string(p.Role.Team()) + " model=" + p.Model,
			Visibility: VisibilityPrivate,
		})
	}
	return g, nil
}

// WinCheck is one ordered win predicate. The evaluator stops at the first
// predicate that fires.
type WinCheck struct {
	Name  string
	Check func(g *Game) (winner string, ok bool)
}

// CheckWin evaluates the predicate list in order. Once any predicate has
// returned a winner the cached decision is final: subsequent calls return
// the same winner without re-deriving it.
func (g *Game) CheckWin(checks []WinCheck) (string, bool) {
	if g.winnerSet {
		return g.winner, true
	}
	for _, c := range checks {
		if w, ok := c.Check(g); ok {
			g.declareWinner(w, c.Name)
			return w, true
		}
	}
	return "", false
}

// Winner returns the declared winner, if any.
func (g *Game) Winner() (string, bool) {
	return g.winner, g.winnerSet
}

func (g *Game) declareWinner(winner, reason string) {
	if g.winnerSet {
		return
	}
	g.winner = winner
	g.winnerSet = true
	g.record(Event{
		Round:      g.Round,
		Phase:      g.Phase,
		Kind:       EventWinner,
		Actor:      winner,
		Detail:     reason,
		Visibility: VisibilityPublic,
	})
	log.Printf("Game %s: winner %s (%s)", g.ID, winner, reason)
}

// FailedVote increments the failure tracker by exactly one and records it.
func (g *Game) FailedVote() {
	g.Tracker++
	g.record(Event{
		Round:      g.Round,
		Phase:      g.Phase,
		Kind:       EventTracker,
		Detail:     "failed vote, tracker=" + strconv.Itoa(g.Tracker),
		Visibility: VisibilityPublic,
	})
}

// ResetTracker zeroes the failure tracker on a successful enactment.
func (g *Game) ResetTracker() {
	if g.Tracker == 0 {
		return
	}
	g.Tracker = 0
	g.record(Event{
		Round:      g.Round,
		Phase:      g.Phase,
		Kind:       EventTracker,
		Detail:     "tracker reset",
		Visibility: VisibilityPublic,
	})
}

// Eliminate marks a player dead and records it. No-op for unknown or
// already dead players.
func (g *Game) Eliminate(name, cause string) {
	p := g.Roster.Find(name)
	if p == nil || !p.Alive {
		return
	}
	p.Alive = false
	g.record(Event{
		Round:      g.Round,
		Phase:      g.Phase,
		Kind:       EventElimination,
		Target:     name,
		Detail:     cause,
		Visibility: VisibilityPublic,
	})
	log.Printf("Game %s: %s eliminated (%s)", g.ID, name, cause)
}

// Learn appends a private fact for owner and records a private event.
func (g *Game) Learn(owner, text string) {
	g.Notes.Append(owner, Fact{Round: g.Round, Phase: g.Phase, Text: text})
	g.record(Event{
		Round:      g.Round,
		Phase:      g.Phase,
		Kind:       EventFact,
		Actor:      owner,
		Detail:     text,
		Visibility: VisibilityPrivate,
	})
}

// Script describes a variant's round cycle. Night may be nil for variants
// whose private phase only happens at setup.
type Script struct {
	Night     func(ctx context.Context, g *Game) error
	Day       func(ctx context.Context, g *Game) error
	WinChecks []WinCheck
	// Fallback names the forced winner when the round cap or wall-clock
	// budget is exceeded. Mandatory: a game always ends with a winner.
	Fallback func(g *Game) string
}

// Run drives the night/day loop until a win predicate fires or a safety
// valve forces the fallback resolution. The returned winner is always set.
func (g *Game) Run(ctx context.Context, s Script) (string, error) {
	g.started = time.Now()

	for {
		if w, ok := g.CheckWin(s.WinChecks); ok {
			return w, nil
		}
		if g.expired(ctx) {
			return g.forceFallback(s), nil
		}

		g.Round++

		if s.Night != nil {
			g.NightNumber++
			g.Phase = PhaseNight
			g.record(Event{Round: g.Round, Phase: PhaseNight, Kind: EventPhaseStart, Detail: "night " + strconv.Itoa(g.NightNumber)})
			if err := s.Night(ctx, g); err != nil {
				return g.forceFallback(s), err
			}
			if w, ok := g.CheckWin(s.WinChecks); ok {
				return w, nil
			}
			if g.expired(ctx) {
				return g.forceFallback(s), nil
			}
		}

		g.DayNumber++
		g.Phase = PhaseDay
		g.record(Event{Round: g.Round, Phase: PhaseDay, Kind: EventPhaseStart, Detail: "day " + strconv.Itoa(g.DayNumber)})
		if err := s.Day(ctx, g); err != nil {
			return g.forceFallback(s), err
		}
		if w, ok := g.CheckWin(s.WinChecks); ok {
			return w, nil
		}

		if g.Round >= g.MaxRounds {
			return g.forceFallback(s), nil
		}
	}
}

func (g *Game) expired(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return time.Since(g.started) > g.Budget
}

func (g *Game) forceFallback(s Script) string {
	if w, ok := g.Winner(); ok {
		return w
	}
	g.declareWinner(s.Fallback(g), "forced resolution")
	return g.winner
}
