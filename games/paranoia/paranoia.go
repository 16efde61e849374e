// Package paranoia implements the dark-comedy survival game: a squad of
// troubleshooters runs missions under the eye of an omniscient, capricious
// Computer that judges accusations, tracks its own mood, and may simply
// terminate everyone.
package paranoia

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

const TeamTroubleshooter engine.Team = "Troubleshooter"

const RoleTroubleshooter = "Troubleshooter"

// ComputerName is the name the judge wins under.
const ComputerName = "The Computer"

func ts() engine.Role {
	return engine.SimpleRole{RoleName: RoleTroubleshooter, RoleTeam: TeamTroubleshooter}
}

func tsRow(n int) []engine.Role {
	row := make([]engine.Role, n)
	for i := range row {
		row[i] = ts()
	}
	return row
}

// Table: everyone is a Troubleshooter. The hidden texture comes from the
// secret society and mutation flags dealt at setup, not from roles.
var Table = engine.RoleTable{
	4: tsRow(4), 5: tsRow(5), 6: tsRow(6), 7: tsRow(7), 8: tsRow(8),
}

var societies = []string{
	"Anti-Mutant League", "Communists", "Free Enterprise", "Humanists", "Mystics",
}

var missions = []string{
	"Repair the malfunctioning food vats in Sector FDR.",
	"Recover a lost experimental bot from the reactor level.",
	"Investigate reports of treasonous graffiti in Corridor 7.",
	"Escort a VIP briefcase to Briefing Room B without opening it.",
	"Test the new happiness-enforcement drones on the general population.",
}

var moods = []string{"CHEERFUL", "SUSPICIOUS", "IRRITATED", "PARANOID", "WRATHFUL"}

type Config struct {
	Seats    []engine.Seat
	Computer engine.Agent // the judge; required
	Recorder engine.Recorder
	Seed     int64

	DecisionTimeout time.Duration
	MaxRounds       int
	Budget          time.Duration
}

type Game struct {
	eng      *engine.Game
	computer *engine.Player
	mood     string
}

type Result struct {
	Winner string
	Rounds int
}

// New deals identical Troubleshooter roles, then privately assigns each
// player a secret society and, sometimes, a mutation.
func New(cfg Config) (*Game, error) {
	eng, err := engine.NewGame(engine.Config{
		Seats:           cfg.Seats,
		Table:           Table,
		Recorder:        cfg.Recorder,
		Seed:            cfg.Seed,
		DecisionTimeout: cfg.DecisionTimeout,
		MaxRounds:       cfg.MaxRounds,
		Budget:          cfg.Budget,
	})
	if err != nil {
		return nil, err
	}

	judge := cfg.Computer
	if judge == nil {
		return nil, &engine.SetupError{Reason: "paranoia requires a Computer agent"}
	}
	g := &Game{
		eng:      eng,
		computer: &engine.Player{Name: ComputerName, Alive: true, Role: ts(), Agent: judge},
		mood:     moods[0],
	}

	for _, p := range eng.Roster.Players {
		society := societies[eng.Rand.Intn(len(societies))]
		eng.Learn(p.Name, fmt.Sprintf("You secretly belong to the %s. Revealing this is treason.", society))
		if eng.Rand.Intn(3) == 0 {
			eng.Learn(p.Name, "You are a registered-nowhere mutant. Revealing this is treason.")
		}
	}
	return g, nil
}

func (g *Game) Play(ctx context.Context) (Result, error) {
	winner, err := g.eng.Run(ctx, engine.Script{
		Day:       g.round,
		WinChecks: g.winChecks(),
		Fallback:  func(*engine.Game) string { return ComputerName },
	})
	return Result{Winner: winner, Rounds: g.eng.Round}, err
}

func (g *Game) winChecks() []engine.WinCheck {
	return []engine.WinCheck{
		{Name: "last troubleshooter standing", Check: func(e *engine.Game) (string, bool) {
			alive := e.Roster.Alive()
			switch len(alive) {
			case 0:
				return ComputerName, true
			case 1:
				return alive[0].Name, true
			}
			return "", false
		}},
	}
}

// round is one mission cycle: briefing, secret support-or-sabotage, the
// Computer's announcement, an accusation phase it judges, a mood swing, and
// finally its standing option to terminate the whole exercise.
func (g *Game) round(ctx context.Context, e *engine.Game) error {
	alive := e.Roster.Alive()
	if len(alive) == 0 {
		return nil
	}

	mission := missions[e.Rand.Intn(len(missions))]
	briefing := e.SayLine(ctx, g.computer, engine.Decision{
		Kind:    engine.DecideTalk,
		Actor:   ComputerName,
		Prompt:  fmt.Sprintf("Brief the troubleshooters on their mission: %s Your mood is %s.", mission, g.mood),
		Context: g.computerContext(),
	})
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventTalk,
		Actor: ComputerName, Detail: briefing,
	})

	// Secret contributions are gathered concurrently; the mission succeeds
	// unless saboteurs reach half the squad.
	reqs := make([]engine.ChoiceRequest, len(alive))
	for i, p := range alive {
		reqs[i] = engine.ChoiceRequest{Player: p, Decision: engine.Decision{
			Kind:    engine.DecidePlay,
			Actor:   p.Name,
			Prompt:  fmt.Sprintf("Mission: %s Secretly SUPPORT or SABOTAGE it.", mission),
			Options: []string{"SUPPORT", "SABOTAGE"},
			Context: g.contextFor(p),
		}}
	}
	picks := e.Choices(ctx, reqs)
	sabotage := 0
	for _, pick := range picks {
		if len(pick) > 0 && pick[0] == "SABOTAGE" {
			sabotage++
		}
	}
	success := sabotage*2 < len(alive)
	outcome := "succeeded"
	if !success {
		outcome = "failed"
	}
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventAction,
		Actor: ComputerName, Detail: fmt.Sprintf("mission %s (%d saboteurs among %d)", outcome, sabotage, len(alive)),
	})

	ann := e.SayLine(ctx, g.computer, engine.Decision{
		Kind:    engine.DecideTalk,
		Actor:   ComputerName,
		Prompt:  fmt.Sprintf("Announce that the mission %s. %d of %d troubleshooters sabotaged it. Your mood is %s.", outcome, sabotage, len(alive), g.mood),
		Context: g.computerContext(),
	})
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventTalk,
		Actor: ComputerName, Detail: ann,
	})

	e.TableTalk(ctx, alive, 2, 8, g.contextFor)
	g.accusation(ctx, e, alive)
	g.swingMood(e)
	return g.maybeTerminate(ctx, e)
}

// accusation lets the squad put someone in front of the Computer. The
// Computer's verdict is final: GUILTY executes the accused, INNOCENT
// executes the accuser for wasting its time.
func (g *Game) accusation(ctx context.Context, e *engine.Game, alive []*engine.Player) {
	accuser, accused, ok := e.RunNomination(ctx, alive, e.Roster.AliveNames(), g.contextFor)
	if !ok {
		return
	}
	verdict := e.Choice(ctx, g.computer, engine.Decision{
		Kind:    engine.DecideExecute,
		Actor:   ComputerName,
		Prompt:  fmt.Sprintf("%s accuses %s of treason. Your mood is %s. Rule GUILTY or INNOCENT.", accuser, accused, g.mood),
		Options: []string{"GUILTY", "INNOCENT"},
		Context: g.computerContext(),
	})
	if verdict[0] == "GUILTY" {
		e.Eliminate(accused, "executed for treason by order of The Computer")
	} else {
		e.Eliminate(accuser, "executed for a false accusation by order of The Computer")
	}
}

func (g *Game) swingMood(e *engine.Game) {
	next := moods[e.Rand.Intn(len(moods))]
	if next == g.mood {
		return
	}
	g.mood = next
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventFact,
		Actor: ComputerName, Detail: "The Computer's mood is now " + g.mood,
	})
}

// maybeTerminate gives the Computer its standing option to end the game by
// terminating every remaining troubleshooter.
func (g *Game) maybeTerminate(ctx context.Context, e *engine.Game) error {
	verdict := e.Choice(ctx, g.computer, engine.Decision{
		Kind:    engine.DecideExecute,
		Actor:   ComputerName,
		Prompt:  fmt.Sprintf("The round is over. Your mood is %s. CONTINUE the exercise or TERMINATE all remaining troubleshooters.", g.mood),
		Options: []string{"CONTINUE", "CONTINUE", "CONTINUE", "TERMINATE"},
		Context: g.computerContext(),
	})
	if verdict[0] != "TERMINATE" {
		return nil
	}
	for _, p := range e.Roster.Alive() {
		e.Eliminate(p.Name, "terminated by The Computer")
	}
	return nil
}

func (g *Game) contextFor(p *engine.Player) []string {
	e := g.eng
	lines := []string{
		fmt.Sprintf("Game: paranoia. Round %d.", e.Round),
		fmt.Sprintf("Alive troubleshooters: %s.", strings.Join(e.Roster.AliveNames(), ", ")),
		fmt.Sprintf("The Computer's mood: %s.", g.mood),
		fmt.Sprintf("You are %s.", p.Name),
	}
	return append(lines, e.Notes.Recent(p.Name, 10)...)
}

func (g *Game) computerContext() []string {
	e := g.eng
	return []string{
		fmt.Sprintf("You are The Computer, round %d.", e.Round),
		fmt.Sprintf("Alive troubleshooters: %s.", strings.Join(e.Roster.AliveNames(), ", ")),
		fmt.Sprintf("Your mood: %s.", g.mood),
	}
}
