// Package mafia implements the classic night/day elimination game: the mafia
// kill by night, the doctor protects, the detective investigates, and the
// town lynches by day.
package mafia

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

const (
	TeamTown  engine.Team = "Town"
	TeamMafia engine.Team = "Mafia"
)

const (
	RoleMafia     = "Mafia"
	RoleDoctor    = "Doctor"
	RoleDetective = "Detective"
	RoleTownsfolk = "Townsfolk"
)

func maf() engine.Role { return engine.SimpleRole{RoleName: RoleMafia, RoleTeam: TeamMafia} }
func doc() engine.Role { return engine.SimpleRole{RoleName: RoleDoctor, RoleTeam: TeamTown} }
func det() engine.Role { return engine.SimpleRole{RoleName: RoleDetective, RoleTeam: TeamTown} }
func tow() engine.Role { return engine.SimpleRole{RoleName: RoleTownsfolk, RoleTeam: TeamTown} }

// Table maps player counts to role lists for 6-10 players.
var Table = engine.RoleTable{
	6:  {maf(), maf(), doc(), det(), tow(), tow()},
	7:  {maf(), maf(), doc(), det(), tow(), tow(), tow()},
	8:  {maf(), maf(), doc(), det(), tow(), tow(), tow(), tow()},
	9:  {maf(), maf(), maf(), doc(), det(), tow(), tow(), tow(), tow()},
	10: {maf(), maf(), maf(), doc(), det(), tow(), tow(), tow(), tow(), tow()},
}

type Config struct {
	Seats           []engine.Seat
	Recorder        engine.Recorder
	Seed            int64
	DecisionTimeout time.Duration
	MaxRounds       int
	Budget          time.Duration
}

type Game struct {
	eng *engine.Game
}

type Result struct {
	Winner string
	Rounds int
}

// New deals roles and tells each mafioso who their partners are.
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
	g := &Game{eng: eng}

	mafiosi := eng.Roster.TeamAlive(TeamMafia)
	for _, m := range mafiosi {
		for _, other := range mafiosi {
			if other != m {
				eng.Learn(m.Name, fmt.Sprintf("%s is your Mafia partner.", other.Name))
			}
		}
	}
	return g, nil
}

func (g *Game) Play(ctx context.Context) (Result, error) {
	winner, err := g.eng.Run(ctx, engine.Script{
		Night:     g.night,
		Day:       g.day,
		WinChecks: g.winChecks(),
		Fallback:  g.fallbackWinner,
	})
	return Result{Winner: winner, Rounds: g.eng.Round}, err
}

func (g *Game) winChecks() []engine.WinCheck {
	return []engine.WinCheck{
		{Name: "mafia eliminated", Check: func(e *engine.Game) (string, bool) {
			if e.Roster.AliveOnTeam(TeamMafia) == 0 {
				return string(TeamTown), true
			}
			return "", false
		}},
		{Name: "mafia parity", Check: func(e *engine.Game) (string, bool) {
			mafia := e.Roster.AliveOnTeam(TeamMafia)
			town := len(e.Roster.Alive()) - mafia
			if mafia >= town {
				return string(TeamMafia), true
			}
			return "", false
		}},
	}
}

func (g *Game) fallbackWinner(e *engine.Game) string {
	if e.Roster.AliveOnTeam(TeamMafia) > 0 {
		return string(TeamMafia)
	}
	return string(TeamTown)
}

func (g *Game) night(ctx context.Context, e *engine.Game) error {
	e.RunNight(ctx, []engine.NightAction{
		{
			Band: engine.BandProtect,
			Role: RoleDoctor,
			Choose: func(n *engine.Night, actor *engine.Player) *engine.Decision {
				return &engine.Decision{
					Kind:    engine.DecideProtect,
					Actor:   actor.Name,
					Prompt:  "Choose a player to protect tonight.",
					Options: e.Roster.AliveNames(),
					Context: g.contextFor(actor),
				}
			},
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, choice []string) {
				if len(choice) == 0 {
					return
				}
				n.Protect(choice[0])
				e.Learn(actor.Name, fmt.Sprintf("You protected %s tonight.", choice[0]))
			},
		},
		{
			// The mafia choose a victim together: every living mafioso
			// proposes, and the plurality target dies.
			Band: engine.BandKill,
			Role: RoleMafia,
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, choice []string) {
				mafiosi := e.Roster.TeamAlive(TeamMafia)
				options := exclude(e.Roster.AliveNames(), names(mafiosi))
				if len(options) == 0 {
					return
				}
				reqs := make([]engine.ChoiceRequest, 0, len(mafiosi))
				for _, m := range mafiosi {
					reqs = append(reqs, engine.ChoiceRequest{Player: m, Decision: engine.Decision{
						Kind:    engine.DecideKill,
						Actor:   m.Name,
						Prompt:  "Choose tonight's victim for the Mafia.",
						Options: options,
						Context: g.contextFor(m),
					}})
				}
				picks := e.Choices(ctx, reqs)
				counts := map[string]int{}
				for _, pick := range picks {
					if len(pick) > 0 {
						counts[pick[0]]++
					}
				}
				target, ok := engine.Plurality(counts, e)
				if !ok {
					return
				}
				died := n.Kill(actor.Name, target)
				for _, m := range mafiosi {
					if died {
						e.Learn(m.Name, fmt.Sprintf("The Mafia killed %s tonight.", target))
					} else {
						e.Learn(m.Name, fmt.Sprintf("The attack on %s failed.", target))
					}
				}
			},
		},
		{
			Band: engine.BandSense,
			Role: RoleDetective,
			Choose: func(n *engine.Night, actor *engine.Player) *engine.Decision {
				return &engine.Decision{
					Kind:    engine.DecideInvestigate,
					Actor:   actor.Name,
					Prompt:  "Choose a player to investigate.",
					Options: exclude(e.Roster.AliveNames(), []string{actor.Name}),
					Context: g.contextFor(actor),
				}
			},
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, choice []string) {
				if len(choice) == 0 {
					return
				}
				target := e.Roster.Find(choice[0])
				if target == nil {
					return
				}
				verdict := "is not"
				if target.Role.Team() == TeamMafia {
					verdict = "is"
				}
				e.Learn(actor.Name, fmt.Sprintf("Your investigation: %s %s Mafia.", target.Name, verdict))
			},
		},
	})
	return nil
}

func (g *Game) day(ctx context.Context, e *engine.Game) error {
	alive := e.Roster.Alive()
	e.TableTalk(ctx, alive, 2, 8, g.contextFor)

	nominator, target, ok := e.RunNomination(ctx, alive, e.Roster.AliveNames(), g.contextFor)
	if !ok {
		return nil
	}
	nom := e.RunVote(ctx, engine.VoteCall{
		Nominator: nominator,
		Target:    target,
		Voters:    alive,
		Labels:    engine.DefaultBallots,
		Prompt:    fmt.Sprintf("%s has been nominated for lynching. Vote YES or NO.", target),
		Context:   g.contextFor,
	})
	if nom.Passed {
		e.Eliminate(target, "lynched by the town")
	}
	return nil
}

func (g *Game) contextFor(p *engine.Player) []string {
	e := g.eng
	lines := []string{
		fmt.Sprintf("Game: mafia. Round %d, %s phase.", e.Round, e.Phase),
		fmt.Sprintf("Alive players: %s.", strings.Join(e.Roster.AliveNames(), ", ")),
		fmt.Sprintf("You are %s, role %s.", p.Name, p.Role.Name()),
	}
	return append(lines, e.Notes.Recent(p.Name, 10)...)
}

func names(ps []*engine.Player) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func exclude(all []string, drop []string) []string {
	skip := map[string]bool{}
	for _, d := range drop {
		skip[d] = true
	}
	var out []string
	for _, s := range all {
		if !skip[s] {
			out = append(out, s)
		}
	}
	return out
}
