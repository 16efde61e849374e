// Package clocktower implements a Blood on the Clocktower style script:
// a demon and a poisoner against a village of townsfolk with ongoing
// information powers, a day of nominations and executions, and one-shot
// abilities that can end the game early.
package clocktower

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

const (
	TeamGood engine.Team = "Good"
	TeamEvil engine.Team = "Evil"
)

// Role names.
const (
	RoleImp         = "Imp"
	RolePoisoner    = "Poisoner"
	RoleEmpath      = "Empath"
	RoleMonk        = "Monk"
	RoleUndertaker  = "Undertaker"
	RoleSlayer      = "Slayer"
	RoleMayor       = "Mayor"
	RoleRavenkeeper = "Ravenkeeper"
	RoleButler      = "Butler"
)

func good(name string) engine.Role {
	return engine.SimpleRole{RoleName: name, RoleTeam: TeamGood}
}

func evil(name string) engine.Role {
	return engine.SimpleRole{RoleName: name, RoleTeam: TeamEvil}
}

// Table fixes the role multiset per player count; two evil at every
// supported count.
var Table = engine.RoleTable{
	7: {evil(RoleImp), evil(RolePoisoner), good(RoleEmpath), good(RoleMonk), good(RoleUndertaker), good(RoleSlayer), good(RoleMayor)},
	8: {evil(RoleImp), evil(RolePoisoner), good(RoleEmpath), good(RoleMonk), good(RoleUndertaker), good(RoleSlayer), good(RoleMayor), good(RoleRavenkeeper)},
	9: {evil(RoleImp), evil(RolePoisoner), good(RoleEmpath), good(RoleMonk), good(RoleUndertaker), good(RoleSlayer), good(RoleMayor), good(RoleRavenkeeper), good(RoleButler)},
}

// Config mirrors engine.Config minus the role table.
type Config struct {
	Seats           []engine.Seat
	Recorder        engine.Recorder
	Seed            int64
	DecisionTimeout time.Duration
	MaxRounds       int
	Budget          time.Duration
}

// Game drives one clocktower match.
type Game struct {
	eng *engine.Game

	// lastExecuted is the previous day's execution, if any; the
	// undertaker only learns from executions, never from night kills.
	lastExecuted      string
	lastExecutedRole  string
	executedYesterday bool
}

// Result is the final outcome of a match.
type Result struct {
	Winner string
	Rounds int
}

// New validates the seat list and deals roles. Evil players learn each
// other before the first night; the butler picks a master to mirror.
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
	g.dealSecretKnowledge()
	return g, nil
}

// dealSecretKnowledge writes the night-0 facts: evil players know each
// other.
func (g *Game) dealSecretKnowledge() {
	var evilNames []string
	for _, p := range g.eng.Roster.Players {
		if p.Role.Team() == TeamEvil {
			evilNames = append(evilNames, p.Name)
		}
	}
	for _, p := range g.eng.Roster.Players {
		if p.Role.Team() != TeamEvil {
			continue
		}
		for _, other := range evilNames {
			if other != p.Name {
				g.eng.Learn(p.Name, fmt.Sprintf("%s is your evil partner.", other))
			}
		}
	}
}

// chooseButlerMaster runs once before the first night.
func (g *Game) chooseButlerMaster(ctx context.Context) {
	butler := g.eng.Roster.AliveHolder(RoleButler)
	if butler == nil {
		return
	}
	options := exclude(g.eng.Roster.AliveNames(), butler.Name)
	choice := g.eng.Choice(ctx, butler, engine.Decision{
		Kind:    engine.DecidePeek,
		Actor:   butler.Name,
		Prompt:  "Choose your master. You will mirror their approving votes.",
		Options: options,
		Context: g.contextFor(butler),
	})
	if len(choice) == 0 {
		return
	}
	butler.Master = choice[0]
	g.eng.Learn(butler.Name, fmt.Sprintf("Your master is %s.", choice[0]))
}

// Play runs the match to completion and always produces a winner.
func (g *Game) Play(ctx context.Context) (Result, error) {
	g.chooseButlerMaster(ctx)
	winner, err := g.eng.Run(ctx, engine.Script{
		Night:     g.night,
		Day:       g.day,
		WinChecks: winChecks(),
		Fallback:  fallbackWinner,
	})
	return Result{Winner: winner, Rounds: g.eng.Round}, err
}

// winChecks are evaluated in priority order: the demon's death ends the
// game for Good before the low-population check can hand it to Evil.
func winChecks() []engine.WinCheck {
	return []engine.WinCheck{
		{Name: "demon dead", Check: func(e *engine.Game) (string, bool) {
			imp := e.Roster.Holder(RoleImp)
			if imp != nil && !imp.Alive {
				return string(TeamGood), true
			}
			return "", false
		}},
		{Name: "village overrun", Check: func(e *engine.Game) (string, bool) {
			if len(e.Roster.Alive()) <= 2 {
				return string(TeamEvil), true
			}
			return "", false
		}},
	}
}

func fallbackWinner(e *engine.Game) string {
	if imp := e.Roster.Holder(RoleImp); imp != nil && imp.Alive {
		return string(TeamEvil)
	}
	return string(TeamGood)
}

// night runs the private phase in fixed priority order: poison, protect,
// kill, death triggers, retrospective info, passive senses.
func (g *Game) night(ctx context.Context, e *engine.Game) error {
	executedYesterday := g.executedYesterday
	g.executedYesterday = false

	n := e.RunNight(ctx, []engine.NightAction{
		{
			Band: engine.BandDisrupt,
			Role: RolePoisoner,
			Choose: func(n *engine.Night, actor *engine.Player) *engine.Decision {
				return &engine.Decision{
					Kind:    engine.DecidePoison,
					Actor:   actor.Name,
					Prompt:  "Choose a player to poison tonight.",
					Options: e.Roster.AliveNames(),
					Context: g.contextFor(actor),
				}
			},
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, choice []string) {
				if len(choice) == 0 {
					return
				}
				n.Poison(choice[0])
			},
		},
		{
			Band: engine.BandProtect,
			Role: RoleMonk,
			Choose: func(n *engine.Night, actor *engine.Player) *engine.Decision {
				return &engine.Decision{
					Kind:    engine.DecideProtect,
					Actor:   actor.Name,
					Prompt:  "Choose a player to shield from the demon tonight.",
					Options: exclude(e.Roster.AliveNames(), actor.Name),
					Context: g.contextFor(actor),
				}
			},
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, choice []string) {
				if len(choice) == 0 || n.IsPoisoned(actor.Name) {
					// A poisoned monk's shield silently does nothing.
					return
				}
				n.Protect(choice[0])
			},
		},
		{
			Band: engine.BandKill,
			Role: RoleImp,
			Choose: func(n *engine.Night, actor *engine.Player) *engine.Decision {
				return &engine.Decision{
					Kind:    engine.DecideKill,
					Actor:   actor.Name,
					Prompt:  "Choose a player to kill tonight.",
					Options: exclude(e.Roster.AliveNames(), actor.Name),
					Context: g.contextFor(actor),
				}
			},
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, choice []string) {
				if len(choice) == 0 {
					return
				}
				n.Kill(actor.Name, choice[0])
			},
		},
		{
			Band: engine.BandDeathTrigger,
			Role: RoleRavenkeeper,
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, _ []string) {
				options := exclude(e.Roster.AliveNames(), actor.Name)
				if len(options) == 0 {
					return
				}
				choice := e.Choice(ctx, actor, engine.Decision{
					Kind:    engine.DecidePeek,
					Actor:   actor.Name,
					Prompt:  "You died tonight. Choose a player to learn the role of.",
					Options: options,
					Context: g.contextFor(actor),
				})
				if len(choice) == 0 {
					return
				}
				target := e.Roster.Find(choice[0])
				role := target.Role.Name()
				if n.IsPoisoned(actor.Name) {
					role = g.fabricatedRole(e, role)
				}
				e.Learn(actor.Name, fmt.Sprintf("%s is the %s.", target.Name, role))
			},
		},
		{
			Band: engine.BandRetrospect,
			Role: RoleUndertaker,
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, _ []string) {
				if !executedYesterday {
					return
				}
				role := g.lastExecutedRole
				if n.IsPoisoned(actor.Name) {
					role = g.fabricatedRole(e, role)
				}
				e.Learn(actor.Name, fmt.Sprintf("Yesterday's executed player %s was the %s.", g.lastExecuted, role))
			},
		},
		{
			Band: engine.BandSense,
			Role: RoleEmpath,
			Apply: func(ctx context.Context, n *engine.Night, actor *engine.Player, _ []string) {
				left, right := e.Roster.Neighbors(actor.Name)
				if left == nil || right == nil {
					return
				}
				count := 0
				for _, p := range []*engine.Player{left, right} {
					if p.Role.Team() == TeamEvil {
						count++
					}
				}
				if n.IsPoisoned(actor.Name) {
					// Fabricated answer, never an error and never the truth
					// by construction of the offset.
					count = (count + 1 + e.Rand.Intn(2)) % 3
				}
				e.Learn(actor.Name, fmt.Sprintf("You sense %d evil neighbor(s).", count))
			},
		},
	})

	for _, d := range n.Deaths() {
		e.Record(engine.Event{
			Round: e.Round, Phase: engine.PhaseNight, Kind: engine.EventAction,
			Target: d, Detail: "found dead at dawn",
		})
	}
	return nil
}

// fabricatedRole picks a role name other than the real one.
func (g *Game) fabricatedRole(e *engine.Game, actual string) string {
	roles := Table[len(e.Roster.Players)]
	var others []string
	for _, r := range roles {
		if r.Name() != actual {
			others = append(others, r.Name())
		}
	}
	return others[e.Rand.Intn(len(others))]
}

// day runs the public phase: one-shot abilities first (they can end the
// game before any nomination), then table talk, then nomination, vote,
// and execution with the mayor's self-cancel override.
func (g *Game) day(ctx context.Context, e *engine.Game) error {
	if g.slayerShot(ctx, e) {
		if _, over := e.CheckWin(winChecks()); over {
			return nil
		}
	}

	alive := e.Roster.Alive()
	e.TableTalk(ctx, alive, 2, 8, g.contextFor)

	nominator, target, ok := e.RunNomination(ctx, e.Roster.Alive(), e.Roster.AliveNames(), g.contextFor)
	if !ok {
		return nil
	}

	nom := e.RunVote(ctx, engine.VoteCall{
		Nominator: nominator,
		Target:    target,
		Voters:    e.Roster.Alive(),
		Prompt:    fmt.Sprintf("%s nominates %s for execution. Vote.", nominator, target),
		Context:   g.contextFor,
	})
	if !nom.Passed {
		return nil
	}

	e.ApplyOverrides(ctx, nom, engine.Overrides{
		SelfCancel: func(ctx context.Context, nom *engine.Nomination) bool {
			mayor := e.Roster.AliveHolder(RoleMayor)
			if mayor == nil || mayor.Name != nom.Target || mayor.UsedOneShot {
				return false
			}
			choice := e.Choice(ctx, mayor, engine.Decision{
				Kind:    engine.DecideChallenge,
				Actor:   mayor.Name,
				Prompt:  "You are about to be executed. Reveal as Mayor and cancel it?",
				Options: []string{"CANCEL", "ACCEPT"},
				Context: g.contextFor(mayor),
			})
			if len(choice) > 0 && choice[0] == "CANCEL" {
				mayor.UsedOneShot = true
				return true
			}
			return false
		},
	})
	if nom.Cancelled {
		return nil
	}

	executed := e.Roster.Find(nom.Target)
	g.lastExecuted = executed.Name
	g.lastExecutedRole = executed.Role.Name()
	g.executedYesterday = true
	e.Eliminate(executed.Name, "executed by the village")
	return nil
}

// slayerShot offers the slayer's one-shot. Returns true when a shot was
// fired; the caller re-checks win conditions before any nomination.
func (g *Game) slayerShot(ctx context.Context, e *engine.Game) bool {
	slayer := e.Roster.AliveHolder(RoleSlayer)
	if slayer == nil || slayer.UsedOneShot {
		return false
	}
	options := append([]string{"HOLD"}, exclude(e.Roster.AliveNames(), slayer.Name)...)
	choice := e.Choice(ctx, slayer, engine.Decision{
		Kind:    engine.DecideExecute,
		Actor:   slayer.Name,
		Prompt:  "You may publicly fire your one-shot at a player you believe is the demon, or HOLD.",
		Options: options,
		Context: g.contextFor(slayer),
	})
	if len(choice) == 0 || choice[0] == "HOLD" {
		return false
	}
	slayer.UsedOneShot = true
	target := e.Roster.Find(choice[0])
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventAction,
		Actor: slayer.Name, Target: target.Name, Detail: "slayer shot",
	})
	if target.Role.Name() == RoleImp {
		e.Eliminate(target.Name, "slain by the slayer")
	}
	return true
}

// contextFor builds a player's decision context: public board state plus
// their own private facts. Nobody ever sees another player's notebook.
func (g *Game) contextFor(p *engine.Player) []string {
	e := g.eng
	lines := []string{
		fmt.Sprintf("Game: clocktower. Night %d, day %d.", e.NightNumber, e.DayNumber),
		fmt.Sprintf("Alive players: %s.", strings.Join(e.Roster.AliveNames(), ", ")),
		fmt.Sprintf("You are %s, the %s (team %s).", p.Name, p.Role.Name(), p.Role.Team()),
	}
	return append(lines, e.Notes.Recent(p.Name, 10)...)
}

func exclude(names []string, drop string) []string {
	var out []string
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}
