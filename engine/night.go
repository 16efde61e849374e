package engine

import "context"

// Band is a night resolution priority band. Earlier bands can suppress or
// alter the effects of later ones.
type Band int

const (
	// BandDisrupt corrupts information or actions for this phase only
	// (poison). Nothing it does persists past the phase.
	BandDisrupt Band = iota
	// BandProtect shields one target from this phase's elimination effect.
	BandProtect
	// BandKill is the elimination effect. A protected target voids the
	// kill but the attempt is still recorded.
	BandKill
	// BandDeathTrigger runs reactive powers of players who died this
	// phase, before they are fully out of play.
	BandDeathTrigger
	// BandRetrospect runs informational roles that look at the previous
	// public phase.
	BandRetrospect
	// BandSense runs passive roles that read current game state. A
	// poisoned sense role silently receives a fabricated answer.
	BandSense
)

// NightAction is one role's private-phase step. The engine skips the action
// when no living player holds the role, or when the holder was killed in an
// earlier band (for BandDeathTrigger, when the holder did not die this
// night).
type NightAction struct {
	Band Band
	Role string
	// Choose builds the decision to gather before resolution starts, or
	// nil when the action needs no up-front agent choice. Choices for all
	// actions are gathered concurrently, then applied in band order.
	Choose func(n *Night, actor *Player) *Decision
	// Apply resolves the action with the gathered choice (nil when Choose
	// was nil or no legal option existed). It may ask for further choices
	// synchronously via the game.
	Apply func(ctx context.Context, n *Night, actor *Player, choice []string)
}

// KillAttempt records an elimination attempt, successful or voided, for
// powers that care about attempts rather than outcomes.
type KillAttempt struct {
	Attacker string
	Target   string
	Died     bool
}

// Night is the transient state of one private phase. Poison and protection
// live only here and are discarded when the phase ends.
type Night struct {
	Game  *Game
	Round int

	poisoned  map[string]bool
	protected map[string]bool
	deaths    []string
	attempts  []KillAttempt
}

// Poison marks a target's own power and information about them unreliable
// for this phase only.
func (n *Night) Poison(target string) {
	n.poisoned[target] = true
	n.Game.record(Event{
		Round: n.Round, Phase: PhaseNight, Kind: EventAction,
		Target: target, Detail: "poisoned", Visibility: VisibilityPrivate,
	})
}

// Protect shields a target from this phase's elimination effect.
func (n *Night) Protect(target string) {
	n.protected[target] = true
	n.Game.record(Event{
		Round: n.Round, Phase: PhaseNight, Kind: EventAction,
		Target: target, Detail: "protected", Visibility: VisibilityPrivate,
	})
}

// Kill attempts an elimination. A protected target survives; the attempt is
// recorded either way.
func (n *Night) Kill(attacker, target string) (died bool) {
	died = !n.protected[target]
	n.attempts = append(n.attempts, KillAttempt{Attacker: attacker, Target: target, Died: died})
	if died {
		n.deaths = append(n.deaths, target)
		n.Game.Eliminate(target, "killed in the night")
	} else {
		n.Game.record(Event{
			Round: n.Round, Phase: PhaseNight, Kind: EventAction,
			Actor: attacker, Target: target,
			Detail: "kill voided by protection", Visibility: VisibilityPrivate,
		})
	}
	return died
}

// IsPoisoned reports whether a player's power or information is unreliable
// this phase.
func (n *Night) IsPoisoned(name string) bool { return n.poisoned[name] }

// IsProtected reports whether a player is shielded this phase.
func (n *Night) IsProtected(name string) bool { return n.protected[name] }

// Deaths lists players eliminated this night, in kill order.
func (n *Night) Deaths() []string {
	out := make([]string, len(n.deaths))
	copy(out, n.deaths)
	return out
}

// Attempts lists elimination attempts this night, voided ones included.
func (n *Night) Attempts() []KillAttempt {
	out := make([]KillAttempt, len(n.attempts))
	copy(out, n.attempts)
	return out
}

// DiedThisNight reports whether name was eliminated during this phase.
func (n *Night) DiedThisNight(name string) bool {
	for _, d := range n.deaths {
		if d == name {
			return true
		}
	}
	return false
}

// RunNight executes one private phase. All up-front choices are gathered
// concurrently from the acting agents, then actions apply strictly in band
// order (supplied order within a band), so the resolved outcome for a fixed
// decision set is identical on every run. Missing roles and empty target
// lists are silent no-ops.
func (g *Game) RunNight(ctx context.Context, actions []NightAction) *Night {
	n := &Night{
		Game:      g,
		Round:     g.Round,
		poisoned:  make(map[string]bool),
		protected: make(map[string]bool),
	}

	// Gather phase: one concurrent round for every action that both has a
	// living actor and wants an up-front choice.
	type slot struct {
		actionIdx int
		actor     *Player
	}
	var reqs []ChoiceRequest
	var slots []slot
	actors := make([]*Player, len(actions))
	for i, a := range actions {
		if a.Band == BandDeathTrigger {
			continue // actor is only known after the kill band
		}
		actor := g.Roster.AliveHolder(a.Role)
		if actor == nil {
			continue
		}
		actors[i] = actor
		if a.Choose == nil {
			continue
		}
		d := a.Choose(n, actor)
		if d == nil || len(d.Options) == 0 {
			continue
		}
		reqs = append(reqs, ChoiceRequest{Player: actor, Decision: *d})
		slots = append(slots, slot{actionIdx: i, actor: actor})
	}
	chosen := make([][]string, len(actions))
	if len(reqs) > 0 {
		results := g.Choices(ctx, reqs)
		for i, s := range slots {
			chosen[s.actionIdx] = results[i]
		}
	}

	// Apply phase: strict band order, single goroutine.
	for band := BandDisrupt; band <= BandSense; band++ {
		for i, a := range actions {
			if a.Band != band {
				continue
			}
			actor := actors[i]
			if band == BandDeathTrigger {
				holder := g.Roster.Holder(a.Role)
				if holder == nil || !n.DiedThisNight(holder.Name) {
					continue
				}
				actor = holder
			}
			if actor == nil {
				continue
			}
			// An actor killed in an earlier band no longer acts tonight.
			if band != BandDeathTrigger && !actor.Alive {
				continue
			}
			a.Apply(ctx, n, actor, chosen[i])
		}
	}
	return n
}
