package engine

import (
	"context"
	"sync"
	"time"
)

// DecisionKind tags what the engine is asking for. Agents may use it to pick
// a prompt; the engine uses it when recording the exchange.
type DecisionKind string

const (
	DecideKill        DecisionKind = "kill"
	DecideProtect     DecisionKind = "protect"
	DecidePoison      DecisionKind = "poison"
	DecideInvestigate DecisionKind = "investigate"
	DecidePeek        DecisionKind = "peek"
	DecideExecute     DecisionKind = "execute"
	DecideNominate    DecisionKind = "nominate"
	DecideVote        DecisionKind = "vote"
	DecideDiscard     DecisionKind = "discard"
	DecidePlay        DecisionKind = "play"
	DecideChallenge   DecisionKind = "challenge"
	DecideTalk        DecisionKind = "talk"
)

// Decision is one request for a structured choice.
type Decision struct {
	Kind    DecisionKind
	Actor   string
	Prompt  string
	Options []string // legal values; the engine never accepts anything else
	Count   int      // selections wanted; 0 means 1
	Context []string // public lines plus the actor's own private facts
}

func (d Decision) wanted() int {
	if d.Count <= 0 {
		return 1
	}
	return d.Count
}

// Agent is the external decision source. Decide must return values drawn
// from Options when Options is non-empty; the engine treats anything else as
// "unavailable" and substitutes a uniform-random legal choice. Say produces
// free-text table talk.
type Agent interface {
	Decide(ctx context.Context, d Decision) ([]string, error)
	Say(ctx context.Context, d Decision) (string, error)
}

// ChoiceRequest pairs a player with the decision being asked of them.
type ChoiceRequest struct {
	Player   *Player
	Decision Decision
}

// Choices gathers independent decisions concurrently and joins before
// returning. Legalization (and therefore all RNG use) happens on the calling
// goroutine after the join, so outcomes stay deterministic for a fixed seed
// and fixed agent replies.
func (g *Game) Choices(ctx context.Context, reqs []ChoiceRequest) [][]string {
	raw := make([][]string, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i, rq := range reqs {
		wg.Add(1)
		go func(i int, rq ChoiceRequest) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, g.DecisionTimeout)
			defer cancel()
			raw[i], errs[i] = rq.Player.Agent.Decide(cctx, rq.Decision)
		}(i, rq)
	}
	wg.Wait()

	out := make([][]string, len(reqs))
	for i, rq := range reqs {
		out[i] = g.legalize(rq, raw[i], errs[i])
	}
	return out
}

// Choice asks a single player for a decision. Returns nil when no legal
// option exists (the action is then skipped, never an error).
func (g *Game) Choice(ctx context.Context, p *Player, d Decision) []string {
	res := g.Choices(ctx, []ChoiceRequest{{Player: p, Decision: d}})
	return res[0]
}

// legalize clamps an agent reply to the legal option set, substituting a
// uniform-random legal sample for anything missing, duplicated, or foreign.
func (g *Game) legalize(rq ChoiceRequest, got []string, err error) []string {
	d := rq.Decision
	if len(d.Options) == 0 {
		return nil
	}
	want := d.wanted()
	if want > len(d.Options) {
		want = len(d.Options)
	}

	legal := make(map[string]bool, len(d.Options))
	for _, o := range d.Options {
		legal[o] = true
	}

	var picked []string
	used := make(map[string]bool)
	for _, v := range got {
		if len(picked) == want {
			break
		}
		if legal[v] && !used[v] {
			picked = append(picked, v)
			used[v] = true
		}
	}

	if err != nil || len(picked) < want {
		detail := "substituted random legal choice"
		if err != nil {
			detail = "agent unavailable: " + err.Error()
		}
		g.record(Event{
			Round:      g.Round,
			Phase:      g.Phase,
			Kind:       EventIllegalDecision,
			Actor:      rq.Player.Name,
			Detail:     string(d.Kind) + ": " + detail,
			Visibility: VisibilityPrivate,
		})
		for _, i := range g.Rand.Perm(len(d.Options)) {
			if len(picked) == want {
				break
			}
			o := d.Options[i]
			if !used[o] {
				picked = append(picked, o)
				used[o] = true
			}
		}
	}
	return picked
}

// Say collects a free-text line from a player with the usual timeout. A
// failed or empty reply falls back to silence rather than blocking the phase.
func (g *Game) SayLine(ctx context.Context, p *Player, d Decision) string {
	cctx, cancel := context.WithTimeout(ctx, g.DecisionTimeout)
	defer cancel()
	line, err := p.Agent.Say(cctx, d)
	if err != nil {
		g.record(Event{
			Round:      g.Round,
			Phase:      g.Phase,
			Kind:       EventIllegalDecision,
			Actor:      p.Name,
			Detail:     "talk: agent unavailable: " + err.Error(),
			Visibility: VisibilityPrivate,
		})
		return ""
	}
	return line
}

// TableTalk runs discussion passes over speakers. The first pass is gathered
// concurrently (no speaker depends on another's line yet); later passes run
// in seating order so each speaker sees the most recent window of lines.
// Every spoken line is recorded publicly and returned in order.
func (g *Game) TableTalk(ctx context.Context, speakers []*Player, passes, window int, contextFor func(p *Player) []string) []string {
	var lines []string

	say := func(p *Player, recent []string) {
		d := Decision{
			Kind:    DecideTalk,
			Actor:   p.Name,
			Prompt:  "Speak to the table.",
			Context: append(contextFor(p), recent...),
		}
		line := g.SayLine(ctx, p, d)
		if line == "" {
			return
		}
		lines = append(lines, p.Name+": "+line)
		g.record(Event{
			Round:      g.Round,
			Phase:      g.Phase,
			Kind:       EventTalk,
			Actor:      p.Name,
			Detail:     line,
			Visibility: VisibilityPublic,
		})
	}

	for pass := 0; pass < passes; pass++ {
		if pass == 0 {
			firsts := make([]string, len(speakers))
			var wg sync.WaitGroup
			for i, p := range speakers {
				wg.Add(1)
				go func(i int, p *Player) {
					defer wg.Done()
					cctx, cancel := context.WithTimeout(ctx, g.DecisionTimeout)
					defer cancel()
					line, err := p.Agent.Say(cctx, Decision{
						Kind:    DecideTalk,
						Actor:   p.Name,
						Prompt:  "Speak to the table.",
						Context: contextFor(p),
					})
					if err == nil {
						firsts[i] = line
					}
				}(i, p)
			}
			wg.Wait()
			for i, p := range speakers {
				if firsts[i] == "" {
					continue
				}
				lines = append(lines, p.Name+": "+firsts[i])
				g.record(Event{
					Round:      g.Round,
					Phase:      g.Phase,
					Kind:       EventTalk,
					Actor:      p.Name,
					Detail:     firsts[i],
					Visibility: VisibilityPublic,
				})
			}
			continue
		}
		for _, p := range speakers {
			recent := lines
			if len(recent) > window {
				recent = recent[len(recent)-window:]
			}
			say(p, append([]string{"Recent discussion:"}, recent...))
		}
	}
	return lines
}

// defaultTimeout returns the configured per-decision timeout, falling back
// to a sane default when unset.
func defaultTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}
