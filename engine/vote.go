package engine

import (
	"context"
	"fmt"
	"sort"
)

// BallotLabels are the variant's approve/reject ballot strings.
type BallotLabels struct {
	Approve string
	Reject  string
}

// DefaultBallots is the plain YES/NO pair.
var DefaultBallots = BallotLabels{Approve: "YES", Reject: "NO"}

// Nomination is the immutable record of one public decision round. The
// ballot map is written once per voter and never overwritten; everything
// else is final once the tally resolves.
type Nomination struct {
	Round     int
	Nominator string
	Target    string
	Ballots   map[string]string
	Approvals int
	Passed    bool

	// Override flags set during resolution.
	Cancelled  bool // the elected target vetoed their own elimination
	Vetoed     bool // mutual veto converted the enactment into a failure
	InstantWin string
}

// Plurality picks the most-proposed value from counts, breaking ties
// uniformly at random. ok is false when counts is empty.
func Plurality(counts map[string]int, g *Game) (winner string, ok bool) {
	if len(counts) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic iteration before the random tie-break

	best := -1
	var tied []string
	for _, k := range keys {
		switch {
		case counts[k] > best:
			best = counts[k]
			tied = []string{k}
		case counts[k] == best:
			tied = append(tied, k)
		}
	}
	return tied[g.Rand.Intn(len(tied))], true
}

// RunNomination asks every proposer for a target and selects the plurality
// winner. The returned nominator is drawn uniformly from the proposers who
// actually named the winning target. ok is false (and the phase is a no-op)
// when there is nothing to propose or nobody to propose it.
func (g *Game) RunNomination(ctx context.Context, proposers []*Player, options []string, contextFor func(p *Player) []string) (nominator, target string, ok bool) {
	if len(proposers) == 0 || len(options) == 0 {
		return "", "", false
	}

	reqs := make([]ChoiceRequest, len(proposers))
	for i, p := range proposers {
		reqs[i] = ChoiceRequest{Player: p, Decision: Decision{
			Kind:    DecideNominate,
			Actor:   p.Name,
			Prompt:  "Propose a player for the vote.",
			Options: options,
			Context: contextFor(p),
		}}
	}
	results := g.Choices(ctx, reqs)

	counts := make(map[string]int)
	proposedBy := make(map[string][]string)
	for i, p := range proposers {
		if len(results[i]) == 0 {
			continue
		}
		choice := results[i][0]
		counts[choice]++
		proposedBy[choice] = append(proposedBy[choice], p.Name)
		g.record(Event{
			Round: g.Round, Phase: g.Phase, Kind: EventNomination,
			Actor: p.Name, Target: choice, Visibility: VisibilityPublic,
		})
	}

	target, ok = Plurality(counts, g)
	if !ok {
		return "", "", false
	}
	backers := proposedBy[target]
	nominator = backers[g.Rand.Intn(len(backers))]
	g.record(Event{
		Round: g.Round, Phase: g.Phase, Kind: EventNomination,
		Actor: nominator, Target: target,
		Detail: fmt.Sprintf("selected by plurality (%d proposals)", counts[target]),
	})
	return nominator, target, true
}

// VoteCall is one public vote over a nominated target.
type VoteCall struct {
	Nominator string
	Target    string
	Voters    []*Player // alive, eligible voters; each casts exactly one ballot
	Labels    BallotLabels
	Prompt    string
	Context   func(p *Player) []string
}

// RunVote collects one ballot per voter and applies strict majority: the
// vote passes only when strictly more than half of the voters approve.
// Independent voters are gathered concurrently; a voter with a Master set is
// sequenced after its reference ballot is known and mirrors it unless the
// reference ballot was a rejection, in which case the dependent casts freely.
func (g *Game) RunVote(ctx context.Context, call VoteCall) *Nomination {
	labels := call.Labels
	if labels.Approve == "" {
		labels = DefaultBallots
	}
	nom := &Nomination{
		Round:     g.Round,
		Nominator: call.Nominator,
		Target:    call.Target,
		Ballots:   make(map[string]string),
	}
	if len(call.Voters) == 0 {
		return nom
	}
	contextFor := call.Context
	if contextFor == nil {
		contextFor = func(*Player) []string { return nil }
	}
	prompt := call.Prompt
	if prompt == "" {
		prompt = fmt.Sprintf("Vote on %s (proposed by %s).", call.Target, call.Nominator)
	}

	present := make(map[string]bool, len(call.Voters))
	for _, v := range call.Voters {
		present[v.Name] = true
	}

	// Partial order: voters whose reference ballot is cast in this same
	// vote go second; everyone else is independent.
	var independents, dependents []*Player
	for _, v := range call.Voters {
		if v.Master != "" && present[v.Master] && v.Master != v.Name {
			dependents = append(dependents, v)
		} else {
			independents = append(independents, v)
		}
	}

	ask := func(voters []*Player) {
		if len(voters) == 0 {
			return
		}
		reqs := make([]ChoiceRequest, len(voters))
		for i, v := range voters {
			reqs[i] = ChoiceRequest{Player: v, Decision: Decision{
				Kind:    DecideVote,
				Actor:   v.Name,
				Prompt:  prompt,
				Options: []string{labels.Approve, labels.Reject},
				Context: contextFor(v),
			}}
		}
		results := g.Choices(ctx, reqs)
		for i, v := range voters {
			g.castBallot(nom, v.Name, results[i][0], labels)
		}
	}

	ask(independents)

	var free []*Player
	for _, v := range dependents {
		ref := nom.Ballots[v.Master]
		if ref == labels.Approve {
			g.castBallot(nom, v.Name, labels.Approve, labels)
			continue
		}
		free = append(free, v)
	}
	ask(free)

	nom.Passed = nom.Approvals > len(call.Voters)/2
	g.record(Event{
		Round: g.Round, Phase: g.Phase, Kind: EventGovernment,
		Actor: call.Nominator, Target: call.Target,
		Detail: fmt.Sprintf("approvals=%d/%d passed=%v", nom.Approvals, len(call.Voters), nom.Passed),
	})
	return nom
}

// castBallot writes a voter's ballot exactly once.
func (g *Game) castBallot(nom *Nomination, voter, ballot string, labels BallotLabels) {
	if _, dup := nom.Ballots[voter]; dup {
		return
	}
	nom.Ballots[voter] = ballot
	if ballot == labels.Approve {
		nom.Approvals++
	}
	g.record(Event{
		Round: g.Round, Phase: g.Phase, Kind: EventVote,
		Actor: voter, Detail: ballot, Visibility: VisibilityPublic,
	})
}

// Overrides are the post-tally escape hatches, applied in a fixed order.
type Overrides struct {
	// SelfCancel lets a just-elected target cancel their own elimination
	// unconditionally. It converts a pass into a no-op and never touches
	// the tracker.
	SelfCancel func(ctx context.Context, nom *Nomination) bool
	// MutualVeto converts a passed enactment into no-enactment plus a
	// tracker increment, but only when both designated parties agree.
	MutualVeto func(ctx context.Context, nom *Nomination) bool
	// InstantWin ends the game immediately when electing a disallowed
	// role under the variant's board-state precondition. It supersedes
	// every other outcome.
	InstantWin func(nom *Nomination) (winner string, ok bool)
}

// ApplyOverrides resolves the override chain for a passed vote. The instant
// win check runs first because it supersedes all other outcomes; then the
// self-cancel veto, then the mutual veto. Callers inspect the mutated
// nomination to decide what, if anything, still happens.
func (g *Game) ApplyOverrides(ctx context.Context, nom *Nomination, o Overrides) {
	if !nom.Passed {
		return
	}
	if o.InstantWin != nil {
		if w, ok := o.InstantWin(nom); ok {
			nom.InstantWin = w
			g.declareWinner(w, "instant win on election")
			return
		}
	}
	if o.SelfCancel != nil && o.SelfCancel(ctx, nom) {
		nom.Cancelled = true
		g.record(Event{
			Round: g.Round, Phase: g.Phase, Kind: EventAction,
			Actor: nom.Target, Detail: "cancelled own elimination",
		})
		return
	}
	if o.MutualVeto != nil && o.MutualVeto(ctx, nom) {
		nom.Vetoed = true
		g.record(Event{
			Round: g.Round, Phase: g.Phase, Kind: EventAction,
			Actor: nom.Target, Detail: "mutual veto",
		})
		g.FailedVote()
	}
}
