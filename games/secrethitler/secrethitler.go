// Package secrethitler implements the hidden-role legislative game: rotating
// presidents nominate chancellors, elected governments enact policies drawn
// from a shared deck, and the fascist team can win outright by slipping
// their hidden leader into the chancellorship.
package secrethitler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

const (
	TeamLiberal engine.Team = "Liberal"
	TeamFascist engine.Team = "Fascist"
)

const (
	RoleLiberal = "Liberal"
	RoleFascist = "Fascist"
	RoleHitler  = "Hitler"
)

const (
	PolicyLiberal = "Liberal"
	PolicyFascist = "Fascist"
)

// Winning thresholds and the election tracker cap.
const (
	liberalPoliciesToWin = 5
	fascistPoliciesToWin = 6
	trackerLimit         = 3
	hitlerWinThreshold   = 3 // fascist policies enacted before a Hitler chancellorship wins
	vetoUnlockThreshold  = 5 // fascist policies enacted before veto power unlocks
)

func lib() engine.Role { return engine.SimpleRole{RoleName: RoleLiberal, RoleTeam: TeamLiberal} }
func fas() engine.Role { return engine.SimpleRole{RoleName: RoleFascist, RoleTeam: TeamFascist} }
func hit() engine.Role { return engine.SimpleRole{RoleName: RoleHitler, RoleTeam: TeamFascist} }

// Table holds the official role counts for 5-10 players.
var Table = engine.RoleTable{
	5:  {lib(), lib(), lib(), fas(), hit()},
	6:  {lib(), lib(), lib(), lib(), fas(), hit()},
	7:  {lib(), lib(), lib(), lib(), fas(), fas(), hit()},
	8:  {lib(), lib(), lib(), lib(), lib(), fas(), fas(), hit()},
	9:  {lib(), lib(), lib(), lib(), lib(), fas(), fas(), fas(), hit()},
	10: {lib(), lib(), lib(), lib(), lib(), lib(), fas(), fas(), fas(), hit()},
}

// JaNein are the ballot labels used in elections.
var JaNein = engine.BallotLabels{Approve: "JA", Reject: "NEIN"}

type Config struct {
	Seats           []engine.Seat
	Recorder        engine.Recorder
	Seed            int64
	DecisionTimeout time.Duration
	MaxRounds       int
	Budget          time.Duration
}

type Game struct {
	eng  *engine.Game
	deck *engine.Deck

	liberalPolicies int
	fascistPolicies int

	presidentIdx   int
	lastPresident  string
	lastChancellor string
}

type Result struct {
	Winner string
	Rounds int
}

// New deals roles per the official table, builds the 6 Liberal / 11 Fascist
// policy deck, and hands out the night-zero knowledge: fascists know each
// other and Hitler; with five or six players Hitler knows the fascist.
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

	cards := make([]string, 0, 17)
	for i := 0; i < 6; i++ {
		cards = append(cards, PolicyLiberal)
	}
	for i := 0; i < 11; i++ {
		cards = append(cards, PolicyFascist)
	}

	g := &Game{eng: eng, deck: engine.NewDeck(cards, eng.Rand)}
	g.dealSecretKnowledge()
	return g, nil
}

func (g *Game) dealSecretKnowledge() {
	var fascists []*engine.Player
	var hitler *engine.Player
	for _, p := range g.eng.Roster.Players {
		switch p.Role.Name() {
		case RoleFascist:
			fascists = append(fascists, p)
		case RoleHitler:
			hitler = p
		}
	}
	for _, f := range fascists {
		for _, other := range fascists {
			if other != f {
				g.eng.Learn(f.Name, fmt.Sprintf("%s is a fellow Fascist.", other.Name))
			}
		}
		if hitler != nil {
			g.eng.Learn(f.Name, fmt.Sprintf("%s is Hitler.", hitler.Name))
		}
	}
	if len(g.eng.Roster.Players) <= 6 && hitler != nil && len(fascists) > 0 {
		g.eng.Learn(hitler.Name, fmt.Sprintf("%s is the Fascist.", fascists[0].Name))
	}
}

func (g *Game) Play(ctx context.Context) (Result, error) {
	winner, err := g.eng.Run(ctx, engine.Script{
		Day:       g.round,
		WinChecks: g.winChecks(),
		Fallback:  g.fallbackWinner,
	})
	return Result{Winner: winner, Rounds: g.eng.Round}, err
}

func (g *Game) winChecks() []engine.WinCheck {
	return []engine.WinCheck{
		{Name: "five liberal policies", Check: func(*engine.Game) (string, bool) {
			if g.liberalPolicies >= liberalPoliciesToWin {
				return "Liberals", true
			}
			return "", false
		}},
		{Name: "six fascist policies", Check: func(*engine.Game) (string, bool) {
			if g.fascistPolicies >= fascistPoliciesToWin {
				return "Fascists", true
			}
			return "", false
		}},
	}
}

// fallbackWinner compares progress toward each side's policy goal when the
// round cap or budget forces a resolution.
func (g *Game) fallbackWinner(*engine.Game) string {
	if g.liberalPolicies*fascistPoliciesToWin >= g.fascistPolicies*liberalPoliciesToWin {
		return "Liberals"
	}
	return "Fascists"
}

// round is one full election cycle: nomination, table talk, ballot,
// Hitler-chancellor check, then either the legislative session or the
// election tracker.
func (g *Game) round(ctx context.Context, e *engine.Game) error {
	alive := e.Roster.Alive()
	if len(alive) == 0 {
		return nil
	}
	president := alive[g.presidentIdx%len(alive)]

	// Term limits: the last elected chancellor is always ineligible; with
	// five or six players the last elected president is too.
	ineligible := map[string]bool{president.Name: true}
	if g.lastChancellor != "" {
		ineligible[g.lastChancellor] = true
	}
	if len(alive) <= 6 && g.lastPresident != "" {
		ineligible[g.lastPresident] = true
	}
	var eligible []string
	for _, p := range alive {
		if !ineligible[p.Name] {
			eligible = append(eligible, p.Name)
		}
	}
	if len(eligible) == 0 {
		g.rotate(len(alive))
		return nil
	}

	choice := e.Choice(ctx, president, engine.Decision{
		Kind:    engine.DecideNominate,
		Actor:   president.Name,
		Prompt:  "As President, nominate a Chancellor.",
		Options: eligible,
		Context: g.contextFor(president),
	})
	nominee := choice[0]
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventNomination,
		Actor: president.Name, Target: nominee, Detail: "chancellor nomination",
	})

	e.TableTalk(ctx, alive, 2, 8, g.contextFor)

	nom := e.RunVote(ctx, engine.VoteCall{
		Nominator: president.Name,
		Target:    nominee,
		Voters:    alive,
		Labels:    JaNein,
		Prompt:    fmt.Sprintf("Government: President %s, Chancellor %s. Vote JA or NEIN.", president.Name, nominee),
		Context:   g.contextFor,
	})

	// Electing Hitler once three fascist policies are on the board ends
	// the game immediately, bypassing the legislative session.
	e.ApplyOverrides(ctx, nom, engine.Overrides{
		InstantWin: func(nom *engine.Nomination) (string, bool) {
			elected := e.Roster.Find(nom.Target)
			if elected != nil && elected.Role.Name() == RoleHitler && g.fascistPolicies >= hitlerWinThreshold {
				return "Fascists", true
			}
			return "", false
		},
	})
	if nom.InstantWin != "" {
		return nil
	}

	if !nom.Passed {
		e.FailedVote()
		if e.Tracker >= trackerLimit {
			g.topDeck(e)
		}
		g.rotate(len(alive))
		return nil
	}

	if err := g.legislativeSession(ctx, e, president, nominee, nom); err != nil {
		return err
	}
	g.rotate(len(alive))
	return nil
}

func (g *Game) rotate(aliveCount int) {
	if aliveCount > 0 {
		g.presidentIdx = (g.presidentIdx + 1) % aliveCount
	}
}

// topDeck enacts the top policy when the election tracker hits its limit.
// A top-deck enactment counts as an enactment: the tracker resets.
func (g *Game) topDeck(e *engine.Game) {
	cards, err := g.deck.Draw(1)
	if err != nil {
		return
	}
	g.enact(e, cards[0], "top-deck after three failed governments")
}

func (g *Game) enact(e *engine.Game, policy, how string) {
	if policy == PolicyLiberal {
		g.liberalPolicies++
	} else {
		g.fascistPolicies++
	}
	e.ResetTracker()
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventPolicy,
		Detail: fmt.Sprintf("%s policy enacted (%s); board %dL/%dF", policy, how, g.liberalPolicies, g.fascistPolicies),
	})
}

// legislativeSession runs the draw-discard-enact sequence, with the mutual
// veto available once five fascist policies are on the board.
func (g *Game) legislativeSession(ctx context.Context, e *engine.Game, president *engine.Player, chancellorName string, nom *engine.Nomination) error {
	chancellor := e.Roster.Find(chancellorName)

	hand, err := g.deck.Draw(3)
	if err != nil {
		return err
	}
	g.eng.Learn(president.Name, fmt.Sprintf("You drew policies: %s.", strings.Join(hand, ", ")))

	discard := e.Choice(ctx, president, engine.Decision{
		Kind:    engine.DecideDiscard,
		Actor:   president.Name,
		Prompt:  "Discard one of the three drawn policies.",
		Options: hand,
		Context: g.contextFor(president),
	})
	hand = removeOne(hand, discard[0])
	g.deck.Discard(discard[0])

	g.eng.Learn(chancellor.Name, fmt.Sprintf("The President passed you policies: %s.", strings.Join(hand, ", ")))

	// Mutual veto: the chancellor proposes, the president must agree. A
	// refused veto changes nothing; an agreed veto discards both cards
	// and counts as a failed government.
	e.ApplyOverrides(ctx, nom, engine.Overrides{
		MutualVeto: func(ctx context.Context, nom *engine.Nomination) bool {
			if g.fascistPolicies < vetoUnlockThreshold {
				return false
			}
			ch := e.Choice(ctx, chancellor, engine.Decision{
				Kind:    engine.DecideChallenge,
				Actor:   chancellor.Name,
				Prompt:  fmt.Sprintf("You hold %s. Propose to veto this agenda?", strings.Join(hand, ", ")),
				Options: []string{"VETO", "ENACT"},
				Context: g.contextFor(chancellor),
			})
			if ch[0] != "VETO" {
				return false
			}
			pr := e.Choice(ctx, president, engine.Decision{
				Kind:    engine.DecideChallenge,
				Actor:   president.Name,
				Prompt:  "The Chancellor wishes to veto this agenda. Agree?",
				Options: []string{"AGREE", "REFUSE"},
				Context: g.contextFor(president),
			})
			return pr[0] == "AGREE"
		},
	})
	if nom.Vetoed {
		g.deck.Discard(hand...)
		if e.Tracker >= trackerLimit {
			g.topDeck(e)
		}
		return nil
	}

	chDiscard := e.Choice(ctx, chancellor, engine.Decision{
		Kind:    engine.DecideDiscard,
		Actor:   chancellor.Name,
		Prompt:  "Discard one policy; the other is enacted.",
		Options: hand,
		Context: g.contextFor(chancellor),
	})
	hand = removeOne(hand, chDiscard[0])
	g.deck.Discard(chDiscard[0])

	g.enact(e, hand[0], fmt.Sprintf("government of %s and %s", president.Name, chancellorName))

	g.lastPresident = president.Name
	g.lastChancellor = chancellorName
	return nil
}

func (g *Game) contextFor(p *engine.Player) []string {
	e := g.eng
	lines := []string{
		fmt.Sprintf("Game: secret hitler. Round %d.", e.Round),
		fmt.Sprintf("Alive players: %s.", strings.Join(e.Roster.AliveNames(), ", ")),
		fmt.Sprintf("Board: %d Liberal, %d Fascist policies. Election tracker %d/%d.", g.liberalPolicies, g.fascistPolicies, e.Tracker, trackerLimit),
		fmt.Sprintf("Last government: President %s, Chancellor %s.", orNone(g.lastPresident), orNone(g.lastChancellor)),
		fmt.Sprintf("You are %s, role %s.", p.Name, p.Role.Name()),
	}
	return append(lines, e.Notes.Recent(p.Name, 10)...)
}

func removeOne(cards []string, card string) []string {
	out := make([]string, 0, len(cards))
	removed := false
	for _, c := range cards {
		if !removed && c == card {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
