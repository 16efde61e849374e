// Package liarsbar implements the bluffing card game: players claim to play
// cards of the table rank, opponents may call the bluff, and whoever loses
// the call spins the revolver.
package liarsbar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

const TeamLoner engine.Team = "Loner"

const RoleGambler = "Gambler"

const (
	RankQueen = "Q"
	RankKing  = "K"
	RankAce   = "A"
	RankJoker = "Joker"
)

const (
	handSize    = 5
	chamberSize = 6
	maxClaim    = 3
)

func gam() engine.Role { return engine.SimpleRole{RoleName: RoleGambler, RoleTeam: TeamLoner} }

func gamRow(n int) []engine.Role {
	row := make([]engine.Role, n)
	for i := range row {
		row[i] = gam()
	}
	return row
}

// Table: a free-for-all, every seat the same role.
var Table = engine.RoleTable{2: gamRow(2), 3: gamRow(3), 4: gamRow(4)}

type Config struct {
	Seats           []engine.Seat
	Recorder        engine.Recorder
	Seed            int64
	DecisionTimeout time.Duration
	MaxRounds       int
	Budget          time.Duration
}

// revolver is one player's six-chamber gun with a single live round.
type revolver struct {
	bullet int
	pulls  int
}

// pull advances to the next chamber and reports whether it was live.
func (r *revolver) pull() bool {
	fired := r.pulls
	r.pulls++
	return fired == r.bullet
}

type Game struct {
	eng      *engine.Game
	deck     *engine.Deck
	hands    map[string][]string
	guns     map[string]*revolver
	startIdx int
}

type Result struct {
	Winner string
	Rounds int
}

// New builds the 20-card deck (six each of Q, K, A plus two Jokers) and
// loads every player's revolver with one live round in a random chamber.
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

	cards := make([]string, 0, 20)
	for _, rank := range []string{RankQueen, RankKing, RankAce} {
		for i := 0; i < 6; i++ {
			cards = append(cards, rank)
		}
	}
	cards = append(cards, RankJoker, RankJoker)

	g := &Game{
		eng:   eng,
		deck:  engine.NewDeck(cards, eng.Rand),
		hands: make(map[string][]string),
		guns:  make(map[string]*revolver),
	}
	for _, p := range eng.Roster.Players {
		g.guns[p.Name] = &revolver{bullet: eng.Rand.Intn(chamberSize)}
	}
	return g, nil
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
		{Name: "last player standing", Check: func(e *engine.Game) (string, bool) {
			alive := e.Roster.Alive()
			if len(alive) == 1 {
				return alive[0].Name, true
			}
			if len(alive) == 0 {
				return "nobody", true
			}
			return "", false
		}},
	}
}

// fallbackWinner picks the living player who has fired the fewest chambers,
// breaking ties at random.
func (g *Game) fallbackWinner(e *engine.Game) string {
	alive := e.Roster.AliveNames()
	if len(alive) == 0 {
		return "nobody"
	}
	sort.Strings(alive)
	best := []string{alive[0]}
	for _, name := range alive[1:] {
		switch {
		case g.guns[name].pulls < g.guns[best[0]].pulls:
			best = []string{name}
		case g.guns[name].pulls == g.guns[best[0]].pulls:
			best = append(best, name)
		}
	}
	return best[e.Rand.Intn(len(best))]
}

// round is one hand of the bar game: deal five cards each, pick a table
// rank, then take turns claiming plays until somebody calls a bluff or
// every hand is empty. All cards return to the deck afterwards.
func (g *Game) round(ctx context.Context, e *engine.Game) error {
	alive := e.Roster.Alive()
	if len(alive) < 2 {
		return nil
	}

	tableRank := []string{RankQueen, RankKing, RankAce}[e.Rand.Intn(3)]
	var played []string

	for _, p := range alive {
		hand, err := g.deck.Draw(handSize)
		if err != nil {
			return err
		}
		g.hands[p.Name] = hand
		e.Learn(p.Name, fmt.Sprintf("Your hand: %s. Table rank: %s.", strings.Join(hand, ", "), tableRank))
	}
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventPhaseStart,
		Detail: fmt.Sprintf("new hand dealt; table rank is %s", tableRank),
	})

	e.TableTalk(ctx, alive, 1, 6, g.contextFor)

	defer func() {
		g.deck.Discard(played...)
		for name, hand := range g.hands {
			g.deck.Discard(hand...)
			delete(g.hands, name)
		}
	}()

	turn := g.startIdx
	g.startIdx++
	for step := 0; step < len(alive)*handSize; step++ {
		player := alive[turn%len(alive)]
		turn++
		if !player.Alive || len(g.hands[player.Name]) == 0 {
			if g.allHandsEmpty(alive) {
				return nil
			}
			continue
		}

		claim := g.playTurn(ctx, e, player, tableRank)
		played = append(played, claim...)

		challenger := g.nextWithEyes(alive, turn)
		if challenger == nil {
			return nil
		}
		call := e.Choice(ctx, challenger, engine.Decision{
			Kind:    engine.DecideChallenge,
			Actor:   challenger.Name,
			Prompt:  fmt.Sprintf("%s claims %d card(s) of rank %s. CHALLENGE or PASS?", player.Name, len(claim), tableRank),
			Options: []string{"CHALLENGE", "PASS"},
			Context: g.contextFor(challenger),
		})
		if call[0] == "CHALLENGE" {
			g.resolveChallenge(e, challenger, player, claim, tableRank)
			return nil
		}
		if g.allHandsEmpty(alive) {
			return nil
		}
	}
	return nil
}

// playTurn asks the player how many cards to claim and which cards to put
// down, records the public claim, and returns the face-down cards.
func (g *Game) playTurn(ctx context.Context, e *engine.Game, player *engine.Player, tableRank string) []string {
	hand := g.hands[player.Name]

	limit := maxClaim
	if len(hand) < limit {
		limit = len(hand)
	}
	counts := make([]string, limit)
	for i := range counts {
		counts[i] = fmt.Sprintf("%d", i+1)
	}
	howMany := e.Choice(ctx, player, engine.Decision{
		Kind:    engine.DecidePlay,
		Actor:   player.Name,
		Prompt:  fmt.Sprintf("Table rank is %s. How many cards will you claim to play?", tableRank),
		Options: counts,
		Context: g.contextFor(player),
	})
	n := int(howMany[0][0] - '0')

	// Hand slots are tagged so duplicate ranks stay distinct options.
	slots := make([]string, len(hand))
	for i, c := range hand {
		slots[i] = fmt.Sprintf("%s#%d", c, i+1)
	}
	picked := e.Choice(ctx, player, engine.Decision{
		Kind:    engine.DecidePlay,
		Actor:   player.Name,
		Prompt:  fmt.Sprintf("Pick the %d card(s) to put down face-down as %s.", n, tableRank),
		Options: slots,
		Count:   n,
		Context: g.contextFor(player),
	})

	cards := make([]string, len(picked))
	for i, slot := range picked {
		cards[i] = strings.SplitN(slot, "#", 2)[0]
	}
	g.hands[player.Name] = removeCards(hand, cards)

	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventAction,
		Actor: player.Name,
		Detail: fmt.Sprintf("puts down %d card(s), claiming rank %s (%d left in hand)",
			len(cards), tableRank, len(g.hands[player.Name])),
	})
	return cards
}

// resolveChallenge reveals the played cards and sends the loser to the
// revolver. Jokers count as the table rank.
func (g *Game) resolveChallenge(e *engine.Game, challenger, player *engine.Player, claim []string, tableRank string) {
	honest := true
	for _, c := range claim {
		if c != tableRank && c != RankJoker {
			honest = false
			break
		}
	}
	loser := player
	if honest {
		loser = challenger
	}
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventAction,
		Actor: challenger.Name, Target: player.Name,
		Detail: fmt.Sprintf("challenge: cards were %s; %s loses", strings.Join(claim, ", "), loser.Name),
	})
	g.roulette(e, loser)
}

func (g *Game) roulette(e *engine.Game, loser *engine.Player) {
	gun := g.guns[loser.Name]
	dead := gun.pull()
	detail := fmt.Sprintf("%s pulls the trigger... click (%d of %d chambers spent)", loser.Name, gun.pulls, chamberSize)
	if dead {
		detail = fmt.Sprintf("%s pulls the trigger... bang", loser.Name)
	}
	e.Record(engine.Event{
		Round: e.Round, Phase: engine.PhaseDay, Kind: engine.EventAction,
		Actor: loser.Name, Detail: detail,
	})
	if dead {
		e.Eliminate(loser.Name, "shot in a round of russian roulette")
	}
}

func (g *Game) allHandsEmpty(alive []*engine.Player) bool {
	for _, p := range alive {
		if p.Alive && len(g.hands[p.Name]) > 0 {
			return false
		}
	}
	return true
}

// nextWithEyes finds the next living player after the turn index; they get
// the challenge decision.
func (g *Game) nextWithEyes(alive []*engine.Player, turn int) *engine.Player {
	for i := 0; i < len(alive); i++ {
		p := alive[(turn+i)%len(alive)]
		if p.Alive {
			return p
		}
	}
	return nil
}

func (g *Game) contextFor(p *engine.Player) []string {
	e := g.eng
	gun := g.guns[p.Name]
	lines := []string{
		fmt.Sprintf("Game: liars bar. Round %d.", e.Round),
		fmt.Sprintf("Players at the table: %s.", strings.Join(e.Roster.AliveNames(), ", ")),
		fmt.Sprintf("Your hand: %s.", strings.Join(g.hands[p.Name], ", ")),
		fmt.Sprintf("Your revolver: %d of %d chambers spent.", gun.pulls, chamberSize),
	}
	return append(lines, e.Notes.Recent(p.Name, 10)...)
}

func removeCards(hand []string, cards []string) []string {
	out := append([]string(nil), hand...)
	for _, c := range cards {
		for i, h := range out {
			if h == c {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return out
}
