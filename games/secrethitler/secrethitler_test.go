package secrethitler

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/esha0612/liars-bar-llm-amongus/agent"
	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

var seatNames = []string{"Alice", "Bob", "Carol", "Dave", "Eve"}

type memRecorder struct {
	mu     sync.Mutex
	events []engine.Event
}

func (r *memRecorder) Record(ev engine.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) byKind(kind string) []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []engine.Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// newScenario pins the five-player deal: three liberals, Dave the fascist,
// Eve as Hitler. Secret knowledge is re-dealt for the pinned layout.
func newScenario(t *testing.T, agents map[string]*agent.Scripted) (*Game, *memRecorder) {
	t.Helper()
	rec := &memRecorder{}
	seats := make([]engine.Seat, len(seatNames))
	for i, name := range seatNames {
		ag, ok := agents[name]
		if !ok {
			ag = agent.NewScripted()
		}
		seats[i] = engine.Seat{Name: name, Agent: ag}
	}
	g, err := New(Config{Seats: seats, Recorder: rec, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	layout := []engine.Role{lib(), lib(), lib(), fas(), hit()}
	for i, p := range g.eng.Roster.Players {
		p.Role = layout[i]
	}
	g.eng.Notes = engine.NewNotebook()
	g.dealSecretKnowledge()
	return g, rec
}

func electionScript(nominee, ballot string) *agent.Scripted {
	return agent.NewScripted().
		Queue(engine.DecideNominate, nominee).
		Queue(engine.DecideVote, ballot)
}

func hasFact(g *Game, owner, want string) bool {
	for _, f := range g.eng.Notes.Facts(owner) {
		if f.Text == want {
			return true
		}
	}
	return false
}

func TestSecretKnowledge(t *testing.T) {
	g, _ := newScenario(t, nil)

	if !hasFact(g, "Dave", "Eve is Hitler.") {
		t.Error("the fascist does not know Hitler")
	}
	// With five players Hitler knows the fascist back.
	if !hasFact(g, "Eve", "Dave is the Fascist.") {
		t.Error("Hitler does not know the fascist at small counts")
	}
}

func TestHitlerChancellorInstantWin(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames {
		agents[name] = electionScript("Eve", "JA")
	}
	g, _ := newScenario(t, agents)
	g.fascistPolicies = hitlerWinThreshold

	if err := g.round(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}

	if w, ok := g.eng.Winner(); !ok || w != "Fascists" {
		t.Fatalf("Winner = %q,%v, want Fascists,true", w, ok)
	}
	// The legislative session never ran: the board is untouched.
	if g.liberalPolicies != 0 || g.fascistPolicies != hitlerWinThreshold {
		t.Errorf("board = %dL/%dF, the instant win must bypass the session",
			g.liberalPolicies, g.fascistPolicies)
	}
}

func TestHitlerChancellorBeforeThresholdIsHarmless(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames {
		agents[name] = electionScript("Eve", "JA")
	}
	// The elected Hitler must still legislate: queue the session decisions.
	agents["Alice"].Queue(engine.DecideDiscard, PolicyFascist)
	agents["Eve"].Queue(engine.DecideDiscard, PolicyFascist)
	g, _ := newScenario(t, agents)
	g.deck = engine.NewDeck([]string{PolicyFascist, PolicyFascist, PolicyFascist}, g.eng.Rand)

	if err := g.round(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.eng.Winner(); ok {
		t.Fatal("game ended on a Hitler chancellorship below the threshold")
	}
	if g.fascistPolicies != 1 {
		t.Errorf("fascist policies = %d, want 1 enacted", g.fascistPolicies)
	}
}

func TestThreeFailedElectionsTopDeck(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames {
		agents[name] = agent.NewScripted()
	}
	// Presidents rotate Alice, Bob, Carol; every ballot is NEIN.
	agents["Alice"].Queue(engine.DecideNominate, "Bob")
	agents["Bob"].Queue(engine.DecideNominate, "Carol")
	agents["Carol"].Queue(engine.DecideNominate, "Dave")
	for _, name := range seatNames {
		for i := 0; i < 3; i++ {
			agents[name].Queue(engine.DecideVote, "NEIN")
		}
	}
	g, rec := newScenario(t, agents)

	for i := 0; i < 3; i++ {
		g.eng.Round = i + 1
		if err := g.round(context.Background(), g.eng); err != nil {
			t.Fatal(err)
		}
	}

	if g.liberalPolicies+g.fascistPolicies != 1 {
		t.Fatalf("board = %dL/%dF, want exactly the one top-decked policy",
			g.liberalPolicies, g.fascistPolicies)
	}
	if g.eng.Tracker != 0 {
		t.Errorf("tracker = %d after a top-deck enactment, want 0", g.eng.Tracker)
	}
	if evs := rec.byKind(engine.EventPolicy); len(evs) != 1 || !strings.Contains(evs[0].Detail, "top-deck") {
		t.Errorf("policy events = %+v, want one top-deck enactment", evs)
	}
}

func TestLegislativeSessionEnactsAndSetsTermLimits(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames {
		agents[name] = electionScript("Bob", "JA")
	}
	agents["Alice"].Queue(engine.DecideDiscard, PolicyFascist)
	agents["Bob"].Queue(engine.DecideDiscard, PolicyFascist)
	g, _ := newScenario(t, agents)
	g.deck = engine.NewDeck([]string{PolicyLiberal, PolicyFascist, PolicyFascist}, g.eng.Rand)
	g.eng.Tracker = 2

	if err := g.round(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}

	if g.liberalPolicies != 1 || g.fascistPolicies != 0 {
		t.Errorf("board = %dL/%dF, want 1L/0F", g.liberalPolicies, g.fascistPolicies)
	}
	if g.eng.Tracker != 0 {
		t.Errorf("tracker = %d, an enactment must reset it", g.eng.Tracker)
	}
	if g.lastPresident != "Alice" || g.lastChancellor != "Bob" {
		t.Errorf("term limits = %q/%q, want Alice/Bob", g.lastPresident, g.lastChancellor)
	}
	drew := false
	for _, f := range g.eng.Notes.Facts("Alice") {
		if strings.HasPrefix(f.Text, "You drew policies:") {
			drew = true
		}
	}
	if !drew {
		t.Error("president never learned the drawn hand")
	}
}

func TestTermLimitedNomineeIsRejected(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames {
		agents[name] = electionScript("Bob", "JA")
	}
	agents["Alice"].Queue(engine.DecideDiscard, PolicyLiberal)
	agents["Bob"].Queue(engine.DecideDiscard, PolicyLiberal)
	g, rec := newScenario(t, agents)
	g.deck = engine.NewDeck([]string{PolicyLiberal, PolicyLiberal, PolicyLiberal}, g.eng.Rand)

	if err := g.round(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}

	// Next president is Bob. Alice (last president, small table) is term
	// limited: nominating her must be caught and substituted.
	agents["Bob"].Queue(engine.DecideNominate, "Alice")
	for _, name := range seatNames {
		agents[name].Queue(engine.DecideVote, "NEIN")
	}
	if err := g.round(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if evs := rec.byKind(engine.EventIllegalDecision); len(evs) == 0 {
		t.Error("term-limited nomination was accepted as legal")
	}
}

func TestMutualVetoDiscardsAgenda(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames {
		agents[name] = electionScript("Bob", "JA")
	}
	agents["Alice"].
		Queue(engine.DecideDiscard, PolicyLiberal).
		Queue(engine.DecideChallenge, "AGREE")
	agents["Bob"].Queue(engine.DecideChallenge, "VETO")
	g, _ := newScenario(t, agents)
	g.fascistPolicies = vetoUnlockThreshold
	g.deck = engine.NewDeck([]string{PolicyLiberal, PolicyLiberal, PolicyLiberal}, g.eng.Rand)

	if err := g.round(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}

	if g.liberalPolicies != 0 {
		t.Errorf("liberal policies = %d, a vetoed agenda must not enact", g.liberalPolicies)
	}
	if g.eng.Tracker != 1 {
		t.Errorf("tracker = %d after a veto, want 1", g.eng.Tracker)
	}
	if g.lastChancellor != "" {
		t.Error("a vetoed government must not set term limits")
	}
	// All seventeen-equivalent cards stay in circulation.
	draw, discard := g.deck.Counts()
	if draw+discard != 3 {
		t.Errorf("deck lost cards across the veto: %d+%d", draw, discard)
	}
}

func TestRefusedVetoStillEnacts(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames {
		agents[name] = electionScript("Bob", "JA")
	}
	agents["Alice"].
		Queue(engine.DecideDiscard, PolicyLiberal).
		Queue(engine.DecideChallenge, "REFUSE")
	agents["Bob"].
		Queue(engine.DecideChallenge, "VETO").
		Queue(engine.DecideDiscard, PolicyLiberal)
	g, _ := newScenario(t, agents)
	g.fascistPolicies = vetoUnlockThreshold
	g.deck = engine.NewDeck([]string{PolicyLiberal, PolicyLiberal, PolicyLiberal}, g.eng.Rand)

	if err := g.round(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if g.liberalPolicies != 1 {
		t.Errorf("liberal policies = %d, a refused veto must still enact", g.liberalPolicies)
	}
	if g.eng.Tracker != 0 {
		t.Errorf("tracker = %d, want 0 after an enactment", g.eng.Tracker)
	}
}

func TestWinChecks(t *testing.T) {
	tests := []struct {
		name     string
		liberal  int
		fascist  int
		want     string
		finished bool
	}{
		{"five liberal", 5, 2, "Liberals", true},
		{"six fascist", 3, 6, "Fascists", true},
		{"mid game", 3, 3, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := newScenario(t, nil)
			g.liberalPolicies = tc.liberal
			g.fascistPolicies = tc.fascist
			w, ok := g.eng.CheckWin(g.winChecks())
			if ok != tc.finished || w != tc.want {
				t.Errorf("CheckWin = %q,%v, want %q,%v", w, ok, tc.want, tc.finished)
			}
		})
	}
}

func TestFallbackComparesProgress(t *testing.T) {
	tests := []struct {
		liberal, fascist int
		want             string
	}{
		{0, 0, "Liberals"}, // tie goes to the liberals
		{4, 4, "Liberals"},
		{0, 1, "Fascists"},
		{4, 5, "Fascists"},
		{3, 3, "Liberals"},
	}
	for _, tc := range tests {
		g, _ := newScenario(t, nil)
		g.liberalPolicies = tc.liberal
		g.fascistPolicies = tc.fascist
		if got := g.fallbackWinner(g.eng); got != tc.want {
			t.Errorf("fallback at %dL/%dF = %q, want %q", tc.liberal, tc.fascist, got, tc.want)
		}
	}
}

func TestFullGameWithRandomAgents(t *testing.T) {
	seats := make([]engine.Seat, 7)
	for i := range seats {
		seats[i] = engine.Seat{Name: seatNames2()[i], Agent: agent.NewRandom(int64(i + 1))}
	}
	g, err := New(Config{Seats: seats, Seed: 13, MaxRounds: 30})
	if err != nil {
		t.Fatal(err)
	}
	res, err := g.Play(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Winner != "Liberals" && res.Winner != "Fascists" {
		t.Errorf("winner = %q, want Liberals or Fascists", res.Winner)
	}
}

func seatNames2() []string {
	return []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace"}
}
