package clocktower

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/esha0612/liars-bar-llm-amongus/agent"
	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

var seatNames = []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace", "Heidi", "Ivan"}

// sevenSeatRoles pins roles onto seats in a fixed order so scripted agents
// know who they are.
var sevenSeatRoles = []string{RolePoisoner, RoleImp, RoleEmpath, RoleMonk, RoleUndertaker, RoleSlayer, RoleMayor}

// newScenario builds a game and then overrides the shuffled deal with the
// given seat->role layout.
func newScenario(t *testing.T, roles []string, agents map[string]*agent.Scripted) *Game {
	t.Helper()
	seats := make([]engine.Seat, len(roles))
	for i := range roles {
		name := seatNames[i]
		ag, ok := agents[name]
		if !ok {
			ag = agent.NewScripted()
		}
		seats[i] = engine.Seat{Name: name, Agent: ag}
	}
	g, err := New(Config{Seats: seats, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	teamOf := map[string]engine.Team{RoleImp: TeamEvil, RolePoisoner: TeamEvil}
	for i, roleName := range roles {
		team, evil := teamOf[roleName]
		if !evil {
			team = TeamGood
		}
		g.eng.Roster.Players[i].Role = engine.SimpleRole{RoleName: roleName, RoleTeam: team}
	}
	return g
}

func lastFact(t *testing.T, g *Game, owner string) string {
	t.Helper()
	facts := g.eng.Notes.Facts(owner)
	if len(facts) == 0 {
		t.Fatalf("%s has no facts", owner)
	}
	return facts[len(facts)-1].Text
}

func TestNightPoisonedEmpathAndUnprotectedKill(t *testing.T) {
	g := newScenario(t, sevenSeatRoles, map[string]*agent.Scripted{
		"Alice": agent.NewScripted().Queue(engine.DecidePoison, "Carol"),
		"Dave":  agent.NewScripted().Queue(engine.DecideProtect, "Grace"),
		"Bob":   agent.NewScripted().Queue(engine.DecideKill, "Eve"),
	})

	if err := g.night(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}

	// Eve was not the protected target, so the kill lands.
	if g.eng.Roster.Find("Eve").Alive {
		t.Error("unprotected kill target survived")
	}
	if !g.eng.Roster.Find("Grace").Alive {
		t.Error("bystander died")
	}

	// Carol's true reading would be one evil neighbor (Bob); poisoned, she
	// must receive a fabricated count instead.
	got := lastFact(t, g, "Carol")
	if !strings.HasPrefix(got, "You sense ") {
		t.Fatalf("empath fact = %q", got)
	}
	if got == "You sense 1 evil neighbor(s)." {
		t.Error("poisoned empath received the true reading")
	}

	// No execution has happened, so the dead undertaker aside, nobody
	// learns about executions on night one.
	for _, f := range g.eng.Notes.Facts("Eve") {
		if strings.Contains(f.Text, "executed") {
			t.Errorf("undertaker learned %q with no execution", f.Text)
		}
	}
}

func TestHealthyEmpathReadsTrueCount(t *testing.T) {
	g := newScenario(t, sevenSeatRoles, map[string]*agent.Scripted{
		"Alice": agent.NewScripted().Queue(engine.DecidePoison, "Frank"),
		"Dave":  agent.NewScripted().Queue(engine.DecideProtect, "Grace"),
		"Bob":   agent.NewScripted().Queue(engine.DecideKill, "Eve"),
	})

	if err := g.night(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	// Carol sits between Bob (evil) and Dave (good).
	if got := lastFact(t, g, "Carol"); got != "You sense 1 evil neighbor(s)." {
		t.Errorf("empath fact = %q, want the true count", got)
	}
}

func TestProtectedTargetSurvivesTheDemon(t *testing.T) {
	g := newScenario(t, sevenSeatRoles, map[string]*agent.Scripted{
		"Alice": agent.NewScripted().Queue(engine.DecidePoison, "Frank"),
		"Dave":  agent.NewScripted().Queue(engine.DecideProtect, "Eve"),
		"Bob":   agent.NewScripted().Queue(engine.DecideKill, "Eve"),
	})

	if err := g.night(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if !g.eng.Roster.Find("Eve").Alive {
		t.Error("monk's protection did not void the kill")
	}
}

func TestPoisonedMonkProtectsNobody(t *testing.T) {
	g := newScenario(t, sevenSeatRoles, map[string]*agent.Scripted{
		"Alice": agent.NewScripted().Queue(engine.DecidePoison, "Dave"),
		"Dave":  agent.NewScripted().Queue(engine.DecideProtect, "Eve"),
		"Bob":   agent.NewScripted().Queue(engine.DecideKill, "Eve"),
	})

	if err := g.night(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if g.eng.Roster.Find("Eve").Alive {
		t.Error("poisoned monk still protected the demon's target")
	}
}

func voteScript(target string) *agent.Scripted {
	return agent.NewScripted().
		Queue(engine.DecideNominate, target).
		Queue(engine.DecideVote, "YES")
}

func TestDayExecutionFeedsTheUndertaker(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames[:7] {
		agents[name] = voteScript("Carol")
	}
	agents["Frank"].Queue(engine.DecideExecute, "HOLD") // slayer holds fire
	g := newScenario(t, sevenSeatRoles, agents)

	if err := g.day(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if g.eng.Roster.Find("Carol").Alive {
		t.Fatal("execution target survived a unanimous vote")
	}
	if g.lastExecuted != "Carol" || !g.executedYesterday {
		t.Fatalf("execution bookkeeping = %q,%v", g.lastExecuted, g.executedYesterday)
	}

	// The following night the undertaker learns the executed player's role.
	agents["Alice"].Queue(engine.DecidePoison, "Frank")
	agents["Dave"].Queue(engine.DecideProtect, "Grace")
	agents["Bob"].Queue(engine.DecideKill, "Frank")
	if err := g.night(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("Yesterday's executed player Carol was the %s.", RoleEmpath)
	if got := lastFact(t, g, "Eve"); got != want {
		t.Errorf("undertaker fact = %q, want %q", got, want)
	}
}

func TestKilledUndertakerLearnsNothing(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames[:7] {
		agents[name] = voteScript("Carol")
	}
	agents["Frank"].Queue(engine.DecideExecute, "HOLD") // slayer holds fire
	g := newScenario(t, sevenSeatRoles, agents)

	if err := g.day(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if g.eng.Roster.Find("Carol").Alive {
		t.Fatal("execution target survived a unanimous vote")
	}

	// The demon takes the undertaker the same night; the retrospect is lost
	// with them.
	agents["Alice"].Queue(engine.DecidePoison, "Frank")
	agents["Dave"].Queue(engine.DecideProtect, "Grace")
	agents["Bob"].Queue(engine.DecideKill, "Eve")
	if err := g.night(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if g.eng.Roster.Find("Eve").Alive {
		t.Fatal("the undertaker should be dead in this setup")
	}
	for _, f := range g.eng.Notes.Facts("Eve") {
		if strings.Contains(f.Text, "Yesterday's executed") {
			t.Fatalf("a dead undertaker must learn nothing, got %q", f.Text)
		}
	}
}

func TestMayorCancelsOwnExecution(t *testing.T) {
	agents := map[string]*agent.Scripted{}
	for _, name := range seatNames[:7] {
		agents[name] = voteScript("Grace")
	}
	agents["Frank"].Queue(engine.DecideExecute, "HOLD")
	agents["Grace"].Queue(engine.DecideChallenge, "CANCEL")
	g := newScenario(t, sevenSeatRoles, agents)

	if err := g.day(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	mayor := g.eng.Roster.Find("Grace")
	if !mayor.Alive {
		t.Fatal("mayor executed despite cancelling")
	}
	if !mayor.UsedOneShot {
		t.Error("mayor's one-shot not consumed")
	}
	if g.executedYesterday {
		t.Error("cancelled execution still recorded as an execution")
	}

	// The one-shot is spent: a second election kills the mayor.
	for _, name := range seatNames[:7] {
		if g.eng.Roster.Find(name).Alive {
			agents[name].Queue(engine.DecideNominate, "Grace").Queue(engine.DecideVote, "YES")
		}
	}
	agents["Frank"].Queue(engine.DecideExecute, "HOLD")
	if err := g.day(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if mayor.Alive {
		t.Error("mayor survived a second election with the one-shot spent")
	}
}

func TestSlayerShotEndsTheGame(t *testing.T) {
	agents := map[string]*agent.Scripted{
		"Frank": agent.NewScripted().Queue(engine.DecideExecute, "Bob"),
	}
	g := newScenario(t, sevenSeatRoles, agents)

	if !g.slayerShot(context.Background(), g.eng) {
		t.Fatal("slayer shot not fired")
	}
	if g.eng.Roster.Find("Bob").Alive {
		t.Fatal("demon survived the slayer's shot")
	}
	if w, ok := g.eng.CheckWin(winChecks()); !ok || w != string(TeamGood) {
		t.Errorf("CheckWin = %q,%v, want Good,true", w, ok)
	}
	if !g.eng.Roster.Find("Frank").UsedOneShot {
		t.Error("slayer one-shot not consumed")
	}
}

func TestSlayerShotOnTownsfolkMisses(t *testing.T) {
	agents := map[string]*agent.Scripted{
		"Frank": agent.NewScripted().Queue(engine.DecideExecute, "Alice"),
	}
	g := newScenario(t, sevenSeatRoles, agents)

	if !g.slayerShot(context.Background(), g.eng) {
		t.Fatal("slayer shot not fired")
	}
	// The poisoner is not the demon: the shot is public but harmless.
	if !g.eng.Roster.Find("Alice").Alive {
		t.Error("slayer shot killed a non-demon")
	}
	if _, over := g.eng.CheckWin(winChecks()); over {
		t.Error("game ended on a missed shot")
	}
}

func TestRavenkeeperLearnsARoleWhenKilled(t *testing.T) {
	eightRoles := append(append([]string{}, sevenSeatRoles...), RoleRavenkeeper)
	g := newScenario(t, eightRoles, map[string]*agent.Scripted{
		"Alice": agent.NewScripted().Queue(engine.DecidePoison, "Frank"),
		"Dave":  agent.NewScripted().Queue(engine.DecideProtect, "Grace"),
		"Bob":   agent.NewScripted().Queue(engine.DecideKill, "Heidi"),
		"Heidi": agent.NewScripted().Queue(engine.DecidePeek, "Bob"),
	})

	if err := g.night(context.Background(), g.eng); err != nil {
		t.Fatal(err)
	}
	if g.eng.Roster.Find("Heidi").Alive {
		t.Fatal("ravenkeeper should be dead")
	}
	found := false
	for _, f := range g.eng.Notes.Facts("Heidi") {
		if f.Text == "Bob is the Imp." {
			found = true
		}
	}
	if !found {
		t.Errorf("ravenkeeper facts = %v, want the demon's true role", g.eng.Notes.Facts("Heidi"))
	}
}

func TestFullGameAlwaysProducesAWinner(t *testing.T) {
	seats := make([]engine.Seat, 7)
	for i := range seats {
		seats[i] = engine.Seat{Name: seatNames[i], Agent: agent.NewRandom(int64(i + 1))}
	}
	g, err := New(Config{Seats: seats, Seed: 11, MaxRounds: 20})
	if err != nil {
		t.Fatal(err)
	}
	res, err := g.Play(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Winner != string(TeamGood) && res.Winner != string(TeamEvil) {
		t.Errorf("winner = %q, want Good or Evil", res.Winner)
	}
	if res.Rounds < 1 || res.Rounds > 20 {
		t.Errorf("rounds = %d, want within the cap", res.Rounds)
	}
}
