package engine_test

import (
	"sync"
	"testing"

	"github.com/esha0612/liars-bar-llm-amongus/agent"
	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

// memRecorder captures every event for assertions.
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

func villagerTable(n int) engine.RoleTable {
	row := make([]engine.Role, n)
	for i := range row {
		row[i] = engine.SimpleRole{RoleName: "Villager", RoleTeam: "Town"}
	}
	return engine.RoleTable{n: row}
}

// newTestGame builds a game of villagers whose agents are the caller's
// scripted stand-ins, keyed by seat name.
func newTestGame(t *testing.T, seed int64, agents map[string]engine.Agent) (*engine.Game, *memRecorder) {
	t.Helper()
	rec := &memRecorder{}
	var seats []engine.Seat
	for _, name := range []string{"Alice", "Bob", "Carol", "Dave", "Eve"} {
		ag, ok := agents[name]
		if !ok {
			continue
		}
		seats = append(seats, engine.Seat{Name: name, Agent: ag})
	}
	g, err := engine.NewGame(engine.Config{
		Seats:    seats,
		Table:    villagerTable(len(seats)),
		Recorder: rec,
		Seed:     seed,
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g, rec
}

// scripted is shorthand for a fresh scripted agent.
func scripted() *agent.Scripted { return agent.NewScripted() }
