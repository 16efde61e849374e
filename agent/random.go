package agent

import (
	"context"
	"math/rand"
	"sync"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

// Random picks uniformly among the legal options. It stands in for seats
// without a configured model and keeps smoke runs cheap. Safe for the
// engine's concurrent gathering.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom builds a random agent with its own seeded source.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (a *Random) Decide(_ context.Context, d engine.Decision) ([]string, error) {
	if len(d.Options) == 0 {
		return nil, nil
	}
	n := d.Count
	if n <= 0 {
		n = 1
	}
	if n > len(d.Options) {
		n = len(d.Options)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	perm := a.rng.Perm(len(d.Options))
	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, d.Options[i])
	}
	return out, nil
}

func (a *Random) Say(context.Context, engine.Decision) (string, error) {
	return "", nil
}
