package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

// ErrNoScript is returned when a scripted agent runs out of queued replies.
// The engine treats it like any unavailable decision and substitutes a
// random legal choice.
var ErrNoScript = errors.New("no scripted reply queued")

// Scripted replays queued answers per decision kind. It drives engine tests
// and scenario replays where every decision must be known in advance.
type Scripted struct {
	mu      sync.Mutex
	replies map[engine.DecisionKind][][]string
	lines   []string
}

func NewScripted() *Scripted {
	return &Scripted{replies: make(map[engine.DecisionKind][][]string)}
}

// Queue appends one reply for the given decision kind. Replies are consumed
// in FIFO order, one per Decide call.
func (a *Scripted) Queue(kind engine.DecisionKind, values ...string) *Scripted {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies[kind] = append(a.replies[kind], values)
	return a
}

// QueueLine appends one table-talk line.
func (a *Scripted) QueueLine(line string) *Scripted {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, line)
	return a
}

func (a *Scripted) Decide(_ context.Context, d engine.Decision) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	q := a.replies[d.Kind]
	if len(q) == 0 {
		return nil, ErrNoScript
	}
	a.replies[d.Kind] = q[1:]
	return q[0], nil
}

func (a *Scripted) Say(context.Context, engine.Decision) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.lines) == 0 {
		return "", nil
	}
	line := a.lines[0]
	a.lines = a.lines[1:]
	return line, nil
}
