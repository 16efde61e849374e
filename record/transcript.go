package record

import (
	"fmt"
	"io"
	"sync"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

// Transcript renders public events as a readable play-by-play. It replaces
// the old habit of redirecting process stdout: the engine owns no output,
// the transcript is just another recorder.
type Transcript struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTranscript(w io.Writer) *Transcript {
	return &Transcript{w: w}
}

func (t *Transcript) Record(ev engine.Event) error {
	if ev.Visibility != engine.VisibilityPublic {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	switch ev.Kind {
	case engine.EventPhaseStart:
		_, err = fmt.Fprintf(t.w, "\n--- %s ---\n", ev.Detail)
	case engine.EventTalk:
		_, err = fmt.Fprintf(t.w, "%s: %s\n", ev.Actor, ev.Detail)
	case engine.EventVote:
		_, err = fmt.Fprintf(t.w, "%s votes %s\n", ev.Actor, ev.Detail)
	case engine.EventElimination:
		_, err = fmt.Fprintf(t.w, "%s is eliminated (%s)\n", ev.Target, ev.Detail)
	case engine.EventWinner:
		_, err = fmt.Fprintf(t.w, "\n=== GAME OVER: %s win (%s) ===\n", ev.Actor, ev.Detail)
	default:
		if ev.Detail == "" {
			return nil
		}
		if ev.Actor != "" && ev.Target != "" {
			_, err = fmt.Fprintf(t.w, "[%s] %s -> %s: %s\n", ev.Kind, ev.Actor, ev.Target, ev.Detail)
		} else {
			_, err = fmt.Fprintf(t.w, "[%s] %s\n", ev.Kind, ev.Detail)
		}
	}
	return err
}
