package engine

import "log"

// Event kinds emitted by the engine.
const (
	EventGameStart       = "game_start"
	EventPhaseStart      = "phase_start"
	EventTalk            = "talk"
	EventAction          = "action"
	EventFact            = "fact"
	EventNomination      = "nomination"
	EventVote            = "vote"
	EventGovernment      = "government"
	EventElimination     = "elimination"
	EventTracker         = "tracker"
	EventPolicy          = "policy"
	EventIllegalDecision = "illegal_decision"
	EventWinner          = "winner"
)

// Event visibility, mirroring who could have observed the underlying act.
const (
	VisibilityPublic  = "public"
	VisibilityTeam    = "team"
	VisibilityPrivate = "private"
)

// Event is one entry in the append-only game trail.
type Event struct {
	Seq        int    `db:"seq" json:"seq"`
	GameID     string `db:"game_id" json:"game_id"`
	Round      int    `db:"round" json:"round"`
	Phase      string `db:"phase" json:"phase"`
	Kind       string `db:"kind" json:"kind"`
	Actor      string `db:"actor" json:"actor,omitempty"`
	Target     string `db:"target" json:"target,omitempty"`
	Detail     string `db:"detail" json:"detail,omitempty"`
	Visibility string `db:"visibility" json:"visibility"`
}

// Recorder receives ordered events. The engine calls it synchronously after
// each mutation; a failed write never aborts the game.
type Recorder interface {
	Record(ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(Event) error { return nil }

// Multi fans events out to several recorders.
type Multi []Recorder

// Record delivers ev to every sink; one failing sink never starves the
// others. The first error is returned after the fan-out completes.
func (m Multi) Record(ev Event) error {
	var first error
	for _, r := range m {
		if err := r.Record(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// record stamps sequence and game identity onto ev and hands it to the
// recorder. Write failures are logged and swallowed.
func (g *Game) record(ev Event) {
	g.seq++
	ev.Seq = g.seq
	ev.GameID = g.ID
	if ev.Visibility == "" {
		ev.Visibility = VisibilityPublic
	}
	if err := g.Rec.Record(ev); err != nil {
		log.Printf("Recorder: dropped event %d (%s): %v", ev.Seq, ev.Kind, err)
	}
}

// Record exposes event emission to variant packages.
func (g *Game) Record(ev Event) { g.record(ev) }
