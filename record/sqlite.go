package record

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

const eventSchema = `
CREATE TABLE IF NOT EXISTS game_event (
	game_id    TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	round      INTEGER NOT NULL,
	phase      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	actor      TEXT NOT NULL DEFAULT '',
	target     TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	visibility TEXT NOT NULL,
	PRIMARY KEY (game_id, seq)
);`

// SQLiteRecorder appends every event to a game_event table. Multiple games
// share one database; (game_id, seq) keeps each trail ordered and immutable.
type SQLiteRecorder struct {
	db *sqlx.DB
}

// OpenSQLite opens (or creates) the event database at dsn.
func OpenSQLite(dsn string) (*SQLiteRecorder, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}
	if _, err := db.Exec(eventSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create game_event table: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Record(ev engine.Event) error {
	_, err := r.db.Exec(`
		INSERT INTO game_event (game_id, seq, round, phase, kind, actor, target, detail, visibility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.GameID, ev.Seq, ev.Round, ev.Phase, ev.Kind, ev.Actor, ev.Target, ev.Detail, ev.Visibility)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events reads back one game's trail in sequence order.
func (r *SQLiteRecorder) Events(gameID string) ([]engine.Event, error) {
	var out []engine.Event
	err := r.db.Select(&out, `
		SELECT game_id, seq, round, phase, kind, actor, target, detail, visibility
		FROM game_event WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error { return r.db.Close() }
