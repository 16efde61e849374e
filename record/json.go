// Package record implements Recorder sinks: JSON game-record files, a sqlite
// event log, a live websocket feed, and a console transcript.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

// FileRecorder persists the full event trail to one JSON file per game,
// rewriting the file after every event so a crash still leaves a usable
// record.
type FileRecorder struct {
	path   string
	header fileHeader
	events []engine.Event
}

type fileHeader struct {
	Mode    string `json:"mode"`
	Started string `json:"started"`
}

type fileRecord struct {
	fileHeader
	Events []engine.Event `json:"events"`
}

// NewFileRecorder creates game_records-style output under dir. The file name
// carries the variant and a timestamp so reruns never clobber each other.
func NewFileRecorder(dir, mode string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	ts := time.Now().Format("2006-01-02_150405")
	return &FileRecorder{
		path:   filepath.Join(dir, fmt.Sprintf("%s_game_%s.json", mode, ts)),
		header: fileHeader{Mode: mode, Started: time.Now().Format(time.RFC3339)},
	}, nil
}

// Path returns the record file location.
func (r *FileRecorder) Path() string { return r.path }

func (r *FileRecorder) Record(ev engine.Event) error {
	r.events = append(r.events, ev)
	data, err := json.MarshalIndent(fileRecord{fileHeader: r.header, Events: r.events}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
