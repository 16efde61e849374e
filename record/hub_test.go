package record

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

func TestHubBroadcastsPublicEvents(t *testing.T) {
	h := NewHub()
	h.Run()
	defer h.Stop()

	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Registration races the first broadcast; give the hub a beat.
	time.Sleep(50 * time.Millisecond)

	public := engine.Event{Seq: 1, GameID: "g1", Kind: engine.EventElimination, Target: "Bob", Visibility: engine.VisibilityPublic}
	private := engine.Event{Seq: 2, GameID: "g1", Kind: engine.EventFact, Actor: "Alice", Detail: "secret", Visibility: engine.VisibilityPrivate}
	if err := h.Record(private); err != nil {
		t.Fatal(err)
	}
	if err := h.Record(public); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("spectator read: %v", err)
	}
	var got engine.Event
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("frame is not an event: %v", err)
	}
	// The private event was filtered, so the first frame is the public one.
	if got.Kind != engine.EventElimination || got.Target != "Bob" {
		t.Fatalf("first frame = %+v, want the public elimination", got)
	}
}

func TestHubRecordWithoutClientsDoesNotBlock(t *testing.T) {
	h := NewHub()
	h.Run()
	defer h.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			h.Record(engine.Event{Seq: i, Visibility: engine.VisibilityPublic})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked with no spectators connected")
	}
}
