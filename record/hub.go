package record

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/esha0612/liars-bar-llm-amongus/engine"
)

// Hub streams the public slice of the event trail to connected spectators
// over websockets. Private and team-visible events never leave the process.
type Hub struct {
	clients    map[*websocket.Conn]*client
	broadcast  chan []byte
	register   chan *client
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	done       chan struct{}
	wg         sync.WaitGroup
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex // gorilla/websocket requires serialized writes
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *websocket.Conn, 64),
		done:       make(chan struct{}),
	}
}

// Run pumps registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-h.done:
				return

			case c := <-h.register:
				h.mu.Lock()
				h.clients[c.conn] = c
				total := len(h.clients)
				h.mu.Unlock()
				log.Printf("Spectator connected. Total: %d", total)

			case conn := <-h.unregister:
				h.mu.Lock()
				if _, ok := h.clients[conn]; ok {
					delete(h.clients, conn)
					conn.Close()
				}
				total := len(h.clients)
				h.mu.Unlock()
				log.Printf("Spectator disconnected. Total: %d", total)

			case msg := <-h.broadcast:
				h.mu.RLock()
				for conn, c := range h.clients {
					c.writeMu.Lock()
					err := conn.WriteMessage(websocket.TextMessage, msg)
					c.writeMu.Unlock()
					if err != nil {
						log.Printf("Spectator write error: %v", err)
						select {
						case h.unregister <- conn:
						default:
						}
					}
				}
				h.mu.RUnlock()
			}
		}
	}()
}

// Stop signals the hub goroutine to exit and waits for it.
func (h *Hub) Stop() {
	close(h.done)
	h.wg.Wait()
}

// Record implements engine.Recorder. Only publicly visible events are
// broadcast; a full hub channel drops the frame rather than stalling the
// game.
func (h *Hub) Record(ev engine.Event) error {
	if ev.Visibility != engine.VisibilityPublic {
		return nil
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- msg:
	default:
	}
	return nil
}

// ServeHTTP upgrades spectator connections.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Spectator upgrade error: %v", err)
		return
	}
	c := &client{conn: conn}
	h.register <- c

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			// Spectators only listen; drain until the peer goes away.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
