// Package livefeed serves the latest EMU-2 readings over HTTP and websocket.
package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/NotCoffee418/emu2mqtt/pkg/types"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSendBuffer = 16
	defaultWriteWait  = 5 * time.Second
)

// Hub keeps the latest reading per metric and fans readings out to
// websocket clients.
type Hub struct {
	latest   map[string]types.FeedReading
	latestMu sync.RWMutex

	// ws clients for broadcasting live readings, each drained by its own writer.
	// Lock order is clientsMu then latestMu.
	clients   map[*websocket.Conn]chan []byte
	clientsMu sync.RWMutex

	sendBuffer int
	writeWait  time.Duration

	upgrader websocket.Upgrader
	now      func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		latest:     make(map[string]types.FeedReading),
		clients:    make(map[*websocket.Conn]chan []byte),
		sendBuffer: defaultSendBuffer,
		writeWait:  defaultWriteWait,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // read-only feed on the local network
			},
		},
		now: time.Now,
	}
}

// Publish records the reading and queues it for every websocket client.
// It never waits on a client; one whose queue is full is disconnected.
func (h *Hub) Publish(metric string, value float64) error {
	reading := types.FeedReading{
		Timestamp:     h.now().Format(time.RFC3339),
		MetricReading: types.MetricReading{Metric: metric, Value: value},
	}
	data := reading.ToJsonBytes()

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.latestMu.Lock()
	h.latest[metric] = reading
	h.latestMu.Unlock()

	for conn, send := range h.clients {
		select {
		case send <- data:
		default:
			log.Warnf("WebSocket client %s is not keeping up, disconnecting", conn.RemoteAddr())
			h.dropLocked(conn)
		}
	}
	return nil
}

// Latest returns the last reading of each metric, sorted by metric name.
func (h *Hub) Latest() []types.FeedReading {
	h.latestMu.RLock()
	defer h.latestMu.RUnlock()

	readings := make([]types.FeedReading, 0, len(h.latest))
	for _, r := range h.latest {
		readings = append(readings, r)
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Metric < readings[j].Metric })
	return readings
}

// Handler serves the status page, /latest and the /ws feed.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"message": "EMU-2 MQTT Bridge",
			"status":  "running",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		readings := h.Latest()
		w.Header().Set("Content-Type", "application/json")
		if len(readings) == 0 {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "No readings available yet",
			})
			return
		}
		json.NewEncoder(w).Encode(readings)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		h.addClient(conn)

		// Keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.removeClient(conn)
				break
			}
		}
	})

	return mux
}

// Serve runs the feed on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: h.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting EMU-2 live feed on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// addClient registers conn and queues the current readings ahead of any
// later broadcast.
func (h *Hub) addClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	latest := h.Latest()
	send := make(chan []byte, max(h.sendBuffer, len(latest)))
	for _, reading := range latest {
		send <- reading.ToJsonBytes()
	}
	h.clients[conn] = send
	go h.writePump(conn, send)
}

// writePump is the only writer on conn.
func (h *Hub) writePump(conn *websocket.Conn, send <-chan []byte) {
	for data := range send {
		conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.removeClient(conn)
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	h.dropLocked(conn)
	h.clientsMu.Unlock()
}

// dropLocked requires clientsMu held. Safe to call twice.
func (h *Hub) dropLocked(conn *websocket.Conn) {
	send, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(send)
	conn.Close()
}
