// Package observe exposes a run's checkpoints over HTTP and a websocket
// event stream. It only reads what the pipeline already produced.
package observe

import (
	"context"
	"encoding/json"
	"image"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/field"
	"github.com/lawnchairsociety/worldgen/internal/logger"
)

// MapStage is the event stage name announcing the rendered map.
const MapStage = "map"

// Event describes one finished stage.
type Event struct {
	Stage  string  `json:"stage"`
	Cached bool    `json:"cached"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Hub keeps the latest field of every stage and fans events out to
// websocket subscribers. It implements pipeline.Observer.
type Hub struct {
	cfg     config.ObserveConfig
	limiter *SubscriberLimiter

	mu      sync.RWMutex
	fields  map[string]*field.ScalarField
	events  []Event
	image   image.Image
	clients map[*subscriber]struct{}
}

// NewHub creates an empty hub. cfg decides which origins may subscribe.
func NewHub(cfg config.ObserveConfig) *Hub {
	return &Hub{
		cfg:     cfg,
		limiter: NewSubscriberLimiter(cfg),
		fields:  make(map[string]*field.ScalarField),
		clients: make(map[*subscriber]struct{}),
	}
}

// Checkpoint records a finished stage and broadcasts its event.
func (h *Hub) Checkpoint(ctx context.Context, stage string, f *field.ScalarField, cached bool) {
	lo, hi := f.MinMax()
	h.publish(Event{
		Stage:  stage,
		Cached: cached,
		Width:  f.Width,
		Height: f.Height,
		Min:    lo,
		Max:    hi,
	}, func() { h.fields[stage] = f.Clone() })
}

// Rendered records the final map.
func (h *Hub) Rendered(ctx context.Context, img image.Image) {
	b := img.Bounds()
	h.publish(Event{Stage: MapStage, Width: b.Dx(), Height: b.Dy()}, func() { h.image = img })
}

func (h *Hub) publish(e Event, record func()) {
	msg, err := json.Marshal(e)
	if err != nil {
		logger.Error("Failed to encode event", "stage", e.Stage, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	record()
	h.events = append(h.events, e)
	for c := range h.clients {
		c.push(msg)
	}
}

// Stage returns the latest field recorded for stage.
func (h *Hub) Stage(stage string) (*field.ScalarField, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	f, ok := h.fields[stage]
	return f, ok
}

// Events returns every event so far, oldest first.
func (h *Hub) Events() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Event(nil), h.events...)
}

// Image returns the rendered map, or nil before the run finishes.
func (h *Hub) Image() image.Image {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.image
}

// subscribe registers conn and queues every past event for it, so a late
// subscriber sees the whole run.
func (h *Hub) subscribe(conn *websocket.Conn) *subscriber {
	s := newSubscriber(conn)

	h.mu.Lock()
	for _, e := range h.events {
		if msg, err := json.Marshal(e); err == nil {
			s.push(msg)
		}
	}
	h.clients[s] = struct{}{}
	h.mu.Unlock()

	go s.writeLoop()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[s]; ok {
		delete(h.clients, s)
		close(s.send)
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		delete(h.clients, s)
		close(s.send)
	}
}

// sendBuffer bounds the events queued for one slow subscriber; further
// events are dropped for it.
const sendBuffer = 64

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
}

func (s *subscriber) push(msg []byte) {
	select {
	case s.send <- msg:
	default:
		logger.Warning("Dropping event for slow subscriber", "remote_addr", s.conn.RemoteAddr().String())
	}
}

func (s *subscriber) writeLoop() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop discards client messages until the connection drops.
func (s *subscriber) readLoop() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
