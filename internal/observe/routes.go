package observe

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/worldgen/internal/logger"
	"github.com/lawnchairsociety/worldgen/internal/render"
)

// Routes returns the read-only observation API.
func Routes(h *Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/stages", h.listStages)
		r.Get("/stages/{stage}.png", h.stagePreview)
		r.Get("/map.png", h.mapImage)
	})
	r.Get("/ws", h.handleWebSocketUpgrade)

	return r
}

// listStages handles GET /api/stages - the latest event per stage, by name.
func (h *Hub) listStages(w http.ResponseWriter, r *http.Request) {
	latest := make(map[string]Event)
	for _, e := range h.Events() {
		if e.Stage != MapStage {
			latest[e.Stage] = e
		}
	}
	out := make([]Event, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	respondJSON(w, http.StatusOK, out)
}

// stagePreview handles GET /api/stages/{stage}.png - a grayscale preview.
func (h *Hub) stagePreview(w http.ResponseWriter, r *http.Request) {
	stage := chi.URLParam(r, "stage")
	f, ok := h.Stage(stage)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown stage "+stage)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, render.Grayscale(f)); err != nil {
		logger.Error("Failed to encode stage preview", "stage", stage, "error", err)
	}
}

// mapImage handles GET /api/map.png - the rendered map once available.
func (h *Hub) mapImage(w http.ResponseWriter, r *http.Request) {
	img := h.Image()
	if img == nil {
		respondError(w, http.StatusNotFound, "map not rendered yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		logger.Error("Failed to encode map", "error", err)
	}
}

// handleWebSocketUpgrade subscribes the connection to checkpoint events.
func (h *Hub) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	// RealIP has already replaced RemoteAddr with any forwarded address.
	clientIP := extractIP(r.RemoteAddr)

	if !h.limiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many subscribers. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := h.cfg.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		h.limiter.Release(clientIP)
		return
	}

	s := h.subscribe(conn)
	go func() {
		s.readLoop()
		h.unsubscribe(s)
		h.limiter.Release(clientIP)
	}()
}

// Serve listens on addr until ctx is cancelled, then shuts down.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Observation server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON", "error", err)
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
