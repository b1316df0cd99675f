// Package web provides the HTTP status server for the bmi160-pro daemon.
package web

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Cupra85/bmi160-pro/internal/logic"
	"github.com/Cupra85/bmi160-pro/internal/status"
	"github.com/gorilla/websocket"
)

const (
	// DefaultHistoryLimit is the number of rows returned without ?limit.
	DefaultHistoryLimit = 50
	maxHistoryLimit     = 1000

	wsWriteTimeout = 5 * time.Second
	wsBuffer       = 8
)

// History lists stored alert events (newest first) and channel readings
// (oldest first, starting at since).
type History interface {
	AlertEvents(limit int) ([]logic.AlertEvent, error)
	Readings(c logic.Channel, since time.Time, limit int) ([]logic.Output, error)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // status page may be served behind a proxy
	},
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	live       *Broadcaster
	history    History
}

// New creates a Server that reads state from the given tracker.
// live and history may be nil; their endpoints then return 404.
func New(addr string, tracker *status.Tracker, live *Broadcaster, history History) *Server {
	s := &Server{tracker: tracker, live: live, history: history}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/history.json", s.handleHistory)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server. Websocket clients are
// released by closing the broadcaster.
func (s *Server) Shutdown(ctx context.Context) error {
	s.live.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap, s.live != nil)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleHistory serves alert events, or with ?channel= the stored readings of
// one channel, optionally starting at ?since= (RFC 3339).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	limit := DefaultHistoryLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	if name := q.Get("channel"); name != "" {
		s.serveReadings(w, name, q.Get("since"), limit)
		return
	}

	events, err := s.history.AlertEvents(limit)
	if err != nil {
		log.Printf("web: history query failed: %v", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatHistory(events))
}

func (s *Server) serveReadings(w http.ResponseWriter, name, since string, limit int) {
	c, err := logic.ParseChannel(name)
	if err != nil {
		http.Error(w, "unknown channel", http.StatusBadRequest)
		return
	}
	var from time.Time
	if since != "" {
		if from, err = time.Parse(time.RFC3339Nano, since); err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
	}
	outs, err := s.history.Readings(c, from, limit)
	if err != nil {
		log.Printf("web: %s readings query failed: %v", c, err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatReadings(c, outs))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.live == nil {
		http.NotFound(w, r)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id, frames := s.live.Subscribe(wsBuffer)
	defer s.live.Unsubscribe(id)

	// Reader goroutine: detects client close. Incoming messages are ignored.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case f, ok := <-frames:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(f); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		case <-gone:
			return
		}
	}
}
