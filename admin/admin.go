// Package admin is the optional introspection HTTP+WebSocket surface
// (SPEC_FULL.md §10.5): a chi router exposing GET /healthz, a
// GET /watch WebSocket stream of job-outcome events, and a GET /feed
// stream of items delivered to a `wsfeed` sink target. It never
// participates in dispatch decisions.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/sinks/wsfeed"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventPayload is the wire shape streamed over /watch.
type eventPayload struct {
	Service   string `json:"service"`
	Target    string `json:"target"`
	Section   string `json:"section"`
	Topic     string `json:"topic"`
	Outcome   string `json:"outcome"`
	Err       string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Timestamp string `json:"timestamp"`
}

// Server is the admin HTTP+WebSocket surface. It satisfies the
// lifecycle package's AdminServer interface.
type Server struct {
	httpServer *http.Server
	events     <-chan *model.Event
	feed       *wsfeed.Hub
	log        logger.ILogger

	mu       sync.Mutex
	watchers map[*websocket.Conn]struct{}
	done     chan struct{}
	wg       sync.WaitGroup
}

// New builds a Server bound to addr, broadcasting queue events as they
// arrive on the given channel (typically queue.Events()) over /watch,
// and fanning out /feed subscriptions into feed (the hub backing the
// `wsfeed` sink).
func New(addr string, events <-chan *model.Event, feed *wsfeed.Hub, log logger.ILogger) *Server {
	s := &Server{
		events:   events,
		feed:     feed,
		log:      log,
		watchers: make(map[*websocket.Conn]struct{}),
		done:     make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/watch", s.handleWatch)
	r.Get("/feed", s.handleFeed)

	s.httpServer = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start runs the pump goroutine and the HTTP listener; it returns once
// the listener stops (normally via Shutdown, which yields http.ErrServerClosed).
func (s *Server) Start() error {
	s.wg.Add(1)
	go s.pump()

	s.log.Info("admin surface listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener and the event pump, closing every
// /watch WebSocket connection; /feed connections stay with the wsfeed hub.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)
	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()

	s.mu.Lock()
	for conn := range s.watchers {
		conn.Close()
	}
	s.watchers = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	return err
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("admin: upgrade /watch: %v", err)
		return
	}

	s.mu.Lock()
	s.watchers[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("admin: upgrade /feed: %v", err)
		return
	}
	s.feed.Subscribe(conn)
}

// pump fans every queue event out to the currently subscribed clients,
// dropping and unsubscribing any connection whose write fails.
func (s *Server) pump() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			s.broadcast(ev)
		}
	}
}

func (s *Server) broadcast(ev *model.Event) {
	payload, err := json.Marshal(eventPayload{
		Service:   ev.Service,
		Target:    ev.Target,
		Section:   ev.Section,
		Topic:     ev.Topic,
		Outcome:   ev.Outcome.String(),
		Err:       ev.Err,
		ElapsedMs: ev.Elapsed.Milliseconds(),
		Timestamp: ev.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		s.log.Error("admin: marshal event: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.watchers {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.watchers, conn)
		}
	}
}
