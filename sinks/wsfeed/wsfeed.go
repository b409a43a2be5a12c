// Package wsfeed is the `sinks/wsfeed` plugin (SPEC_FULL.md §10.4): it
// broadcasts every delivered item as JSON to the WebSocket clients the
// admin/introspection surface has subscribed (§10.5), fanning one
// in-process channel of items out to however many operators are
// currently watching.
package wsfeed

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks"
)

// Feed is the broadcast item payload sent to every subscribed client.
type Feed struct {
	Service string `json:"service"`
	Target  string `json:"target"`
	Section string `json:"section"`
	Topic   string `json:"topic"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Hub tracks the WebSocket clients currently subscribed to the item
// feed, mirroring the teacher's connection-registry idiom.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub returns an empty client registry.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Subscribe registers conn to receive future broadcasts.
func (h *Hub) Subscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

// Unsubscribe removes conn; safe to call more than once.
func (h *Hub) Unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// Broadcast sends msg to every subscribed client, dropping (and
// unsubscribing) any connection whose write fails.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

type sink struct {
	hub *Hub
}

// Build compiles svc into a registry.Entry backed by hub. The admin
// package upgrades /feed connections and subscribes them to hub.
func Build(svc *config.ServiceConfig, hub *Hub, log logger.ILogger) (*registry.Entry, error) {
	s := &sink{hub: hub}
	return &registry.Entry{
		Name:       svc.Name,
		Module:     "wsfeed",
		Deliver:    s.deliver,
		TargetKeys: sinks.TargetKeySet(svc),
		Config:     sinks.BuildConfig(svc),
		Log:        log,
	}, nil
}

func (s *sink) deliver(ctx *model.ServiceCtx, item *model.Item) bool {
	payload, err := json.Marshal(Feed{
		Service: item.Service,
		Target:  item.Target,
		Section: item.Section,
		Topic:   item.Topic,
		Title:   item.Title,
		Message: item.Message,
	})
	if err != nil {
		ctx.Log.Error("wsfeed sink: marshal: %v", err)
		return false
	}
	s.hub.Broadcast(payload)
	return true
}
