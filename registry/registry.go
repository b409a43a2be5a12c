// Package registry is the service registry: the bootstrap-built,
// read-only-after-startup table of loaded sink services (SPEC_FULL.md
// §9, "Global mutable state → Engine aggregate"). Each entry carries
// the resolved Deliver callable, its optional Close, and the target
// keys the `[config:<service>]` section declared.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
)

// DeliverFunc is the resolved form of a sink plugin's Deliver method,
// whether it came from a bare function or a factory-constructed value.
type DeliverFunc func(ctx *model.ServiceCtx, item *model.Item) bool

// Closer is implemented by sinks that hold resources (file handles,
// DB connections, subprocesses) needing release at shutdown.
type Closer interface {
	Close() error
}

// Entry is one loaded service.
type Entry struct {
	Name       string
	Module     string
	Deliver    DeliverFunc
	Closer     Closer
	TargetKeys map[string]struct{}
	Config     map[string]any
	Log        logger.ILogger
}

// HasTarget reports whether key is a declared target of this service.
// An entry with no declared keys accepts any key (dynamic services).
func (e *Entry) HasTarget(key string) bool {
	if len(e.TargetKeys) == 0 {
		return true
	}
	_, ok := e.TargetKeys[key]
	return ok
}

// TargetKeyList returns the declared target keys in sorted order, used
// to fan a bare "service" (no target key) pair out to every key the
// service declared (§4.4 step e).
func (e *Entry) TargetKeyList() []string {
	out := make([]string, 0, len(e.TargetKeys))
	for k := range e.TargetKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Registry is an in-memory, concurrency-safe map of service name to
// Entry. It is built once during bootstrap and is read far more than
// written, hence RWMutex over a plain map.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds a service entry. Registering the same name twice is a
// bootstrap ConfigError.
func (r *Registry) Register(e *Entry) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("registry: entry requires a name")
	}
	if e.Deliver == nil {
		return fmt.Errorf("registry: service %q has no Deliver callable", e.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("registry: service %q already registered", e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Get returns the entry for name, if loaded.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the sorted list of loaded service names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len reports how many services are loaded.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll calls Close on every entry that implements Closer, in name
// order for deterministic shutdown logs, and collects every error
// rather than stopping at the first one.
func (r *Registry) CloseAll() []error {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]*Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, r.entries[name])
	}
	r.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		if e.Closer == nil {
			continue
		}
		if err := e.Closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("service %q: close: %w", e.Name, err))
		}
	}
	return errs
}
