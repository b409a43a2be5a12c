// Package lifecycle is the Engine aggregate that owns bootstrap,
// run, and shutdown (SPEC_FULL.md §4.10), generalizing the teacher's
// Service.Run/Init/Stop signal-driven lifecycle (service.go) from an
// RPC service to the dispatch engine's own component set.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rskv-p/mqttwarn/broker"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/dispatch"
	"github.com/rskv-p/mqttwarn/handler"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/queue"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sched"
)

// ScriptName is the program name used as the default `title` value
// (§4.6) and as the ScriptName passed to services and cron hooks.
const ScriptName = "mqttwarn"

// DefaultNamespace is tried after the configured `functions` module
// when a bare (unqualified) hook name is resolved.
const DefaultNamespace = "mqttwarn_hooks.sample"

// AdminServer is the optional introspection HTTP+WS surface (§10.5).
// Engine treats it opaquely so lifecycle does not import admin/.
type AdminServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Engine wires every compiled component and owns the shutdown sequence.
type Engine struct {
	cfg        *config.Config
	reg        *registry.Registry
	table      *handler.Table
	dispatcher *dispatch.Dispatcher
	broker     *broker.Broker
	queue      *queue.Queue
	scheduler  *sched.Scheduler
	admin      AdminServer
	namespaces []string
	log        logger.ILogger

	shutdownDeadline time.Duration
}

// New compiles the handler table and wires the dispatcher, broker,
// queue, and scheduler against an already-loaded config and an
// already-populated service registry (built by the cmd layer from
// `[config:*]` sections before calling New).
func New(cfg *config.Config, reg *registry.Registry, admin AdminServer, log logger.ILogger) (*Engine, error) {
	table, err := handler.Build(cfg.Handlers, cfg.Failover, reg, cfg.Defaults.Directory, log)
	if err != nil {
		return nil, err
	}

	namespaces := []string{DefaultNamespace}
	if cfg.Defaults.Functions != "" {
		namespaces = append([]string{cfg.Defaults.Functions}, namespaces...)
	}

	b := broker.New(&cfg.Defaults, log)
	q := queue.New(0, cfg.Defaults.NumWorkers, queue.DefaultDeadline, reg, b, ScriptName, log)
	d := dispatch.New(table, reg, namespaces, ScriptName, cfg.Defaults.SkipRetained, log)

	sc := sched.Build(cfg.Cron, namespaces, &model.ServiceCtx{Log: log, Publish: b, ScriptName: ScriptName}, log)

	b.OnMessage(func(env *model.Envelope) {
		d.Dispatch(env, q.Enqueue)
	})
	b.OnUncleanDisconnect(func(reason, message string) {
		d.DispatchFailover(&model.Envelope{Topic: reason, RawPayload: []byte(message)}, q.Enqueue)
	})

	return &Engine{
		cfg:              cfg,
		reg:              reg,
		table:            table,
		dispatcher:       d,
		broker:           b,
		queue:            q,
		scheduler:        sc,
		admin:            admin,
		namespaces:       namespaces,
		log:              log,
		shutdownDeadline: 10 * time.Second,
	}, nil
}

// Events exposes the job-outcome stream so the cmd layer can wire an
// admin surface after the engine (and its queue) have been built.
func (e *Engine) Events() <-chan *model.Event {
	return e.queue.Events()
}

// SetAdmin attaches the admin surface once it has been constructed
// from Events(); Run starts it alongside every other component.
func (e *Engine) SetAdmin(admin AdminServer) {
	e.admin = admin
}

// Run starts every component, connects to the broker, and blocks until
// ctx is cancelled or SIGINT/SIGTERM arrives, then performs the §4.10
// shutdown sequence.
func (e *Engine) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.queue.Start(runCtx)
	e.scheduler.Start(e.namespaces)

	if e.admin != nil {
		go func() {
			if err := e.admin.Start(); err != nil {
				e.log.Error("admin surface failed to start: %v", err)
			}
		}()
	}

	filters := broker.SubscribeFilters(e.table)
	if err := e.broker.Connect(filters); err != nil {
		e.log.Error("broker connect: %v", err)
		e.Shutdown()
		return err
	}
	e.log.Info("%s running with %d handler(s)", ScriptName, len(e.table.Handlers))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		e.log.Info("signal received, shutting down")
	case <-ctx.Done():
		e.log.Info("context cancelled, shutting down")
	}

	e.Shutdown()
	return nil
}

// Shutdown runs the §4.10 sequence: cancel cron, publish LWT-dead and
// disconnect, drain the queue, close services, stop the admin surface.
func (e *Engine) Shutdown() {
	e.scheduler.Cancel()
	e.broker.Disconnect()

	e.queue.Close()
	e.queue.Stop(e.shutdownDeadline)

	for _, err := range e.reg.CloseAll() {
		e.log.Error("service close: %v", err)
	}

	if e.admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.admin.Shutdown(ctx); err != nil {
			e.log.Error("admin surface shutdown: %v", err)
		}
	}
}
