// Package dispatch matches an incoming message against the compiled
// handler table and turns each match into zero or more enqueued jobs
// (SPEC_FULL.md §4.4-§4.5), generalizing the teacher's match-then-route
// idiom (router.Dispatch picking a Handler, selector.Select picking a
// node) to topic-filter matching picking target pairs.
package dispatch

import (
	"fmt"
	"time"

	"github.com/rskv-p/mqttwarn/handler"
	"github.com/rskv-p/mqttwarn/hooks"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/pipeline"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/topic"
)

// Dispatcher holds the compiled, read-only-after-bootstrap handler
// table and the memoized topic-filter cache built from it.
type Dispatcher struct {
	table        *handler.Table
	reg          *registry.Registry
	cache        *topic.Cache[*handler.Handler]
	namespaces   []string
	scriptName   string
	skipRetained bool
	log          logger.ILogger
}

// New builds a Dispatcher from a compiled Table, pre-registering every
// non-failover handler's subscription filter into the memoization cache.
func New(table *handler.Table, reg *registry.Registry, namespaces []string, scriptName string, skipRetained bool, log logger.ILogger) *Dispatcher {
	cache := topic.NewCache[*handler.Handler](0)
	for _, h := range table.Handlers {
		cache.Register(h.Filter, h)
	}
	return &Dispatcher{
		table:        table,
		reg:          reg,
		cache:        cache,
		namespaces:   namespaces,
		scriptName:   scriptName,
		skipRetained: skipRetained,
		log:          log,
	}
}

// Dispatch runs the §4.4 pipeline for one message, calling enqueue once
// per resolved, validated job.
func (d *Dispatcher) Dispatch(env *model.Envelope, enqueue func(*model.Job)) {
	if env.Retained && d.skipRetained {
		return
	}

	matched := d.cache.Match(env.Topic)
	if len(matched) == 0 {
		return
	}

	for _, h := range matched {
		d.runHandler(h, env, enqueue)
	}
}

// DispatchFailover runs the compiled failover handler, if any, against
// a synthesized envelope (§4.9: broker disconnect reason as topic,
// message as payload). A no-op when no failover handler was compiled.
func (d *Dispatcher) DispatchFailover(env *model.Envelope, enqueue func(*model.Job)) {
	if d.table.Failover == nil {
		return
	}
	d.runHandler(d.table.Failover, env, enqueue)
}

func (d *Dispatcher) runHandler(h *handler.Handler, env *model.Envelope, enqueue func(*model.Job)) {
	hlog := d.log.With("section", h.Section)

	if pipeline.RunFilter(h.FilterRef, d.namespaces, env.Topic, env.RawPayload, d.log) {
		hlog.Debug("suppressed by filter")
		return
	}

	data := pipeline.BuildDataMap(env, time.Now())
	pipeline.RunDataMap(h.DataMapRef, d.namespaces, env.Topic, data, d.log)
	pipeline.RunAllData(h.AllDataRef, d.namespaces, env.Topic, data, d.log)

	pairs, err := d.resolveTargets(h, env.Topic, data)
	if err != nil {
		hlog.Error("target resolution: %v", err)
		return
	}
	if len(pairs) == 0 {
		return
	}

	title := pipeline.EvalValue(h.Title, data, d.namespaces, d.scriptName)
	image := pipeline.EvalValue(h.Image, data, d.namespaces, "")
	message := d.evalMessage(h, data)
	priority := pipeline.EvalPriority(h.Priority, data, d.namespaces)

	messageStr := pipeline.Stringify(message)
	if messageStr == "" {
		hlog.Warn("empty message, suppressing delivery")
		return
	}

	for _, pair := range pairs {
		target, err := pipeline.Interpolate(pair.TargetKey, data)
		if err != nil {
			hlog.Error("target %q interpolation: %v", pair.TargetKey, err)
			continue
		}

		entry, ok := d.reg.Get(pair.Service)
		if !ok {
			hlog.Error("unknown service %q", pair.Service)
			continue
		}

		keys := []string{target}
		if target == "" {
			keys = entry.TargetKeyList()
		} else if !entry.HasTarget(target) {
			hlog.Error("service %q has no target %q", pair.Service, target)
			continue
		}

		for _, key := range keys {
			enqueue(&model.Job{
				Priority:    priority,
				ServiceName: pair.Service,
				Section:     h.Section,
				TargetKey:   key,
				Config:      entry.Config,
				Topic:       env.Topic,
				RawPayload:  env.RawPayload,
				Data:        data.Clone(),
				Title:       pipeline.Stringify(title),
				Image:       pipeline.Stringify(image),
				Message:     messageStr,
			})
		}
	}
}

// resolveTargets implements the §4.5 precedence: dynamic function call,
// topic-keyed mapping (best match by specificity), or static list.
func (d *Dispatcher) resolveTargets(h *handler.Handler, topicStr string, data model.DataMap) ([]model.TargetPair, error) {
	spec := h.Targets

	switch {
	case spec.IsDynamic():
		fn, err := hooks.LookupTargets(spec.DynamicRef, d.namespaces)
		if err != nil {
			return nil, err
		}
		return safeTargetsCall(fn, h.Section, topicStr, data)

	case spec.IsMapping():
		pairs, ok := spec.ResolveMapping(topicStr)
		if !ok {
			return nil, nil
		}
		return pairs, nil

	default:
		return spec.Static, nil
	}
}

func safeTargetsCall(fn hooks.TargetsFunc, section, topicStr string, data map[string]any) (pairs []model.TargetPair, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("targets hook panic: %v", r)
		}
	}()
	return fn(section, topicStr, data), nil
}

// evalMessage applies the §4.6 evaluation order: template (if parsed)
// takes priority over format, since a configured template replaces
// format's output.
func (d *Dispatcher) evalMessage(h *handler.Handler, data model.DataMap) any {
	if h.Tmpl != nil {
		out, err := pipeline.RenderTemplate(h.Tmpl, data)
		if err != nil {
			d.log.With("section", h.Section).Warn("template render: %v", err)
		} else {
			return out
		}
	}
	return pipeline.EvalValue(h.Format, data, d.namespaces, string(rawPayloadString(data)))
}

func rawPayloadString(data model.DataMap) string {
	if v, ok := data["payload"].(string); ok {
		return v
	}
	return ""
}
