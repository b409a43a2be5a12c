// Package handler builds the immutable, bootstrap-time handler table
// from parsed configuration (SPEC_FULL.md §4.2), generalizing the
// teacher's read-only service/node registry pattern from "discovered
// RPC services" to "compiled dispatch rules".
package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
)

// Handler is one compiled rule, immutable after Build returns.
type Handler struct {
	Section    string
	Filter     string
	QoS        int
	FilterRef  string
	DataMapRef string
	AllDataRef string
	Targets    TargetSpec
	Format     string
	Title      string
	Image      string
	Priority   string
	Template   string
	Tmpl       *template.Template // parsed from Template, if that file was found
}

// Table is the compiled, read-only-after-bootstrap handler set.
type Table struct {
	Handlers []*Handler
	Failover *Handler
}

// Build compiles cfgs into a Table, dropping (and logging) any handler
// whose static or topic-keyed targets reference no loaded service.
// Dynamic targets cannot be validated upfront and are always kept.
// Returns an error only when no handler survives and there is no
// failover either — an unusable configuration.
func Build(cfgs []*config.HandlerConfig, failover *config.HandlerConfig, reg *registry.Registry, templateDir string, log logger.ILogger) (*Table, error) {
	t := &Table{}

	for _, c := range cfgs {
		h, err := compile(c, reg, templateDir, log)
		if err != nil {
			log.With("section", c.Section).Error("dropping handler: %v", err)
			continue
		}
		t.Handlers = append(t.Handlers, h)
	}

	if failover != nil {
		h, err := compile(failover, reg, templateDir, log)
		if err != nil {
			log.Error("failover handler invalid: %v", err)
		} else {
			t.Failover = h
		}
	}

	if len(t.Handlers) == 0 && t.Failover == nil {
		return nil, fmt.Errorf("handler: no usable handler sections (all dropped or absent)")
	}
	return t, nil
}

func compile(c *config.HandlerConfig, reg *registry.Registry, templateDir string, log logger.ILogger) (*Handler, error) {
	spec, err := parseTargetSpec(c.Targets)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}

	if !spec.IsDynamic() && !hasValidTarget(spec, reg) {
		return nil, fmt.Errorf("no target pair references a loaded service")
	}

	h := &Handler{
		Section:    c.Section,
		Filter:     c.Topic,
		QoS:        c.QoS,
		FilterRef:  c.Filter,
		DataMapRef: c.DataMap,
		AllDataRef: c.AllData,
		Targets:    spec,
		Format:     c.Format,
		Title:      c.Title,
		Image:      c.Image,
		Priority:   c.Priority,
		Template:   c.Template,
	}

	if c.Template != "" {
		path := c.Template
		if templateDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(templateDir, path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			log.With("section", c.Section).Warn("template %q not found: %v", c.Template, err)
		} else {
			tmpl, err := template.New(c.Section).Parse(string(src))
			if err != nil {
				log.With("section", c.Section).Warn("template %q parse error: %v", c.Template, err)
			} else {
				h.Tmpl = tmpl
			}
		}
	}

	return h, nil
}

func hasValidTarget(spec TargetSpec, reg *registry.Registry) bool {
	if spec.IsStatic() {
		return anyValid(spec.Static, reg)
	}
	for _, pairs := range spec.Mapping {
		if anyValid(pairs, reg) {
			return true
		}
	}
	return false
}

func anyValid(pairs []model.TargetPair, reg *registry.Registry) bool {
	for _, p := range pairs {
		entry, ok := reg.Get(p.Service)
		if !ok {
			continue
		}
		if p.TargetKey == "" || entry.HasTarget(p.TargetKey) {
			return true
		}
	}
	return false
}
