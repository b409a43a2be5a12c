// Package file is the `sinks/file` plugin (SPEC_FULL.md §10.4): it
// appends the formatted message, followed by a newline, to the path
// named by the target's addrs (a one-element list: [path]).
package file

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks"
)

// Options is the `[config:<name>]` section's sink-specific settings.
// Truncate defaults to false: messages are appended, matching how the
// original file target behaves (one line per delivered message).
type Options struct {
	Truncate bool `mapstructure:"truncate"`
}

// Build compiles svc into a registry.Entry.
func Build(svc *config.ServiceConfig, log logger.ILogger) (*registry.Entry, error) {
	var opts Options
	if err := mapstructure.Decode(svc.Options, &opts); err != nil {
		return nil, fmt.Errorf("sinks/file %s: decode options: %w", svc.Name, err)
	}

	cfg := sinks.BuildConfig(svc)
	cfg["truncate"] = opts.Truncate

	return &registry.Entry{
		Name:       svc.Name,
		Module:     "file",
		Deliver:    deliver,
		TargetKeys: sinks.TargetKeySet(svc),
		Config:     cfg,
		Log:        log,
	}, nil
}

func deliver(ctx *model.ServiceCtx, item *model.Item) bool {
	path, ok := pathFromAddrs(item.Addrs)
	if !ok {
		ctx.Log.Error("file sink: target %q has no path in addrs", item.Target)
		return false
	}

	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	if truncate, _ := item.Config["truncate"].(bool); truncate {
		flags = os.O_TRUNC | os.O_CREATE | os.O_WRONLY
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		ctx.Log.Error("file sink: open %s: %v", path, err)
		return false
	}
	defer f.Close()

	if _, err := f.WriteString(item.Message + "\n"); err != nil {
		ctx.Log.Error("file sink: write %s: %v", path, err)
		return false
	}
	return true
}

func pathFromAddrs(addrs any) (string, bool) {
	switch v := addrs.(type) {
	case string:
		return v, v != ""
	case []any:
		if len(v) == 0 {
			return "", false
		}
		s, ok := v[0].(string)
		return s, ok
	default:
		return "", false
	}
}
