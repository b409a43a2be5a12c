// Package log is the `sinks/log` plugin (SPEC_FULL.md §10.4): it
// writes the formatted message to the structured logger at the level
// named by the target key (e.g. "info", "warn", "error").
package log

import (
	"fmt"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks"
)

// Build compiles svc into a registry.Entry. Every declared target key
// names the logger level to emit at; an undeclared level falls back
// to Info.
func Build(svc *config.ServiceConfig, log logger.ILogger) (*registry.Entry, error) {
	return &registry.Entry{
		Name:       svc.Name,
		Module:     "log",
		Deliver:    deliver,
		TargetKeys: sinks.TargetKeySet(svc),
		Config:     sinks.BuildConfig(svc),
		Log:        log,
	}, nil
}

func deliver(ctx *model.ServiceCtx, item *model.Item) bool {
	msg := fmt.Sprintf("[%s/%s] %s", item.Topic, item.Title, item.Message)
	switch item.Target {
	case "debug":
		ctx.Log.Debug(msg)
	case "warn":
		ctx.Log.Warn(msg)
	case "error":
		ctx.Log.Error(msg)
	default:
		ctx.Log.Info(msg)
	}
	return true
}
