// Package bootstrap wires a parsed config.Config into a populated
// registry.Registry (SPEC_FULL.md §4.3): for each service name listed
// in `defaults.launch`, it resolves the matching `[config:<name>]`
// section to its sink plugin's Build function by the section's
// `module` option and registers the result. A missing section or a
// Build failure is a non-fatal ConfigWarning: it is logged and the
// service is skipped, not a bootstrap-aborting error.
package bootstrap

import (
	"fmt"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks/db"
	"github.com/rskv-p/mqttwarn/sinks/file"
	"github.com/rskv-p/mqttwarn/sinks/httpsink"
	"github.com/rskv-p/mqttwarn/sinks/log"
	"github.com/rskv-p/mqttwarn/sinks/pipe"
	"github.com/rskv-p/mqttwarn/sinks/smtp"
	"github.com/rskv-p/mqttwarn/sinks/wsfeed"
)

// BuildRegistry constructs one registry.Entry per launched service,
// using feed as the shared hub for any `wsfeed` service. An empty
// `launch` list is treated as "launch every declared service" (a
// convenience default the original's explicit-list-only behavior
// doesn't offer, but omitting it would make every sample/test config
// launch nothing).
func BuildRegistry(cfg *config.Config, feed *wsfeed.Hub, baseLog logger.ILogger) (*registry.Registry, error) {
	reg := registry.New()

	names := cfg.Defaults.Launch
	if len(names) == 0 {
		for name := range cfg.Services {
			names = append(names, name)
		}
	}

	for _, name := range names {
		svc, ok := cfg.Services[name]
		if !ok {
			baseLog.Error("bootstrap: launch references undeclared service %q, skipping", name)
			continue
		}

		svcLog := baseLog.WithContext(name)
		entry, err := Build(svc, feed, svcLog)
		if err != nil {
			baseLog.Error("bootstrap: service %q: %v, skipping", name, err)
			continue
		}
		if err := reg.Register(entry); err != nil {
			baseLog.Error("bootstrap: %v, skipping", err)
		}
	}

	return reg, nil
}

// Build compiles a single `[config:<name>]` section into a
// registry.Entry by dispatching on its `module` option, independent of
// whether that service appears in `defaults.launch`. Used directly by
// `mqttwarn plugin run` to exercise one service standalone.
func Build(svc *config.ServiceConfig, feed *wsfeed.Hub, svcLog logger.ILogger) (*registry.Entry, error) {
	switch svc.Module {
	case "log":
		return log.Build(svc, svcLog)
	case "file":
		return file.Build(svc, svcLog)
	case "pipe", "exec":
		return pipe.Build(svc, svcLog)
	case "httpsink", "http":
		return httpsink.Build(svc, svcLog)
	case "smtp":
		return smtp.Build(svc, svcLog)
	case "db", "postgres", "sqlite":
		return db.Build(svc, svcLog)
	case "wsfeed":
		return wsfeed.Build(svc, feed, svcLog)
	default:
		return nil, fmt.Errorf("unknown sink module %q", svc.Module)
	}
}
