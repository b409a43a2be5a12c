// Package pipe is the `sinks/pipe` plugin (SPEC_FULL.md §10.4): it
// spawns the target's configured command line and writes the
// formatted message to its stdin.
package pipe

import (
	"bytes"
	"os/exec"

	"github.com/google/shlex"
	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks"
)

// Build compiles svc into a registry.Entry. Each target's addrs is the
// command line (a single shell-style string, e.g. "mail -s alert
// root@localhost").
func Build(svc *config.ServiceConfig, log logger.ILogger) (*registry.Entry, error) {
	return &registry.Entry{
		Name:       svc.Name,
		Module:     "pipe",
		Deliver:    deliver,
		TargetKeys: sinks.TargetKeySet(svc),
		Config:     sinks.BuildConfig(svc),
		Log:        log,
	}, nil
}

func deliver(ctx *model.ServiceCtx, item *model.Item) bool {
	cmdline, ok := commandFromAddrs(item.Addrs)
	if !ok {
		ctx.Log.Error("pipe sink: target %q has no command in addrs", item.Target)
		return false
	}

	argv, err := shlex.Split(cmdline)
	if err != nil || len(argv) == 0 {
		ctx.Log.Error("pipe sink: parse command %q: %v", cmdline, err)
		return false
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewBufferString(item.Message)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		ctx.Log.Error("pipe sink: %q: %v: %s", cmdline, err, stderr.String())
		return false
	}
	return true
}

func commandFromAddrs(addrs any) (string, bool) {
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
