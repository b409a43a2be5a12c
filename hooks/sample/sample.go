// Package sample is the built-in hook module mirrored from mqttwarn's
// original examples/basic/samplefuncs.py. It registers itself under the
// "mqttwarn_hooks.sample" namespace so a bare `functions` reference in
// the config (e.g. `target = heartbeat`) resolves here, and its source
// is what `mqttwarn funcs sample` prints.
package sample

import (
	"fmt"
	"strings"

	"github.com/rskv-p/mqttwarn/hooks"
	"github.com/rskv-p/mqttwarn/model"
)

const namespace = "mqttwarn_hooks.sample"

func init() {
	hooks.Register(namespace+":isloud", hooks.FilterFunc(IsLoud))
	hooks.Register(namespace+":addseverity", hooks.DataMapFunc(AddSeverity))
	hooks.Register(namespace+":merge", hooks.AllDataFunc(Merge))
	hooks.Register(namespace+":fanout", hooks.TargetsFunc(FanOut))
	hooks.Register(namespace+":upper", hooks.ValueFunc(Upper))
	hooks.Register(namespace+":heartbeat", hooks.CronFunc(Heartbeat))
}

// IsLoud suppresses any message whose payload is entirely upper-case
// shouting (a trivial Filter hook: true means "drop this message").
func IsLoud(topic string, payload []byte) bool {
	s := strings.TrimSpace(string(payload))
	return s != "" && s == strings.ToUpper(s) && strings.ToLower(s) != s
}

// AddSeverity derives a `severity` key from the topic's last level.
func AddSeverity(topic string, data map[string]any) {
	parts := strings.Split(topic, "/")
	last := parts[len(parts)-1]
	switch last {
	case "crit", "error", "alarm":
		data["severity"] = "critical"
	case "warn", "warning":
		data["severity"] = "warning"
	default:
		data["severity"] = "info"
	}
}

// Merge returns a copy of the data map with a `source` marker added,
// demonstrating the AllData hook form: the returned keys are merged
// into the pipeline's data map.
func Merge(topic string, data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["source"] = "mqttwarn_hooks.sample"
	return out
}

// FanOut routes every message to the `log:info` target,
// demonstrating the dynamic Targets hook form.
func FanOut(section, topic string, data map[string]any) []model.TargetPair {
	return []model.TargetPair{{Service: "log", TargetKey: "info"}}
}

// Upper upper-cases string values; used as a format/title hook.
func Upper(value any, data map[string]any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return strings.ToUpper(s)
}

// Heartbeat is a cron target: it publishes a liveness beacon.
func Heartbeat(ctx *model.ServiceCtx) {
	if ctx == nil || ctx.Publish == nil {
		return
	}
	msg := fmt.Sprintf("alive:%s", ctx.ScriptName)
	_ = ctx.Publish.Publish("mqttwarn/heartbeat", 0, false, []byte(msg))
}
