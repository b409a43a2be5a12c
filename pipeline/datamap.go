// Package pipeline builds the per-message data map, runs the
// filter/datamap/alldata hooks, and evaluates the format/title/image/
// priority/template handler options (SPEC_FULL.md §3, §4.4, §4.6).
package pipeline

import (
	"encoding/json"
	"time"

	"github.com/rskv-p/mqttwarn/model"
)

// BuildDataMap constructs the built-in fields plus, when the payload
// decodes as a JSON object, its top-level keys (spec.md §3, steps 1-2).
// JSON keys override built-ins on collision.
func BuildDataMap(env *model.Envelope, now time.Time) model.DataMap {
	data := model.DataMap{
		"topic":       env.Topic,
		"payload":     string(env.RawPayload),
		"raw_payload": env.RawPayload,
		"_dt":         now.UTC(),
		"_lt":         now.Local(),
		"_dtepoch":    now.UTC().Unix(),
		"_dtiso":      now.UTC().Format(time.RFC3339),
		"_ltiso":      now.Local().Format(time.RFC3339),
		"_lthhmm":     now.Local().Format("15:04"),
		"_lthhmmss":   now.Local().Format("15:04:05"),
	}

	var top map[string]any
	if len(env.RawPayload) > 0 && json.Unmarshal(env.RawPayload, &top) == nil {
		for k, v := range top {
			data[k] = v
		}
	}

	return data
}
