package pipeline

import (
	"github.com/rskv-p/mqttwarn/hooks"
	"github.com/rskv-p/mqttwarn/logger"
	recoverpkg "github.com/rskv-p/mqttwarn/recover"
)

// RunFilter invokes the handler's filter hook, if any. A panic or
// missing registration is logged and treated as "do not suppress"
// (§4.4 step a).
func RunFilter(ref string, namespaces []string, topic string, payload []byte, log logger.ILogger) (suppress bool) {
	if ref == "" {
		return false
	}
	fn, err := hooks.LookupFilter(ref, namespaces)
	if err != nil {
		log.Warn("filter hook %q: %v", ref, err)
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			recoverpkg.RecoverExplicit("pipeline", "filter:"+ref, r, map[string]any{"topic": topic})
			suppress = false
		}
	}()
	return fn(topic, payload)
}

// RunDataMap invokes the handler's datamap hook, mutating data in
// place. Panics are contained; the pipeline continues with the data
// as the hook left it, including changes made before the panic
// (§4.4 step b).
func RunDataMap(ref string, namespaces []string, topic string, data map[string]any, log logger.ILogger) {
	if ref == "" {
		return
	}
	fn, err := hooks.LookupDataMap(ref, namespaces)
	if err != nil {
		log.Warn("datamap hook %q: %v", ref, err)
		return
	}

	safeDataMap(fn, ref, topic, data)
}

func safeDataMap(fn hooks.DataMapFunc, ref, topic string, data map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			recoverpkg.RecoverExplicit("pipeline", "datamap:"+ref, r, map[string]any{"topic": topic})
		}
	}()
	fn(topic, data)
}

// RunAllData invokes the handler's alldata hook and merges its
// returned mapping into data (the hook's keys win on collision).
func RunAllData(ref string, namespaces []string, topic string, data map[string]any, log logger.ILogger) {
	if ref == "" {
		return
	}
	fn, err := hooks.LookupAllData(ref, namespaces)
	if err != nil {
		log.Warn("alldata hook %q: %v", ref, err)
		return
	}

	merged := safeAllData(fn, topic, data, log)
	for k, v := range merged {
		data[k] = v
	}
}

func safeAllData(fn hooks.AllDataFunc, topic string, data map[string]any, log logger.ILogger) (result map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			recoverpkg.RecoverExplicit("pipeline", "alldata", r, map[string]any{"topic": topic})
			result = nil
		}
	}()
	return fn(topic, data)
}
