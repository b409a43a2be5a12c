// Package sinks holds the shared helpers each sink subpackage's
// factory uses to turn a `[config:<name>]` section into a
// registry.Entry (SPEC_FULL.md §10.4): the declared target keys, and
// the merged config map handed to every Deliver call.
package sinks

import "github.com/rskv-p/mqttwarn/config"

// TargetsKey is the reserved Config key under which the service's
// `targets` mapping (target key -> addrs) is stashed, so the worker
// can resolve each job's Addrs without every sink repeating the lookup.
const TargetsKey = "_targets"

// TargetKeySet returns the declared target keys of svc, for
// registry.Entry.TargetKeys.
func TargetKeySet(svc *config.ServiceConfig) map[string]struct{} {
	keys := make(map[string]struct{}, len(svc.Targets))
	for k := range svc.Targets {
		keys[k] = struct{}{}
	}
	return keys
}

// BuildConfig merges svc's sink-specific Options with its Targets
// mapping (under TargetsKey) into the single map stored on
// registry.Entry.Config and handed to every model.Item.
func BuildConfig(svc *config.ServiceConfig) map[string]any {
	cfg := make(map[string]any, len(svc.Options)+1)
	for k, v := range svc.Options {
		cfg[k] = v
	}
	cfg[TargetsKey] = svc.Targets
	return cfg
}

// Addrs resolves a target key to its configured addrs value, using the
// TargetsKey mapping every sink's Build stashes in cfg.
func Addrs(cfg map[string]any, targetKey string) any {
	targets, ok := cfg[TargetsKey].(map[string]any)
	if !ok {
		return nil
	}
	return targets[targetKey]
}
