// Package hooks is the explicit, compiled-in registry for dotted
// function references (SPEC_FULL.md §9: "Runtime-reflective hook
// loading → explicit plugin registry"). Each hook-bearing package
// registers its functions from an init(), mirroring the teacher's
// name-keyed RegisterRuntime idiom (rtm_core.RuntimeModule) but using
// package init() instead of an explicit bootstrap call, since hook
// packages are anonymous-imported by the binary that wants them.
package hooks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rskv-p/mqttwarn/model"
)

// Typed hook signatures (SPEC_FULL.md §6).
type (
	FilterFunc  func(topic string, payload []byte) bool
	DataMapFunc func(topic string, data map[string]any)
	AllDataFunc func(topic string, data map[string]any) map[string]any
	TargetsFunc func(section, topic string, data map[string]any) []model.TargetPair
	ValueFunc   func(value any, data map[string]any) any
	CronFunc    func(ctx *model.ServiceCtx)
)

var (
	mu    sync.RWMutex
	table = map[string]any{}
)

// Register binds ref ("pkg.path:Name") to fn. Called from hook
// package init()s; panics on duplicate registration since that is
// always a programming error caught at process start, never at
// runtime on the message path.
func Register(ref string, fn any) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := table[ref]; exists {
		panic(fmt.Sprintf("hooks: duplicate registration for %q", ref))
	}
	table[ref] = fn
}

// Lookup resolves ref against the registry. A fully qualified ref
// (containing ":") is looked up directly. A bare name is tried against
// each namespace in order, as "namespace:name", approximating the
// original's functions= search-path behavior.
func Lookup(ref string, namespaces []string) (any, error) {
	ref = strings.TrimSuffix(strings.TrimSpace(ref), "()")

	mu.RLock()
	defer mu.RUnlock()

	if strings.Contains(ref, ":") {
		if fn, ok := table[ref]; ok {
			return fn, nil
		}
		return nil, fmt.Errorf("hooks: %q not registered", ref)
	}

	for _, ns := range namespaces {
		key := ns + ":" + ref
		if fn, ok := table[key]; ok {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("hooks: %q not found in namespaces %v", ref, namespaces)
}

// LookupFilter resolves ref and asserts it is a FilterFunc.
func LookupFilter(ref string, namespaces []string) (FilterFunc, error) {
	fn, err := Lookup(ref, namespaces)
	if err != nil {
		return nil, err
	}
	f, ok := fn.(FilterFunc)
	if !ok {
		return nil, fmt.Errorf("hooks: %q is not a Filter function", ref)
	}
	return f, nil
}

// LookupDataMap resolves ref and asserts it is a DataMapFunc.
func LookupDataMap(ref string, namespaces []string) (DataMapFunc, error) {
	fn, err := Lookup(ref, namespaces)
	if err != nil {
		return nil, err
	}
	f, ok := fn.(DataMapFunc)
	if !ok {
		return nil, fmt.Errorf("hooks: %q is not a DataMap function", ref)
	}
	return f, nil
}

// LookupAllData resolves ref and asserts it is an AllDataFunc.
func LookupAllData(ref string, namespaces []string) (AllDataFunc, error) {
	fn, err := Lookup(ref, namespaces)
	if err != nil {
		return nil, err
	}
	f, ok := fn.(AllDataFunc)
	if !ok {
		return nil, fmt.Errorf("hooks: %q is not an AllData function", ref)
	}
	return f, nil
}

// LookupTargets resolves ref and asserts it is a TargetsFunc.
func LookupTargets(ref string, namespaces []string) (TargetsFunc, error) {
	fn, err := Lookup(ref, namespaces)
	if err != nil {
		return nil, err
	}
	f, ok := fn.(TargetsFunc)
	if !ok {
		return nil, fmt.Errorf("hooks: %q is not a Targets function", ref)
	}
	return f, nil
}

// LookupValue resolves ref and asserts it is a ValueFunc (used for
// format/title/image/priority hook forms).
func LookupValue(ref string, namespaces []string) (ValueFunc, error) {
	fn, err := Lookup(ref, namespaces)
	if err != nil {
		return nil, err
	}
	f, ok := fn.(ValueFunc)
	if !ok {
		return nil, fmt.Errorf("hooks: %q is not a value function", ref)
	}
	return f, nil
}

// LookupCron resolves ref and asserts it is a CronFunc.
func LookupCron(ref string, namespaces []string) (CronFunc, error) {
	fn, err := Lookup(ref, namespaces)
	if err != nil {
		return nil, err
	}
	f, ok := fn.(CronFunc)
	if !ok {
		return nil, fmt.Errorf("hooks: %q is not a cron function", ref)
	}
	return f, nil
}

// reset clears the registry; test-only, guards against cross-test leakage.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	table = map[string]any{}
}
