package handler

import (
	"fmt"
	"strings"

	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/topic"
)

// TargetSpec is one of three mutually exclusive forms (spec.md §3):
// a static ordered list, a topic-keyed mapping resolved by specificity
// at dispatch time (§4.5), or a dynamic function reference.
type TargetSpec struct {
	Static     []model.TargetPair
	Mapping    map[string][]model.TargetPair
	DynamicRef string
}

func (s TargetSpec) IsDynamic() bool { return s.DynamicRef != "" }
func (s TargetSpec) IsMapping() bool { return s.Mapping != nil }
func (s TargetSpec) IsStatic() bool  { return !s.IsDynamic() && !s.IsMapping() }

// parseTargetPair turns "service", "service:target", or a two-element
// []any{service, target} into a TargetPair.
func parseTargetPair(raw any) (model.TargetPair, error) {
	switch v := raw.(type) {
	case string:
		if i := strings.IndexByte(v, ':'); i >= 0 {
			return model.TargetPair{Service: v[:i], TargetKey: v[i+1:]}, nil
		}
		return model.TargetPair{Service: v}, nil
	case []any:
		switch len(v) {
		case 1:
			return parseTargetPair(v[0])
		case 2:
			svc, ok := v[0].(string)
			if !ok {
				return model.TargetPair{}, fmt.Errorf("target pair service must be a string, got %T", v[0])
			}
			key, _ := v[1].(string)
			return model.TargetPair{Service: svc, TargetKey: key}, nil
		default:
			return model.TargetPair{}, fmt.Errorf("target pair must have 1 or 2 elements, got %d", len(v))
		}
	default:
		return model.TargetPair{}, fmt.Errorf("unsupported target pair value %T", raw)
	}
}

// parseTargetList accepts either a single pair value or a list of pairs.
func parseTargetList(raw any) ([]model.TargetPair, error) {
	list, ok := raw.([]any)
	if !ok {
		pair, err := parseTargetPair(raw)
		if err != nil {
			return nil, err
		}
		return []model.TargetPair{pair}, nil
	}

	// A two-element []any could be a single pair ("svc", "key") or a
	// list of two single-element pairs; disambiguate by element type:
	// if every element is itself a string/[]any pair-shape AND the
	// first element is not a bare service/target string pair, we
	// still prefer treating a flat []any as a list of pairs unless it
	// looks exactly like {string, string} meant as one pair — mqttwarn
	// configs write single pairs as "svc:key", not as a bracketed
	// pair, so a raw list here is always a list of targets.
	out := make([]model.TargetPair, 0, len(list))
	for _, item := range list {
		pair, err := parseTargetPair(item)
		if err != nil {
			return nil, err
		}
		out = append(out, pair)
	}
	return out, nil
}

// parseTargetSpec classifies the permissively-parsed `targets` config
// value into its TargetSpec form.
func parseTargetSpec(raw any) (TargetSpec, error) {
	switch v := raw.(type) {
	case nil:
		return TargetSpec{}, fmt.Errorf("targets: value is required")
	case string:
		if strings.HasSuffix(strings.TrimSpace(v), "()") {
			return TargetSpec{DynamicRef: v}, nil
		}
		list, err := parseTargetList(v)
		if err != nil {
			return TargetSpec{}, err
		}
		return TargetSpec{Static: list}, nil
	case map[string]any:
		mapping := make(map[string][]model.TargetPair, len(v))
		for filter, val := range v {
			list, err := parseTargetList(val)
			if err != nil {
				return TargetSpec{}, fmt.Errorf("targets[%q]: %w", filter, err)
			}
			mapping[filter] = list
		}
		return TargetSpec{Mapping: mapping}, nil
	case []any:
		list, err := parseTargetList(v)
		if err != nil {
			return TargetSpec{}, err
		}
		return TargetSpec{Static: list}, nil
	default:
		return TargetSpec{}, fmt.Errorf("targets: unsupported value %T", raw)
	}
}

// ResolveMapping picks the single best-matching filter key for topicStr
// per §4.5's total order: deeper filters win; ties break by treating
// '#' as the lowest-sorting byte and '+' as the next, so a literal
// level outranks a single-level wildcard, which outranks a trailing
// multi-level wildcard.
func (s TargetSpec) ResolveMapping(topicStr string) ([]model.TargetPair, bool) {
	var (
		bestPairs  []model.TargetPair
		bestLevels int
		bestKey    string
		found      bool
	)
	for filter, pairs := range s.Mapping {
		if !topic.Match(filter, topicStr) {
			continue
		}
		levels := topic.Levels(filter)
		key := specificityKey(filter)
		if !found || levels > bestLevels || (levels == bestLevels && key > bestKey) {
			bestPairs, bestLevels, bestKey, found = pairs, levels, key, true
		}
	}
	return bestPairs, found
}

func specificityKey(filter string) string {
	var b strings.Builder
	for _, r := range filter {
		switch r {
		case '#':
			b.WriteByte(0x01)
		case '+':
			b.WriteByte(0x02)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
