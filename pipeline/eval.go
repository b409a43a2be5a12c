package pipeline

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/hooks"
)

// Interpolate replaces every `{key}` placeholder in s with data[key]'s
// string form. A missing key is an interpolation failure (§4.4 step d).
func Interpolate(s string, data map[string]any) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		open := strings.IndexByte(s[i:], '{')
		if open < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+open])
		start := i + open + 1
		close := strings.IndexByte(s[start:], '}')
		if close < 0 {
			return "", fmt.Errorf("interpolate %q: unterminated placeholder", s)
		}
		key := s[start : start+close]
		val, ok := data[key]
		if !ok {
			return "", fmt.Errorf("interpolate %q: missing key %q", s, key)
		}
		b.WriteString(stringify(val))
		i = start + close + 1
	}
	return unescapeNewlines(b.String()), nil
}

// Stringify renders any data-map value (string, []byte, or anything
// else via fmt) the way title/image/message results are turned into
// plain strings before being handed to a job.
func Stringify(v any) string {
	return stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// EvalValue evaluates a handler option's raw configured value against
// data per §4.6's discriminator table: mapping literal, dotted
// function reference, `{…}` placeholder string, or default.
func EvalValue(raw string, data map[string]any, namespaces []string, def any) any {
	if raw == "" {
		return def
	}

	parsed := config.ParseLiteral(raw)
	switch v := parsed.(type) {
	case map[string]any:
		// A placeholder string such as "{room}:{value}" also parses as a
		// brace literal; when it interpolates against data, it is one.
		if out, err := Interpolate(raw, data); err == nil {
			return unescapeNewlines(out)
		}
		input := stringify(data["payload"])
		if out, ok := v[input]; ok {
			return out
		}
		return input

	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasSuffix(trimmed, "()") && strings.Contains(trimmed, ":") {
			fn, err := hooks.LookupValue(trimmed, namespaces)
			if err != nil {
				return def
			}
			return safeValueCall(fn, data["payload"], data)
		}
		if strings.Contains(v, "{") {
			out, err := Interpolate(v, data)
			if err != nil {
				return def
			}
			return unescapeNewlines(out)
		}
		return unescapeNewlines(v)

	default:
		return parsed
	}
}

func safeValueCall(fn hooks.ValueFunc, value any, data map[string]any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()
	return fn(value, data)
}

// EvalPriority evaluates the priority option; float results are
// truncated, and anything else that does not parse as an integer
// coerces to 0 (§4.6 defaults).
func EvalPriority(raw string, data map[string]any, namespaces []string) int {
	v := EvalValue(raw, data, namespaces, 0)
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// RenderTemplate executes tmpl against data, returning its output.
func RenderTemplate(tmpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
