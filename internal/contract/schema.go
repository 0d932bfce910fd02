package contract

import (
	"encoding/json"
	"reflect"
	"regexp"
	"sort"

	"github.com/trajectly/trajectly/internal/specconfig"
	"github.com/trajectly/trajectly/internal/verdict"
)

// validateArgs checks a tool call's kwargs against schema, emitting
// one violation per failing field, anchored at eventIndex. Order
// within a call is required-then-typed-then-ranged-then-enumerated-
// then-pattern, grounded on Gurpartap-agentframe/agent/tool_validation.go's
// required-then-typed validation order, extended with range/enum/regex
// checks.
func validateArgs(eventIndex int, kwargs map[string]any, schema specconfig.ArgSchema) []verdict.Violation {
	var out []verdict.Violation

	required := append([]string{}, schema.Required...)
	sort.Strings(required)
	for _, field := range required {
		if _, ok := kwargs[field]; !ok {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeArgRequired,
				EventIndex: eventIndex,
				Message:    "missing required argument " + field,
			})
		}
	}

	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := kwargs[key]

		if expected, ok := schema.Type[key]; ok && !matchesArgType(expected, value) {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeArgType,
				EventIndex: eventIndex,
				Message:    "argument " + key + " must be " + expected,
			})
			continue
		}

		if n, ok := asFloat(value); ok {
			if min, hasMin := schema.Min[key]; hasMin && n < min {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeArgRange,
					EventIndex: eventIndex,
					Message:    "argument " + key + " is below the configured minimum",
				})
			}
			if max, hasMax := schema.Max[key]; hasMax && n > max {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeArgRange,
					EventIndex: eventIndex,
					Message:    "argument " + key + " exceeds the configured maximum",
				})
			}
		}

		if allowed, ok := schema.Enum[key]; ok {
			s, isStr := value.(string)
			if !isStr || !contains(allowed, s) {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeArgEnum,
					EventIndex: eventIndex,
					Message:    "argument " + key + " is not one of the allowed values",
				})
			}
		}

		if pattern, ok := schema.Regex[key]; ok {
			s, isStr := value.(string)
			re, err := regexp.Compile(pattern)
			if !isStr || err != nil || !re.MatchString(s) {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeArgRegex,
					EventIndex: eventIndex,
					Message:    "argument " + key + " does not match the configured pattern",
				})
			}
		}
	}
	return out
}

// kwargsOf extracts the keyword-argument map from a tool_called
// event's input field, which is shaped {args, kwargs}.
func kwargsOf(input any) map[string]any {
	m, ok := input.(map[string]any)
	if !ok {
		return nil
	}
	if kwargs, ok := m["kwargs"].(map[string]any); ok {
		return kwargs
	}
	return m
}

func contains(items []string, s string) bool {
	for _, i := range items {
		if i == s {
			return true
		}
	}
	return false
}

func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func matchesArgType(expected string, value any) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		return isNumber(value)
	case "integer":
		return isInteger(value)
	case "object":
		if value == nil {
			return false
		}
		if _, ok := value.(map[string]any); ok {
			return true
		}
		return reflect.TypeOf(value).Kind() == reflect.Map
	case "array":
		if value == nil {
			return false
		}
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Array || kind == reflect.Slice
	default:
		return true
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case json.Number:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32, float64:
		return true
	default:
		return false
	}
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case json.Number:
		_, err := v.Int64()
		return err == nil
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}
