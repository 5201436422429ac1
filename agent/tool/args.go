package tool

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
)

// Args is the loosely typed argument bundle decoded from a tool call. Numbers
// arrive as float64 and arrays as []any; the accessors coerce them.
type Args map[string]any

func (a Args) has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", nil
	}
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed), nil
	case json.Number:
		return typed.String(), nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	default:
		return "", contractx.Validation("Invalid value for %s: expected string", name)
	}
}

func (a Args) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, nil
	}
	switch typed := v.(type) {
	case int:
		return typed, nil
	case int32:
		return int(typed), nil
	case int64:
		return bounded(name, typed)
	case float32:
		return integral(name, float64(typed))
	case float64:
		return integral(name, typed)
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return bounded(name, n)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64); err == nil {
			return bounded(name, n)
		}
	}
	return 0, contractx.Validation("Invalid value for %s: expected integer", name)
}

// Integers outside the int32 range are rejected before conversion.
func integral(name string, f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, contractx.Validation("Invalid value for %s: expected integer", name)
	}
	return int(f), nil
}

func bounded(name string, n int64) (int, error) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, contractx.Validation("Invalid value for %s: expected integer", name)
	}
	return int(n), nil
}

// Float returns nil when the argument is absent.
func (a Args) Float(name string) (*float64, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, nil
	}
	var out float64
	switch typed := v.(type) {
	case float64:
		out = typed
	case float32:
		out = float64(typed)
	case int:
		out = float64(typed)
	case int64:
		out = float64(typed)
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return nil, contractx.Validation("Invalid value for %s: expected number", name)
		}
		out = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return nil, contractx.Validation("Invalid value for %s: expected number", name)
		}
		out = f
	default:
		return nil, contractx.Validation("Invalid value for %s: expected number", name)
	}
	return &out, nil
}

// Strings accepts an array of strings or a single comma separated string.
func (a Args) Strings(name string) ([]string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, nil
	}
	var raw []string
	switch typed := v.(type) {
	case []string:
		raw = typed
	case []any:
		for _, item := range typed {
			s, ok := item.(string)
			if !ok {
				return nil, contractx.Validation("Invalid value for %s: expected array of strings", name)
			}
			raw = append(raw, s)
		}
	case string:
		raw = strings.Split(typed, ",")
	default:
		return nil, contractx.Validation("Invalid value for %s: expected array of strings", name)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
