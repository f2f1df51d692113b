package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Arguments holds the parameters of one call, keyed by name.
type Arguments map[string]any

// ParseArguments decodes a JSON object. Empty input yields no arguments.
func ParseArguments(raw json.RawMessage) (Arguments, error) {
	args := Arguments{}
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

// String returns the named string parameter, or "" when it is absent.
func (a Arguments) String(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", name, v)
	}

	return s, nil
}

// Int returns the named parameter as an integer. Whole JSON numbers and
// numeric strings are accepted.
func (a Arguments) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("parameter %q is missing", name)
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("parameter %q must be an integer, got %v", name, n)
		}
		return int(n), nil
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be an integer: %w", name, err)
		}
		return i, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be an integer: %w", name, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("parameter %q must be a number, got %T", name, v)
	}
}
