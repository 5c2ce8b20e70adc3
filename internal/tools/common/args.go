package common

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RecordIDFromArgs returns the record a tool call targets: the "id"
// argument, or "call_sid" for recording tools.
func RecordIDFromArgs(args map[string]any) string {
	for _, key := range []string{"id", "call_sid"} {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// OptionalString returns a pointer to the string argument key, or nil when
// it is absent. Language models sometimes send null for omitted arguments;
// that counts as absent too.
func OptionalString(args map[string]any, key string) *string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return &s
}

// OptionalBool returns the boolean argument key, or nil when absent. The
// strings "true", "yes" and "1" are accepted as well as JSON booleans.
func OptionalBool(args map[string]any, key string) (*bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch b := v.(type) {
	case bool:
		return &b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			t := true
			return &t, nil
		case "false", "no", "0":
			f := false
			return &f, nil
		}
	}
	return nil, fmt.Errorf("%s must be true or false", key)
}

// OptionalInt64 returns the integer argument key, or nil when absent.
func OptionalInt64(args map[string]any, key string) (*int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n int64
	switch x := v.(type) {
	case float64:
		if x != float64(int64(x)) {
			return nil, fmt.Errorf("%s must be a whole number", key)
		}
		n = int64(x)
	case int:
		n = int64(x)
	case int64:
		n = x
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", key)
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", key)
		}
		n = i
	default:
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
	return &n, nil
}
