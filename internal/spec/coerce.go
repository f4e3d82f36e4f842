// internal/spec/coerce.go
package spec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coercion primitives. Each one is total: any input yields a value.

var truthyTokens = map[string]bool{
	"true": true, "yes": true, "y": true, "on": true, "1": true, "o": true,
	"allow": true, "allowed": true, "ok": true,
	"허용": true, "가능": true, "예": true, "네": true, "있음": true,
}

var falsyTokens = map[string]bool{
	"false": true, "no": true, "n": true, "off": true, "0": true, "x": true,
	"deny": true, "denied": true, "none": true,
	"금지": true, "불가": true, "아니오": true, "아니요": true, "없음": true,
}

// String returns the trimmed string value of v, or fallback when v is not a
// non-empty string.
func String(v interface{}, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

// StringList coerces v into a list of non-empty trimmed strings. Numbers and
// booleans inside the list are rendered as text; nested objects and arrays are
// dropped.
func StringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := scalarText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Bool accepts booleans, non-zero numbers and a fixed multilingual token set.
// Anything unrecognized is false.
func Bool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case string:
		token := strings.ToLower(strings.TrimSpace(val))
		if truthyTokens[token] {
			return true
		}
		if falsyTokens[token] {
			return false
		}
		return false
	default:
		return false
	}
}

// BoundedInt rounds a numeric value and clamps it into [min, max]. The second
// return value is false when v carries no usable number.
func BoundedInt(v interface{}, min, max int) (int, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// clamp before converting; out-of-range float to int is undefined
	f = math.Max(float64(min), math.Min(float64(max), math.Round(f)))
	return int(f), true
}

// FixedList takes up to n entries from v and pads with "{label} {index}"
// until the list has exactly n entries.
func FixedList(v interface{}, n int, label string) []string {
	return padList(StringList(v), n, label)
}

func padList(items []string, n int, label string) []string {
	out := make([]string, 0, n)
	for _, item := range items {
		if len(out) == n {
			break
		}
		out = append(out, item)
	}
	for len(out) < n {
		out = append(out, fmt.Sprintf("%s %d", label, len(out)+1))
	}
	return out
}

// padDistinct is padList for lists that must not repeat an entry: generated
// labels skip any text already present.
func padDistinct(items []string, n int, label string) []string {
	out := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for _, item := range items {
		if len(out) == n {
			break
		}
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	for index := len(out) + 1; len(out) < n; index++ {
		candidate := fmt.Sprintf("%s %d", label, index)
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		out = append(out, candidate)
	}
	return out
}

func scalarText(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asSlice(v interface{}) []interface{} {
	s, ok := v.([]interface{})
	if !ok {
		return nil
	}
	return s
}
