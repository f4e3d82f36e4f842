// internal/transmute/parse.go
package transmute

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

const fence = "```"

// StripFences removes a leading code fence (with or without a language tag)
// and a trailing fence.
func StripFences(text string) string {
	t := strings.TrimSpace(text)

	if strings.HasPrefix(t, fence) {
		t = strings.TrimPrefix(t, fence)
		if i := strings.IndexByte(t, '\n'); i >= 0 && isLanguageTag(t[:i]) {
			t = t[i+1:]
		} else {
			t = strings.TrimLeftFunc(t, isTagRune)
		}
	}

	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, fence)
	return strings.TrimSpace(t)
}

func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !isTagRune(r) {
			return false
		}
	}
	return true
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+'
}

// ParseRaw strips fences and decodes text as JSON. Any JSON value is
// accepted; shape problems are left to the normalizer.
func ParseRaw(text string) (interface{}, error) {
	body := StripFences(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidJSON)
	}

	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return v, nil
}
