// Package jsonx extracts JSON documents from model output, which routinely
// arrives wrapped in markdown fences or explanatory prose.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject means the input contains no complete JSON object.
var ErrNoObject = errors.New("jsonx: no JSON object found")

// ExtractObject returns the first balanced JSON object in s. String
// literals are respected, so braces inside values do not confuse the scan.
func ExtractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoObject
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoObject
}

// Unmarshal extracts the first JSON object in s and decodes it into v.
func Unmarshal(s string, v any) error {
	obj, err := ExtractObject(s)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(obj), v)
}
