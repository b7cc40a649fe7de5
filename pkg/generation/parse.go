package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	bareKey     = regexp.MustCompile(`([{,])\s*([A-Za-z0-9_]+)\s*:`)
)

// ExtractJSON returns the JSON object embedded in model output: the first
// fenced code block when present, else the text between the first '{' and
// the last '}'.
func ExtractJSON(text string) (string, error) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// repair fixes the common ways models break JSON: leftover fences, trailing
// prose after the object and unquoted keys.
func repair(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if i := strings.LastIndex(s, "}"); i >= 0 {
		s = s[:i+1]
	}

	return quoteBareKeys(s)
}

// quoteBareKeys quotes unquoted object keys, leaving string literals alone.
func quoteBareKeys(s string) string {
	var b strings.Builder
	start := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch {
		case inString && s[i] == '\\':
			i++
		case s[i] == '"':
			if inString {
				b.WriteString(s[start : i+1])
			} else {
				b.WriteString(bareKey.ReplaceAllString(s[start:i], `$1"$2":`))
				b.WriteByte('"')
			}
			start = i + 1
			inString = !inString
		}
	}

	if inString {
		b.WriteString(s[start:])
	} else {
		b.WriteString(bareKey.ReplaceAllString(s[start:], `$1"$2":`))
	}
	return b.String()
}

// balanced returns the first brace balanced object in s. Braces inside
// strings are not special cased.
func balanced(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func parseObject(s string) (map[string]any, error) {
	var obj map[string]any
	err := json.Unmarshal([]byte(s), &obj)
	if err == nil {
		return obj, nil
	}

	if jerr := json.Unmarshal([]byte(repair(s)), &obj); jerr == nil {
		return obj, nil
	}

	if b := balanced(s); b != "" {
		if jerr := json.Unmarshal([]byte(repair(b)), &obj); jerr == nil {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrNoJSON, err)
}

// coerce maps obj onto the keys of schema. Missing keys become empty values,
// a scalar in a list field becomes a one element list and scalars in string
// fields are formatted as text.
func coerce(schema Schema, obj map[string]any) map[string]any {
	out := make(map[string]any, len(schema.Fields()))
	for _, f := range schema.Fields() {
		v := obj[f.Name]
		if f.List {
			out[f.Name] = toList(v)
		} else {
			out[f.Name] = toText(v)
		}
	}
	return out
}

func toList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := toText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := toText(t); s != "" {
			return []string{s}
		}
		return []string{}
	}
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, toText(item))
		}
		return strings.Join(parts, ", ")
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// Decode parses raw model output into the struct of schema, one of
// *DocumentSummary, *FilmInfo, *BookInfo, *PersonInfo or *GeneralInfo.
func Decode(schema Schema, raw string) (any, error) {
	text, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	obj, err := parseObject(text)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(coerce(schema, obj))
	if err != nil {
		return nil, fmt.Errorf("encoding coerced answer: %w", err)
	}

	target := schema.target()
	if err := json.Unmarshal(b, target); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", schema, err)
	}
	return target, nil
}
