package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"captionline/internal/generate"
)

// PreviewLength is the number of characters shown for an input in lists.
const PreviewLength = 140

// RawOutput extracts the displayable output from stored output text. JSON
// objects with an "output" field yield that field, other JSON is pretty
// printed, anything else is returned trimmed.
func RawOutput(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if !looksLikeJSON(trimmed) || !json.Valid([]byte(trimmed)) {
		return trimmed
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
		if out, ok := fields["output"]; ok {
			return outputText(out)
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return trimmed
	}
	return buf.String()
}

func looksLikeJSON(s string) bool {
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

func outputText(raw json.RawMessage) string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		lines := make([]string, len(items))
		for i, item := range items {
			lines[i] = scalarText(item)
		}
		return strings.Join(lines, "\n")
	}
	return scalarText(raw)
}

// scalarText renders a JSON value the way string concatenation would.
func scalarText(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool, float64:
		return fmt.Sprint(val)
	default:
		return string(bytes.TrimSpace(raw))
	}
}

// Preview collapses whitespace and truncates text to limit characters,
// appending an ellipsis when something was cut.
func Preview(text string, limit int) string {
	collapsed := strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
	if limit <= 0 || utf8.RuneCountInString(collapsed) <= limit {
		return collapsed
	}
	runes := []rune(collapsed)
	return string(runes[:limit]) + "…"
}

// Title is the display name of a tool, e.g. "Caption Generator".
func Title(tool generate.Tool) string {
	name := string(tool)
	if name == "" {
		return "Generator"
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:] + " Generator"
}
