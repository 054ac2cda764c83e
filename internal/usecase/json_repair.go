package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"everpedia/internal/domain"
)

// RepairJSON applies one structural repair pass to model output that should
// be a JSON object: code fences are stripped, anything before the first brace
// is dropped, an unterminated string is closed, and unbalanced braces and
// brackets are closed in nesting order. A trailing comma left by truncation
// is removed so the close is parseable. The result is not guaranteed to
// parse; callers treat a second failure as a hard error.
func RepairJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip markdown code fences the model loves to add.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Drop prose before the object starts.
	if idx := strings.IndexAny(s, "{["); idx > 0 {
		s = s[idx:]
	}
	if s == "" {
		return s
	}

	var stack []rune
	inString := false
	escaped := false
	lastComplete := -1
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, r)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				lastComplete = i
			}
		}
	}

	if len(stack) == 0 && !inString {
		if lastComplete >= 0 {
			return s[:lastComplete+1]
		}
		return s
	}

	// Truncated output: close the open string, drop a dangling comma or
	// half-written field, then close remaining scopes innermost first.
	if inString {
		s += "\""
	}
	trimmed := strings.TrimRight(s, " \t\r\n")
	trimmed = strings.TrimRight(trimmed, ",")
	// A field name with no value ("key": ) cannot be closed validly; cut it.
	if strings.HasSuffix(strings.TrimRight(trimmed, " \t\r\n"), ":") {
		if idx := strings.LastIndexAny(trimmed, ",{["); idx >= 0 {
			if trimmed[idx] == ',' {
				trimmed = trimmed[:idx]
			} else {
				trimmed = trimmed[:idx+1]
			}
		}
	}
	s = trimmed
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// DecodeOutline parses (repairing once) the outline JSON the model returns.
func DecodeOutline(raw string) (*domain.Outline, error) {
	var outline domain.Outline
	if err := decodeWithRepair(raw, &outline); err != nil {
		return nil, err
	}
	if len(outline.Sections) == 0 {
		return nil, fmt.Errorf("%w: outline has no sections", domain.ErrMalformedOutput)
	}
	for i, s := range outline.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return nil, fmt.Errorf("%w: outline section %d has no title", domain.ErrMalformedOutput, i)
		}
	}
	return &outline, nil
}

// infoboxPayload matches the loose shape the model produces for infoboxes:
// a flat object of field name to value, with optional image hints.
type infoboxPayload map[string]any

// DecodeInfobox parses (repairing once) the infobox JSON. Field order follows
// the raw payload so the panel reads the way the model wrote it.
func DecodeInfobox(raw string) (*domain.Infobox, error) {
	repaired := RepairJSON(raw)
	var payload infoboxPayload
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}

	box := &domain.Infobox{}
	for _, name := range objectKeyOrder(repaired) {
		value, ok := payload[name]
		if !ok {
			continue
		}
		switch name {
		case "image":
			if s, ok := value.(string); ok {
				box.Image, box.ImageExt = splitImageName(s)
			}
		case "image_alt":
			if s, ok := value.(string); ok {
				box.ImageAlt = s
			}
		default:
			box.Fields = append(box.Fields, domain.InfoboxField{
				Name:  name,
				Value: stringifyField(value),
			})
		}
	}
	return box, nil
}

func decodeWithRepair(raw string, v any) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), v); err == nil {
		return nil
	}
	repaired := RepairJSON(raw)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	return nil
}

// objectKeyOrder returns top-level object keys in document order, which
// encoding/json maps discard.
func objectKeyOrder(raw string) []string {
	dec := json.NewDecoder(strings.NewReader(raw))
	var keys []string
	depth := 0
	expectKey := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				depth++
				expectKey = depth == 1
			case '}':
				depth--
				expectKey = false
			case '[', ']':
				expectKey = false
			}
		case string:
			if depth == 1 && expectKey {
				keys = append(keys, t)
				// The next token is this key's value; skip it wholesale.
				var v json.RawMessage
				if err := dec.Decode(&v); err != nil {
					return keys
				}
			}
		}
	}
	return keys
}

func stringifyField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		raw, _ := json.Marshal(t)
		return string(raw)
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case nil:
		return ""
	default:
		raw, _ := json.Marshal(t)
		return string(raw)
	}
}

func splitImageName(name string) (slug, ext string) {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndex(name, "."); idx > 0 {
		return domain.TitleToSlug(name[:idx]), strings.ToLower(name[idx+1:])
	}
	return domain.TitleToSlug(name), "webp"
}
