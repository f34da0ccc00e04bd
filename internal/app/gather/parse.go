package gather

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractFencedJSON finds the first ```json fenced block. It returns the
// block body, the surrounding text with the block removed, and whether a
// block was present at all.
func extractFencedJSON(text string) (block, rest string, found bool) {
	const open = "```json"
	start := strings.Index(text, open)
	if start < 0 {
		// Bare ``` fences happen too.
		start = strings.Index(text, "```")
		if start < 0 {
			return "", text, false
		}
		body := text[start+3:]
		end := strings.Index(body, "```")
		if end < 0 {
			return "", text, false
		}
		return strings.TrimSpace(body[:end]), text[:start] + body[end+3:], true
	}
	body := text[start+len(open):]
	end := strings.Index(body, "```")
	if end < 0 {
		return "", text, false
	}
	return strings.TrimSpace(body[:end]), text[:start] + body[end+3:], true
}

// decodeStringMap parses a flat JSON object, stringifying non-string
// values so numeric dates or counts do not break the merge.
func decodeStringMap(block string, out *map[string]string) error {
	dec := json.NewDecoder(strings.NewReader(block))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			(*out)[k] = val
		default:
			(*out)[k] = fmt.Sprintf("%v", val)
		}
	}
	return nil
}
