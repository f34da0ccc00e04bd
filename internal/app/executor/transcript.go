package executor

import (
	"fmt"
	"strings"

	"github.com/avasquez/festa-agent/internal/domain"
)

// FormatRecord renders a raw call record into the normalized transcript
// form the evaluator and the conversation log consume. It returns false
// when the record yields no usable content.
func FormatRecord(rec *domain.CallRecord) (string, bool) {
	if rec == nil || len(rec.Transcript) == 0 {
		return "", false
	}

	var lines []string
	for _, item := range rec.Transcript {
		role := item.Role
		if role == "" {
			role = item.Speaker
		}
		text := item.Message
		if text == "" {
			text = item.Text
		}
		if text == "" {
			text = item.Content
		}
		if text == "" {
			continue
		}

		switch role {
		case "agent":
			lines = append(lines, "AGENT: "+text)
		case "user":
			lines = append(lines, "CALLEE: "+text)
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(role), text))
		}
	}

	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}
