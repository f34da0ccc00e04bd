// Package intent classifies user messages with ordered trigger-phrase
// lists, evaluated case-insensitively. The lists are plain data so they
// can be tuned without touching control flow.
package intent

import "strings"

// Config holds the trigger phrases per intent, checked in order.
type Config struct {
	RequestTriggers []string
	ConfirmTriggers []string
}

// Default returns the built-in trigger lists.
func Default() Config {
	return Config{
		RequestTriggers: []string{
			"party",
			"birthday",
			"celebrat",
			"anniversary",
			"organize",
			"organise",
			"event",
			"get-together",
			"gathering",
			"reception",
		},
		ConfirmTriggers: []string{
			"confirm",
			"approve",
			"sounds good",
			"looks good",
			"go ahead",
			"yes",
			"yep",
			"ok",
			"okay",
			"sure",
			"perfect",
		},
	}
}

type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) Classifier {
	return Classifier{cfg: cfg}
}

// IsEventRequest reports whether the message reads like a new planning
// request.
func (c Classifier) IsEventRequest(text string) bool {
	return match(text, c.cfg.RequestTriggers)
}

// IsConfirmation reports whether the message confirms the current plan.
func (c Classifier) IsConfirmation(text string) bool {
	return match(text, c.cfg.ConfirmTriggers)
}

func match(text string, triggers []string) bool {
	lower := strings.ToLower(text)
	words := fields(lower)
	for _, trig := range triggers {
		if strings.ContainsRune(trig, ' ') {
			if strings.Contains(lower, trig) {
				return true
			}
			continue
		}
		// Short single-word triggers ("ok", "yes") must match a whole
		// word, otherwise they fire inside unrelated words.
		if len(trig) <= 4 {
			for _, w := range words {
				if w == trig {
					return true
				}
			}
			continue
		}
		if strings.Contains(lower, trig) {
			return true
		}
	}
	return false
}

func fields(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', '!', '?', ';', ':':
			return true
		}
		return false
	})
}
