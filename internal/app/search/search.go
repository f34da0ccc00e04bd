// Package search finds contactable candidates (venues, bakeries) for a
// task category. The model does the searching; a second, stricter call
// reshapes its free-text answer into JSON.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avasquez/festa-agent/internal/domain"
	"github.com/avasquez/festa-agent/internal/observability"
)

const searchPromptTemplate = `Find the %d best %s in %s suitable for a birthday party.

For each one provide:
- Name
- Contact phone number
- Website (if available)

IMPORTANT:
- Only REAL, EXISTING places
- With current phone numbers
- Places that take party reservations

Answer format (EXACTLY this shape):
1. [Name] - phone: [number] - www.[site]
2. [Name] - phone: [number] - www.[site]
3. [Name] - phone: [number] - www.[site]

If there is no website, use: "no website"
`

const parsePromptTemplate = `Extract the places from the text below as JSON.

Text to parse:
%s

Return ONLY a JSON array (no extra text) shaped like:
[
  {"name": "Place name", "phone": "+1 555 0100", "website": "www.site.com"},
  {"name": "Place name 2", "phone": "+1 555 0101", "website": null}
]

IMPORTANT:
- Only the JSON array, no markdown, no fences
- Use null when there is no website
- Phone numbers without square brackets
`

type Service struct {
	llm   domain.LLMClient
	count int
}

func NewService(llm domain.LLMClient, count int) *Service {
	if count <= 0 {
		count = 3
	}
	return &Service{llm: llm, count: count}
}

// Search looks up candidates of the given category near the location.
// An empty result is valid; every failure degrades to an empty result.
func (s *Service) Search(ctx context.Context, location, category string) ([]domain.Place, error) {
	log := observability.LoggerFromContext(ctx).With(
		"location", location,
		"category", category,
	)
	log.Info("searching for candidates", "count", s.count)

	raw, err := s.llm.Generate(ctx, domain.GenerateRequest{
		Prompt: fmt.Sprintf(searchPromptTemplate, s.count, category, location),
	})
	if err != nil {
		log.Error("search call failed", "error", err)
		return nil, err
	}

	places, err := s.parseResults(ctx, raw)
	if err != nil {
		log.Error("search result parsing failed", "error", err)
		return nil, err
	}
	if len(places) > s.count {
		places = places[:s.count]
	}

	log.Info("search finished", "found", len(places))
	return places, nil
}

type placeDoc struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Website *string `json:"website"`
}

func (s *Service) parseResults(ctx context.Context, raw string) ([]domain.Place, error) {
	reply, err := s.llm.Generate(ctx, domain.GenerateRequest{
		Prompt: fmt.Sprintf(parsePromptTemplate, raw),
	})
	if err != nil {
		return nil, err
	}
	return ParsePlaces(reply)
}

// ParsePlaces decodes the model's JSON array, stripping markdown fences
// the model sometimes wraps it in and dropping entries without a name or
// phone number.
func ParsePlaces(reply string) ([]domain.Place, error) {
	body := stripFences(reply)

	var docs []placeDoc
	if err := json.Unmarshal([]byte(body), &docs); err != nil {
		return nil, fmt.Errorf("decoding place list: %w", err)
	}

	var places []domain.Place
	for _, d := range docs {
		name := strings.TrimSpace(d.Name)
		phone := strings.TrimSpace(d.Phone)
		if name == "" || phone == "" {
			continue
		}
		p := domain.Place{Name: name, Phone: phone}
		if d.Website != nil {
			p.Website = strings.TrimSpace(*d.Website)
		}
		places = append(places, p)
	}
	return places, nil
}

func stripFences(reply string) string {
	body := strings.TrimSpace(reply)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}
	return strings.TrimSpace(body)
}

// FormatPlaces renders a candidate list for the conversation transcript.
func FormatPlaces(places []domain.Place, title string) string {
	if len(places) == 0 {
		return "No suitable places found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n\n", title)
	for i, p := range places {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
		if p.Phone != "" {
			fmt.Fprintf(&b, "   phone: %s\n", p.Phone)
		}
		if p.Website != "" {
			fmt.Fprintf(&b, "   web: %s\n", p.Website)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
