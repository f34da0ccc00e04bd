// Package taskgen turns a confirmed plan into executable tasks, one per
// contact category the plan text mentions, each paired with the candidate
// list found for that category.
package taskgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/avasquez/festa-agent/internal/domain"
)

// Category describes one kind of outbound contact work.
type Category struct {
	Name  string
	Query string // search query handed to the candidate search
	Title string // transcript heading for found candidates
	// Keywords decide whether the plan text calls for this category.
	Keywords []string
	// Goal is the first line of the calling agent's instructions.
	Goal string
}

// Categories is the ordered default set. Like the intent triggers this is
// plain data, tunable without touching control flow.
func Categories() []Category {
	return []Category{
		{
			Name:     "venue",
			Query:    "venues with party rooms / restaurants",
			Title:    "Venues found",
			Keywords: []string{"venue", "restaurant", "room", "hall", "place", "reservation", "book"},
			Goal:     "Reserve a room or table for the event described below.",
		},
		{
			Name:     "bakery",
			Query:    "professional bakeries",
			Title:    "Bakeries found",
			Keywords: []string{"cake", "bakery", "dessert", "pastry"},
			Goal:     "Order the cake described below for pickup or delivery.",
		},
	}
}

// Mentioned reports whether the plan text calls for this category.
func (c Category) Mentioned(planText string) bool {
	lower := strings.ToLower(planText)
	for _, kw := range c.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Build synthesizes tasks from the plan and the per-category search
// results. Categories with no candidates are skipped, not errors.
func Build(plan *domain.Plan, found map[string][]domain.Place) []*domain.Task {
	var tasks []*domain.Task
	for _, cat := range Categories() {
		places := found[cat.Name]
		if len(places) == 0 {
			continue
		}
		if !cat.Mentioned(plan.Text) {
			continue
		}
		tasks = append(tasks, &domain.Task{
			ID:           domain.TaskID(uuid.NewString()),
			PlanID:       plan.ID,
			Instructions: instructions(cat, plan),
			Places:       places,
		})
	}
	return tasks
}

func instructions(cat Category, plan *domain.Plan) string {
	var b strings.Builder
	b.WriteString(cat.Goal)
	b.WriteString("\n\nEVENT:\n")
	b.WriteString(plan.Request)
	b.WriteString("\n\nPLAN:\n")
	b.WriteString(plan.Text)

	if len(plan.Gathered) > 0 {
		b.WriteString("\n\nBOOKING DETAILS:\n")
		for _, key := range []string{"full_name", "phone", "date", "time", "location"} {
			if v, ok := plan.Gathered[key]; ok && v != "" {
				fmt.Fprintf(&b, "- %s: %s\n", key, v)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
