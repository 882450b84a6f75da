// Package suggestions offers context-aware phrase suggestions for the
// communication board. The rules are plain data: a phrase is suggested when
// the clock falls inside its time window and it matches the requested tag.
package suggestions

import (
	"sort"
	"time"

	"github.com/ausmo/scan-engine/internal/model"
)

// DefaultRules is the built-in suggestion table, loaded at startup.
var DefaultRules = []model.Suggestion{
	{Phrase: "Good morning", Tags: []string{"greeting"}, FromHour: 5, ToHour: 11, Weight: 10},
	{Phrase: "I want breakfast", Tags: []string{"food"}, FromHour: 6, ToHour: 10, Weight: 8},
	{Phrase: "I want lunch", Tags: []string{"food"}, FromHour: 11, ToHour: 14, Weight: 8},
	{Phrase: "I want a snack", Tags: []string{"food"}, FromHour: 0, ToHour: 24, Weight: 4},
	{Phrase: "I want dinner", Tags: []string{"food"}, FromHour: 17, ToHour: 20, Weight: 8},
	{Phrase: "I'm thirsty", Tags: []string{"food", "need"}, FromHour: 0, ToHour: 24, Weight: 6},
	{Phrase: "I need the bathroom", Tags: []string{"need"}, FromHour: 0, ToHour: 24, Weight: 9},
	{Phrase: "I want to play", Tags: []string{"activity"}, FromHour: 9, ToHour: 19, Weight: 5},
	{Phrase: "I want to go outside", Tags: []string{"activity"}, FromHour: 9, ToHour: 18, Weight: 5},
	{Phrase: "I'm tired", Tags: []string{"need"}, FromHour: 12, ToHour: 24, Weight: 5},
	{Phrase: "Good night", Tags: []string{"greeting"}, FromHour: 19, ToHour: 23, Weight: 10},
	{Phrase: "I love you", Tags: []string{"social"}, FromHour: 0, ToHour: 24, Weight: 7},
	{Phrase: "Help me please", Tags: []string{"need"}, FromHour: 0, ToHour: 24, Weight: 9},
	{Phrase: "I feel sick", Tags: []string{"need"}, FromHour: 0, ToHour: 24, Weight: 6},
	{Phrase: "More please", Tags: []string{"social", "need"}, FromHour: 0, ToHour: 24, Weight: 7},
	{Phrase: "All done", Tags: []string{"social"}, FromHour: 0, ToHour: 24, Weight: 7},
}

// Service filters and ranks a rule table.
type Service struct {
	rules []model.Suggestion
}

func NewService(rules []model.Suggestion) *Service {
	if rules == nil {
		rules = DefaultRules
	}
	return &Service{rules: rules}
}

// Suggest returns the phrases matching the hour of now and, when tag is
// non-empty, carrying that tag. Results are ordered by weight descending,
// then phrase for a stable order.
func (s *Service) Suggest(now time.Time, tag string) []model.Suggestion {
	hour := now.Hour()

	var matched []model.Suggestion
	for _, rule := range s.rules {
		if hour < rule.FromHour || hour >= rule.ToHour {
			continue
		}
		if tag != "" && !hasTag(rule, tag) {
			continue
		}
		matched = append(matched, rule)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Weight != matched[j].Weight {
			return matched[i].Weight > matched[j].Weight
		}
		return matched[i].Phrase < matched[j].Phrase
	})

	return matched
}

func hasTag(rule model.Suggestion, tag string) bool {
	for _, t := range rule.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
