package suggestions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ausmo/scan-engine/internal/model"
)

func at(hour int) time.Time {
	return time.Date(2026, 8, 27, hour, 30, 0, 0, time.UTC)
}

func TestSuggestFiltersByHour(t *testing.T) {
	svc := NewService([]model.Suggestion{
		{Phrase: "Good morning", Tags: []string{"greeting"}, FromHour: 5, ToHour: 11, Weight: 10},
		{Phrase: "Good night", Tags: []string{"greeting"}, FromHour: 19, ToHour: 23, Weight: 10},
	})

	morning := svc.Suggest(at(8), "")
	require.Len(t, morning, 1)
	assert.Equal(t, "Good morning", morning[0].Phrase)

	night := svc.Suggest(at(20), "")
	require.Len(t, night, 1)
	assert.Equal(t, "Good night", night[0].Phrase)

	assert.Empty(t, svc.Suggest(at(15), ""))
}

func TestSuggestFiltersByTag(t *testing.T) {
	svc := NewService(nil)

	for _, s := range svc.Suggest(at(12), "food") {
		assert.Contains(t, s.Tags, "food")
	}

	assert.Empty(t, svc.Suggest(at(12), "nonexistent-tag"))
}

func TestSuggestOrdersByWeightThenPhrase(t *testing.T) {
	svc := NewService([]model.Suggestion{
		{Phrase: "B", FromHour: 0, ToHour: 24, Weight: 5},
		{Phrase: "A", FromHour: 0, ToHour: 24, Weight: 5},
		{Phrase: "C", FromHour: 0, ToHour: 24, Weight: 9},
	})

	got := svc.Suggest(at(10), "")
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0].Phrase)
	assert.Equal(t, "A", got[1].Phrase)
	assert.Equal(t, "B", got[2].Phrase)
}

func TestHourBoundaryIsHalfOpen(t *testing.T) {
	svc := NewService([]model.Suggestion{
		{Phrase: "Lunch", FromHour: 11, ToHour: 14, Weight: 1},
	})

	assert.Len(t, svc.Suggest(at(11), ""), 1)
	assert.Empty(t, svc.Suggest(at(14), ""), "to_hour is exclusive")
}
