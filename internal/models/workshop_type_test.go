package models

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
)

func TestDecodedRules(t *testing.T) {
	wt := WorkshopType{Rules: types.JSONText(`{
		"excluded_start_days": ["wednesday"],
		"day_exclusion_scope": "ALL_SESSIONS",
		"fixed_session_instructors": {"3": "person-douwe"},
		"stemtest_sessions": [3],
		"high_intensity": true
	}`)}

	rules := wt.DecodedRules()
	assert.Equal(t, []string{"wednesday"}, rules.ExcludedStartDays)
	assert.Equal(t, DayExclusionAllSessions, rules.DayExclusionScope)
	assert.Equal(t, "person-douwe", rules.FixedSessionInstructors["3"])
	assert.True(t, rules.IsStemtestSession(3))
	assert.False(t, rules.IsStemtestSession(1))
	assert.True(t, rules.HighIntensity)
}

func TestDecodedRulesDefaultsScope(t *testing.T) {
	wt := WorkshopType{Rules: types.JSONText(`{"excluded_start_days": ["monday"]}`)}
	assert.Equal(t, DayExclusionFirstSession, wt.DecodedRules().DayExclusionScope)
}

func TestDecodedRulesToleratesGarbage(t *testing.T) {
	wt := WorkshopType{Rules: types.JSONText(`{not json`)}
	rules := wt.DecodedRules()
	assert.Empty(t, rules.ExcludedStartDays)

	empty := WorkshopType{}
	assert.Empty(t, empty.DecodedRules().ExcludedStartDays)
}

func TestExcludesDay(t *testing.T) {
	rules := TypeRules{ExcludedStartDays: []string{"Wednesday", "saturday"}}
	wednesday := time.Date(2026, 11, 11, 0, 0, 0, 0, time.UTC)
	thursday := wednesday.AddDate(0, 0, 1)
	saturday := wednesday.AddDate(0, 0, 3)
	assert.True(t, rules.ExcludesDay(wednesday))
	assert.False(t, rules.ExcludesDay(thursday))
	assert.True(t, rules.ExcludesDay(saturday))
}
