package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Setting is a tunable planning parameter stored as a JSON value so numeric,
// boolean and structured values share one table.
type Setting struct {
	Key         string         `db:"key" json:"key"`
	Value       types.JSONText `db:"value" json:"value"`
	Description *string        `db:"description" json:"description,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Well-known setting keys. Missing rows fall back to compiled defaults.
const (
	SettingLeadTimeIdealWeeks      = "publication_lead_time_ideal_weeks"
	SettingLeadTimeMinimumWeeks    = "publication_lead_time_minimum_weeks"
	SettingDefaultMaxDaysPerWeek   = "default_max_days_per_week"
	SettingMaxStemtestsPerDay      = "max_stemtests_per_instructor_per_day"
	SettingEnergyFullDayBlocksEve  = "energy_full_day_blocks_evening"
	SettingForecastFillRatio       = "forecast_fill_ratio"
	SettingYearlyTargets           = "yearly_targets"
	SettingScoreWeightLeadTime     = "score_weight_lead_time"
	SettingScoreWeightPreferred    = "score_weight_preferred"
	SettingScoreWeightLoad         = "score_weight_load"
	SettingScoreWeightLocation     = "score_weight_location"
	SettingScoreWarningPenalty     = "score_warning_penalty"
	SettingSuggestionMaxResults    = "suggestion_max_results"
)
