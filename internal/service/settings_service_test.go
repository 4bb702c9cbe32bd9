package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

func newSettingsService() (*SettingsService, *settingRepoStub, *auditStub) {
	repo := &settingRepoStub{items: map[string]models.Setting{}}
	audit := &auditStub{}
	return NewSettingsService(repo, audit, nil), repo, audit
}

func TestPlanningDefaults(t *testing.T) {
	svc, _, _ := newSettingsService()

	p, err := svc.Planning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, p.LeadTimeIdealWeeks)
	assert.Equal(t, 4, p.LeadTimeMinimumWeeks)
	assert.Equal(t, 5, p.DefaultMaxDaysPerWeek)
	assert.Equal(t, 2, p.MaxStemtestsPerDay)
	assert.True(t, p.EnergyFullDayBlocksEve)
	assert.Equal(t, 0.75, p.ForecastFillRatio)
	assert.Equal(t, 20, p.SuggestionMaxResults)
	assert.Empty(t, p.YearlyTargets)
}

func TestPlanningUsesStoredValues(t *testing.T) {
	svc, repo, _ := newSettingsService()
	repo.items[models.SettingLeadTimeMinimumWeeks] = models.Setting{
		Key: models.SettingLeadTimeMinimumWeeks, Value: types.JSONText("6"),
	}
	repo.items[models.SettingYearlyTargets] = models.Setting{
		Key: models.SettingYearlyTargets, Value: types.JSONText(`{"2026":{"BWS":10}}`),
	}

	p, err := svc.Planning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, p.LeadTimeMinimumWeeks)
	assert.Equal(t, 10, p.YearlyTargets["2026"]["BWS"])
}

func TestListCoversEveryKnownKey(t *testing.T) {
	svc, _, _ := newSettingsService()

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, len(knownSettings))
	for _, item := range items {
		assert.NotEmpty(t, item.Description, item.Key)
		assert.NotEmpty(t, item.Value, item.Key)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, _, audit := newSettingsService()

	// Warm the cache with defaults.
	p, err := svc.Planning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, p.LeadTimeMinimumWeeks)

	_, err = svc.Update(context.Background(), models.SettingLeadTimeMinimumWeeks, json.RawMessage("6"))
	require.NoError(t, err)

	p, err = svc.Planning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, p.LeadTimeMinimumWeeks)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionSettingUpdate, audit.entries[0].Action)
}

func TestUpdateRejectsInvalidValue(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "negative weeks", key: models.SettingLeadTimeMinimumWeeks, value: "-1"},
		{name: "zero cap", key: models.SettingMaxStemtestsPerDay, value: "0"},
		{name: "ratio above one", key: models.SettingForecastFillRatio, value: "1.5"},
		{name: "not a boolean", key: models.SettingEnergyFullDayBlocksEve, value: `"yes"`},
		{name: "malformed targets", key: models.SettingYearlyTargets, value: `{"2026": "ten"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newSettingsService()

			_, err := svc.Update(context.Background(), tt.key, json.RawMessage(tt.value))
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Empty(t, repo.items)
		})
	}
}

func TestUpdateUnknownKey(t *testing.T) {
	svc, _, _ := newSettingsService()

	_, err := svc.Update(context.Background(), "banana_quota", json.RawMessage("1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBulkUpdateValidatesAllBeforeWriting(t *testing.T) {
	svc, repo, _ := newSettingsService()

	_, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateSettingsRequest{
		Items: []dto.BulkSettingItem{
			{Key: models.SettingLeadTimeMinimumWeeks, Value: json.RawMessage("6")},
			{Key: models.SettingForecastFillRatio, Value: json.RawMessage("2.0")},
		},
	})
	require.Error(t, err)
	// The valid first item must not have been written either.
	assert.Empty(t, repo.items)
}

func TestBulkUpdateWritesAllWhenValid(t *testing.T) {
	svc, repo, _ := newSettingsService()

	out, err := svc.BulkUpdate(context.Background(), dto.BulkUpdateSettingsRequest{
		Items: []dto.BulkSettingItem{
			{Key: models.SettingLeadTimeMinimumWeeks, Value: json.RawMessage("6")},
			{Key: models.SettingForecastFillRatio, Value: json.RawMessage("0.8")},
		},
	})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Len(t, repo.items, 2)
}

func TestGetFallsBackToDefault(t *testing.T) {
	svc, _, _ := newSettingsService()

	item, err := svc.Get(context.Background(), models.SettingSuggestionMaxResults)
	require.NoError(t, err)
	assert.JSONEq(t, "20", string(item.Value))
}
