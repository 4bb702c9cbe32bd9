package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/dto"
	"github.com/barnierg76/stemacteren-planning/internal/models"
	appErrors "github.com/barnierg76/stemacteren-planning/pkg/errors"
)

type settingRepository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Find(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, key string, value types.JSONText) error
}

type settingAuditLogger interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

type settingMeta struct {
	Key         string
	Description string
	Default     string
	Validate    func(json.RawMessage) error
}

func positiveInt(raw json.RawMessage) error {
	var v int
	if err := json.Unmarshal(raw, &v); err != nil || v < 1 {
		return fmt.Errorf("expects a positive integer")
	}
	return nil
}

func ratio(raw json.RawMessage) error {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil || v < 0 || v > 1 {
		return fmt.Errorf("expects a number between 0 and 1")
	}
	return nil
}

func boolean(raw json.RawMessage) error {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("expects a boolean")
	}
	return nil
}

func targetMap(raw json.RawMessage) error {
	var v map[string]map[string]int
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("expects an object of year to type-code counts")
	}
	return nil
}

var knownSettings = []settingMeta{
	{models.SettingLeadTimeIdealWeeks, "Weeks before start considered a comfortable publication lead", "8", positiveInt},
	{models.SettingLeadTimeMinimumWeeks, "Weeks before start under which publication is blocked", "4", positiveInt},
	{models.SettingDefaultMaxDaysPerWeek, "Weekly working day cap for persons without their own", "5", positiveInt},
	{models.SettingMaxStemtestsPerDay, "Voice test sessions one instructor may run per day", "2", positiveInt},
	{models.SettingEnergyFullDayBlocksEve, "Whether a high intensity day blocks the same evening", "true", boolean},
	{models.SettingForecastFillRatio, "Expected seat fill for unconfirmed workshops", "0.75", ratio},
	{models.SettingYearlyTargets, "Planned workshop counts per year and type code", "{}", targetMap},
	{models.SettingScoreWeightLeadTime, "Suggestion score weight for publication lead", "0.3", ratio},
	{models.SettingScoreWeightPreferred, "Suggestion score bonus for preferred availability", "0.1", ratio},
	{models.SettingScoreWeightLoad, "Suggestion score weight for low instructor load", "0.05", ratio},
	{models.SettingScoreWeightLocation, "Suggestion score bonus for an instructor's preferred location", "0.1", ratio},
	{models.SettingScoreWarningPenalty, "Suggestion score penalty per warning", "0.15", ratio},
	{models.SettingSuggestionMaxResults, "Maximum candidates a suggestion run returns", "20", positiveInt},
}

// PlanningSettings is one resolved snapshot of every planning parameter.
// Checkers receive it by value so a run never sees a mid-flight change.
type PlanningSettings struct {
	LeadTimeIdealWeeks     int
	LeadTimeMinimumWeeks   int
	DefaultMaxDaysPerWeek  int
	MaxStemtestsPerDay     int
	EnergyFullDayBlocksEve bool
	ForecastFillRatio      float64
	YearlyTargets          map[string]map[string]int
	ScoreWeightLeadTime    float64
	ScoreWeightPreferred   float64
	ScoreWeightLoad        float64
	ScoreWeightLocation    float64
	ScoreWarningPenalty    float64
	SuggestionMaxResults   int
}

// SettingsService resolves planning parameters with compiled defaults and a
// cache invalidated on every write.
type SettingsService struct {
	repo   settingRepository
	audit  settingAuditLogger
	logger *zap.Logger

	mu     sync.RWMutex
	cache  map[string]json.RawMessage
	loaded bool
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingRepository, audit settingAuditLogger, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, audit: audit, logger: logger}
}

// List returns every known setting with stored or default values.
func (s *SettingsService) List(ctx context.Context) ([]dto.SettingItem, error) {
	values, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SettingItem, 0, len(knownSettings))
	for _, meta := range knownSettings {
		value, ok := values[meta.Key]
		if !ok {
			value = json.RawMessage(meta.Default)
		}
		items = append(items, dto.SettingItem{Key: meta.Key, Value: value, Description: meta.Description})
	}
	return items, nil
}

// Get returns one setting, falling back to its compiled default.
func (s *SettingsService) Get(ctx context.Context, key string) (*dto.SettingItem, error) {
	meta, err := requireKnownKey(key)
	if err != nil {
		return nil, err
	}
	values, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	value, ok := values[key]
	if !ok {
		value = json.RawMessage(meta.Default)
	}
	return &dto.SettingItem{Key: key, Value: value, Description: meta.Description}, nil
}

// Update stores one setting value and invalidates the cache.
func (s *SettingsService) Update(ctx context.Context, key string, value json.RawMessage) (*dto.SettingItem, error) {
	meta, err := requireKnownKey(key)
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(value); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s %s", key, err.Error()))
	}

	var old json.RawMessage
	if prev, err := s.repo.Find(ctx, key); err == nil {
		old = json.RawMessage(prev.Value)
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch setting")
	}

	if err := s.repo.Upsert(ctx, key, types.JSONText(value)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update setting")
	}
	s.invalidate()
	s.emitAudit(ctx, key, old, value)

	return &dto.SettingItem{Key: key, Value: value, Description: meta.Description}, nil
}

// BulkUpdate stores several settings, validating all before writing any.
func (s *SettingsService) BulkUpdate(ctx context.Context, req dto.BulkUpdateSettingsRequest) ([]dto.SettingItem, error) {
	for _, item := range req.Items {
		meta, err := requireKnownKey(item.Key)
		if err != nil {
			return nil, err
		}
		if err := meta.Validate(item.Value); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s %s", item.Key, err.Error()))
		}
	}
	out := make([]dto.SettingItem, 0, len(req.Items))
	for _, item := range req.Items {
		updated, err := s.Update(ctx, item.Key, item.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, *updated)
	}
	return out, nil
}

// Reload drops the cache so the next read hits the database.
func (s *SettingsService) Reload() {
	s.invalidate()
}

// Planning resolves the full parameter snapshot used by rule runs.
func (s *SettingsService) Planning(ctx context.Context) (PlanningSettings, error) {
	values, err := s.snapshot(ctx)
	if err != nil {
		return PlanningSettings{}, err
	}
	p := PlanningSettings{YearlyTargets: map[string]map[string]int{}}
	decodeInt(values, models.SettingLeadTimeIdealWeeks, &p.LeadTimeIdealWeeks)
	decodeInt(values, models.SettingLeadTimeMinimumWeeks, &p.LeadTimeMinimumWeeks)
	decodeInt(values, models.SettingDefaultMaxDaysPerWeek, &p.DefaultMaxDaysPerWeek)
	decodeInt(values, models.SettingMaxStemtestsPerDay, &p.MaxStemtestsPerDay)
	decodeBool(values, models.SettingEnergyFullDayBlocksEve, &p.EnergyFullDayBlocksEve)
	decodeFloat(values, models.SettingForecastFillRatio, &p.ForecastFillRatio)
	decodeInt(values, models.SettingSuggestionMaxResults, &p.SuggestionMaxResults)
	decodeFloat(values, models.SettingScoreWeightLeadTime, &p.ScoreWeightLeadTime)
	decodeFloat(values, models.SettingScoreWeightPreferred, &p.ScoreWeightPreferred)
	decodeFloat(values, models.SettingScoreWeightLoad, &p.ScoreWeightLoad)
	decodeFloat(values, models.SettingScoreWeightLocation, &p.ScoreWeightLocation)
	decodeFloat(values, models.SettingScoreWarningPenalty, &p.ScoreWarningPenalty)
	if raw, ok := values[models.SettingYearlyTargets]; ok {
		_ = json.Unmarshal(raw, &p.YearlyTargets)
	}
	return p, nil
}

func (s *SettingsService) snapshot(ctx context.Context) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	if s.loaded {
		out := s.cache
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	values := make(map[string]json.RawMessage, len(knownSettings))
	for _, meta := range knownSettings {
		values[meta.Key] = json.RawMessage(meta.Default)
	}
	for _, row := range rows {
		values[row.Key] = json.RawMessage(row.Value)
	}

	s.mu.Lock()
	s.cache = values
	s.loaded = true
	s.mu.Unlock()
	return values, nil
}

func (s *SettingsService) invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.loaded = false
	s.mu.Unlock()
}

func (s *SettingsService) emitAudit(ctx context.Context, key string, old, updated json.RawMessage) {
	if s.audit == nil {
		return
	}
	keyCopy := key
	entry := &models.AuditLog{
		Action:     models.AuditActionSettingUpdate,
		Resource:   "setting",
		ResourceID: &keyCopy,
		OldValues:  old,
		NewValues:  updated,
		IPAddress:  "system",
		UserAgent:  "settings-service",
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record setting audit", zap.Error(err))
	}
}

func requireKnownKey(key string) (settingMeta, error) {
	for _, meta := range knownSettings {
		if meta.Key == key {
			return meta, nil
		}
	}
	return settingMeta{}, appErrors.Clone(appErrors.ErrValidation, "unsupported setting key")
}

func decodeInt(values map[string]json.RawMessage, key string, dst *int) {
	if raw, ok := values[key]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}

func decodeFloat(values map[string]json.RawMessage, key string, dst *float64) {
	if raw, ok := values[key]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}

func decodeBool(values map[string]json.RawMessage, key string, dst *bool) {
	if raw, ok := values[key]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}
