package dto

import "encoding/json"

// SettingItem represents one planning parameter exposed via the API.
type SettingItem struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

// UpdateSettingRequest replaces a single setting value.
type UpdateSettingRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

// BulkUpdateSettingsRequest replaces several settings at once.
type BulkUpdateSettingsRequest struct {
	Items []BulkSettingItem `json:"items" validate:"required,min=1,dive"`
}

// BulkSettingItem is one key/value pair in a bulk update.
type BulkSettingItem struct {
	Key   string          `json:"key" validate:"required"`
	Value json.RawMessage `json:"value" validate:"required"`
}
