package models

// Pagination describes list pagination metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// AuditAction constants represent actions to be logged.
const (
	AuditActionWorkshopCreate     = "WORKSHOP_CREATE"
	AuditActionWorkshopUpdate     = "WORKSHOP_UPDATE"
	AuditActionWorkshopCancel     = "WORKSHOP_CANCEL"
	AuditActionWorkshopTransition = "WORKSHOP_TRANSITION"
	AuditActionActionCommit       = "ACTION_COMMIT"
	AuditActionSettingUpdate      = "SETTING_UPDATE"
)
