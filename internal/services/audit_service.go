package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"spendsense/internal/logger"
	"spendsense/internal/models"
)

// Audit actions.
const (
	AuditCreateExpense   = "CREATE_EXPENSE"
	AuditUpdateExpense   = "UPDATE_EXPENSE"
	AuditDeleteExpense   = "DELETE_EXPENSE"
	AuditUpdateBudget    = "UPDATE_BUDGET_SETTINGS"
	AuditSetCategory     = "SET_CATEGORY_BUDGET"
	AuditChangePassword  = "CHANGE_PASSWORD"
	AuditResetPassword   = "RESET_PASSWORD"
	AuditUpdateProfile   = "UPDATE_PROFILE"
	ResourceExpense      = "expense"
	ResourceUser         = "user"
	ResourceBudgetConfig = "budget"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Named("audit").Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Named("audit").Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
