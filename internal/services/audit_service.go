package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"kakebo/internal/logger"
	"kakebo/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records a mutating operation. Audit failures are logged and
// swallowed; they never fail the operation being audited.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	entry := models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}
	if len(changes) > 0 {
		if data, err := json.Marshal(changes); err == nil {
			entry.Changes = string(data)
		}
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.Get().Warnw("failed to write audit log", "action", action, "error", err)
	}
}
