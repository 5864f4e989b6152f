package utils

import (
	"github.com/citizenvoice/citizenvoice-api/pkg/models"
	"gorm.io/gorm"
)

// LogComplaintUpdate appends an audit record to complaint_updates.
// Callers pass their transaction handle so the audit row commits or rolls
// back together with the mutation it mirrors. userID is nil for
// system-generated entries.
func LogComplaintUpdate(
	db *gorm.DB,
	complaintID uint,
	userID *uint,
	updateType models.UpdateType,
	oldValue, newValue, message string,
) error {
	return db.Create(&models.ComplaintUpdate{
		ComplaintID: complaintID,
		UserID:      userID,
		UpdateType:  updateType,
		OldValue:    oldValue,
		NewValue:    newValue,
		Message:     message,
	}).Error
}

// StatusUpdateType picks the audit entry type for a status transition:
// reaching resolved is recorded as a resolution, everything else as a
// plain status change.
func StatusUpdateType(newStatus models.ComplaintStatus) models.UpdateType {
	if newStatus == models.StatusResolved {
		return models.UpdateResolution
	}
	return models.UpdateStatusChange
}
