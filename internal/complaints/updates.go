package complaints

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/citizenvoice/citizenvoice-api/internal/auth"
	"github.com/citizenvoice/citizenvoice-api/pkg/models"
)

// updateRow carries an update trail entry with joined names.
type updateRow struct {
	ID             uint      `json:"id"`
	ComplaintID    uint      `json:"complaint_id"`
	UpdateType     string    `json:"update_type"`
	OldValue       string    `json:"old_value,omitempty"`
	NewValue       string    `json:"new_value,omitempty"`
	Message        string    `json:"message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedByName  string    `json:"updated_by_name,omitempty"`
	UpdatedByEmail string    `json:"updated_by_email,omitempty"`
}

// pollRow extends updateRow with the complaint context a polling client needs.
type pollRow struct {
	updateRow
	ComplaintTitle string `json:"complaint_title"`
	CurrentStatus  string `json:"current_status"`
	AgencyName     string `json:"agency_name,omitempty"`
}

type addUpdateRequest struct {
	Message string `json:"message"`
}

/* =============================== Add update ============================= */

// @Summary      Add comment to own complaint
// @Tags         complaints
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  int              true  "complaint id"
// @Param        payload  body  addUpdateRequest true  "Comment"
// @Success      201  {object}  models.Envelope
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /complaints/{id}/updates [post]
func (h *Handler) AddUpdate(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid complaint id")
	}

	var in addUpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Update message is required")
	}

	var count int64
	if err := h.db.Model(&models.Complaint{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Complaint not found")
	}

	upd := models.ComplaintUpdate{
		ComplaintID: uint(id),
		UserID:      &userID,
		UpdateType:  models.UpdateComment,
		Message:     in.Message,
	}
	if err := h.db.Create(&upd).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(models.OKMessage("Update added successfully", fiber.Map{
		"update": upd,
	}))
}

/* ================================= Poll ================================= */

// @Summary      Poll for new updates
// @Description  Pull-based polling: updates with id > lastUpdateId across the caller's complaints, newest first, max 50
// @Tags         complaints
// @Security     BearerAuth
// @Produce      json
// @Param        lastUpdateId  query  int  false  "cursor from the previous poll"
// @Success      200  {object}  models.Envelope
// @Router       /complaints/updates [get]
func (h *Handler) PollUpdates(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	lastUpdateID := c.QueryInt("lastUpdateId", 0)

	rows := make([]pollRow, 0)
	err := h.db.
		Table("complaint_updates AS cu").
		Select(`cu.id, cu.complaint_id, cu.update_type, cu.old_value, cu.new_value, cu.message,
			cu.created_at, c.title AS complaint_title, c.status AS current_status,
			u.fullname AS updated_by_name, a.name AS agency_name`).
		Joins("JOIN complaints c ON cu.complaint_id = c.id").
		Joins("LEFT JOIN users u ON cu.user_id = u.id").
		Joins("LEFT JOIN agencies a ON c.assigned_agency_id = a.id").
		Where("c.user_id = ? AND cu.id > ?", userID, lastUpdateID).
		Order("cu.id DESC").
		Limit(50).
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	latest := lastUpdateID
	if len(rows) > 0 {
		latest = int(rows[0].ID)
	}

	return c.JSON(models.OK(fiber.Map{
		"updates":        rows,
		"count":          len(rows),
		"latestUpdateId": latest,
	}))
}
