package agency

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/citizenvoice/citizenvoice-api/internal/auth"
	"github.com/citizenvoice/citizenvoice-api/pkg/models"
	"github.com/citizenvoice/citizenvoice-api/pkg/utils"
)

type StatusRequest struct {
	ComplaintID uint   `json:"complaintId"`
	Status      string `json:"status"`
}

type complaintRow struct {
	ID               uint      `json:"id"`
	TrackingNumber   string    `json:"tracking_number"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Priority         string    `json:"priority"`
	Location         string    `json:"location"`
	AffectedArea     string    `json:"affected_area"`
	Status           string    `json:"status"`
	AssignedAgencyID *uint     `json:"assigned_agency_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	UserName         string    `json:"user_name"`
	UserEmail        string    `json:"user_email"`
	AgencyName       string    `json:"agency_name"`
}

type Handler struct{ db *gorm.DB }

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

// callerAgencyID re-reads the caller's agency link from the users table.
// Token claims can go stale when an admin relinks a user, so authorization
// here always uses fresh state.
func (h *Handler) callerAgencyID(userID uint) (uint, error) {
	var u models.User
	if err := h.db.Select("agency_id").First(&u, "id = ?", userID).Error; err != nil {
		return 0, err
	}
	if u.AgencyID == nil {
		return 0, fiber.NewError(fiber.StatusNotFound, "Agency not linked to this user. Please contact administrator.")
	}
	return *u.AgencyID, nil
}

/* ================================= Info ================================= */

// @Summary      My agency
// @Tags         agency
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Failure      404  {object}  models.ErrorResponse
// @Router       /agency/info [get]
func (h *Handler) Info(c *fiber.Ctx) error {
	agencyID, err := h.callerAgencyID(auth.MustUserID(c))
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe
		}
		return fiber.ErrInternalServerError
	}

	var a models.Agency
	if err := h.db.First(&a, "id = ?", agencyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Agency not found")
		}
		return fiber.ErrInternalServerError
	}
	return c.JSON(models.OK(fiber.Map{"agency": a}))
}

/* ============================ Assigned list ============================= */

// @Summary      Complaints assigned to my agency
// @Tags         agency
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Failure      404  {object}  models.ErrorResponse
// @Router       /agency/complaints [get]
func (h *Handler) AssignedComplaints(c *fiber.Ctx) error {
	agencyID, err := h.callerAgencyID(auth.MustUserID(c))
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe
		}
		return fiber.ErrInternalServerError
	}

	rows := make([]complaintRow, 0)
	err = h.db.
		Table("complaints AS c").
		Select(`c.id, c.tracking_number, c.title, c.description, c.category, c.priority,
			c.location, c.affected_area, c.status, c.assigned_agency_id, c.created_at, c.updated_at,
			u.fullname AS user_name, u.email AS user_email, a.name AS agency_name`).
		Joins("JOIN users u ON c.user_id = u.id").
		Joins("JOIN agencies a ON c.assigned_agency_id = a.id").
		Where("c.assigned_agency_id = ?", agencyID).
		Order("c.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(models.OK(fiber.Map{"complaints": rows, "count": len(rows)}))
}

/* ============================== Set status ============================== */

// @Summary      Update status of an assigned complaint
// @Description  Agencies may only move a complaint to in_review or resolved
// @Tags         agency
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  StatusRequest  true  "Status change"
// @Success      200  {object}  models.Envelope
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /agency/status [patch]
func (h *Handler) SetStatus(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)

	var in StatusRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if in.ComplaintID == 0 || in.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Complaint ID and status are required")
	}
	status := models.ComplaintStatus(in.Status)
	if status != models.StatusInReview && status != models.StatusResolved {
		return fiber.NewError(fiber.StatusBadRequest, "Agency can only set status to: in_review or resolved")
	}

	agencyID, err := h.callerAgencyID(userID)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe
		}
		return fiber.ErrInternalServerError
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var cp models.Complaint
		if err := tx.Where("id = ? AND assigned_agency_id = ?", in.ComplaintID, agencyID).
			First(&cp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Complaint not found or not assigned to your agency")
			}
			return err
		}

		if err := tx.Model(&models.Complaint{}).Where("id = ?", cp.ID).
			Update("status", status).Error; err != nil {
			return err
		}
		if cp.Status != status {
			if err := utils.LogComplaintUpdate(tx, cp.ID, &userID, utils.StatusUpdateType(status),
				string(cp.Status), string(status), ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe
		}
		return fiber.ErrInternalServerError
	}

	var row complaintRow
	err = h.db.
		Table("complaints AS c").
		Select(`c.id, c.tracking_number, c.title, c.description, c.category, c.priority,
			c.location, c.affected_area, c.status, c.assigned_agency_id, c.created_at, c.updated_at,
			u.fullname AS user_name, u.email AS user_email, a.name AS agency_name`).
		Joins("JOIN users u ON c.user_id = u.id").
		Joins("LEFT JOIN agencies a ON c.assigned_agency_id = a.id").
		Where("c.id = ?", in.ComplaintID).
		Take(&row).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(models.OKMessage("Complaint status updated successfully", fiber.Map{
		"complaint": row,
	}))
}
