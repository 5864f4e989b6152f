package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/citizenvoice/citizenvoice-api/internal/auth"
	"github.com/citizenvoice/citizenvoice-api/pkg/models"
	"github.com/citizenvoice/citizenvoice-api/pkg/utils"
)

/* ================================ DTOs ================================= */

type AssignRequest struct {
	ComplaintID uint `json:"complaintId" validate:"required"`
	AgencyID    uint `json:"agencyId" validate:"required"`
}

type StatusRequest struct {
	ComplaintID uint   `json:"complaintId" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=pending in_review resolved"`
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
	AgencyName       string    `json:"agency_name,omitempty"`
}

type Handler struct{ db *gorm.DB }

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

func (h *Handler) fetchComplaintRow(id uint) (complaintRow, error) {
	var row complaintRow
	err := h.db.
		Table("complaints AS c").
		Select(`c.id, c.tracking_number, c.title, c.description, c.category, c.priority,
			c.location, c.affected_area, c.status, c.assigned_agency_id, c.created_at, c.updated_at,
			u.fullname AS user_name, u.email AS user_email, a.name AS agency_name`).
		Joins("JOIN users u ON c.user_id = u.id").
		Joins("LEFT JOIN agencies a ON c.assigned_agency_id = a.id").
		Where("c.id = ?", id).
		Take(&row).Error
	return row, err
}

/* =============================== List all =============================== */

// @Summary      All complaints (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Router       /admin/complaints [get]
func (h *Handler) ListAll(c *fiber.Ctx) error {
	rows := make([]complaintRow, 0)
	err := h.db.
		Table("complaints AS c").
		Select(`c.id, c.tracking_number, c.title, c.description, c.category, c.priority,
			c.location, c.affected_area, c.status, c.assigned_agency_id, c.created_at, c.updated_at,
			u.fullname AS user_name, u.email AS user_email, a.name AS agency_name`).
		Joins("JOIN users u ON c.user_id = u.id").
		Joins("LEFT JOIN agencies a ON c.assigned_agency_id = a.id").
		Order("c.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(models.OK(fiber.Map{"complaints": rows, "count": len(rows)}))
}

/* ================================ Assign ================================ */

// @Summary      Assign complaint to agency
// @Description  Sets the agency and forces status to in_review; both changes are mirrored on the update trail
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  AssignRequest  true  "Assignment"
// @Success      200  {object}  models.Envelope
// @Failure      404  {object}  models.ErrorResponse
// @Router       /admin/assign [post]
func (h *Handler) Assign(c *fiber.Ctx) error {
	adminID := auth.MustUserID(c)

	var in AssignRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if in.ComplaintID == 0 || in.AgencyID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Complaint ID and Agency ID are required")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var cp models.Complaint
		if err := tx.First(&cp, "id = ?", in.ComplaintID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Complaint not found")
			}
			return err
		}

		var agency models.Agency
		if err := tx.First(&agency, "id = ?", in.AgencyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Agency not found")
			}
			return err
		}

		oldAgency := ""
		if cp.AssignedAgencyID != nil {
			var prev models.Agency
			if err := tx.First(&prev, "id = ?", *cp.AssignedAgencyID).Error; err == nil {
				oldAgency = prev.Name
			}
		}

		if err := tx.Model(&models.Complaint{}).Where("id = ?", cp.ID).
			Updates(map[string]any{
				"assigned_agency_id": agency.ID,
				"status":             models.StatusInReview,
			}).Error; err != nil {
			return err
		}

		if err := utils.LogComplaintUpdate(tx, cp.ID, &adminID, models.UpdateAssignment,
			oldAgency, agency.Name, "Complaint assigned to "+agency.Name); err != nil {
			return err
		}
		if cp.Status != models.StatusInReview {
			if err := utils.LogComplaintUpdate(tx, cp.ID, &adminID, models.UpdateStatusChange,
				string(cp.Status), string(models.StatusInReview), ""); err != nil {
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

	row, err := h.fetchComplaintRow(in.ComplaintID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(models.OKMessage("Complaint assigned to agency successfully", fiber.Map{
		"complaint": row,
	}))
}

/* ============================== Set status ============================== */

// @Summary      Override complaint status (admin)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  StatusRequest  true  "Status change"
// @Success      200  {object}  models.Envelope
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /admin/status [patch]
func (h *Handler) SetStatus(c *fiber.Ctx) error {
	adminID := auth.MustUserID(c)

	var in StatusRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if in.ComplaintID == 0 || in.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Complaint ID and status are required")
	}
	status := models.ComplaintStatus(in.Status)
	switch status {
	case models.StatusPending, models.StatusInReview, models.StatusResolved:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Status must be one of: pending, in_review, resolved")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var cp models.Complaint
		if err := tx.First(&cp, "id = ?", in.ComplaintID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Complaint not found")
			}
			return err
		}

		if err := tx.Model(&models.Complaint{}).Where("id = ?", cp.ID).
			Update("status", status).Error; err != nil {
			return err
		}
		if cp.Status != status {
			if err := utils.LogComplaintUpdate(tx, cp.ID, &adminID, utils.StatusUpdateType(status),
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

	row, err := h.fetchComplaintRow(in.ComplaintID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(models.OKMessage("Complaint status updated successfully", fiber.Map{
		"complaint": row,
	}))
}

/* ============================== Agencies ================================ */

// @Summary      List agencies (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Router       /admin/agencies [get]
func (h *Handler) ListAgencies(c *fiber.Ctx) error {
	agencies := make([]models.Agency, 0)
	if err := h.db.Order("name ASC").Find(&agencies).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(models.OK(fiber.Map{"agencies": agencies, "count": len(agencies)}))
}
