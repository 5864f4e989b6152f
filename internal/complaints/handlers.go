package complaints

import (
	"errors"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/citizenvoice/citizenvoice-api/internal/auth"
	"github.com/citizenvoice/citizenvoice-api/internal/storage"
	"github.com/citizenvoice/citizenvoice-api/pkg/models"
	"github.com/citizenvoice/citizenvoice-api/pkg/validation"
)

const (
	maxFilesPerComplaint = 10
	maxFileSize          = 10 * 1024 * 1024
)

// MIME whitelist for complaint attachments.
var allowedFileTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
}

/* ================================ DTOs ================================= */

type SubmitRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"required,max=5000"`
	Category     string `json:"category" validate:"omitempty,max=50"`
	Priority     string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Location     string `json:"location" validate:"omitempty,max=200"`
	AffectedArea string `json:"affected_area" validate:"omitempty,max=200"`
}

// complaintRow is the list shape with joined user/agency names.
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

type Handler struct {
	db    *gorm.DB
	store *storage.Local
}

func NewHandler(db *gorm.DB, store *storage.Local) *Handler {
	return &Handler{db: db, store: store}
}

/* ================================ Submit ================================ */

// @Summary      Submit complaint
// @Description  Citizen submits a new complaint with up to 10 attachments
// @Tags         complaints
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        title        formData  string  true   "Title"
// @Param        description  formData  string  true   "Description"
// @Param        category     formData  string  false  "Category"
// @Param        priority     formData  string  false  "low|medium|high|critical"
// @Param        location     formData  string  false  "Location"
// @Param        affected_area formData string  false  "Affected area"
// @Param        files        formData  []file  false  "Attachments (max 10)"
// @Success      201  {object}  models.Envelope
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /complaints [post]
func (h *Handler) Submit(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)

	in := SubmitRequest{
		Title:        strings.TrimSpace(c.FormValue("title")),
		Description:  strings.TrimSpace(c.FormValue("description")),
		Category:     strings.TrimSpace(c.FormValue("category")),
		Priority:     strings.TrimSpace(c.FormValue("priority")),
		Location:     strings.TrimSpace(c.FormValue("location")),
		AffectedArea: strings.TrimSpace(c.FormValue("affected_area")),
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	files, err := formFiles(c)
	if err != nil {
		return err
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		priority = models.Priority(in.Priority)
	}

	// All-or-nothing: counter, complaint and file rows commit together.
	// Disk writes are cleaned up if the transaction aborts.
	var (
		cp    models.Complaint
		saved []string
	)
	err = h.db.Transaction(func(tx *gorm.DB) error {
		tracking, err := nextTrackingNumber(tx, time.Now())
		if err != nil {
			return err
		}

		cp = models.Complaint{
			UserID:         userID,
			TrackingNumber: tracking,
			Title:          in.Title,
			Description:    in.Description,
			Category:       in.Category,
			Priority:       priority,
			Location:       in.Location,
			AffectedArea:   in.AffectedArea,
			Status:         models.StatusPending,
		}
		if err := tx.Create(&cp).Error; err != nil {
			return err
		}

		for _, fh := range files {
			src, err := fh.Open()
			if err != nil {
				return err
			}
			publicPath, err := h.store.Save(storage.DirComplaints, fh.Filename, src)
			src.Close()
			if err != nil {
				return err
			}
			saved = append(saved, publicPath)

			rec := models.ComplaintFile{
				ComplaintID: cp.ID,
				FilePath:    publicPath,
				FileName:    fh.Filename,
				FileType:    fileContentType(fh),
				FileSize:    fh.Size,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			cp.Files = append(cp.Files, rec)
		}
		return nil
	})
	if err != nil {
		for _, p := range saved {
			if rmErr := h.store.Remove(p); rmErr != nil {
				logrus.WithError(rmErr).WithField("path", p).Warn("orphaned upload not removed")
			}
		}
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(models.OKMessage("Complaint submitted successfully", fiber.Map{
		"complaint": cp,
	}))
}

// formFiles extracts and validates the multipart attachments. A request
// without any file part is fine.
func formFiles(c *fiber.Ctx) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}
	files := form.File["files[]"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) > maxFilesPerComplaint {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Max 10 files allowed")
	}
	for _, fh := range files {
		if fh.Size <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Empty file: "+fh.Filename)
		}
		if fh.Size > maxFileSize {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Max 10MB per file: "+fh.Filename)
		}
		if !allowedFileTypes[fileContentType(fh)] {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Only images and PDF are allowed: "+fh.Filename)
		}
	}
	return files, nil
}

func fileContentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(fh.Filename))
	}
	return ct
}

/* =============================== List mine ============================== */

// @Summary      My complaints
// @Description  List the caller's complaints, newest first
// @Tags         complaints
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Router       /complaints/my [get]
func (h *Handler) ListMine(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)

	rows := make([]complaintRow, 0)
	err := h.db.
		Table("complaints AS c").
		Select(`c.id, c.tracking_number, c.title, c.description, c.category, c.priority,
			c.location, c.affected_area, c.status, c.assigned_agency_id, c.created_at, c.updated_at,
			u.fullname AS user_name, u.email AS user_email, a.name AS agency_name`).
		Joins("JOIN users u ON c.user_id = u.id").
		Joins("LEFT JOIN agencies a ON c.assigned_agency_id = a.id").
		Where("c.user_id = ?", userID).
		Order("c.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OK(fiber.Map{
		"complaints": rows,
		"count":      len(rows),
	}))
}

/* ================================ Detail ================================ */

// @Summary      Complaint detail (owner)
// @Description  Owner fetches one complaint with its update trail and files
// @Tags         complaints
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  int  true  "complaint id"
// @Success      200  {object}  models.Envelope
// @Failure      404  {object}  models.ErrorResponse
// @Router       /complaints/{id} [get]
func (h *Handler) GetDetail(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid complaint id")
	}

	// Ownership-scoped: someone else's complaint reads as not found.
	var row complaintRow
	err = h.db.
		Table("complaints AS c").
		Select(`c.id, c.tracking_number, c.title, c.description, c.category, c.priority,
			c.location, c.affected_area, c.status, c.assigned_agency_id, c.created_at, c.updated_at,
			u.fullname AS user_name, u.email AS user_email, a.name AS agency_name`).
		Joins("JOIN users u ON c.user_id = u.id").
		Joins("LEFT JOIN agencies a ON c.assigned_agency_id = a.id").
		Where("c.id = ? AND c.user_id = ?", id, userID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Complaint not found")
		}
		return fiber.ErrInternalServerError
	}

	updates := make([]updateRow, 0)
	err = h.db.
		Table("complaint_updates AS cu").
		Select(`cu.id, cu.complaint_id, cu.update_type, cu.old_value, cu.new_value, cu.message,
			cu.created_at, u.fullname AS updated_by_name, u.email AS updated_by_email`).
		Joins("LEFT JOIN users u ON cu.user_id = u.id").
		Where("cu.complaint_id = ?", id).
		Order("cu.created_at ASC").
		Scan(&updates).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	files := make([]models.ComplaintFile, 0)
	if err := h.db.Where("complaint_id = ?", id).Order("uploaded_at ASC").Find(&files).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OK(fiber.Map{
		"complaint": fiber.Map{
			"id": row.ID, "tracking_number": row.TrackingNumber,
			"title": row.Title, "description": row.Description,
			"category": row.Category, "priority": row.Priority,
			"location": row.Location, "affected_area": row.AffectedArea,
			"status": row.Status, "assigned_agency_id": row.AssignedAgencyID,
			"created_at": row.CreatedAt, "updated_at": row.UpdatedAt,
			"user_name": row.UserName, "user_email": row.UserEmail,
			"agency_name": row.AgencyName,
			"updates":     updates,
			"files":       files,
		},
	}))
}
