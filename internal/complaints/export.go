package complaints

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/citizenvoice/citizenvoice-api/internal/auth"
)

// utf8BOM keeps spreadsheet tools from mangling non-ASCII fields.
const utf8BOM = "\ufeff"

var csvHeaders = []string{
	"Tracking Number", "Title", "Description", "Category", "Priority",
	"Location", "Status", "Agency", "Created Date", "Updated Date",
}

// csvField quotes a value, doubling embedded quotes.
func csvField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// buildCSV renders the export body, one row per complaint.
func buildCSV(rows []complaintRow) string {
	var b strings.Builder
	b.WriteString(utf8BOM)
	b.WriteString(strings.Join(csvHeaders, ","))
	for _, r := range rows {
		agency := r.AgencyName
		if agency == "" {
			agency = "Unassigned"
		}
		fields := []string{
			csvField(r.TrackingNumber),
			csvField(r.Title),
			csvField(r.Description),
			csvField(r.Category),
			csvField(r.Priority),
			csvField(r.Location),
			csvField(r.Status),
			csvField(agency),
			csvField(csvTime(r.CreatedAt)),
			csvField(csvTime(r.UpdatedAt)),
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(fields, ","))
	}
	return b.String()
}

// @Summary      Export complaints as CSV
// @Description  Download the caller's complaints as a BOM-prefixed UTF-8 CSV
// @Tags         complaints
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200  {string}  string
// @Router       /complaints/export [get]
func (h *Handler) ExportCSV(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)

	var rows []complaintRow
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

	filename := "complaints_export_" + time.Now().Format("2006-01-02") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.SendString(buildCSV(rows))
}
