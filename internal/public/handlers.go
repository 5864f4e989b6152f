package public

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/citizenvoice/citizenvoice-api/pkg/models"
)

/* ================================ DTOs ================================= */

// publicComplaintRow carries no submitter-identifying fields.
type publicComplaintRow struct {
	ID             uint      `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Priority       string    `json:"priority"`
	Location       string    `json:"location"`
	AffectedArea   string    `json:"affected_area"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	AgencyName     string    `json:"agency_name,omitempty"`
	SimilarCount   int64     `json:"similar_count"`
}

type agencyPerformanceRow struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	TotalComplaints    int64  `json:"total_complaints"`
	ResolvedComplaints int64  `json:"resolved_complaints"`
	ResolutionRate     int64  `json:"resolution_rate"`
}

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

/* ================================ Stats ================================ */

// @Summary      Public statistics
// @Description  Complaint totals, average days to first update of resolved
// @Description  complaints, and satisfaction rate
// @Tags         public
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Router       /public/stats [get]
func (h *Handler) Stats(c *fiber.Ctx) error {
	var total, resolved int64
	if err := h.db.Model(&models.Complaint{}).Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	err := h.db.Model(&models.Complaint{}).
		Where("status = ?", models.StatusResolved).
		Count(&resolved).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	// Proxy for responsiveness: days from submission to first update row.
	// Degrades to 0.0 when nothing is resolved yet.
	var avgDays sql.NullFloat64
	err = h.db.Raw(`
		SELECT AVG(EXTRACT(EPOCH FROM (
			COALESCE(
				(SELECT MIN(created_at) FROM complaint_updates WHERE complaint_id = c.id),
				c.created_at
			) - c.created_at
		)) / 86400.0)
		FROM complaints c
		WHERE c.status = ?`, models.StatusResolved).Scan(&avgDays).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	avgResolutionDays := "0.0"
	if avgDays.Valid {
		avgResolutionDays = fmt.Sprintf("%.1f", avgDays.Float64)
	}

	// 1-5 ratings mapped to a percentage; 0 when the table is empty.
	var avgRating sql.NullFloat64
	err = h.db.Model(&models.SatisfactionRating{}).
		Select("AVG(rating)").
		Scan(&avgRating).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	satisfactionRate := 0
	if avgRating.Valid {
		satisfactionRate = int(math.Round(avgRating.Float64 * 20))
	}

	return c.JSON(models.OK(fiber.Map{
		"totalComplaints":    total,
		"resolvedComplaints": resolved,
		"avgResolutionDays":  avgResolutionDays,
		"satisfactionRate":   satisfactionRate,
	}))
}

/* ============================= Complaints ============================== */

// @Summary      Public complaints
// @Description  Anonymized complaint feed with filters and similarity counts
// @Tags         public
// @Produce      json
// @Param        category   query  string  false  "Category"
// @Param        status     query  string  false  "pending|in_review|resolved"
// @Param        priority   query  string  false  "low|medium|high|critical"
// @Param        dateRange  query  int     false  "Only complaints from the last N days"
// @Param        search     query  string  false  "Title/description/location substring"
// @Param        page       query  int     false  "Page (1-based)"
// @Param        limit      query  int     false  "Page size"
// @Success      200  {object}  models.Envelope
// @Router       /public/complaints [get]
func (h *Handler) Complaints(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	base := h.db.
		Table("complaints AS c").
		Joins("LEFT JOIN agencies a ON c.assigned_agency_id = a.id").
		Joins("LEFT JOIN complaints c2 ON c2.location = c.location AND c2.category = c.category AND c2.id != c.id")

	if v := strings.TrimSpace(c.Query("category")); v != "" {
		base = base.Where("c.category = ?", v)
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		base = base.Where("c.status = ?", v)
	}
	if v := strings.TrimSpace(c.Query("priority")); v != "" {
		base = base.Where("c.priority = ?", v)
	}
	if days := c.QueryInt("dateRange"); days > 0 {
		base = base.Where("c.created_at >= NOW() - make_interval(days => ?)", days)
	}
	if v := strings.TrimSpace(c.Query("search")); v != "" {
		needle := "%" + v + "%"
		base = base.Where("(c.title ILIKE ? OR c.description ILIKE ? OR c.location ILIKE ?)", needle, needle, needle)
	}

	rows := make([]publicComplaintRow, 0)
	err := base.Session(&gorm.Session{}).
		Select(`c.id, c.tracking_number, c.title, left(c.description, 200) AS description,
			c.category, c.priority, c.location, c.affected_area, c.status, c.created_at,
			a.name AS agency_name, COUNT(DISTINCT c2.id) AS similar_count`).
		Group("c.id, a.name").
		Order("c.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("c.id").Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OK(fiber.Map{
		"complaints": rows,
		"pagination": fiber.Map{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": int(math.Ceil(float64(total) / float64(limit))),
		},
	}))
}

/* ========================== Agency performance ========================= */

// @Summary      Agency performance
// @Description  Resolution-rate leaderboard over agencies with assigned work
// @Tags         public
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Router       /public/agencies/performance [get]
func (h *Handler) AgencyPerformance(c *fiber.Ctx) error {
	rows := make([]agencyPerformanceRow, 0)
	err := h.db.
		Table("agencies AS a").
		Select(`a.id, a.name,
			COUNT(c.id) AS total_complaints,
			SUM(CASE WHEN c.status = 'resolved' THEN 1 ELSE 0 END) AS resolved_complaints,
			CASE WHEN COUNT(c.id) > 0
				THEN ROUND(SUM(CASE WHEN c.status = 'resolved' THEN 1 ELSE 0 END)::numeric / COUNT(c.id) * 100, 0)
				ELSE 0
			END AS resolution_rate`).
		Joins("LEFT JOIN complaints c ON c.assigned_agency_id = a.id").
		Group("a.id, a.name").
		Having("COUNT(c.id) > 0").
		Order("resolution_rate DESC, total_complaints DESC").
		Limit(10).
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OK(fiber.Map{"agencies": rows}))
}

/* ========================= Trending categories ========================= */

// @Summary      Trending categories
// @Description  Category counts over a recent window with change vs the
// @Description  previous window of the same length
// @Tags         public
// @Produce      json
// @Param        days  query  int  false  "Window length in days (default 7)"
// @Success      200  {object}  models.Envelope
// @Router       /public/categories/trending [get]
func (h *Handler) TrendingCategories(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days < 1 {
		days = 7
	}

	var rows []struct {
		Category    string
		Count       int64
		ChangeCount int64
	}
	err := h.db.Raw(`
		SELECT
			c.category,
			COUNT(*) AS count,
			COUNT(*) - COALESCE((
				SELECT COUNT(*) FROM complaints c2
				WHERE c2.category = c.category
				AND c2.created_at < NOW() - make_interval(days => @days)
				AND c2.created_at >= NOW() - make_interval(days => @prev)
			), 0) AS change_count
		FROM complaints c
		WHERE c.created_at >= NOW() - make_interval(days => @days)
		AND c.category <> ''
		GROUP BY c.category
		ORDER BY count DESC
		LIMIT 10`,
		map[string]any{"days": days, "prev": days * 2}).
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	categories := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, fiber.Map{
			"category":      r.Category,
			"count":         r.Count,
			"changePercent": changePercent(r.Count, r.ChangeCount),
		})
	}

	return c.JSON(models.OK(fiber.Map{"categories": categories}))
}

// changePercent formats window-over-window growth. A category with no
// previous-window activity reads as +100% rather than dividing by zero.
func changePercent(count, change int64) string {
	if change <= 0 {
		return "0%"
	}
	prev := count - change
	if prev <= 0 {
		return "+100%"
	}
	return fmt.Sprintf("+%d%%", int(math.Round(float64(change)/float64(prev)*100)))
}
