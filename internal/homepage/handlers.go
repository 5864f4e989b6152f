package homepage

import (
	"database/sql"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/citizenvoice/citizenvoice-api/pkg/models"
)

// Marketing defaults shown before the platform has enough data.
const (
	defaultAvgResponseDays = 4.2
	defaultResolutionRate  = 98
)

var categoryIcons = map[string]string{
	"road-infrastructure": "car",
	"water-utilities":     "water",
	"waste-management":    "trash",
	"public-safety":       "shield",
	"parks-recreation":    "park",
	"housing-zoning":      "home",
}

var priorityLabels = map[string]string{
	"low":      "Low Priority",
	"medium":   "Medium Priority",
	"high":     "High Priority",
	"critical": "Critical Priority",
}

var statusLabels = map[string]string{
	"pending":   "Pending",
	"in_review": "In Review",
	"resolved":  "Resolved",
}

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

/* ================================ Stats ================================ */

// @Summary      Homepage statistics
// @Tags         homepage
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Router       /homepage/stats [get]
func (h *Handler) Stats(c *fiber.Ctx) error {
	var resolved int64
	err := h.db.Model(&models.Complaint{}).
		Where("status = ?", models.StatusResolved).
		Count(&resolved).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	var citizensHelped, agenciesParticipating int64
	if err := h.db.Model(&models.Complaint{}).Distinct("user_id").Count(&citizensHelped).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	err = h.db.Model(&models.Complaint{}).
		Where("assigned_agency_id IS NOT NULL").
		Distinct("assigned_agency_id").
		Count(&agenciesParticipating).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	// Days from submission to first update, over complaints that have been
	// touched at all. The marketing default stands in until there is data.
	avgResponse := defaultAvgResponseDays
	var avgDays sql.NullFloat64
	err = h.db.Raw(`
		SELECT AVG(EXTRACT(EPOCH FROM (
			COALESCE(
				(SELECT MIN(created_at) FROM complaint_updates WHERE complaint_id = c.id),
				c.created_at
			) - c.created_at
		)) / 86400.0)
		FROM complaints c
		WHERE c.status != ? OR EXISTS (SELECT 1 FROM complaint_updates WHERE complaint_id = c.id)`,
		models.StatusPending).Scan(&avgDays).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if avgDays.Valid {
		avgResponse = math.Round(avgDays.Float64*10) / 10
	}

	resolutionRate := defaultResolutionRate
	var total int64
	if err := h.db.Model(&models.Complaint{}).Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if total > 0 {
		resolutionRate = int(math.Round(float64(resolved) / float64(total) * 100))
	}

	return c.JSON(models.OK(fiber.Map{
		"complaintsResolved":    resolved,
		"citizensHelped":        citizensHelped,
		"agenciesParticipating": agenciesParticipating,
		"avgResponseTime":       avgResponse,
		"resolutionRate":        resolutionRate,
	}))
}

/* ============================ Trending issues ========================== */

type trendingRow struct {
	ID           uint
	Title        string
	Description  string
	Category     string
	Priority     string
	Status       string
	Location     string
	CreatedAt    time.Time
	SimilarCount int64
	AgencyName   string
}

// @Summary      Trending issues
// @Description  Most-reported recent complaints, grouped by category and
// @Description  location prefix
// @Tags         homepage
// @Produce      json
// @Param        limit  query  int  false  "Max issues (default 3)"
// @Param        days   query  int  false  "Window in days (default 7)"
// @Success      200  {object}  models.Envelope
// @Router       /homepage/trending-issues [get]
func (h *Handler) TrendingIssues(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 3)
	if limit < 1 || limit > 20 {
		limit = 3
	}
	days := c.QueryInt("days", 7)
	if days < 1 {
		days = 7
	}

	// Similarity: same category, location sharing the first word.
	rows := make([]trendingRow, 0)
	err := h.db.Raw(`
		SELECT
			c.id, c.title, left(c.description, 150) AS description,
			c.category, c.priority, c.status, c.location, c.created_at,
			COUNT(DISTINCT c2.id) AS similar_count,
			a.name AS agency_name
		FROM complaints c
		LEFT JOIN complaints c2 ON c2.category = c.category
			AND c2.location ILIKE '%' || split_part(c.location, ' ', 1) || '%'
			AND c2.id != c.id
			AND c2.created_at >= NOW() - make_interval(days => @days)
		LEFT JOIN agencies a ON c.assigned_agency_id = a.id
		WHERE c.created_at >= NOW() - make_interval(days => @days)
		GROUP BY c.id, c.title, c.description, c.category, c.priority, c.status, c.location, c.created_at, a.name
		ORDER BY similar_count DESC, c.created_at DESC
		LIMIT @limit`,
		map[string]any{"days": days, "limit": limit}).
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	now := time.Now()
	issues := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		issues = append(issues, fiber.Map{
			"id":            r.ID,
			"title":         orDefault(r.Title, "Untitled Issue"),
			"description":   orDefault(r.Description, "No description provided"),
			"category":      orDefault(r.Category, "general"),
			"categoryIcon":  orDefault(categoryIcons[r.Category], "info"),
			"priority":      orDefault(r.Priority, "medium"),
			"priorityLabel": orDefault(priorityLabels[r.Priority], "Medium Priority"),
			"status":        orDefault(r.Status, "pending"),
			"statusLabel":   orDefault(statusLabels[r.Status], "Pending"),
			"location":      orDefault(r.Location, "Unknown Location"),
			"reportCount":   r.SimilarCount + 1,
			"agencyName":    r.AgencyName,
			"createdAt":     r.CreatedAt,
			"timeAgo":       timeAgo(r.CreatedAt, now),
		})
	}

	return c.JSON(models.OK(fiber.Map{"issues": issues}))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// timeAgo renders a coarse human-readable age for homepage cards.
func timeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24/7), "week")
	default:
		return t.Format("1/2/2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

/* ============================ Success stories ========================== */

type storyRow struct {
	ID             uint
	AuthorName     string
	AuthorRole     string
	AuthorAvatar   string
	Testimonial    string
	ResolutionDays *int
	BeforeImage    string
	AfterImage     string
	ComplaintID    *uint
	UserFullname   *string
	UserAvatar     *string
}

// @Summary      Success stories
// @Description  Featured testimonials, ordered for display. A linked platform
// @Description  user overrides the curated author fields.
// @Tags         homepage
// @Produce      json
// @Param        limit  query  int  false  "Max stories (default 2)"
// @Success      200  {object}  models.Envelope
// @Router       /homepage/success-stories [get]
func (h *Handler) SuccessStories(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 2)
	if limit < 1 || limit > 20 {
		limit = 2
	}

	rows := make([]storyRow, 0)
	err := h.db.
		Table("success_stories AS ss").
		Select(`ss.id, ss.author_name, ss.author_role, ss.author_avatar, ss.testimonial,
			ss.resolution_days, ss.before_image, ss.after_image, ss.complaint_id,
			u.fullname AS user_fullname, u.profile_picture AS user_avatar`).
		Joins("LEFT JOIN users u ON ss.user_id = u.id").
		Where("ss.is_featured = TRUE").
		Order("ss.display_order ASC, ss.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	stories := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		isRealUser := r.UserFullname != nil && *r.UserFullname != ""
		name := r.AuthorName
		if isRealUser {
			name = *r.UserFullname
		}
		stories = append(stories, fiber.Map{
			"id":             r.ID,
			"authorName":     name,
			"authorRole":     orDefault(r.AuthorRole, "Citizen"),
			"avatar":         avatarURL(r, name),
			"testimonial":    r.Testimonial,
			"resolutionDays": r.ResolutionDays,
			"beforeImage":    r.BeforeImage,
			"afterImage":     r.AfterImage,
			"complaintId":    r.ComplaintID,
			"isRealUser":     isRealUser,
		})
	}

	return c.JSON(models.OK(fiber.Map{"stories": stories}))
}

// avatarURL prefers the linked user's picture, then the curated avatar,
// then a generated placeholder.
func avatarURL(r storyRow, name string) string {
	if r.UserAvatar != nil && strings.TrimSpace(*r.UserAvatar) != "" {
		return *r.UserAvatar
	}
	if strings.TrimSpace(r.AuthorAvatar) != "" {
		return r.AuthorAvatar
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) +
		"&background=0078D7&color=fff&size=128&bold=true"
}
