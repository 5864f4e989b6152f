package forum

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citizenvoice/citizenvoice-api/internal/auth"
	"github.com/citizenvoice/citizenvoice-api/pkg/models"
	"github.com/citizenvoice/citizenvoice-api/pkg/validation"
)

// Thresholds for the "solutions implemented" proxy metric.
const (
	solutionMinVotes = 20
	solutionMinViews = 100
)

/* ================================ DTOs ================================= */

type CreateDiscussionRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"required,max=10000"`
	Category string `json:"category" validate:"omitempty,oneof=infrastructure safety environment community general"`
}

type AddCommentRequest struct {
	Content         string `json:"content" validate:"required,max=5000"`
	ParentCommentID *uint  `json:"parent_comment_id" validate:"omitempty"`
}

// discussionRow is the list shape with author info and reply count.
type discussionRow struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Category     string    `json:"category"`
	IsFeatured   bool      `json:"is_featured"`
	Views        int64     `json:"views"`
	Votes        int64     `json:"votes"`
	CreatedAt    time.Time `json:"created_at"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar"`
	ReplyCount   int64     `json:"reply_count"`
}

type contributorRow struct {
	ID               uint   `json:"-"`
	Fullname         string `json:"-"`
	ProfilePicture   string `json:"-"`
	DiscussionsCount int64  `json:"-"`
	CommentsCount    int64  `json:"-"`
	Points           int64  `json:"-"`
}

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

/* ================================ Stats ================================ */

// @Summary      Forum statistics
// @Tags         forum
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Router       /forum/stats [get]
func (h *Handler) Stats(c *fiber.Ctx) error {
	var activeMembers int64
	err := h.db.Raw(`
		SELECT COUNT(DISTINCT user_id) FROM (
			SELECT user_id FROM forum_discussions
			UNION
			SELECT user_id FROM forum_comments
		) AS active_users`).Scan(&activeMembers).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	var totalDiscussions, totalComments, solutions int64
	if err := h.db.Model(&models.ForumDiscussion{}).Count(&totalDiscussions).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if err := h.db.Model(&models.ForumComment{}).Count(&totalComments).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	err = h.db.Model(&models.ForumDiscussion{}).
		Where("votes >= ? AND views >= ?", solutionMinVotes, solutionMinViews).
		Count(&solutions).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OK(fiber.Map{
		"activeMembers":        activeMembers,
		"totalDiscussions":     totalDiscussions,
		"totalComments":        totalComments,
		"solutionsImplemented": solutions,
	}))
}

/* ============================= Discussions ============================= */

// @Summary      List discussions
// @Description  Paginated discussion list with author and reply count
// @Tags         forum
// @Produce      json
// @Param        category  query  string  false  "Category filter (or 'all')"
// @Param        search    query  string  false  "Title/content substring"
// @Param        sort      query  string  false  "latest|popular|replies|oldest"
// @Param        page      query  int     false  "Page (1-based)"
// @Param        limit     query  int     false  "Page size"
// @Success      200  {object}  models.Envelope
// @Router       /forum/discussions [get]
func (h *Handler) ListDiscussions(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}
	category := strings.TrimSpace(c.Query("category"))
	search := strings.TrimSpace(c.Query("search"))
	sort := c.Query("sort", "latest")

	base := h.db.
		Table("forum_discussions AS fd").
		Joins("JOIN users u ON fd.user_id = u.id").
		Joins("LEFT JOIN forum_comments fc ON fc.discussion_id = fd.id")
	if category != "" && category != "all" {
		base = base.Where("fd.category = ?", category)
	}
	if search != "" {
		needle := "%" + search + "%"
		base = base.Where("(fd.title ILIKE ? OR fd.content ILIKE ?)", needle, needle)
	}

	var order string
	switch sort {
	case "popular":
		order = "fd.votes DESC, fd.views DESC"
	case "replies":
		order = "reply_count DESC"
	case "oldest":
		order = "fd.created_at ASC"
	default: // latest
		order = "fd.is_featured DESC, fd.created_at DESC"
	}

	rows := make([]discussionRow, 0)
	err := base.Session(&gorm.Session{}).
		Select(`fd.id, fd.title, left(fd.content, 300) AS content, fd.category,
			fd.is_featured, fd.views, fd.votes, fd.created_at,
			u.fullname AS author_name, u.profile_picture AS author_avatar,
			COUNT(DISTINCT fc.id) AS reply_count`).
		Group("fd.id, u.fullname, u.profile_picture").
		Order(order).
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("fd.id").Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OK(fiber.Map{
		"discussions": rows,
		"pagination": fiber.Map{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": int(math.Ceil(float64(total) / float64(limit))),
		},
	}))
}

// @Summary      Discussion detail
// @Description  Returns a discussion with its comment tree. Reading bumps the
// @Description  view counter (at-least-once, not exactly-once).
// @Tags         forum
// @Produce      json
// @Param        id   path  int  true  "discussion id"
// @Success      200  {object}  models.Envelope
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forum/discussions/{id} [get]
func (h *Handler) GetDiscussion(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid discussion id")
	}

	var d struct {
		ID           uint      `json:"id"`
		Title        string    `json:"title"`
		Content      string    `json:"content"`
		Category     string    `json:"category"`
		IsFeatured   bool      `json:"isFeatured"`
		Views        int64     `json:"views"`
		Votes        int64     `json:"votes"`
		CreatedAt    time.Time `json:"createdAt"`
		AuthorID     uint      `json:"authorId"`
		AuthorName   string    `json:"authorName"`
		AuthorAvatar string    `json:"authorAvatar"`
	}
	err = h.db.
		Table("forum_discussions AS fd").
		Select(`fd.id, fd.title, fd.content, fd.category, fd.is_featured, fd.views,
			fd.votes, fd.created_at, u.id AS author_id,
			u.fullname AS author_name, u.profile_picture AS author_avatar`).
		Joins("JOIN users u ON fd.user_id = u.id").
		Where("fd.id = ?", id).
		Take(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Discussion not found")
		}
		return fiber.ErrInternalServerError
	}

	err = h.db.Model(&models.ForumDiscussion{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	d.Views++

	rows := make([]commentRow, 0)
	err = h.db.
		Table("forum_comments AS fc").
		Select(`fc.id, fc.content, fc.parent_comment_id, fc.created_at, u.id AS user_id,
			u.fullname AS author_name, u.profile_picture AS author_avatar`).
		Joins("JOIN users u ON fc.user_id = u.id").
		Where("fc.discussion_id = ?", id).
		Order("fc.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OK(fiber.Map{
		"discussion": d,
		"comments":   buildCommentTree(rows),
	}))
}

// @Summary      Create discussion
// @Tags         forum
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body  CreateDiscussionRequest  true  "Discussion"
// @Success      201  {object}  models.Envelope
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /forum/discussions [post]
func (h *Handler) CreateDiscussion(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)

	var in CreateDiscussionRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	if in.Category == "" {
		in.Category = "general"
	}

	d := models.ForumDiscussion{
		UserID:   userID,
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
	}
	if err := h.db.Create(&d).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	var author struct {
		Fullname       string
		ProfilePicture string
	}
	if err := h.db.Table("users").Where("id = ?", userID).Take(&author).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(models.OKMessage("Discussion created successfully", fiber.Map{
		"discussion": fiber.Map{
			"id": d.ID, "title": d.Title, "content": d.Content,
			"category": d.Category, "is_featured": d.IsFeatured,
			"views": d.Views, "votes": d.Votes, "created_at": d.CreatedAt,
			"author_name": author.Fullname, "author_avatar": author.ProfilePicture,
		},
	}))
}

/* =============================== Comments ============================== */

// @Summary      Add comment or reply
// @Description  Replies attach to a root comment only; the tree depth is fixed at 1
// @Tags         forum
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path  int                true  "discussion id"
// @Param        body  body  AddCommentRequest  true  "Comment"
// @Success      201  {object}  models.Envelope
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forum/discussions/{id}/comments [post]
func (h *Handler) AddComment(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid discussion id")
	}

	var in AddCommentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	in.Content = strings.TrimSpace(in.Content)
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	var exists int64
	if err := h.db.Model(&models.ForumDiscussion{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if exists == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Discussion not found")
	}

	if in.ParentCommentID != nil {
		var parent models.ForumComment
		err := h.db.
			Where("id = ? AND discussion_id = ?", *in.ParentCommentID, id).
			Take(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Parent comment not found")
			}
			return fiber.ErrInternalServerError
		}
		if parent.ParentCommentID != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Replies to replies are not supported")
		}
	}

	cm := models.ForumComment{
		DiscussionID:    uint(id),
		UserID:          userID,
		Content:         in.Content,
		ParentCommentID: in.ParentCommentID,
	}
	if err := h.db.Create(&cm).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	var author struct {
		Fullname       string
		ProfilePicture string
	}
	if err := h.db.Table("users").Where("id = ?", userID).Take(&author).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	msg := "Comment added successfully"
	if in.ParentCommentID != nil {
		msg = "Reply added successfully"
	}
	return c.Status(fiber.StatusCreated).JSON(models.OKMessage(msg, fiber.Map{
		"comment": CommentNode{
			ID:              cm.ID,
			Content:         cm.Content,
			ParentCommentID: cm.ParentCommentID,
			CreatedAt:       cm.CreatedAt,
			AuthorName:      author.Fullname,
			AuthorAvatar:    author.ProfilePicture,
			Replies:         []*CommentNode{},
		},
	}))
}

/* ================================= Vote ================================ */

// @Summary      Toggle vote
// @Description  One vote per user per discussion; a second call removes it
// @Tags         forum
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  int  true  "discussion id"
// @Success      200  {object}  models.Envelope
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forum/discussions/{id}/vote [post]
func (h *Handler) Vote(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid discussion id")
	}

	// The discussion row is locked for the whole toggle so concurrent votes
	// by the same user cannot double-count. The unique (discussion, user)
	// index backs this up.
	var votes int
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var d models.ForumDiscussion
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&d).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Discussion not found")
			}
			return err
		}

		var vote models.ForumVote
		err = tx.Where("discussion_id = ? AND user_id = ?", id, userID).Take(&vote).Error
		switch {
		case err == nil:
			if err := tx.Delete(&vote).Error; err != nil {
				return err
			}
			if err := tx.Model(&d).UpdateColumn("votes", gorm.Expr("votes - 1")).Error; err != nil {
				return err
			}
			votes = d.Votes - 1
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.ForumVote{DiscussionID: uint(id), UserID: userID}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if err := tx.Model(&d).UpdateColumn("votes", gorm.Expr("votes + 1")).Error; err != nil {
				return err
			}
			votes = d.Votes + 1
		default:
			return err
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

	return c.JSON(models.OK(fiber.Map{"votes": votes}))
}

/* ============================ Contributors ============================= */

// @Summary      Top contributors
// @Description  Citizens ranked by discussions*10 + comments*2, top 10
// @Tags         forum
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Router       /forum/contributors [get]
func (h *Handler) TopContributors(c *fiber.Ctx) error {
	rows := make([]contributorRow, 0)
	err := h.db.
		Table("users AS u").
		Select(`u.id, u.fullname, u.profile_picture,
			COUNT(DISTINCT fd.id) AS discussions_count,
			COUNT(DISTINCT fc.id) AS comments_count,
			(COUNT(DISTINCT fd.id) * 10 + COUNT(DISTINCT fc.id) * 2) AS points`).
		Joins("LEFT JOIN forum_discussions fd ON fd.user_id = u.id").
		Joins("LEFT JOIN forum_comments fc ON fc.user_id = u.id").
		Where("u.role = ?", models.RoleCitizen).
		Group("u.id, u.fullname, u.profile_picture").
		Having("(COUNT(DISTINCT fd.id) * 10 + COUNT(DISTINCT fc.id) * 2) > 0").
		Order("points DESC").
		Limit(10).
		Scan(&rows).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}

	contributors := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		contributors = append(contributors, fiber.Map{
			"id":          r.ID,
			"name":        r.Fullname,
			"avatar":      r.ProfilePicture,
			"discussions": r.DiscussionsCount,
			"comments":    r.CommentsCount,
			"points":      r.Points,
		})
	}

	return c.JSON(models.OK(fiber.Map{"contributors": contributors}))
}
