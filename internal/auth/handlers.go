package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/citizenvoice/citizenvoice-api/internal/storage"
	"github.com/citizenvoice/citizenvoice-api/pkg/config"
	"github.com/citizenvoice/citizenvoice-api/pkg/models"
	"github.com/citizenvoice/citizenvoice-api/pkg/validation"
)

/* ================================ DTOs ================================= */

// Request body for /auth/register
type RegisterRequest struct {
	Fullname string `json:"fullname" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=citizen agency admin"`
}

// Request body for /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
}

// AgencyInfo is the embedded agency block for agency users.
type AgencyInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserProfile is the sanitized user shape returned by every auth endpoint.
type UserProfile struct {
	ID             uint        `json:"id"`
	Fullname       string      `json:"fullname"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	ProfilePicture string      `json:"profile_picture,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	AgencyID       *uint       `json:"agency_id,omitempty"`
	Agency         *AgencyInfo `json:"agency,omitempty"`
}

/* ============================== Handler ================================= */

type Handler struct {
	db    *gorm.DB
	cfg   config.Config
	store *storage.Local
}

func NewHandler(db *gorm.DB, cfg config.Config, store *storage.Local) *Handler {
	return &Handler{db: db, cfg: cfg, store: store}
}

func profileOf(u models.User, agency *AgencyInfo) UserProfile {
	p := UserProfile{
		ID:             u.ID,
		Fullname:       u.Fullname,
		Email:          u.Email,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
	if u.Role == models.RoleAgency && u.AgencyID != nil {
		p.AgencyID = u.AgencyID
		p.Agency = agency
	}
	return p
}

// loadAgency resolves the agency block for an agency user; nil otherwise.
func (h *Handler) loadAgency(u models.User) *AgencyInfo {
	if u.Role != models.RoleAgency || u.AgencyID == nil {
		return nil
	}
	var a models.Agency
	if err := h.db.First(&a, "id = ?", *u.AgencyID).Error; err != nil {
		return nil
	}
	return &AgencyInfo{ID: a.ID, Name: a.Name, Email: a.Email}
}

/* =============================== Register =============================== */

// @Summary      Register
// @Description  Register a new user (citizen by default)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  RegisterRequest  true  "Registration payload"
// @Success      201      {object}  models.Envelope
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      409      {object}  models.ErrorResponse  "email already registered"
// @Router       /auth/register [post]
func (h *Handler) Register(c *fiber.Ctx) error {
	var in RegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	// Normalize email
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	role := models.RoleCitizen
	if in.Role != "" {
		role = models.Role(in.Role)
	}

	var count int64
	if err := h.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "Email already registered")
	}

	// Reject before hashing/inserting so a missing secret never leaves a
	// user row without a usable session.
	if h.cfg.JWTSecret == "" {
		return ErrServerConfig
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fiber.ErrInternalServerError
	}

	u := models.User{
		Fullname:     strings.TrimSpace(in.Fullname),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := h.db.Create(&u).Error; err != nil {
		// Unique index race on email
		return fiber.NewError(fiber.StatusConflict, "Email already registered")
	}

	token, err := IssueToken(h.cfg.JWTSecret, h.cfg.JWTTTL, u)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(models.OKMessage("User registered successfully", fiber.Map{
		"user":  profileOf(u, nil),
		"token": token,
	}))
}

/* ================================ Login ================================= */

// @Summary      Login
// @Description  Authenticate and receive a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  LoginRequest  true  "Login payload"
// @Success      200      {object}  models.Envelope
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      401      {object}  models.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var in LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	if h.cfg.JWTSecret == "" {
		return ErrServerConfig
	}

	// Same message for unknown email and wrong password.
	var u models.User
	if err := h.db.Where("email = ?", in.Email).First(&u).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	}

	token, err := IssueToken(h.cfg.JWTSecret, h.cfg.JWTTTL, u)
	if err != nil {
		return err
	}
	return c.JSON(models.OKMessage("Login successful", fiber.Map{
		"user":  profileOf(u, h.loadAgency(u)),
		"token": token,
	}))
}

/* =============================== Profile ================================ */

// @Summary      Get current user profile
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.Envelope
// @Failure      401  {object}  models.ErrorResponse
// @Router       /auth/profile [get]
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	userID := MustUserID(c)

	var u models.User
	if err := h.db.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OK(fiber.Map{"user": profileOf(u, h.loadAgency(u))}))
}

// @Summary      Update profile
// @Description  Update fullname and/or upload a new profile picture (multipart)
// @Tags         auth
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullname         formData  string  false  "New full name"
// @Param        profile_picture  formData  file    false  "New profile picture"
// @Success      200  {object}  models.Envelope
// @Failure      400  {object}  models.ErrorResponse
// @Router       /auth/profile [patch]
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	userID := MustUserID(c)

	var u models.User
	if err := h.db.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return fiber.ErrInternalServerError
	}

	updates := map[string]any{}

	if fullname := c.FormValue("fullname"); fullname != "" {
		fullname = strings.TrimSpace(fullname)
		if len(fullname) < 2 {
			return fiber.NewError(fiber.StatusBadRequest, "Fullname must be at least 2 characters")
		}
		updates["fullname"] = fullname
	}

	// An uploaded file always wins over any other picture field.
	if fh, err := c.FormFile("profile_picture"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.ErrInternalServerError
		}
		defer f.Close()

		publicPath, err := h.store.Save(storage.DirProfiles, fh.Filename, f)
		if err != nil {
			return fiber.ErrInternalServerError
		}
		updates["profile_picture"] = publicPath

		// Drop the previous picture only when it was stored locally,
		// never an externally-hosted avatar URL.
		if u.ProfilePicture != "" {
			_ = h.store.Remove(u.ProfilePicture)
		}
	}

	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No fields to update")
	}

	if err := h.db.Model(&u).Updates(updates).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if err := h.db.First(&u, "id = ?", userID).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(models.OKMessage("Profile updated successfully", fiber.Map{
		"user": profileOf(u, h.loadAgency(u)),
	}))
}
