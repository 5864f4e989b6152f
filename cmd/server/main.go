// @title           CitizenVoice API
// @version         1.0
// @description     Municipal complaint tracking: citizens submit complaints, agencies resolve them, admins assign, and a public dashboard/forum surfaces aggregate statistics.
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/citizenvoice/citizenvoice-api/pkg/config"
	"github.com/citizenvoice/citizenvoice-api/pkg/database"
	"github.com/citizenvoice/citizenvoice-api/pkg/models"

	// Docs
	_ "github.com/citizenvoice/citizenvoice-api/docs"
	"github.com/citizenvoice/citizenvoice-api/internal/admin"
	"github.com/citizenvoice/citizenvoice-api/internal/agency"
	"github.com/citizenvoice/citizenvoice-api/internal/auth"
	"github.com/citizenvoice/citizenvoice-api/internal/complaints"
	"github.com/citizenvoice/citizenvoice-api/internal/forum"
	"github.com/citizenvoice/citizenvoice-api/internal/homepage"
	"github.com/citizenvoice/citizenvoice-api/internal/public"
	"github.com/citizenvoice/citizenvoice-api/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg)

	// A production process with no signing secret would reject every
	// authenticated request anyway, so refuse to start.
	if cfg.Production() && cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is required in production")
	}

	db := database.Init(cfg.DatabaseURL)
	if err := db.AutoMigrate(
		&models.Agency{}, &models.User{},
		&models.Complaint{}, &models.ComplaintFile{}, &models.ComplaintUpdate{},
		&models.ForumDiscussion{}, &models.ForumComment{}, &models.ForumVote{},
		&models.SuccessStory{}, &models.SatisfactionRating{}, &models.TrackingCounter{},
	); err != nil {
		logrus.WithError(err).Fatal("migration failed")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.NewErrorHandler(cfg.AppEnv),
	})

	app.Static("/uploads", cfg.UploadDir)
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	store := storage.NewLocal(cfg.UploadDir)
	authed := auth.RequireAuth(cfg.JWTSecret)

	// Auth
	authH := auth.NewHandler(db, cfg, store)
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/auth/profile", authed, authH.GetProfile)
	api.Patch("/auth/profile", authed, authH.UpdateProfile)

	// Complaints (owner-scoped)
	compH := complaints.NewHandler(db, store)
	api.Post("/complaints", authed, compH.Submit)
	api.Get("/complaints/my", authed, compH.ListMine)
	api.Get("/complaints/export", authed, compH.ExportCSV)
	api.Get("/complaints/updates", authed, compH.PollUpdates)
	api.Post("/complaints/:id/updates", authed, compH.AddUpdate)
	api.Get("/complaints/:id", authed, compH.GetDetail)

	// Admin
	adminH := admin.NewHandler(db)
	adminOnly := auth.RequireRole(models.RoleAdmin)
	api.Get("/admin/complaints", authed, adminOnly, adminH.ListAll)
	api.Post("/admin/assign", authed, adminOnly, adminH.Assign)
	api.Patch("/admin/status", authed, adminOnly, adminH.SetStatus)
	api.Get("/admin/agencies", authed, adminOnly, adminH.ListAgencies)

	// Agency
	agencyH := agency.NewHandler(db)
	agencyOnly := auth.RequireRole(models.RoleAgency)
	api.Get("/agency/info", authed, agencyOnly, agencyH.Info)
	api.Get("/agency/complaints", authed, agencyOnly, agencyH.AssignedComplaints)
	api.Patch("/agency/status", authed, agencyOnly, agencyH.SetStatus)

	// Public dashboard
	publicH := public.NewHandler(db)
	api.Get("/public/stats", publicH.Stats)
	api.Get("/public/complaints", publicH.Complaints)
	api.Get("/public/agencies/performance", publicH.AgencyPerformance)
	api.Get("/public/categories/trending", publicH.TrendingCategories)

	// Forum
	forumH := forum.NewHandler(db)
	api.Get("/forum/stats", forumH.Stats)
	api.Get("/forum/discussions", forumH.ListDiscussions)
	api.Get("/forum/discussions/:id", forumH.GetDiscussion)
	api.Get("/forum/contributors", forumH.TopContributors)
	api.Post("/forum/discussions", authed, forumH.CreateDiscussion)
	api.Post("/forum/discussions/:id/vote", authed, forumH.Vote)
	api.Post("/forum/discussions/:id/comments", authed, forumH.AddComment)

	// Homepage
	homeH := homepage.NewHandler(db)
	api.Get("/homepage/stats", homeH.Stats)
	api.Get("/homepage/trending-issues", homeH.TrendingIssues)
	api.Get("/homepage/success-stories", homeH.SuccessStories)

	logrus.WithField("port", cfg.Port).Info("server listening")
	logrus.Fatal(app.Listen(":" + cfg.Port))
}

func setupLogging(cfg config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}
}
