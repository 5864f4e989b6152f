package admin

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/citizenvoice/citizenvoice-api/internal/auth"
	"github.com/citizenvoice/citizenvoice-api/pkg/models"
)

/* ============================================================================
   Helpers
   ============================================================================ */

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Fatal("TEST_DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Agency{}, &models.User{},
		&models.Complaint{}, &models.ComplaintUpdate{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	complaint_updates,
	complaints,
	users,
	agencies
RESTART IDENTITY CASCADE`
		if err := db.Exec(sql).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})

	return db
}

func withTx(t *testing.T, db *gorm.DB, fn func(tx *gorm.DB)) {
	t.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	fn(tx)
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit tx: %v", err)
	}
}

func injectAuth(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		c.Locals("role", role)
		return c.Next()
	}
}

func newTestApp(h *Handler, userID uint) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: auth.NewErrorHandler("test")})
	app.Use(injectAuth(userID, string(models.RoleAdmin)))
	app.Get("/api/admin/complaints", h.ListAll)
	app.Post("/api/admin/assign", h.Assign)
	app.Patch("/api/admin/status", h.SetStatus)
	app.Get("/api/admin/agencies", h.ListAgencies)
	return app
}

type seedResult struct {
	AdminID     uint
	CitizenID   uint
	AgencyID    uint
	ComplaintID uint
}

func seed(t *testing.T, tx *gorm.DB) seedResult {
	t.Helper()

	admin := models.User{Fullname: "Admin", Email: "admin@x.com", PasswordHash: "x", Role: models.RoleAdmin}
	if err := tx.Create(&admin).Error; err != nil {
		t.Fatal(err)
	}
	citizen := models.User{Fullname: "Citizen", Email: "citizen@x.com", PasswordHash: "x", Role: models.RoleCitizen}
	if err := tx.Create(&citizen).Error; err != nil {
		t.Fatal(err)
	}
	agency := models.Agency{Name: "Road Works", Email: "roads@x.com"}
	if err := tx.Create(&agency).Error; err != nil {
		t.Fatal(err)
	}
	cp := models.Complaint{
		UserID:         citizen.ID,
		TrackingNumber: "CV-2026-000001",
		Title:          "Pothole",
		Description:    "Large hole",
		Priority:       models.PriorityMedium,
		Status:         models.StatusPending,
	}
	if err := tx.Create(&cp).Error; err != nil {
		t.Fatal(err)
	}

	return seedResult{AdminID: admin.ID, CitizenID: citizen.ID, AgencyID: agency.ID, ComplaintID: cp.ID}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func auditRows(t *testing.T, tx *gorm.DB, complaintID uint) []models.ComplaintUpdate {
	t.Helper()
	var rows []models.ComplaintUpdate
	if err := tx.Where("complaint_id = ?", complaintID).Order("id").Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	return rows
}

/* ============================================================================
   Tests — assignment forces in_review, audit rows, status validation
   ============================================================================ */

// Assignment always lands the complaint in in_review and leaves an audit trail.
func Test_Assign_ForcesInReview_WithAuditRows(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		s := seed(t, tx)
		h := NewHandler(tx)
		app := newTestApp(h, s.AdminID)

		code, out := doJSON(t, app, "POST", "/api/admin/assign", map[string]any{
			"complaintId": s.ComplaintID, "agencyId": s.AgencyID,
		})
		if code != 200 {
			t.Fatalf("status %d: %v", code, out)
		}

		var cp models.Complaint
		if err := tx.First(&cp, s.ComplaintID).Error; err != nil {
			t.Fatal(err)
		}
		if cp.Status != models.StatusInReview {
			t.Fatalf("want in_review, got %s", cp.Status)
		}
		if cp.AssignedAgencyID == nil || *cp.AssignedAgencyID != s.AgencyID {
			t.Fatalf("agency not set: %+v", cp.AssignedAgencyID)
		}

		rows := auditRows(t, tx, s.ComplaintID)
		var haveAssignment, haveStatusChange bool
		for _, r := range rows {
			switch r.UpdateType {
			case models.UpdateAssignment:
				haveAssignment = true
			case models.UpdateStatusChange:
				haveStatusChange = true
			}
		}
		if !haveAssignment || !haveStatusChange {
			t.Fatalf("want assignment + status_change audit rows, got %+v", rows)
		}
	})
}

// Re-assigning a resolved complaint still forces it back to in_review.
func Test_Assign_ResetsResolvedToInReview(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		s := seed(t, tx)
		if err := tx.Model(&models.Complaint{}).Where("id = ?", s.ComplaintID).
			Update("status", models.StatusResolved).Error; err != nil {
			t.Fatal(err)
		}

		h := NewHandler(tx)
		app := newTestApp(h, s.AdminID)

		code, _ := doJSON(t, app, "POST", "/api/admin/assign", map[string]any{
			"complaintId": s.ComplaintID, "agencyId": s.AgencyID,
		})
		if code != 200 {
			t.Fatalf("status %d", code)
		}

		var cp models.Complaint
		if err := tx.First(&cp, s.ComplaintID).Error; err != nil {
			t.Fatal(err)
		}
		if cp.Status != models.StatusInReview {
			t.Fatalf("want in_review, got %s", cp.Status)
		}
	})
}

func Test_Assign_MissingComplaintOrAgency_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		s := seed(t, tx)
		h := NewHandler(tx)
		app := newTestApp(h, s.AdminID)

		code, _ := doJSON(t, app, "POST", "/api/admin/assign", map[string]any{
			"complaintId": 999999, "agencyId": s.AgencyID,
		})
		if code != 404 {
			t.Fatalf("missing complaint: status %d", code)
		}
		code, _ = doJSON(t, app, "POST", "/api/admin/assign", map[string]any{
			"complaintId": s.ComplaintID, "agencyId": 999999,
		})
		if code != 404 {
			t.Fatalf("missing agency: status %d", code)
		}
	})
}

// Admin may set any of the three statuses; a resolved transition is audited
// as a resolution.
func Test_SetStatus_AnyValue_WithResolutionAudit(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		s := seed(t, tx)
		h := NewHandler(tx)
		app := newTestApp(h, s.AdminID)

		for _, status := range []string{"in_review", "resolved", "pending"} {
			code, out := doJSON(t, app, "PATCH", "/api/admin/status", map[string]any{
				"complaintId": s.ComplaintID, "status": status,
			})
			if code != 200 {
				t.Fatalf("set %s: status %d: %v", status, code, out)
			}
		}

		rows := auditRows(t, tx, s.ComplaintID)
		var haveResolution bool
		for _, r := range rows {
			if r.UpdateType == models.UpdateResolution {
				haveResolution = true
			}
		}
		if !haveResolution {
			t.Fatalf("want a resolution audit row, got %+v", rows)
		}
	})
}

func Test_SetStatus_RejectsUnknownValue(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		s := seed(t, tx)
		h := NewHandler(tx)
		app := newTestApp(h, s.AdminID)

		code, out := doJSON(t, app, "PATCH", "/api/admin/status", map[string]any{
			"complaintId": s.ComplaintID, "status": "closed",
		})
		if code != 400 {
			t.Fatalf("status %d: %v", code, out)
		}
	})
}

func Test_ListAll_JoinsUserAndAgency(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		s := seed(t, tx)
		if err := tx.Model(&models.Complaint{}).Where("id = ?", s.ComplaintID).
			Updates(map[string]any{"assigned_agency_id": s.AgencyID, "status": models.StatusInReview}).Error; err != nil {
			t.Fatal(err)
		}

		h := NewHandler(tx)
		app := newTestApp(h, s.AdminID)

		resp, _ := app.Test(httptest.NewRequest("GET", "/api/admin/complaints", nil))
		if resp.StatusCode != 200 {
			t.Fatalf("status %d", resp.StatusCode)
		}
		var out struct {
			Data struct {
				Complaints []struct {
					UserName   string `json:"user_name"`
					AgencyName string `json:"agency_name"`
				} `json:"complaints"`
			} `json:"data"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if len(out.Data.Complaints) != 1 {
			t.Fatalf("want 1 complaint, got %d", len(out.Data.Complaints))
		}
		got := out.Data.Complaints[0]
		if got.UserName != "Citizen" || got.AgencyName != "Road Works" {
			t.Fatalf("join missing: %+v", got)
		}
	})
}
