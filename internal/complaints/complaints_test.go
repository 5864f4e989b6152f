package complaints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

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

// openTestDB loads TEST_DATABASE_URL, opens a real Postgres connection,
// runs migrations, and registers a cleanup that truncates test tables after run.
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
		&models.Complaint{}, &models.ComplaintFile{}, &models.ComplaintUpdate{},
		&models.TrackingCounter{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	complaint_updates,
	complaint_files,
	complaints,
	tracking_counters,
	users,
	agencies
RESTART IDENTITY CASCADE`
		if err := db.Exec(sql).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})

	return db
}

// withTx wraps a function in a DB transaction and commits it at the end.
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

// injectAuth populates the locals RequireAuth would set, without a real JWT.
func injectAuth(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		c.Locals("role", role)
		c.Locals("email", fmt.Sprintf("u%d@x.com", userID))
		return c.Next()
	}
}

func newTestApp(h *Handler, userID uint, role string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: auth.NewErrorHandler("test")})
	app.Use(injectAuth(userID, role))

	// Static routes before parameterized ones so /my is not shadowed by /:id
	app.Get("/api/complaints/my", h.ListMine)
	app.Get("/api/complaints/export", h.ExportCSV)
	app.Get("/api/complaints/updates", h.PollUpdates)
	app.Post("/api/complaints/:id/updates", h.AddUpdate)
	app.Get("/api/complaints/:id", h.GetDetail)
	app.Post("/api/complaints", h.Submit)

	return app
}

func seedUser(t *testing.T, tx *gorm.DB, role models.Role) models.User {
	t.Helper()
	u := models.User{
		Fullname:     "Test User",
		Email:        fmt.Sprintf("user_%d@x.com", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         role,
	}
	if err := tx.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func seedComplaint(t *testing.T, tx *gorm.DB, userID uint) models.Complaint {
	t.Helper()
	cp := models.Complaint{
		UserID:         userID,
		TrackingNumber: fmt.Sprintf("CV-2026-%06d", time.Now().UnixNano()%1000000),
		Title:          "Pothole",
		Description:    "Large hole",
		Category:       "road-infrastructure",
		Priority:       models.PriorityMedium,
		Status:         models.StatusPending,
	}
	if err := tx.Create(&cp).Error; err != nil {
		t.Fatal(err)
	}
	return cp
}

func submitForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf, w.FormDataContentType()
}

/* ============================================================================
   Tests — submit, ownership, polling, concurrency
   ============================================================================ */

// A fresh submission is pending, unassigned, and gets a well-formed tracking number.
func Test_Submit_StartsPending_WithTrackingNumber(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		u := seedUser(t, tx, models.RoleCitizen)

		h := NewHandler(tx, nil)
		app := newTestApp(h, u.ID, string(models.RoleCitizen))

		body, ctype := submitForm(t, map[string]string{
			"title":       "Pothole",
			"description": "Large hole",
		})
		req := httptest.NewRequest("POST", "/api/complaints", body)
		req.Header.Set("Content-Type", ctype)
		resp, _ := app.Test(req)
		if resp.StatusCode != 201 {
			t.Fatalf("status %d", resp.StatusCode)
		}

		var out struct {
			Data struct {
				Complaint models.Complaint `json:"complaint"`
			} `json:"data"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)

		cp := out.Data.Complaint
		if cp.Status != models.StatusPending {
			t.Fatalf("want pending, got %s", cp.Status)
		}
		if cp.AssignedAgencyID != nil {
			t.Fatalf("new complaint should be unassigned")
		}
		if ok, _ := regexp.MatchString(`^CV-\d{4}-\d{6}$`, cp.TrackingNumber); !ok {
			t.Fatalf("bad tracking number %q", cp.TrackingNumber)
		}
	})
}

// Missing title or description is rejected before anything is written.
func Test_Submit_RequiresTitleAndDescription(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		u := seedUser(t, tx, models.RoleCitizen)

		h := NewHandler(tx, nil)
		app := newTestApp(h, u.ID, string(models.RoleCitizen))

		body, ctype := submitForm(t, map[string]string{"title": "Pothole"})
		req := httptest.NewRequest("POST", "/api/complaints", body)
		req.Header.Set("Content-Type", ctype)
		resp, _ := app.Test(req)
		if resp.StatusCode != 400 {
			t.Fatalf("status %d", resp.StatusCode)
		}

		var count int64
		if err := tx.Model(&models.Complaint{}).Count(&count).Error; err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Fatalf("no complaint row expected, got %d", count)
		}
	})
}

// A complaint owned by someone else reads as 404, never 403.
func Test_GetDetail_OwnershipScoped(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		owner := seedUser(t, tx, models.RoleCitizen)
		other := seedUser(t, tx, models.RoleCitizen)
		cp := seedComplaint(t, tx, owner.ID)

		h := NewHandler(tx, nil)

		ownerApp := newTestApp(h, owner.ID, string(models.RoleCitizen))
		resp, _ := ownerApp.Test(httptest.NewRequest("GET", fmt.Sprintf("/api/complaints/%d", cp.ID), nil))
		if resp.StatusCode != 200 {
			t.Fatalf("owner: status %d", resp.StatusCode)
		}

		otherApp := newTestApp(h, other.ID, string(models.RoleCitizen))
		resp, _ = otherApp.Test(httptest.NewRequest("GET", fmt.Sprintf("/api/complaints/%d", cp.ID), nil))
		if resp.StatusCode != 404 {
			t.Fatalf("other: status %d", resp.StatusCode)
		}
	})
}

// The poll cursor advances to the newest id; re-polling with it returns nothing.
func Test_PollUpdates_CursorAdvances(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		u := seedUser(t, tx, models.RoleCitizen)
		cp := seedComplaint(t, tx, u.ID)

		for i := 0; i < 3; i++ {
			up := models.ComplaintUpdate{
				ComplaintID: cp.ID,
				UserID:      &u.ID,
				UpdateType:  models.UpdateComment,
				Message:     fmt.Sprintf("note %d", i),
			}
			if err := tx.Create(&up).Error; err != nil {
				t.Fatal(err)
			}
		}

		h := NewHandler(tx, nil)
		app := newTestApp(h, u.ID, string(models.RoleCitizen))

		var out struct {
			Data struct {
				Count          int `json:"count"`
				LatestUpdateID int `json:"latestUpdateId"`
			} `json:"data"`
		}

		resp, _ := app.Test(httptest.NewRequest("GET", "/api/complaints/updates?lastUpdateId=0", nil))
		if resp.StatusCode != 200 {
			t.Fatalf("status %d", resp.StatusCode)
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.Data.Count != 3 {
			t.Fatalf("want 3 updates, got %d", out.Data.Count)
		}
		cursor := out.Data.LatestUpdateID
		if cursor == 0 {
			t.Fatal("cursor should advance past 0")
		}

		resp, _ = app.Test(httptest.NewRequest("GET", fmt.Sprintf("/api/complaints/updates?lastUpdateId=%d", cursor), nil))
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.Data.Count != 0 {
			t.Fatalf("want 0 new updates, got %d", out.Data.Count)
		}
		if out.Data.LatestUpdateID != cursor {
			t.Fatalf("cursor moved without new rows: %d != %d", out.Data.LatestUpdateID, cursor)
		}
	})
}

// Regression for the racy count-then-format scheme: concurrent reservations
// must never hand out the same tracking number.
func Test_ConcurrentTrackingNumbers_Distinct(t *testing.T) {
	db := openTestDB(t)

	const n = 10
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		numbers = make(map[string]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				num, err := nextTrackingNumber(tx, time.Now())
				if err != nil {
					return err
				}
				mu.Lock()
				numbers[num] = true
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("reserve: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(numbers) != n {
		t.Fatalf("want %d distinct tracking numbers, got %d", n, len(numbers))
	}
}
