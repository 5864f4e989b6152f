package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/citizenvoice/citizenvoice-api/pkg/config"
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
	if err := db.AutoMigrate(&models.Agency{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		sql := `TRUNCATE TABLE users, agencies RESTART IDENTITY CASCADE`
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

func testConfig() config.Config {
	return config.Config{
		AppEnv:    "test",
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
	}
}

func newTestApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler("test")})
	app.Post("/api/auth/register", h.Register)
	app.Post("/api/auth/login", h.Login)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(body, &out)
	return resp.StatusCode, out
}

/* ============================================================================
   Tests — registration conflicts, credential privacy, config errors
   ============================================================================ */

// Same email twice is a conflict; different emails get distinct ids.
func Test_Register_DuplicateEmail_Conflict(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		h := NewHandler(tx, testConfig(), nil)
		app := newTestApp(h)

		code, _ := postJSON(t, app, "/api/auth/register", map[string]string{
			"fullname": "Ana Citizen", "email": "ana@x.com", "password": "secret1",
		})
		if code != 201 {
			t.Fatalf("first register: status %d", code)
		}

		code, out := postJSON(t, app, "/api/auth/register", map[string]string{
			"fullname": "Ana Again", "email": "ANA@x.com", "password": "secret2",
		})
		if code != 409 {
			t.Fatalf("duplicate register: status %d", code)
		}
		if out["error"] != "CONFLICT" {
			t.Fatalf("want CONFLICT, got %v", out["error"])
		}

		code, out = postJSON(t, app, "/api/auth/register", map[string]string{
			"fullname": "Ben Citizen", "email": "ben@x.com", "password": "secret3",
		})
		if code != 201 {
			t.Fatalf("second register: status %d", code)
		}

		var users []models.User
		if err := tx.Order("id").Find(&users).Error; err != nil {
			t.Fatal(err)
		}
		if len(users) != 2 || users[0].ID == users[1].ID {
			t.Fatalf("want 2 users with distinct ids, got %+v", users)
		}
	})
}

// Short passwords never reach the database.
func Test_Register_PasswordTooShort(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		h := NewHandler(tx, testConfig(), nil)
		app := newTestApp(h)

		code, out := postJSON(t, app, "/api/auth/register", map[string]string{
			"fullname": "Ana", "email": "ana@x.com", "password": "12345",
		})
		if code != 400 {
			t.Fatalf("status %d", code)
		}
		if out["error"] != "VALIDATION" {
			t.Fatalf("want VALIDATION, got %v", out["error"])
		}

		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Fatalf("no user row expected, got %d", count)
		}
	})
}

// Unknown email and wrong password must be indistinguishable to the caller.
func Test_Login_GenericFailureMessage(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		h := NewHandler(tx, testConfig(), nil)
		app := newTestApp(h)

		code, _ := postJSON(t, app, "/api/auth/register", map[string]string{
			"fullname": "Ana Citizen", "email": "ana@x.com", "password": "secret1",
		})
		if code != 201 {
			t.Fatalf("register: status %d", code)
		}

		code1, out1 := postJSON(t, app, "/api/auth/login", map[string]string{
			"email": "ana@x.com", "password": "wrong-password",
		})
		code2, out2 := postJSON(t, app, "/api/auth/login", map[string]string{
			"email": "nobody@x.com", "password": "secret1",
		})

		if code1 != 401 || code2 != 401 {
			t.Fatalf("want 401/401, got %d/%d", code1, code2)
		}
		if out1["message"] != out2["message"] {
			t.Fatalf("messages differ: %q vs %q", out1["message"], out2["message"])
		}
	})
}

// A missing signing secret rejects registration before any row is written.
func Test_Register_MissingSecret_NoUserRow(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		cfg := testConfig()
		cfg.JWTSecret = ""
		h := NewHandler(tx, cfg, nil)
		app := newTestApp(h)

		code, out := postJSON(t, app, "/api/auth/register", map[string]string{
			"fullname": "Ana", "email": "ana@x.com", "password": "secret1",
		})
		if code != 500 {
			t.Fatalf("status %d", code)
		}
		if out["error"] != "SERVER_CONFIG" {
			t.Fatalf("want SERVER_CONFIG, got %v", out["error"])
		}

		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Fatalf("no user row expected, got %d", count)
		}
	})
}

// Issued tokens round-trip through RequireAuth and expose the right locals.
func Test_IssueToken_RoundTrip(t *testing.T) {
	u := models.User{ID: 7, Email: "ana@x.com", Role: models.RoleCitizen}
	token, err := IssueToken("test-secret", testConfig().JWTTTL, u)
	if err != nil {
		t.Fatal(err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler("test")})
	app.Get("/whoami", RequireAuth("test-secret"), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": MustUserID(c), "role": MustRole(c)})
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := app.Test(req)
	if resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out struct {
		UserID uint   `json:"userID"`
		Role   string `json:"role"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if out.UserID != 7 || out.Role != "citizen" {
		t.Fatalf("unexpected claims: %+v", out)
	}

	// Wrong secret is rejected outright.
	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	badApp := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler("test")})
	badApp.Get("/whoami", RequireAuth("other-secret"), func(c *fiber.Ctx) error { return c.SendStatus(200) })
	resp, _ = badApp.Test(req)
	if resp.StatusCode != 401 {
		t.Fatalf("wrong secret: status %d", resp.StatusCode)
	}
}
