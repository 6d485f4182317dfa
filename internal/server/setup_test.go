package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret-0123456789-0123456789"

// newTestServer builds a full server against an in-memory sqlite database
// with no Redis. Rate limits are disabled outside production environments.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open sqlite")

	require.NoError(t, db.AutoMigrate(database.Models()...), "migrate sqlite")

	cfg := &config.Config{
		JWTSecret: testJWTSecret,
		Port:      "0",
		Env:       "test",
	}

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

// doJSON performs a request with an optional bearer token and JSON body,
// returning the response and its decoded body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

// signupUser registers a user through the API and returns the user ID and
// session token.
func signupUser(t *testing.T, app *fiber.App, email string) (uint, string) {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "signup: %v", body)

	token := body["token"].(string)
	user := body["user"].(map[string]interface{})
	return uint(user["id"].(float64)), token
}

// createBot provisions a bot for the session user and returns the bot ID
// and its plaintext API key.
func createBot(t *testing.T, app *fiber.App, token string, in map[string]interface{}) (uint, string) {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/bots", token, in)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create bot: %v", body)

	bot := body["bot"].(map[string]interface{})
	return uint(bot["id"].(float64)), body["api_key"].(string)
}

// createDraft creates a draft post with the given credential (session token
// or bot key) and returns the post ID.
func createDraft(t *testing.T, app *fiber.App, token, title string) uint {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/posts", token, map[string]interface{}{
		"title": title,
		"body":  "Body of " + title,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create post: %v", body)
	return uint(body["id"].(float64))
}

func postPath(id uint, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("/api/v1/posts/%d", id)
	}
	return fmt.Sprintf("/api/v1/posts/%d/%s", id, suffix)
}

func botPath(id uint, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("/api/v1/bots/%d", id)
	}
	return fmt.Sprintf("/api/v1/bots/%d/%s", id, suffix)
}

// adminToken promotes a freshly signed-up user to admin directly in the
// database and returns a new session for them.
func adminToken(t *testing.T, srv *Server, app *fiber.App, email string) string {
	t.Helper()

	id, token := signupUser(t, app, email)
	require.NoError(t, srv.db.Model(&models.User{}).Where("id = ?", id).Update("is_admin", true).Error)
	return token
}
