package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBotReturnsKeyOnce(t *testing.T) {
	_, app := newTestServer(t)
	_, token := signupUser(t, app, "owner@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/bots", token, map[string]interface{}{
		"name":        "Newsbot",
		"description": "Aggregates headlines",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create bot: %v", body)

	key := body["api_key"].(string)
	assert.True(t, strings.HasPrefix(key, "bot_"))
	assert.Len(t, key, 36)

	bot := body["bot"].(map[string]interface{})
	assert.Equal(t, "Newsbot", bot["name"])
	assert.Equal(t, "ACTIVE", bot["status"])
	assert.Equal(t, key[len(key)-4:], bot["api_key_hint"])
	// Safe defaults: drafting and commenting on, publishing off, never trusted.
	assert.Equal(t, true, bot["can_draft"])
	assert.Equal(t, true, bot["can_comment"])
	assert.Equal(t, false, bot["can_publish"])
	assert.Equal(t, false, bot["trusted"])

	// Neither the digest nor the plaintext key appear on later reads.
	botID := uint(bot["id"].(float64))
	resp, body = doJSON(t, app, http.MethodGet, botPath(botID, ""), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := body["bot"].(map[string]interface{})
	assert.NotContains(t, fetched, "api_key")
	assert.NotContains(t, fetched, "api_key_hash")
}

func TestBotOwnershipScoping(t *testing.T) {
	_, app := newTestServer(t)

	_, aliceToken := signupUser(t, app, "alice@example.com")
	_, bobToken := signupUser(t, app, "bob@example.com")
	botID, _ := createBot(t, app, aliceToken, map[string]interface{}{"name": "Alicebot"})

	// Another user's bot is indistinguishable from a missing one.
	resp, body := doJSON(t, app, http.MethodGet, botPath(botID, ""), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, _ = doJSON(t, app, http.MethodPatch, botPath(botID, ""), bobToken,
		map[string]interface{}{"name": "Stolen"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/bots/", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["bots"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/bots/", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["bots"], 1)
}

func TestBotManagementIsSessionOnly(t *testing.T) {
	_, app := newTestServer(t)
	_, token := signupUser(t, app, "owner@example.com")
	_, botKey := createBot(t, app, token, map[string]interface{}{"name": "Worker"})

	// A bot credential cannot create or list bots.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/bots", botKey,
		map[string]interface{}{"name": "Spawn"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/bots/", botKey, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBotSelfProfile(t *testing.T) {
	_, app := newTestServer(t)
	userID, token := signupUser(t, app, "owner@example.com")
	botID, botKey := createBot(t, app, token, map[string]interface{}{"name": "Selfbot"})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/bots/me", botKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "profile: %v", body)
	bot := body["bot"].(map[string]interface{})
	assert.Equal(t, float64(botID), bot["id"])
	owner := body["owner"].(map[string]interface{})
	assert.Equal(t, float64(userID), owner["id"])

	// Sessions are not bot credentials.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/bots/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRevokedKeyStopsWorkingImmediately(t *testing.T) {
	_, app := newTestServer(t)
	_, token := signupUser(t, app, "owner@example.com")
	botID, botKey := createBot(t, app, token, map[string]interface{}{"name": "Doomed"})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/bots/me", botKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "profile before revoke: %v", body)

	resp, body = doJSON(t, app, http.MethodDelete, botPath(botID, ""), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "revoke: %v", body)
	assert.Equal(t, "REVOKED", body["status"])

	// The very next request with the old key is rejected.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/bots/me", botKey, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])

	// Revoking again is idempotent.
	resp, body = doJSON(t, app, http.MethodDelete, botPath(botID, ""), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "REVOKED", body["status"])
}

func TestUpdateBotCannotResurrectViaStatus(t *testing.T) {
	_, app := newTestServer(t)
	_, token := signupUser(t, app, "owner@example.com")
	botID, _ := createBot(t, app, token, map[string]interface{}{"name": "Zombie"})

	resp, body := doJSON(t, app, http.MethodDelete, botPath(botID, ""), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "revoke: %v", body)

	// A status field in the PATCH body is dead weight.
	resp, body = doJSON(t, app, http.MethodPatch, botPath(botID, ""), token,
		map[string]interface{}{"status": "ACTIVE", "name": "Still Zombie"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "update: %v", body)
	assert.Equal(t, "REVOKED", body["status"])
	assert.Equal(t, "Still Zombie", body["name"])
}

func TestRegenerateKeyRotatesCredential(t *testing.T) {
	_, app := newTestServer(t)
	_, token := signupUser(t, app, "owner@example.com")
	botID, oldKey := createBot(t, app, token, map[string]interface{}{"name": "Rotator"})

	resp, body := doJSON(t, app, http.MethodPost, botPath(botID, "regenerate-key"), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "regenerate: %v", body)
	newKey := body["api_key"].(string)
	require.NotEqual(t, oldKey, newKey)
	bot := body["bot"].(map[string]interface{})
	assert.Equal(t, newKey[len(newKey)-4:], bot["api_key_hint"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/bots/me", oldKey, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/bots/me", newKey, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMalformedBotKeyRejected(t *testing.T) {
	_, app := newTestServer(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/posts/", "bot_nothexnothexnothexnothexnothex", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/posts/", "bot_0123456789abcdef0123456789abcdef", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])
}
