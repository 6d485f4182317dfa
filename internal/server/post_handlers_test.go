package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostVisibility(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	_, botKey := createBot(t, app, ownerToken, map[string]interface{}{"name": "Drafter"})
	postID := createDraft(t, app, botKey, "Hidden Draft")

	_, strangerToken := signupUser(t, app, "stranger@example.com")

	// Denied readers get the same 404 as a missing post, never a 403.
	resp, body := doJSON(t, app, http.MethodGet, postPath(postID, ""), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, body = doJSON(t, app, http.MethodGet, postPath(postID, ""), strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, body = doJSON(t, app, http.MethodGet, postPath(postID, ""), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DRAFT", body["status"])

	resp, _ = doJSON(t, app, http.MethodGet, postPath(postID, ""), botKey, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The draft never leaks into the public listing.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/posts/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["total"])
}

func TestSubmitReviewApproveFlow(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	_, botKey := createBot(t, app, ownerToken, map[string]interface{}{"name": "Writer"})
	postID := createDraft(t, app, botKey, "Pending Piece")

	// Untrusted bot submit lands in review.
	resp, body := doJSON(t, app, http.MethodPost, postPath(postID, "submit"), botKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "submit: %v", body)
	assert.Equal(t, "PENDING_REVIEW", body["status"])
	assert.Equal(t, "pending_review", body["note"])
	assert.Nil(t, body["published_at"])

	// Still invisible to anonymous readers while pending.
	resp, _ = doJSON(t, app, http.MethodGet, postPath(postID, ""), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Owner approval publishes.
	resp, body = doJSON(t, app, http.MethodPost, postPath(postID, "approve"), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "approve: %v", body)
	assert.Equal(t, "PUBLISHED", body["status"])
	assert.Equal(t, "published", body["note"])
	publishedAt, ok := body["published_at"].(string)
	require.True(t, ok, "published_at should be set")

	// Re-approving is a success that changes nothing, including the
	// publication timestamp.
	resp, body = doJSON(t, app, http.MethodPost, postPath(postID, "approve"), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "already_published", body["note"])
	assert.Equal(t, publishedAt, body["published_at"])

	// Published content is world-readable.
	resp, body = doJSON(t, app, http.MethodGet, postPath(postID, ""), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PUBLISHED", body["status"])
	assert.Equal(t, publishedAt, body["published_at"])
}

func TestTrustedAutoPublishRequiresBothFlags(t *testing.T) {
	_, app := newTestServer(t)
	_, ownerToken := signupUser(t, app, "owner@example.com")

	cases := []struct {
		name       string
		trusted    bool
		canPublish bool
		wantStatus string
		wantNote   string
	}{
		{"trusted with publish grant", true, true, "PUBLISHED", "published"},
		{"trusted without publish grant", true, false, "PENDING_REVIEW", "pending_review"},
		{"publish grant without trust", false, true, "PENDING_REVIEW", "pending_review"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			botID, botKey := createBot(t, app, ownerToken, map[string]interface{}{
				"name":        "Bot " + tc.name,
				"can_publish": tc.canPublish,
			})
			if tc.trusted {
				resp, body := doJSON(t, app, http.MethodPatch, botPath(botID, ""), ownerToken,
					map[string]interface{}{"trusted": true})
				require.Equal(t, http.StatusOK, resp.StatusCode, "trust bot: %v", body)
			}

			postID := createDraft(t, app, botKey, "Auto "+tc.name)
			resp, body := doJSON(t, app, http.MethodPost, postPath(postID, "submit"), botKey, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, "submit: %v", body)
			assert.Equal(t, tc.wantStatus, body["status"])
			assert.Equal(t, tc.wantNote, body["note"])
			if tc.wantStatus == "PUBLISHED" {
				assert.NotNil(t, body["published_at"])
			} else {
				assert.Nil(t, body["published_at"])
			}
		})
	}
}

func TestSubmitRequiresAuthoringBot(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	_, authorKey := createBot(t, app, ownerToken, map[string]interface{}{"name": "Author"})
	_, siblingKey := createBot(t, app, ownerToken, map[string]interface{}{"name": "Sibling"})
	postID := createDraft(t, app, authorKey, "One Bot Only")

	// Sessions cannot submit, even the owner's.
	resp, _ := doJSON(t, app, http.MethodPost, postPath(postID, "submit"), ownerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A sibling bot of the same owner is not the author.
	resp, body := doJSON(t, app, http.MethodPost, postPath(postID, "submit"), siblingKey, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestUpdatePostIgnoresStatusField(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	postID := createDraft(t, app, ownerToken, "Stubborn Draft")

	resp, body := doJSON(t, app, http.MethodPatch, postPath(postID, ""), ownerToken,
		map[string]interface{}{"title": "Renamed", "status": "PUBLISHED"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "update: %v", body)
	assert.Equal(t, "Renamed", body["title"])
	assert.Equal(t, "DRAFT", body["status"])

	// Still invisible: the status smuggled into the body did nothing.
	resp, _ = doJSON(t, app, http.MethodGet, postPath(postID, ""), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	_, botKey := createBot(t, app, ownerToken, map[string]interface{}{"name": "Writer"})
	postID := createDraft(t, app, botKey, "Bot Draft")

	// The owner can read the draft, so the denial is an honest 403, not 404.
	resp, body := doJSON(t, app, http.MethodPatch, postPath(postID, ""), ownerToken,
		map[string]interface{}{"title": "Touched"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])

	resp, body = doJSON(t, app, http.MethodPatch, postPath(postID, ""), botKey,
		map[string]interface{}{"title": "Touched"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "author edit: %v", body)
	assert.Equal(t, "Touched", body["title"])
}

func TestPublishedPostNotEditable(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	postID := createDraft(t, app, ownerToken, "Fixed In Print")

	resp, body := doJSON(t, app, http.MethodPost, postPath(postID, "publish"), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "publish: %v", body)
	require.Equal(t, "PUBLISHED", body["status"])

	resp, body = doJSON(t, app, http.MethodPatch, postPath(postID, ""), ownerToken,
		map[string]interface{}{"body": "late edit"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
}

func TestRejectArchivesAndIsIdempotent(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	_, botKey := createBot(t, app, ownerToken, map[string]interface{}{"name": "Writer"})
	postID := createDraft(t, app, botKey, "Doomed Draft")

	resp, body := doJSON(t, app, http.MethodPost, postPath(postID, "submit"), botKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "submit: %v", body)

	resp, body = doJSON(t, app, http.MethodPost, postPath(postID, "reject"), ownerToken,
		map[string]interface{}{"reason": "off topic"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "reject: %v", body)
	assert.Equal(t, "ARCHIVED", body["status"])
	assert.Equal(t, "archived", body["note"])
	assert.Equal(t, "off topic", body["reason"])

	// Retried rejection is a 200 no-op.
	resp, body = doJSON(t, app, http.MethodPost, postPath(postID, "reject"), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "already_archived", body["note"])
}

func TestArchive(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	_, strangerToken := signupUser(t, app, "stranger@example.com")
	postID := createDraft(t, app, ownerToken, "Short Lived")

	resp, body := doJSON(t, app, http.MethodPost, postPath(postID, "publish"), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "publish: %v", body)

	// A non-owner's archive attempt looks exactly like a missing post.
	resp, body = doJSON(t, app, http.MethodDelete, postPath(postID, ""), strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, body = doJSON(t, app, http.MethodDelete, postPath(postID, ""), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ARCHIVED", body["status"])
	assert.Equal(t, "archived", body["note"])

	// Re-archiving is idempotent, and the archived post is gone from readers.
	resp, body = doJSON(t, app, http.MethodDelete, postPath(postID, ""), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "already_archived", body["note"])

	resp, _ = doJSON(t, app, http.MethodGet, postPath(postID, ""), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestViewCounter(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	draftID := createDraft(t, app, ownerToken, "Not Yet Counted")

	// Views on unpublished posts are rejected as not found.
	resp, _ := doJSON(t, app, http.MethodPost, postPath(draftID, "view"), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, postPath(draftID, "publish"), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "publish: %v", body)

	resp, body = doJSON(t, app, http.MethodPost, postPath(draftID, "view"), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["view_count"])

	resp, body = doJSON(t, app, http.MethodPost, postPath(draftID, "view"), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["view_count"])
}

func TestPinRequiresAdmin(t *testing.T) {
	srv, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	postID := createDraft(t, app, ownerToken, "Front Page Material")
	resp, body := doJSON(t, app, http.MethodPost, postPath(postID, "publish"), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "publish: %v", body)

	resp, body = doJSON(t, app, http.MethodPost, postPath(postID, "pin"), ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])

	admin := adminToken(t, srv, app, "admin@example.com")
	resp, body = doJSON(t, app, http.MethodPost, postPath(postID, "pin"), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "pin: %v", body)
	assert.Equal(t, true, body["pinned"])

	resp, body = doJSON(t, app, http.MethodDelete, postPath(postID, "pin"), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["pinned"])
}

func TestCreatePostRequiresIdentity(t *testing.T) {
	_, app := newTestServer(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/posts/", "", map[string]interface{}{
		"title": "Anon", "body": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])
}

func TestReviewQueue(t *testing.T) {
	_, app := newTestServer(t)

	_, ownerToken := signupUser(t, app, "owner@example.com")
	_, botKey := createBot(t, app, ownerToken, map[string]interface{}{"name": "Writer"})
	_, otherToken := signupUser(t, app, "other@example.com")

	draftID := createDraft(t, app, botKey, "Queued Draft")
	pendingID := createDraft(t, app, botKey, "Queued Pending")
	resp, body := doJSON(t, app, http.MethodPost, postPath(pendingID, "submit"), botKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "submit: %v", body)

	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/reviews", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "queue: %v", body)
	posts := body["posts"].([]interface{})
	require.Len(t, posts, 2)
	ids := map[float64]bool{}
	for _, raw := range posts {
		ids[raw.(map[string]interface{})["id"].(float64)] = true
	}
	assert.True(t, ids[float64(draftID)])
	assert.True(t, ids[float64(pendingID)])

	// The queue is scoped to the caller's own content.
	resp, body = doJSON(t, app, http.MethodGet, "/api/v1/reviews", otherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["posts"])

	// Anonymous callers have no queue.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/reviews", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
