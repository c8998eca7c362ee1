package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kshaab/Coursework-5/internal/app"
	"github.com/kshaab/Coursework-5/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (http.Handler, *app.App) {
	t.Helper()

	cfg := &config.Config{
		AppName:            "Habits",
		AppEnv:             "development",
		AppURL:             "http://example.test",
		TimeZone:           "UTC",
		DBDriver:           "sqlite",
		DBConnection:       filepath.Join(t.TempDir(), "habits.db") + "?_pragma=foreign_keys(1)",
		AutoMigrate:        true,
		JWTSecret:          "test-secret",
		JWTAccessExpiry:    15 * time.Minute,
		JWTRefreshExpiry:   24 * time.Hour,
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		PageSize:           5,
		MaxPageSize:        10,
		TelegramURL:        "http://127.0.0.1:1/",
		TelegramTimeout:    time.Second,
		MediaRoot:          t.TempDir(),
	}

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return SetupRoutes(a), a
}

type apiClient struct {
	t *testing.T
	h http.Handler
}

func (c apiClient) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "http://example.test"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// signUp registers a user and returns its id and an access token.
func (c apiClient) signUp(email string) (int64, string) {
	c.t.Helper()

	rec := c.do(http.MethodPost, "/api/users", "", map[string]any{"email": email, "password": "tulip-garden-42"})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int64(decode(c.t, rec)["id"].(float64))

	rec = c.do(http.MethodPost, "/api/token", "", map[string]any{"email": email, "password": "tulip-garden-42"})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	return id, decode(c.t, rec)["access"].(string)
}

func (c apiClient) createHabit(token string, habit map[string]any) int64 {
	c.t.Helper()

	rec := c.do(http.MethodPost, "/api/habits", token, habit)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode(c.t, rec)["id"].(float64))
}

func walk(public bool) map[string]any {
	return map[string]any{
		"place": "Park", "time": "09:00", "action": "Walk",
		"duration": 60, "reward": "Coffee", "is_public": public,
	}
}

func TestHabitCreateAndRules(t *testing.T) {
	h, _ := newTestServer(t)
	c := apiClient{t: t, h: h}
	annID, ann := c.signUp("ann@example.com")

	pleasantID := c.createHabit(ann, map[string]any{
		"place": "Home", "time": "21:00", "action": "Bath", "duration": 90, "is_pleasant": true,
	})

	rec := c.do(http.MethodPost, "/api/habits", ann, walk(false))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(annID), body["user"])
	assert.Equal(t, "09:00:00", body["time"])
	assert.Equal(t, float64(1), body["periodicity"])

	// Owner comes from the token, never from the body
	spoofed := walk(false)
	spoofed["user"] = 999
	rec = c.do(http.MethodPost, "/api/habits", ann, spoofed)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(annID), decode(t, rec)["user"])

	both := walk(false)
	both["related_habit"] = pleasantID
	rec = c.do(http.MethodPost, "/api/habits", ann, both)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "reward_or_related", decode(t, rec)["rule"])

	tooLong := walk(false)
	tooLong["duration"] = 121
	rec = c.do(http.MethodPost, "/api/habits", ann, tooLong)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "duration", decode(t, rec)["rule"])

	rec = c.do(http.MethodPost, "/api/habits", ann, map[string]any{"place": "Park"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/habits", "", walk(false))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHabitAccessPolicy(t *testing.T) {
	h, _ := newTestServer(t)
	c := apiClient{t: t, h: h}
	_, ann := c.signUp("ann@example.com")
	_, bob := c.signUp("bob@example.com")

	private := c.createHabit(ann, walk(false))
	public := c.createHabit(ann, walk(true))

	rec := c.do(http.MethodGet, fmt.Sprintf("/api/habits/%d", private), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodGet, fmt.Sprintf("/api/habits/%d", public), bob, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPatch, fmt.Sprintf("/api/habits/%d", public), bob, map[string]any{"place": "Beach"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodDelete, fmt.Sprintf("/api/habits/%d", public), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodGet, "/api/habits/9999", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPatch, fmt.Sprintf("/api/habits/%d", public), ann, map[string]any{"place": "Beach"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Beach", decode(t, rec)["place"])

	rec = c.do(http.MethodPatch, fmt.Sprintf("/api/habits/%d", public), ann, map[string]any{"periodicity": 8})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = c.do(http.MethodDelete, fmt.Sprintf("/api/habits/%d", public), ann, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHabitListAndPagination(t *testing.T) {
	h, _ := newTestServer(t)
	c := apiClient{t: t, h: h}
	_, ann := c.signUp("ann@example.com")
	_, bob := c.signUp("bob@example.com")

	for i := 0; i < 6; i++ {
		habit := walk(i%2 == 0) // three public
		habit["time"] = fmt.Sprintf("0%d:00", i+1)
		c.createHabit(ann, habit)
	}
	c.createHabit(bob, walk(false))

	rec := c.do(http.MethodGet, "/api/habits", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.Equal(t, float64(4), page["count"])
	assert.Nil(t, page["next"])
	results := page["results"].([]any)
	require.Len(t, results, 4)
	assert.Equal(t, "01:00:00", results[0].(map[string]any)["time"])

	rec = c.do(http.MethodGet, "/api/habits", ann, nil)
	page = decode(t, rec)
	assert.Equal(t, float64(6), page["count"])
	assert.Len(t, page["results"], 5)
	assert.Equal(t, "http://example.test/api/habits?page=2", page["next"])

	rec = c.do(http.MethodGet, "/api/habits?page=2", ann, nil)
	page = decode(t, rec)
	assert.Len(t, page["results"], 1)
	assert.Equal(t, "http://example.test/api/habits", page["previous"])

	rec = c.do(http.MethodGet, "/api/habits?page_size=50", ann, nil)
	assert.Len(t, decode(t, rec)["results"], 6)

	rec = c.do(http.MethodGet, "/api/habits?page=3", ann, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodGet, "/api/habits?page=abc", ann, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokensAndUserViews(t *testing.T) {
	h, _ := newTestServer(t)
	c := apiClient{t: t, h: h}
	annID, ann := c.signUp("ann@example.com")
	_, bob := c.signUp("bob@example.com")

	rec := c.do(http.MethodPost, "/api/token", "", map[string]any{"email": "ann@example.com", "password": "nope-nope-1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/api/users", "", map[string]any{"email": "ann@example.com", "password": "tulip-garden-42"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/token", "", map[string]any{"email": "ann@example.com", "password": "tulip-garden-42"})
	require.Equal(t, http.StatusOK, rec.Code)
	refresh := decode(t, rec)["refresh"].(string)

	rec = c.do(http.MethodPost, "/api/token/refresh", "", map[string]any{"refresh": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["access"])

	// A refresh token does not authenticate API calls
	rec = c.do(http.MethodGet, "/api/habits", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodGet, fmt.Sprintf("/api/users/%d", annID), ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	own := decode(t, rec)
	assert.Equal(t, "ann@example.com", own["email"])
	assert.NotNil(t, own["last_login"])
	assert.NotContains(t, own, "password_hash")

	rec = c.do(http.MethodGet, fmt.Sprintf("/api/users/%d", annID), bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	public := decode(t, rec)
	assert.NotContains(t, public, "email")
	assert.Contains(t, public, "town")

	rec = c.do(http.MethodPatch, fmt.Sprintf("/api/users/%d", annID), bob, map[string]any{"town": "Kazan"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodPatch, fmt.Sprintf("/api/users/%d", annID), ann, map[string]any{"town": "kazan", "tg_chat_id": "555"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kazan", decode(t, rec)["town"])

	rec = c.do(http.MethodGet, "/api/users", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["count"])
}

func TestUserDeleteCascades(t *testing.T) {
	h, a := newTestServer(t)
	c := apiClient{t: t, h: h}
	annID, ann := c.signUp("ann@example.com")
	c.createHabit(ann, walk(true))

	rec := c.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", annID), ann, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int
	require.NoError(t, a.DB.Get(&count, `SELECT COUNT(*) FROM habits`))
	assert.Zero(t, count)

	// The token no longer resolves to a user
	rec = c.do(http.MethodGet, "/api/habits", ann, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAvatarUploadToLocalMedia(t *testing.T) {
	h, _ := newTestServer(t)
	c := apiClient{t: t, h: h}
	annID, ann := c.signUp("ann@example.com")

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("http://example.test/api/users/%d/avatar", annID), &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ann)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	avatar := decode(t, rec)["avatar"].(string)
	require.True(t, strings.HasPrefix(avatar, "http://example.test/media/avatars/"), avatar)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(avatar, "http://example.test"), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProbes(t *testing.T) {
	h, _ := newTestServer(t)
	c := apiClient{t: t, h: h}

	rec := c.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	c.do(http.MethodGet, "/api/habits", "", nil)

	rec = c.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_request_duration_seconds_count{method="GET",path="GET /api/habits",status="401"}`)
}

func TestDeletingRelatedHabitKeepsUsefulOne(t *testing.T) {
	h, _ := newTestServer(t)
	c := apiClient{t: t, h: h}
	_, ann := c.signUp("ann@example.com")

	pleasantID := c.createHabit(ann, map[string]any{
		"place": "Home", "time": "21:00", "action": "Bath", "duration": 90, "is_pleasant": true,
	})
	usefulID := c.createHabit(ann, map[string]any{
		"place": "Park", "time": "09:00", "action": "Walk", "duration": 60, "related_habit": pleasantID,
	})

	rec := c.do(http.MethodDelete, fmt.Sprintf("/api/habits/%d", pleasantID), ann, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, fmt.Sprintf("/api/habits/%d", usefulID), ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body, "related_habit")
	assert.Nil(t, body["related_habit"])
}

func TestBlankRewardIsNotStored(t *testing.T) {
	h, _ := newTestServer(t)
	c := apiClient{t: t, h: h}
	_, ann := c.signUp("ann@example.com")

	rec := c.do(http.MethodPost, "/api/habits", ann, map[string]any{
		"place": "Home", "time": "21:00", "action": "Bath", "duration": 90, "is_pleasant": true, "reward": "   ",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, decode(t, rec)["reward"])
}
