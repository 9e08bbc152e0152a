package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shortlink/auth"
	"shortlink/config"
	"shortlink/models"
	"shortlink/repository"
	"shortlink/services"
	"shortlink/shortid"
	"shortlink/workers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	router *gin.Engine
	clicks *workers.ClickQueue
}

// newApp wires the full stack over an in-memory database, the same way
// the server command does it.
func newApp(t *testing.T) *app {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Link{}, &models.Click{}))

	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Server.BaseURL = "http://sho.rt"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTLHours = 1
	cfg.ShortID.Length = 8
	cfg.ShortID.MaxAttempts = 5

	linkRepo := repository.NewLinkRepository(db, 5*time.Second)
	userRepo := repository.NewUserRepository(db, 5*time.Second)

	linkService := services.NewLinkService(linkRepo, userRepo, shortid.NewGenerator(cfg.ShortID.Length), cfg.ShortID.MaxAttempts)
	userService := services.NewUserService(userRepo)
	authManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.TokenTTL())

	clicks := workers.StartClickWorkers(2, 100, 5*time.Second, linkService)
	t.Cleanup(clicks.Close)

	router := gin.New()
	New(cfg, authManager, linkService, userService, clicks).SetupRoutes(router)

	return &app{router: router, clicks: clicks}
}

func (a *app) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signup registers a user and returns a valid token for them.
func (a *app) signup(t *testing.T, email string) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/user/register", "", gin.H{
		"username": "user-" + email,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/user/login", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token, ok := decode(t, w)["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func (a *app) createLink(t *testing.T, token string, body gin.H) map[string]any {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/links", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	w := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	a := newApp(t)

	token := a.signup(t, "alice@example.com")

	w := a.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
	// Password hash never leaves the boundary.
	assert.NotContains(t, w.Body.String(), "password")
}

func TestLogin_WrongPassword(t *testing.T) {
	a := newApp(t)
	a.signup(t, "alice@example.com")

	w := a.do(t, http.MethodPost, "/api/user/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "auth_error")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	a := newApp(t)
	a.signup(t, "alice@example.com")

	w := a.do(t, http.MethodPost, "/api/user/register", "", gin.H{
		"username": "imposter",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkEndpointsRequireAuth(t *testing.T) {
	a := newApp(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/links"},
		{http.MethodGet, "/api/links"},
		{http.MethodGet, "/api/links/1"},
		{http.MethodPut, "/api/links/1"},
		{http.MethodDelete, "/api/links/1"},
		{http.MethodGet, "/api/user/profile"},
	} {
		w := a.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestCreateLink(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	resp := a.createLink(t, token, gin.H{
		"redirect_url": "https://example.com/landing",
		"remark":       "campaign",
	})

	shortID, _ := resp["short_id"].(string)
	assert.Len(t, shortID, 8)
	assert.Equal(t, "http://sho.rt/"+shortID, resp["short_url"])
	assert.Nil(t, resp["expires_at"])
}

func TestCreateLink_InvalidBody(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	w := a.do(t, http.MethodPost, "/api/links", token, gin.H{
		"redirect_url": "not a url",
		"remark":       "campaign",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestListLinks_EmptyIsOK(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	w := a.do(t, http.MethodGet, "/api/links", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(0), resp["total"])
	links, ok := resp["links"].([]any)
	require.True(t, ok, "links must be an array, got %s", w.Body.String())
	assert.Empty(t, links)
}

func TestRedirectRecordsClick(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	created := a.createLink(t, token, gin.H{
		"redirect_url": "https://example.com/landing",
		"remark":       "campaign",
	})
	shortID := created["short_id"].(string)
	linkID := created["id"].(float64)

	w := a.do(t, http.MethodGet, "/"+shortID, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/landing", w.Header().Get("Location"))

	// The click is appended by a background worker.
	statsPath := fmt.Sprintf("/api/links/%d/stats", int(linkID))
	require.Eventually(t, func() bool {
		sw := a.do(t, http.MethodGet, statsPath, token, nil)
		if sw.Code != http.StatusOK {
			return false
		}
		return decode(t, sw)["total_clicks"] == float64(1)
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRedirect_UnknownShortID(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodGet, "/nosuchid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestRedirect_Expired(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	yesterday := time.Now().Add(-24 * time.Hour)
	created := a.createLink(t, token, gin.H{
		"redirect_url": "https://example.com/old",
		"remark":       "stale",
		"expires_at":   yesterday,
	})

	w := a.do(t, http.MethodGet, "/"+created["short_id"].(string), "", nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "link_expired")
}

func TestUpdateLink_ClearingExpiryReactivates(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	yesterday := time.Now().Add(-24 * time.Hour)
	created := a.createLink(t, token, gin.H{
		"redirect_url": "https://example.com/old",
		"remark":       "stale",
		"expires_at":   yesterday,
	})
	shortID := created["short_id"].(string)
	linkID := int(created["id"].(float64))

	w := a.do(t, http.MethodGet, "/"+shortID, "", nil)
	require.Equal(t, http.StatusGone, w.Code)

	w = a.do(t, http.MethodPut, fmt.Sprintf("/api/links/%d", linkID), token, gin.H{
		"expires_at": nil,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/"+shortID, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestUpdateLink_PartialLeavesExpiry(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	tomorrow := time.Now().Add(24 * time.Hour)
	created := a.createLink(t, token, gin.H{
		"redirect_url": "https://example.com/landing",
		"remark":       "campaign",
		"expires_at":   tomorrow,
	})
	linkID := int(created["id"].(float64))

	w := a.do(t, http.MethodPut, fmt.Sprintf("/api/links/%d", linkID), token, gin.H{
		"remark": "renamed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, fmt.Sprintf("/api/links/%d", linkID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "renamed", data["remark"])
	assert.NotNil(t, data["expires_at"])
}

func TestDeleteLink_ThenResolve(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	created := a.createLink(t, token, gin.H{
		"redirect_url": "https://example.com/landing",
		"remark":       "campaign",
	})
	shortID := created["short_id"].(string)
	linkID := int(created["id"].(float64))

	w := a.do(t, http.MethodDelete, fmt.Sprintf("/api/links/%d", linkID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/"+shortID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnershipIsolation(t *testing.T) {
	a := newApp(t)
	alice := a.signup(t, "alice@example.com")
	bob := a.signup(t, "bob@example.com")

	created := a.createLink(t, alice, gin.H{
		"redirect_url": "https://example.com/private",
		"remark":       "mine",
	})
	linkID := int(created["id"].(float64))

	// Another owner sees 404, not 403, so link ids are not probeable.
	w := a.do(t, http.MethodGet, fmt.Sprintf("/api/links/%d", linkID), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodPut, fmt.Sprintf("/api/links/%d", linkID), bob, gin.H{"remark": "stolen"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodDelete, fmt.Sprintf("/api/links/%d", linkID), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodGet, "/api/links", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total"])
}

func TestSearchLinks(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	a.createLink(t, token, gin.H{"redirect_url": "https://example.com/1", "remark": "Spring Campaign"})
	a.createLink(t, token, gin.H{"redirect_url": "https://example.com/2", "remark": "internal docs"})

	w := a.do(t, http.MethodGet, "/api/links/search?query=campaign", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(1), resp["total"])
	assert.Contains(t, w.Body.String(), "Spring Campaign")
}

func TestDeleteAccount_RemovesLinks(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	created := a.createLink(t, token, gin.H{
		"redirect_url": "https://example.com/landing",
		"remark":       "campaign",
	})
	shortID := created["short_id"].(string)

	w := a.do(t, http.MethodDelete, "/api/user/delete", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/"+shortID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The token identifies a user that no longer exists.
	w = a.do(t, http.MethodGet, "/api/user/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "alice@example.com")

	w := a.do(t, http.MethodPut, "/api/user/update", token, gin.H{"mobile": "555-0100"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "555-0100")
}
