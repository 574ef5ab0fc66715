package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Atchyuteswar/ZenReader/internal/auth"
	"github.com/Atchyuteswar/ZenReader/internal/config"
	"github.com/Atchyuteswar/ZenReader/internal/database"
	"github.com/Atchyuteswar/ZenReader/internal/files"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *database.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fileStore, err := files.NewStore(t.TempDir())
	require.NoError(t, err)

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	service := auth.NewService(db, issuer, nil, config.Auth{BcryptCost: bcrypt.MinCost})

	router := NewRouter(RouterConfig{
		Database:       db,
		FileStore:      fileStore,
		AuthService:    service,
		AuthMiddleware: auth.NewMiddleware(issuer),
		Version:        "test",
	})
	return router, db
}

func postJSON(t *testing.T, router *gin.Engine, url string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func signupUser(t *testing.T, router *gin.Engine, email, password string) string {
	t.Helper()
	w := postJSON(t, router, "/api/auth/signup", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.Token)
	return response.Token
}

func TestSignup(t *testing.T) {
	t.Run("returns a usable token", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		token := signupUser(t, router, "a@x.com", "pw1")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "a@x.com")
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("duplicate email", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		signupUser(t, router, "a@x.com", "pw1")

		w := postJSON(t, router, "/api/auth/signup", gin.H{"email": "a@x.com", "password": "pw2"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Email already exists")
	})

	t.Run("missing fields", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := postJSON(t, router, "/api/auth/signup", gin.H{"email": "a@x.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Email and password required")
	})

	t.Run("invalid email", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := postJSON(t, router, "/api/auth/signup", gin.H{"email": "nope", "password": "pw1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		signupUser(t, router, "a@x.com", "pw1")

		w := postJSON(t, router, "/api/auth/login", gin.H{"email": "a@x.com", "password": "pw1"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "token")
	})

	t.Run("wrong password", func(t *testing.T) {
		router, _ := setupTestRouter(t)
		signupUser(t, router, "a@x.com", "pw1")

		w := postJSON(t, router, "/api/auth/login", gin.H{"email": "a@x.com", "password": "wrong"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")
	})

	t.Run("unknown user gets the same error as a wrong password", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := postJSON(t, router, "/api/auth/login", gin.H{"email": "nobody@x.com", "password": "pw1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")
	})
}

func TestGoogleLogin(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := postJSON(t, router, "/api/auth/google", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMe(t *testing.T) {
	t.Run("without a token", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/auth/me", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("with an invalid token", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("token for a deleted user", func(t *testing.T) {
		router, db := setupTestRouter(t)
		token := signupUser(t, router, "a@x.com", "pw1")

		user, err := db.GetUserByEmail("a@x.com")
		require.NoError(t, err)
		require.NoError(t, db.DB.Delete(user).Error)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
