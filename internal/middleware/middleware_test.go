package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach-go/internal/model"
	"interview-coach-go/internal/service"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/token"
)

type stubUsers struct {
	service.UserService
	users   map[string]*model.User
	revoked map[string]bool
}

func (s *stubUsers) GetProfile(username string) (*model.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, errs.ErrNotFound
}

func (s *stubUsers) IsTokenRevoked(_ context.Context, tok string) bool {
	return s.revoked[tok]
}

func newRouter(jwt *token.JWTManager, users *stubUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	authed := r.Group("/", AuthMiddleware(jwt, users))
	authed.GET("/me", func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.String(http.StatusOK, u.Username)
	})
	authed.GET("/admin", AdminAuthMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func get(r http.Handler, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwt := token.NewJWTManager("k", 1, 1)
	users := &stubUsers{
		users:   map[string]*model.User{"ann": {ID: 1, Username: "ann", Role: "USER"}, "root": {ID: 2, Username: "root", Role: RoleAdmin}},
		revoked: map[string]bool{},
	}
	r := newRouter(jwt, users)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "not-a-jwt").Code)

	annTok, err := jwt.GenerateToken(1, "ann", "USER")
	require.NoError(t, err)
	w := get(r, "/me", annTok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", annTok).Code)
	rootTok, err := jwt.GenerateToken(2, "root", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", rootTok).Code)

	refresh, err := jwt.GenerateRefreshToken(1, "ann", "USER")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", refresh).Code)

	users.revoked[annTok] = true
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", annTok).Code)
}
