package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ngochdusi/chat/internal/apperr"
	"github.com/ngochdusi/chat/internal/db/dbtest"
	"github.com/ngochdusi/chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*SessionManager, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	m := NewSessionManager(gdb, 7*24*time.Hour, false)
	m.now = func() time.Time { return fixedNow }
	return m, gdb
}

func createUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, gdb.Create(&u).Error)
	return &u
}

func TestGenerateSessionToken(t *testing.T) {
	token1, err := GenerateSessionToken()
	require.NoError(t, err)
	token2, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)
	// hex encoded 32 bytes = 64 chars
	assert.Len(t, token1, 64)
}

func TestCreate_PersistsSessionWithSevenDayExpiry(t *testing.T) {
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")

	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, u.ID, s.UserID)
	assert.True(t, s.ExpiresAt.Equal(fixedNow.Add(7*24*time.Hour)))

	var stored models.Session
	require.NoError(t, gdb.Where("token = ?", s.Token).First(&stored).Error)
	assert.Equal(t, s.ID, stored.ID)
}

func TestCreate_NewRowPerCall(t *testing.T) {
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")

	s1, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)
	s2, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	assert.NotEqual(t, s1.Token, s2.Token)
	var count int64
	require.NoError(t, gdb.Model(&models.Session{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestResolve(t *testing.T) {
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	got, err := m.Resolve(context.Background(), s.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Nil(t, got.FullName)
}

func TestResolve_WithProfile(t *testing.T) {
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")
	name := "Alice Liddell"
	require.NoError(t, gdb.Create(&models.UserProfile{UserID: u.ID, FullName: &name}).Error)
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	got, err := m.Resolve(context.Background(), s.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.FullName)
	assert.Equal(t, name, *got.FullName)
}

func TestResolve_NoCurrentUser(t *testing.T) {
	m, _ := newTestManager(t)

	for _, token := range []string{"", "does-not-exist"} {
		got, err := m.Resolve(context.Background(), token)
		assert.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestResolve_Expiry(t *testing.T) {
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	// expires_at == now is not yet expired
	m.now = func() time.Time { return s.ExpiresAt }
	got, err := m.Resolve(context.Background(), s.Token)
	require.NoError(t, err)
	assert.NotNil(t, got)

	m.now = func() time.Time { return s.ExpiresAt.Add(time.Second) }
	got, err = m.Resolve(context.Background(), s.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolve_DoesNotExtendExpiry(t *testing.T) {
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	m.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	_, err = m.Resolve(context.Background(), s.Token)
	require.NoError(t, err)

	var stored models.Session
	require.NoError(t, gdb.Where("token = ?", s.Token).First(&stored).Error)
	assert.True(t, stored.ExpiresAt.Equal(s.ExpiresAt))
}

func TestRequire(t *testing.T) {
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	got, err := m.Require(context.Background(), s.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.Require(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestRevoke(t *testing.T) {
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)
	other, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	m.Revoke(context.Background(), s.Token)

	got, err := m.Resolve(context.Background(), s.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	// other sessions of the same user stay valid
	got, err = m.Resolve(context.Background(), other.Token)
	require.NoError(t, err)
	assert.NotNil(t, got)

	// unknown and empty tokens are a no-op
	m.Revoke(context.Background(), "unknown")
	m.Revoke(context.Background(), "")
}

func TestSetCookie(t *testing.T) {
	m, _ := newTestManager(t)
	s := &models.Session{Token: "abc", ExpiresAt: fixedNow.Add(7 * 24 * time.Hour)}

	w := httptest.NewRecorder()
	m.SetCookie(w, s)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.True(t, c.Expires.Equal(s.ExpiresAt))
}

func TestClearCookie(t *testing.T) {
	m, _ := newTestManager(t)

	w := httptest.NewRecorder()
	m.ClearCookie(w)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestRequireUser_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, gdb := newTestManager(t)
	u := createUser(t, gdb, "alice")
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", m.RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c)})
	})
	r.GET("/chat", m.RequireUserOrRedirect("/login"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
	}{
		{"json without cookie", "/me", "", http.StatusUnauthorized},
		{"json with bad token", "/me", "bogus", http.StatusUnauthorized},
		{"json with session", "/me", s.Token, http.StatusOK},
		{"page without cookie", "/chat", "", http.StatusSeeOther},
		{"page with session", "/chat", s.Token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.token})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusSeeOther {
				assert.Equal(t, "/login", w.Header().Get("Location"))
			}
		})
	}
}
