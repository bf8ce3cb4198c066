package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/ngochdusi/chat/internal/apperr"
	"github.com/ngochdusi/chat/internal/metrics"
	"github.com/ngochdusi/chat/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CookieName 是承载会话令牌的 cookie。
const CookieName = "session-token"

// ErrUnauthenticated 表示请求没有可用的会话。
var ErrUnauthenticated = apperr.Unauthenticated("Unauthorized")

// CurrentUser 是 users 与可选 user_profiles 联表后的当前用户视图。
type CurrentUser struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// SessionManager 签发、解析与吊销不透明的会话令牌。
// 令牌有效性完全由 sessions 表查询加过期时间比较决定，不做进程内缓存。
type SessionManager struct {
	db     *gorm.DB
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionManager(db *gorm.DB, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{db: db, ttl: ttl, secure: secure, now: time.Now}
}

// WithTx 返回绑定到事务 tx 的副本。
func (m *SessionManager) WithTx(tx *gorm.DB) *SessionManager {
	n := *m
	n.db = tx
	return &n
}

// GenerateSessionToken 生成 32 字节随机数的十六进制串。
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Create 为用户新建一条会话，每次调用都会插入新行，不复用旧会话。
func (m *SessionManager) Create(ctx context.Context, userID string) (*models.Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, errors.Wrap(err, "sessionManager.Create.GenerateToken")
	}
	now := m.now().UTC()
	s := models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, errors.Wrap(err, "sessionManager.Create.Insert")
	}
	metrics.SessionsCreatedTotal.Inc()
	return &s, nil
}

// Resolve 返回令牌对应的当前用户；令牌为空、不存在或已过期时返回 nil。不会顺延过期时间。
func (m *SessionManager) Resolve(ctx context.Context, token string) (*CurrentUser, error) {
	if token == "" {
		return nil, nil
	}
	var s models.Session
	err := m.db.WithContext(ctx).Where("token = ?", token).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Infrastructure("failed to load session", err)
	}
	if s.ExpiresAt.Before(m.now()) {
		return nil, nil
	}

	var u CurrentUser
	res := m.db.WithContext(ctx).
		Table("users AS u").
		Select("u.id, u.username, u.email, up.full_name, up.avatar_url").
		Joins("LEFT JOIN user_profiles AS up ON up.user_id = u.id").
		Where("u.id = ?", s.UserID).
		Limit(1).
		Scan(&u)
	if res.Error != nil {
		return nil, apperr.Infrastructure("failed to load user", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &u, nil
}

// Require 与 Resolve 相同，但没有当前用户时返回 ErrUnauthenticated。
func (m *SessionManager) Require(ctx context.Context, token string) (*CurrentUser, error) {
	u, err := m.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// Revoke 删除令牌对应的会话。删除失败只记录日志，登出对调用方总是成功。
func (m *SessionManager) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := m.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		log.Error().Err(err).Msg("revoke session")
	}
}

// SetCookie 写入与会话同时过期的 HttpOnly cookie。
func (m *SessionManager) SetCookie(w http.ResponseWriter, s *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie 让浏览器立即丢弃会话 cookie。
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest 读取请求携带的会话令牌，没有时返回空串。
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
