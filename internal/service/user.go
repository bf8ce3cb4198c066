package service

import (
	"context"
	"strings"
	"time"

	"github.com/ngochdusi/chat/internal/auth"
	"github.com/ngochdusi/chat/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UserService 封装注册、登录与登出流程。
type UserService struct {
	db       *gorm.DB
	sessions *auth.SessionManager
	rooms    *RoomService
	now      func() time.Time
}

func NewUserService(db *gorm.DB, sessions *auth.SessionManager, rooms *RoomService) *UserService {
	return &UserService{db: db, sessions: sessions, rooms: rooms, now: time.Now}
}

// Register 在一个事务里创建用户、会话，以及（没有任何房间时）默认房间。
// 用户名或邮箱已存在时返回 ErrUserExists，且不写入任何数据。
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrRegisterFieldsRequired
	}

	// 先在事务外计算哈希，避免 bcrypt 期间占用连接。
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var session *models.Session
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ? OR username = ?", email, username).Count(&count).Error; err != nil {
			return errors.Wrap(err, "userService.Register.Count")
		}
		if count > 0 {
			return ErrUserExists
		}
		user := models.User{Username: username, Email: email, PasswordHash: hash, CreatedAt: s.now().UTC()}
		if err := insertUser(tx, &user); err != nil {
			return err
		}
		sess, err := s.sessions.WithTx(tx).Create(ctx, user.ID)
		if err != nil {
			return err
		}
		if _, err := s.rooms.WithTx(tx).EnsureDefaultRoom(ctx, user.ID); err != nil {
			return err
		}
		session = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Login 校验邮箱与密码并签发新会话，同时更新 last_login。
func (s *UserService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrLoginFieldsRequired
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "userService.Login.FindUser")
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	// 会话与 last_login 同一事务提交，任一失败都不留下孤立的会话行。
	var session *models.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", s.now().UTC()).Error; err != nil {
			return errors.Wrap(err, "userService.Login.UpdateLastLogin")
		}
		sess, err := s.sessions.WithTx(tx).Create(ctx, user.ID)
		if err != nil {
			return err
		}
		session = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// insertUser 写入新用户。并发注册绕过预检查时，由唯一索引兜底并同样返回 ErrUserExists。
func insertUser(tx *gorm.DB, user *models.User) error {
	if err := tx.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return errors.Wrap(err, "userService.Register.CreateUser")
	}
	return nil
}

// Logout 吊销令牌对应的会话，从调用方看总是成功。
func (s *UserService) Logout(ctx context.Context, token string) {
	s.sessions.Revoke(ctx, token)
}
