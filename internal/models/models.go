package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 所有主键均为 UUID，避免顺序整数带来的枚举风险。

type User struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserProfile 是可选的资料记录，解析当前用户时 LEFT JOIN。
type UserProfile struct {
	UserID    string  `gorm:"type:uuid;primaryKey"`
	FullName  *string `gorm:"size:100"`
	Bio       *string `gorm:"type:text"`
	AvatarURL *string `gorm:"size:255"`
	UpdatedAt time.Time
	User      User `gorm:"constraint:OnDelete:CASCADE"`
}

type Session struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;index:idx_sessions_user_id;not null"`
	Token     string    `gorm:"uniqueIndex:idx_sessions_token;size:255;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
	User      User `gorm:"constraint:OnDelete:CASCADE"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type ChatRoom struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedBy   string    `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Creator     User      `gorm:"foreignKey:CreatedBy" json:"-"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Message 创建后不可修改。ID 使用 UUIDv7，同一时间戳下按插入顺序排序。
type Message struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	RoomID    string    `gorm:"type:uuid;index:idx_messages_room_id;not null"`
	UserID    string    `gorm:"type:uuid;index:idx_messages_user_id;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_messages_created_at"`
	Room      ChatRoom  `gorm:"constraint:OnDelete:CASCADE"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	m.ID = id.String()
	return nil
}

// UserRoom 记录用户加入过的房间，(user_id, room_id) 唯一。
type UserRoom struct {
	UserID   string    `gorm:"type:uuid;primaryKey"`
	RoomID   string    `gorm:"type:uuid;primaryKey;index:idx_user_rooms_room_id"`
	JoinedAt time.Time `gorm:"not null"`
	User     User      `gorm:"constraint:OnDelete:CASCADE"`
	Room     ChatRoom  `gorm:"constraint:OnDelete:CASCADE"`
}

// All 按依赖顺序列出需要迁移的模型。
func All() []any {
	return []any{&User{}, &UserProfile{}, &Session{}, &ChatRoom{}, &Message{}, &UserRoom{}}
}
