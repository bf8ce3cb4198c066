package service

import (
	"context"
	"strings"
	"time"

	"github.com/ngochdusi/chat/internal/metrics"
	"github.com/ngochdusi/chat/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MessageService 封装消息相关的业务逻辑。
type MessageService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db, now: time.Now}
}

// MessageDTO 是轮询接口输出的消息数据。
type MessageDTO struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName" gorm:"column:user_name"`
	Timestamp time.Time `json:"timestamp" gorm:"column:created_at"`
}

// Post 写入一条消息，ID 与时间戳由服务端生成。内容原样保存，仅拒绝空白内容。
func (s *MessageService) Post(ctx context.Context, userID, roomID, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyMessage
	}
	if roomID == "" {
		return "", ErrRoomIDRequired
	}
	msg := models.Message{RoomID: roomID, UserID: userID, Content: content, CreatedAt: s.now().UTC()}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return "", errors.Wrap(err, "messageService.Post")
	}
	metrics.MessagesPostedTotal.Inc()
	return msg.ID, nil
}

// List 返回房间内全部消息并附带作者用户名，按 created_at 升序。
// 时间戳相同的消息按 UUIDv7 ID 排序，即同一进程内的插入顺序。
func (s *MessageService) List(ctx context.Context, roomID string) ([]MessageDTO, error) {
	if roomID == "" {
		return nil, ErrRoomIDRequired
	}
	out := make([]MessageDTO, 0)
	err := s.db.WithContext(ctx).
		Table("messages AS m").
		Select("m.id, m.content, m.user_id, u.username AS user_name, m.created_at").
		Joins("JOIN users AS u ON u.id = m.user_id").
		Where("m.room_id = ?", roomID).
		Order("m.created_at asc, m.id asc").
		Scan(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "messageService.List")
	}
	return out, nil
}
