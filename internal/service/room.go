package service

import (
	"context"
	"strings"
	"time"

	"github.com/ngochdusi/chat/internal/metrics"
	"github.com/ngochdusi/chat/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultRoomName        = "General"
	DefaultRoomDescription = "General chat room for everyone"
)

// RoomService 封装房间与成员关系相关的业务逻辑。
type RoomService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{db: db, now: time.Now}
}

// WithTx 返回绑定到事务 tx 的副本。
func (s *RoomService) WithTx(tx *gorm.DB) *RoomService {
	n := *s
	n.db = tx
	return &n
}

// Create 创建新房间并返回其 ID。房间名不要求唯一，空描述存为 NULL。
func (s *RoomService) Create(ctx context.Context, name, description, creatorID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrRoomNameRequired
	}
	now := s.now().UTC()
	room := models.ChatRoom{Name: name, CreatedBy: creatorID, CreatedAt: now, UpdatedAt: now}
	if d := strings.TrimSpace(description); d != "" {
		room.Description = &d
	}
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		return "", errors.Wrap(err, "roomService.Create")
	}
	metrics.RoomsCreatedTotal.Inc()
	return room.ID, nil
}

// List 按创建时间升序返回全部房间，没有房间时返回空切片。
func (s *RoomService) List(ctx context.Context) ([]models.ChatRoom, error) {
	rooms := make([]models.ChatRoom, 0)
	if err := s.db.WithContext(ctx).Order("created_at asc, id asc").Find(&rooms).Error; err != nil {
		return nil, errors.Wrap(err, "roomService.List")
	}
	return rooms, nil
}

// Join 幂等地记录用户加入房间。不预先检查房间是否存在，不存在时由外键约束报错。
func (s *RoomService) Join(ctx context.Context, userID, roomID string) error {
	if roomID == "" {
		return ErrRoomIDRequired
	}
	membership := models.UserRoom{UserID: userID, RoomID: roomID, JoinedAt: s.now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&membership).Error
	if err != nil {
		return errors.Wrap(err, "roomService.Join")
	}
	return nil
}

// EnsureDefaultRoom 在一个房间都没有时创建 General 房间，返回是否新建。
func (s *RoomService) EnsureDefaultRoom(ctx context.Context, ownerID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ChatRoom{}).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "roomService.EnsureDefaultRoom.Count")
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, DefaultRoomName, DefaultRoomDescription, ownerID); err != nil {
		return false, err
	}
	return true, nil
}

// Bootstrap 在启动时调用：没有房间且已有用户时，以最早注册的用户为房主创建 General。
func (s *RoomService) Bootstrap(ctx context.Context) error {
	var first models.User
	err := s.db.WithContext(ctx).Order("created_at asc").First(&first).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "roomService.Bootstrap")
	}
	created, err := s.EnsureDefaultRoom(ctx, first.ID)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("owner_id", first.ID).Msg("created default room")
	}
	return nil
}
