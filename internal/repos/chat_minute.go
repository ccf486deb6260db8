package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

type ChatMinuteRepo interface {
	CreateAll(ctx context.Context, tx *gorm.DB, minutes []*types.ChatMinute) error
	ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID int64) ([]*types.ChatMinute, error)
}

type chatMinuteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMinuteRepo(db *gorm.DB, baseLog *logger.Logger) ChatMinuteRepo {
	return &chatMinuteRepo{
		db:  db,
		log: baseLog.With("repo", "ChatMinuteRepo"),
	}
}

// CreateAll inserts the minutes and backfills their IDs, which the caller
// needs to wire markers and tags to their owning minute.
func (r *chatMinuteRepo) CreateAll(ctx context.Context, tx *gorm.DB, minutes []*types.ChatMinute) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(minutes) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&minutes).Error
}

func (r *chatMinuteRepo) ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID int64) ([]*types.ChatMinute, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var minutes []*types.ChatMinute
	if err := transaction.WithContext(ctx).
		Where("chat_session_id = ?", chatSessionID).
		Order("start ASC").
		Find(&minutes).Error; err != nil {
		return nil, err
	}
	return minutes, nil
}
