package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

type ChatTagRepo interface {
	CreateAll(ctx context.Context, tx *gorm.DB, tags []*types.ChatTag) error
	ListByMinutes(ctx context.Context, tx *gorm.DB, minuteIDs []int64) ([]*types.ChatTag, error)
}

type chatTagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatTagRepo(db *gorm.DB, baseLog *logger.Logger) ChatTagRepo {
	return &chatTagRepo{
		db:  db,
		log: baseLog.With("repo", "ChatTagRepo"),
	}
}

func (r *chatTagRepo) CreateAll(ctx context.Context, tx *gorm.DB, tags []*types.ChatTag) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tags) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&tags).Error
}

func (r *chatTagRepo) ListByMinutes(ctx context.Context, tx *gorm.DB, minuteIDs []int64) ([]*types.ChatTag, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var tags []*types.ChatTag
	if len(minuteIDs) == 0 {
		return tags, nil
	}
	if err := transaction.WithContext(ctx).
		Where("chat_minute_id IN ?", minuteIDs).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
