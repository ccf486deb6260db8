package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

type ChatSpeakingMarkerRepo interface {
	CreateAll(ctx context.Context, tx *gorm.DB, markers []*types.ChatSpeakingMarker) error
	ListByMinutes(ctx context.Context, tx *gorm.DB, minuteIDs []int64) ([]*types.ChatSpeakingMarker, error)
}

type chatSpeakingMarkerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSpeakingMarkerRepo(db *gorm.DB, baseLog *logger.Logger) ChatSpeakingMarkerRepo {
	return &chatSpeakingMarkerRepo{
		db:  db,
		log: baseLog.With("repo", "ChatSpeakingMarkerRepo"),
	}
}

func (r *chatSpeakingMarkerRepo) CreateAll(ctx context.Context, tx *gorm.DB, markers []*types.ChatSpeakingMarker) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(markers) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&markers).Error
}

func (r *chatSpeakingMarkerRepo) ListByMinutes(ctx context.Context, tx *gorm.DB, minuteIDs []int64) ([]*types.ChatSpeakingMarker, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var markers []*types.ChatSpeakingMarker
	if len(minuteIDs) == 0 {
		return markers, nil
	}
	if err := transaction.WithContext(ctx).
		Where("chat_minute_id IN ?", minuteIDs).
		Order("start ASC").
		Find(&markers).Error; err != nil {
		return nil, err
	}
	return markers, nil
}
