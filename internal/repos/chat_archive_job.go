package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

type ChatArchiveJobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, job *types.ChatArchiveJob) error
	ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID int64) ([]*types.ChatArchiveJob, error)
}

type chatArchiveJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatArchiveJobRepo(db *gorm.DB, baseLog *logger.Logger) ChatArchiveJobRepo {
	return &chatArchiveJobRepo{
		db:  db,
		log: baseLog.With("repo", "ChatArchiveJobRepo"),
	}
}

func (r *chatArchiveJobRepo) Create(ctx context.Context, tx *gorm.DB, job *types.ChatArchiveJob) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(job).Error
}

func (r *chatArchiveJobRepo) ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID int64) ([]*types.ChatArchiveJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var jobs []*types.ChatArchiveJob
	if err := transaction.WithContext(ctx).
		Where("chat_session_id = ?", chatSessionID).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
