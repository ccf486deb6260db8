package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

type ChatUserRepo interface {
	ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID int64) ([]*types.ChatUser, error)
}

type chatUserRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatUserRepo(db *gorm.DB, baseLog *logger.Logger) ChatUserRepo {
	return &chatUserRepo{
		db:  db,
		log: baseLog.With("repo", "ChatUserRepo"),
	}
}

func (r *chatUserRepo) ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID int64) ([]*types.ChatUser, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var users []*types.ChatUser
	if err := transaction.WithContext(ctx).
		Where("chat_session_id = ?", chatSessionID).
		Order("participant ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
