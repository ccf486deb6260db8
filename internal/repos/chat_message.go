package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

type ChatMessageRepo interface {
	FormatTypeID(ctx context.Context, tx *gorm.DB, name string) (int64, error)
	ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID, formatTypeID int64) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{
		db:  db,
		log: baseLog.With("repo", "ChatMessageRepo"),
	}
}

func (r *chatMessageRepo) FormatTypeID(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var format types.ChatMessageFormatType
	if err := transaction.WithContext(ctx).
		Where("name = ?", name).
		First(&format).Error; err != nil {
		return 0, err
	}
	return format.ID, nil
}

// ListBySession returns the session's messages in ascending timestamp
// order. The interpreter depends on this ordering; do not relax it.
func (r *chatMessageRepo) ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID, formatTypeID int64) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var msgs []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("chat_session_id = ? AND format_type_id = ?", chatSessionID, formatTypeID).
		Order("timestamp ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
