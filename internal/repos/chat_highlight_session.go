package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

type ChatHighlightSessionRepo interface {
	CountForUser(ctx context.Context, tx *gorm.DB, userID int64) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, highlight *types.ChatHighlightSession) error
	ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID int64) ([]*types.ChatHighlightSession, error)
}

type chatHighlightSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatHighlightSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatHighlightSessionRepo {
	return &chatHighlightSessionRepo{
		db:  db,
		log: baseLog.With("repo", "ChatHighlightSessionRepo"),
	}
}

// CountForUser counts the user's existing highlights; the next highlight's
// rank is exactly this count.
func (r *chatHighlightSessionRepo) CountForUser(ctx context.Context, tx *gorm.DB, userID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ChatHighlightSession{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts one highlight row. The (user_id, chat_session_id) unique
// constraint can legitimately fire when the user bookmarked the chat
// manually while the job ran; the caller treats that as non-fatal.
func (r *chatHighlightSessionRepo) Create(ctx context.Context, tx *gorm.DB, highlight *types.ChatHighlightSession) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(highlight).Error
}

func (r *chatHighlightSessionRepo) ListBySession(ctx context.Context, tx *gorm.DB, chatSessionID int64) ([]*types.ChatHighlightSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var highlights []*types.ChatHighlightSession
	if err := transaction.WithContext(ctx).
		Where("chat_session_id = ?", chatSessionID).
		Find(&highlights).Error; err != nil {
		return nil, err
	}
	return highlights, nil
}
