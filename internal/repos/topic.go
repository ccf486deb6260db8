package repos

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

type TopicRepo interface {
	RootTopicID(ctx context.Context, tx *gorm.DB, chatSessionID int64) (int64, error)
	SubtreeByRank(ctx context.Context, tx *gorm.DB, rootTopicID int64) ([]*types.Topic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{
		db:  db,
		log: baseLog.With("repo", "TopicRepo"),
	}
}

// RootTopicID resolves chat_session -> chat -> root topic.
func (r *topicRepo) RootTopicID(ctx context.Context, tx *gorm.DB, chatSessionID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var session types.ChatSession
	if err := transaction.WithContext(ctx).
		Where("id = ?", chatSessionID).
		First(&session).Error; err != nil {
		return 0, err
	}
	var chat types.Chat
	if err := transaction.WithContext(ctx).
		Where("id = ?", session.ChatID).
		First(&chat).Error; err != nil {
		return 0, err
	}
	return chat.TopicID, nil
}

// SubtreeByRank fetches the root topic and all of its descendants,
// frontier by frontier over parent_id, and returns them sorted ascending
// by rank (root first). The topic table holds topics for every chat, so
// the walk is scoped to the one tree.
func (r *topicRepo) SubtreeByRank(ctx context.Context, tx *gorm.DB, rootTopicID int64) ([]*types.Topic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var root types.Topic
	if err := transaction.WithContext(ctx).
		Where("id = ?", rootTopicID).
		First(&root).Error; err != nil {
		return nil, err
	}

	all := []*types.Topic{&root}
	frontier := []int64{root.ID}
	for len(frontier) > 0 {
		var children []*types.Topic
		if err := transaction.WithContext(ctx).
			Where("parent_id IN ?", frontier).
			Find(&children).Error; err != nil {
			return nil, err
		}
		if len(children) == 0 {
			break
		}
		all = append(all, children...)
		frontier = frontier[:0]
		for _, c := range children {
			frontier = append(frontier, c.ID)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Rank < all[j].Rank })
	return all, nil
}
