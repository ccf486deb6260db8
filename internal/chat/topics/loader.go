package topics

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/repos"
	"github.com/yungbote/persistsvc/internal/types"
)

// Loader reads a chat session's topic tree out of the store and builds
// a Collection. Level is derived here: root = 1, child = parent + 1.
type Loader struct {
	topicRepo repos.TopicRepo
	log       *logger.Logger
}

func NewLoader(topicRepo repos.TopicRepo, baseLog *logger.Logger) *Loader {
	return &Loader{
		topicRepo: topicRepo,
		log:       baseLog.With("service", "TopicLoader"),
	}
}

// LoadForSession resolves the session's root topic, fetches the
// subtree ordered by rank and returns the collection.
func (l *Loader) LoadForSession(ctx context.Context, tx *gorm.DB, chatSessionID int64) (*Collection, error) {
	rootID, err := l.topicRepo.RootTopicID(ctx, tx, chatSessionID)
	if err != nil {
		return nil, fmt.Errorf("resolve root topic for chat_session_id=%d: %w", chatSessionID, err)
	}
	rows, err := l.topicRepo.SubtreeByRank(ctx, tx, rootID)
	if err != nil {
		return nil, fmt.Errorf("load topic subtree for root_topic_id=%d: %w", rootID, err)
	}
	return FromRows(rows)
}

// FromRows converts store rows (sorted ascending by rank, root first)
// into a Collection, computing each topic's level. A parent always has
// a smaller rank than its children, so one pass suffices.
func FromRows(rows []*types.Topic) (*Collection, error) {
	levels := make(map[int64]int, len(rows))
	list := make([]*Topic, 0, len(rows))
	for _, row := range rows {
		level := 1
		if row.ParentID != nil {
			parentLevel, ok := levels[*row.ParentID]
			if !ok {
				return nil, fmt.Errorf("topic_id=%d references parent_id=%d outside the tree", row.ID, *row.ParentID)
			}
			level = parentLevel + 1
		}
		levels[row.ID] = level
		list = append(list, &Topic{
			ID:          row.ID,
			ParentID:    row.ParentID,
			Rank:        row.Rank,
			Level:       level,
			Title:       row.Title,
			Description: row.Description,
		})
	}
	return NewCollection(list), nil
}
