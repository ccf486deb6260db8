package interpret

import (
	"fmt"
	"time"

	"github.com/yungbote/persistsvc/internal/chat/topics"
	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

// MinuteHandler derives a chat minute per topic from minute-create and
// minute-update messages. Only leaf topics emit create events on the
// wire, and the arrival order of leaf vs ancestor messages is not
// reliable, so parent minute boundaries are synthesized here: a leaf's
// create starts every not-yet-started ancestor and closes the previous
// leaf together with the parents in that leaf's end-topic chain.
type MinuteHandler struct {
	chatSessionID int64
	topics        *topics.Collection
	log           *logger.Logger

	active  *types.ChatMinute
	minutes map[int64]*types.ChatMinute

	// endTopicChain maps each highest-ranked leaf to the ordered list
	// of parent topics whose minute ends with that leaf's minute.
	endTopicChain map[int64][]*topics.Topic
}

func NewMinuteHandler(chatSessionID int64, coll *topics.Collection, baseLog *logger.Logger) *MinuteHandler {
	return &MinuteHandler{
		chatSessionID: chatSessionID,
		topics:        coll,
		log:           baseLog.With("handler", "ChatMinuteHandler"),
		minutes:       make(map[int64]*types.ChatMinute),
		endTopicChain: buildEndTopicChain(coll),
	}
}

// highestRankedLeaves returns the leaves that close their parents'
// minutes: a leaf L qualifies when it is the last topic, or the topic
// immediately after it sits at a strictly smaller level (L is the last
// child before the scan ascends out of its subtree).
func highestRankedLeaves(coll *topics.Collection) []*topics.Topic {
	var out []*topics.Topic
	for _, leaf := range coll.LeafListByRank() {
		next := coll.NextTopic(leaf)
		if next == nil || next.Level < leaf.Level {
			out = append(out, leaf)
		}
	}
	return out
}

// buildEndTopicChain computes, for each highest-ranked leaf, the
// ordered parents to close alongside it. Walking backwards in rank
// order there is exactly one topic per level that needs closing, so
// the closing level decrements with every parent appended. The walk
// stops once it drops below the level the next topic reopens (root
// level for the last leaf).
func buildEndTopicChain(coll *topics.Collection) map[int64][]*topics.Topic {
	chains := make(map[int64][]*topics.Topic)
	for _, leaf := range highestRankedLeaves(coll) {
		levelToClose := 1
		if next := coll.NextTopic(leaf); next != nil {
			levelToClose = next.Level
		}

		var parents []*topics.Topic
		current := coll.PreviousTopic(leaf)
		currentClosingLevel := leaf.Level
		for current != nil && current.Level >= levelToClose {
			if !coll.IsLeaf(current) && current.Level < currentClosingLevel {
				parents = append(parents, current)
				currentClosingLevel--
			}
			current = coll.PreviousTopic(current)
		}
		chains[leaf.ID] = parents
	}
	return chains
}

// EndTopicChain exposes the precomputed chain for a leaf topic id.
// Empty for leaves that are not highest-ranked.
func (h *MinuteHandler) EndTopicChain(leafTopicID int64) []*topics.Topic {
	return h.endTopicChain[leafTopicID]
}

// ActiveMinute returns the minute of the most recently started leaf
// topic, or nil before the first accepted minute-create. The marker
// and tag handlers bind their entities to it; only this handler ever
// mutates it.
func (h *MinuteHandler) ActiveMinute() *types.ChatMinute {
	return h.active
}

// Initialize creates one minute per topic with the zero-time start
// sentinel and a nil end. Processing fills both in.
func (h *MinuteHandler) Initialize() error {
	for _, t := range h.topics.AsListByRank() {
		h.minutes[t.ID] = &types.ChatMinute{
			ChatSessionID: h.chatSessionID,
			TopicID:       t.ID,
		}
	}
	return nil
}

// CreateModels handles a minute-create. A topic outside the collection
// is a hard failure; a create for a non-leaf topic is ignored, because
// parent minutes are synthesized from leaf events alone.
func (h *MinuteHandler) CreateModels(msg *wire.Message) error {
	body := msg.MinuteCreateMessage
	if body == nil {
		return fmt.Errorf("minute-create message id=%s has no payload", msg.Header.ID)
	}
	if _, ok := h.topics.AsDict()[body.TopicID]; !ok {
		return fmt.Errorf("minute-create topic_id=%d: %w", body.TopicID, ErrTopicIDDoesNotExist)
	}
	if !h.topics.IsLeafByID(body.TopicID) {
		h.log.Debug("Ignoring minute-create for non-leaf topic", "topic_id", body.TopicID)
		return nil
	}

	ts := wire.TimeFromUnix(float64(body.StartTimestamp))
	minute := h.minutes[body.TopicID]
	minute.Start = ts
	h.active = minute

	h.startParentMinutes(body.TopicID, ts)
	h.endPreviousMinutes(body.TopicID, ts)
	return nil
}

// UpdateModels handles a minute-update. Only the terminal leaf's
// update is honored: it closes that leaf and, through its end-topic
// chain, every still-open ancestor up to the root. All other updates
// are dropped, since their topics are closed by the next leaf's
// create.
func (h *MinuteHandler) UpdateModels(msg *wire.Message) error {
	body := msg.MinuteUpdateMessage
	if body == nil {
		return fmt.Errorf("minute-update message id=%s has no payload", msg.Header.ID)
	}
	topic, ok := h.topics.AsDict()[body.TopicID]
	if !ok {
		return fmt.Errorf("minute-update topic_id=%d: %w", body.TopicID, ErrTopicIDDoesNotExist)
	}
	if !h.topics.IsLeaf(topic) || h.topics.NextTopic(topic) != nil {
		h.log.Debug("Ignoring minute-update for non-terminal topic", "topic_id", body.TopicID)
		return nil
	}

	if body.EndTimestamp == nil {
		return fmt.Errorf("minute-update message id=%s has no end timestamp", msg.Header.ID)
	}
	ts := wire.TimeFromUnix(float64(*body.EndTimestamp))
	h.setEnd(h.minutes[topic.ID], ts)
	for _, parent := range h.endTopicChain[topic.ID] {
		h.setEnd(h.minutes[parent.ID], ts)
	}
	return nil
}

func (h *MinuteHandler) DeleteModels(msg *wire.Message) error {
	return fmt.Errorf("minute handler delete: %w", ErrOperationNotSupported)
}

// Finalize returns the minutes in topic rank order. Their start times
// are monotonically non-decreasing by construction. Any minute left
// with an unset start or end makes the whole job invalid.
func (h *MinuteHandler) Finalize() ([]*types.ChatMinute, error) {
	out := make([]*types.ChatMinute, 0, len(h.minutes))
	for _, t := range h.topics.AsListByRank() {
		minute := h.minutes[t.ID]
		if minute.Start.IsZero() || minute.End == nil {
			return nil, fmt.Errorf("topic_id=%d: %w", t.ID, ErrInvalidChatMinute)
		}
		out = append(out, minute)
	}
	return out, nil
}

// startParentMinutes walks backwards in rank order from the newly
// started leaf and starts every ancestor minute that has not started
// yet, stopping at the first already-started topic.
func (h *MinuteHandler) startParentMinutes(topicID int64, start time.Time) {
	prev := h.topics.PreviousTopicByID(topicID)
	for prev != nil {
		minute := h.minutes[prev.ID]
		if !minute.Start.IsZero() {
			break
		}
		minute.Start = start
		prev = h.topics.PreviousTopic(prev)
	}
}

// endPreviousMinutes closes the leaf discussed before the newly
// started one, together with the parents that leaf is responsible for.
// The terminal leaf has no successor and is closed by UpdateModels
// instead.
func (h *MinuteHandler) endPreviousMinutes(topicID int64, end time.Time) {
	prevLeaf := h.topics.PreviousLeafByID(topicID)
	if prevLeaf == nil {
		return
	}
	h.setEnd(h.minutes[prevLeaf.ID], end)
	for _, parent := range h.endTopicChain[prevLeaf.ID] {
		h.setEnd(h.minutes[parent.ID], end)
	}
}

func (h *MinuteHandler) setEnd(minute *types.ChatMinute, end time.Time) {
	t := end
	minute.End = &t
}
