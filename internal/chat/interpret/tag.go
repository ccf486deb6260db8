package interpret

import (
	"fmt"
	"sort"

	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

// TagHandler derives the surviving tag set from tag-create/tag-delete
// messages. A tag created and then deleted within the same minute must
// not be persisted at all, and duplicates of the (minute, user, name)
// triple must collapse, so a survivor set is built here instead of
// leaning on store constraint violations, which would abort the
// enclosing transaction.
type TagHandler struct {
	minutes *MinuteHandler
	log     *logger.Logger

	// allTags keeps every create message ever seen, keyed by wire tag
	// id, so deletes can find their target; the entity is nil when the
	// create was rejected.
	allTags map[string]*tagRecord

	// tagsToPersist is the survivor set: minute -> wire tag id ->
	// user||name. The inner value detects triple duplicates, the inner
	// key lets deletes remove their tag.
	tagsToPersist map[*types.ChatMinute]map[string]string
}

type tagRecord struct {
	msg    *wire.Message
	entity *Tag
}

func NewTagHandler(minutes *MinuteHandler, baseLog *logger.Logger) *TagHandler {
	return &TagHandler{
		minutes:       minutes,
		log:           baseLog.With("handler", "ChatTagHandler"),
		allTags:       make(map[string]*tagRecord),
		tagsToPersist: make(map[*types.ChatMinute]map[string]string),
	}
}

func (h *TagHandler) Initialize() error { return nil }

// CreateModels handles a tag-create. Checked in order: an already seen
// tag id is a soft failure; a tag with no active minute is a soft
// failure; a duplicate (minute, user, name) triple is dropped silently
// because the store carries the matching unique constraint.
func (h *TagHandler) CreateModels(msg *wire.Message) error {
	body := msg.TagCreateMessage
	if body == nil {
		return fmt.Errorf("tag-create message id=%s has no payload", msg.Header.ID)
	}
	if _, seen := h.allTags[body.TagID]; seen {
		return fmt.Errorf("tag-create tag_id=%s: %w", body.TagID, ErrDuplicateTagID)
	}
	minute := h.minutes.ActiveMinute()
	if minute == nil {
		return fmt.Errorf("tag-create tag_id=%s: %w", body.TagID, ErrNoActiveChatMinute)
	}

	record := &tagRecord{msg: msg}
	h.allTags[body.TagID] = record
	if h.isDuplicateTriple(minute, msg.Header.UserID, body.Name) {
		h.log.Debug("Dropping duplicate tag triple",
			"tag_id", body.TagID, "user_id", msg.Header.UserID, "name", body.Name)
		return nil
	}

	record.entity = &Tag{
		UserID: msg.Header.UserID,
		Minute: minute,
		TagID:  body.TagReferenceID,
		Name:   body.Name,
	}
	h.tagsToPersist[minute][body.TagID] = tripleValue(msg.Header.UserID, body.Name)
	return nil
}

func (h *TagHandler) UpdateModels(msg *wire.Message) error {
	return fmt.Errorf("tag handler update: %w", ErrOperationNotSupported)
}

// DeleteModels handles a tag-delete: the target is marked deleted and
// its id is removed from the active minute's survivor entries. A tag
// created in an earlier minute keeps its creation-minute entry, so a
// cross-minute delete still persists the tag, with deleted set. A
// delete for a tag that was itself already deleted is silently ignored.
func (h *TagHandler) DeleteModels(msg *wire.Message) error {
	body := msg.TagDeleteMessage
	if body == nil {
		return fmt.Errorf("tag-delete message id=%s has no payload", msg.Header.ID)
	}
	active := h.minutes.ActiveMinute()
	if active == nil {
		return fmt.Errorf("tag-delete tag_id=%s: %w", body.TagID, ErrNoActiveChatMinute)
	}
	record, ok := h.allTags[body.TagID]
	if !ok {
		return fmt.Errorf("tag-delete tag_id=%s: %w", body.TagID, ErrTagIDDoesNotExist)
	}
	if record.entity == nil || record.entity.Deleted || !h.isPersisted(body.TagID) {
		return nil
	}

	record.entity.Deleted = true
	if tags, ok := h.tagsToPersist[active]; ok {
		delete(tags, body.TagID)
	}
	return nil
}

// Finalize collects the entities still present in the survivor set,
// sorted by their create message's timestamp.
func (h *TagHandler) Finalize() ([]*Tag, error) {
	var records []*tagRecord
	for _, ids := range h.tagsToPersist {
		for tagID := range ids {
			records = append(records, h.allTags[tagID])
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].msg.Header.Timestamp < records[j].msg.Header.Timestamp
	})
	out := make([]*Tag, 0, len(records))
	for _, r := range records {
		out = append(out, r.entity)
	}
	return out, nil
}

// isDuplicateTriple reports whether (minute, user, name) is already in
// the survivor set, creating the minute's inner map on first use.
func (h *TagHandler) isDuplicateTriple(minute *types.ChatMinute, userID int64, name string) bool {
	tags, ok := h.tagsToPersist[minute]
	if !ok {
		h.tagsToPersist[minute] = make(map[string]string)
		return false
	}
	value := tripleValue(userID, name)
	for _, existing := range tags {
		if existing == value {
			return true
		}
	}
	return false
}

func (h *TagHandler) isPersisted(tagID string) bool {
	for _, ids := range h.tagsToPersist {
		if _, ok := ids[tagID]; ok {
			return true
		}
	}
	return false
}

func tripleValue(userID int64, name string) string {
	return fmt.Sprintf("%d|%s", userID, name)
}
