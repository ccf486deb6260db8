// Package interpret reconstructs persistable chat entities from the
// chronologically ordered message stream of one chat session. Three
// coordinated handlers consume the stream: the minute handler derives
// start/end for every topic's chat minute and owns the active-minute
// pointer, the marker handler pairs speaking start/end events per user
// and the tag handler derives the surviving tag set. The dispatcher
// routes decoded messages to them and collects the final model set.
package interpret

import (
	"time"

	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/types"
)

// Handler is the contract between the dispatcher and the three message
// handlers. An operation a handler has no use for must return
// ErrOperationNotSupported so a routing bug fails loudly instead of
// silently eating messages.
type Handler interface {
	// Initialize runs before any message is dispatched.
	Initialize() error
	// CreateModels consumes a creation-type message.
	CreateModels(msg *wire.Message) error
	// UpdateModels consumes an update-type message.
	UpdateModels(msg *wire.Message) error
	// DeleteModels consumes a deletion-type message.
	DeleteModels(msg *wire.Message) error
}

// SpeakingMarker is an emitted speaking interval, bound to the minute
// that was active when the user started speaking. The store row is
// built after minutes are inserted and their ids are known.
type SpeakingMarker struct {
	UserID int64
	Minute *types.ChatMinute
	Start  time.Time
	End    time.Time
}

// Tag is a surviving chat tag bound to the minute that was active when
// it was created. TagID optionally references the global tag catalog.
type Tag struct {
	UserID  int64
	Minute  *types.ChatMinute
	TagID   *int64
	Name    string
	Deleted bool
}

// Output is the full persistable model set for one chat session:
// minutes in rank order, markers and tags in time order. Markers and
// tags reference minutes by pointer; the persister resolves the
// references to row ids once the minutes are inserted.
type Output struct {
	Minutes []*types.ChatMinute
	Markers []*SpeakingMarker
	Tags    []*Tag
}
