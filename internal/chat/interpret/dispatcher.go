package interpret

import (
	"time"

	"github.com/yungbote/persistsvc/internal/chat/topics"
	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/platform/logger"
)

// Dispatcher routes one chat session's decoded messages to the three
// handlers and assembles the persistable model set. Handlers are
// initialized minute first so the active-minute pointer is observable
// by the marker and tag handlers before any message is dispatched.
type Dispatcher struct {
	log    *logger.Logger
	minute *MinuteHandler
	marker *MarkerHandler
	tag    *TagHandler
}

func NewDispatcher(chatSessionID int64, coll *topics.Collection, speakingThreshold time.Duration, baseLog *logger.Logger) (*Dispatcher, error) {
	log := baseLog.With("service", "MessageDispatcher", "chat_session_id", chatSessionID)
	minute := NewMinuteHandler(chatSessionID, coll, baseLog)
	marker := NewMarkerHandler(minute, speakingThreshold, baseLog)
	tag := NewTagHandler(minute, baseLog)
	for _, h := range []Handler{minute, marker, tag} {
		if err := h.Initialize(); err != nil {
			return nil, err
		}
	}
	return &Dispatcher{
		log:    log,
		minute: minute,
		marker: marker,
		tag:    tag,
	}, nil
}

// MinuteHandler exposes the minute handler, mainly so callers can
// inspect the active minute and end-topic chains in tests.
func (d *Dispatcher) MinuteHandler() *MinuteHandler { return d.minute }

// Process routes msg by its declared type. Join, leave, whiteboard,
// start/end and the other presence messages carry nothing to persist
// and are ignored. Soft failures are logged and swallowed so a single
// bad message cannot sink the job; hard failures propagate.
func (d *Dispatcher) Process(msg *wire.Message) error {
	var err error
	switch msg.Header.Type {
	case wire.MessageTypeMinuteCreate:
		err = d.minute.CreateModels(msg)
	case wire.MessageTypeMinuteUpdate:
		err = d.minute.UpdateModels(msg)
	case wire.MessageTypeMarkerCreate:
		err = d.marker.CreateModels(msg)
	case wire.MessageTypeTagCreate:
		err = d.tag.CreateModels(msg)
	case wire.MessageTypeTagDelete:
		err = d.tag.DeleteModels(msg)
	default:
		d.log.Debug("Ignoring message type with nothing to persist",
			"type", msg.Header.Type, "message_id", msg.Header.ID)
		return nil
	}
	if err != nil && IsSoft(err) {
		d.log.Warn("Dropping chat message", "message_id", msg.Header.ID, "error", err)
		return nil
	}
	return err
}

// Finalize returns the full model set: minutes in rank order, markers
// and tags in time order. Called once, after the last message.
func (d *Dispatcher) Finalize() (*Output, error) {
	minutes, err := d.minute.Finalize()
	if err != nil {
		return nil, err
	}
	markers, err := d.marker.Finalize()
	if err != nil {
		return nil, err
	}
	tags, err := d.tag.Finalize()
	if err != nil {
		return nil, err
	}
	return &Output{Minutes: minutes, Markers: markers, Tags: tags}, nil
}
