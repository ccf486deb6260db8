package interpret

import (
	"fmt"
	"sort"
	"time"

	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/platform/logger"
)

// MarkerHandler pairs speaking-start/speaking-end markers per user
// into speaking intervals. Non-speaking participants' clients echo
// duplicate start markers, so once a start is recorded everything is
// ignored until the matching end arrives. A pair emits only when its
// duration exceeds the configured threshold.
type MarkerHandler struct {
	minutes   *MinuteHandler
	threshold time.Duration
	log       *logger.Logger

	speaking map[int64]*speakingState
	emitted  []*SpeakingMarker
}

type speakingState struct {
	isSpeaking bool
	start      float64
}

func NewMarkerHandler(minutes *MinuteHandler, threshold time.Duration, baseLog *logger.Logger) *MarkerHandler {
	return &MarkerHandler{
		minutes:   minutes,
		threshold: threshold,
		log:       baseLog.With("handler", "ChatMarkerHandler"),
		speaking:  make(map[int64]*speakingState),
	}
}

func (h *MarkerHandler) Initialize() error { return nil }

// CreateModels handles a marker-create. A marker arriving before any
// minute has started cannot be bound to anything and is a soft
// failure; marker kinds other than speaking are ignored.
func (h *MarkerHandler) CreateModels(msg *wire.Message) error {
	body := msg.MarkerCreateMessage
	if body == nil || body.Marker == nil {
		return fmt.Errorf("marker-create message id=%s has no payload", msg.Header.ID)
	}
	if h.minutes.ActiveMinute() == nil {
		return fmt.Errorf("marker-create marker_id=%s: %w", body.MarkerID, ErrNoActiveChatMinute)
	}
	if body.Marker.Type != wire.MarkerTypeSpeaking || body.Marker.SpeakingMarker == nil {
		return nil
	}

	speaking := body.Marker.SpeakingMarker
	state, ok := h.speaking[speaking.UserID]
	if !ok {
		state = &speakingState{}
		h.speaking[speaking.UserID] = state
	}

	if speaking.IsSpeaking {
		if !state.isSpeaking {
			state.start = msg.Header.Timestamp
			state.isSpeaking = true
		}
		return nil
	}

	if !state.isSpeaking {
		// Unmatched end, mirror of the duplicate-start case.
		return nil
	}

	duration := secondsToDuration(msg.Header.Timestamp - state.start)
	if duration > h.threshold {
		h.emitted = append(h.emitted, &SpeakingMarker{
			UserID: speaking.UserID,
			Minute: h.minutes.ActiveMinute(),
			Start:  wire.TimeFromUnix(state.start),
			End:    wire.TimeFromUnix(msg.Header.Timestamp),
		})
	} else {
		h.log.Debug("Dropping speaking pair under duration threshold",
			"user_id", speaking.UserID, "duration", duration)
	}
	*state = speakingState{}
	return nil
}

func (h *MarkerHandler) UpdateModels(msg *wire.Message) error {
	return fmt.Errorf("marker handler update: %w", ErrOperationNotSupported)
}

func (h *MarkerHandler) DeleteModels(msg *wire.Message) error {
	return fmt.Errorf("marker handler delete: %w", ErrOperationNotSupported)
}

// Finalize returns the emitted markers sorted by start time. Unmatched
// starts produce nothing.
func (h *MarkerHandler) Finalize() ([]*SpeakingMarker, error) {
	out := make([]*SpeakingMarker, len(h.emitted))
	copy(out, h.emitted)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
