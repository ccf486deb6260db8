package interpret

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/persistsvc/internal/chat/topics"
	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// collectionFromParents builds a topic collection with id == rank from
// a child -> parent map, deriving levels the way the loader does.
func collectionFromParents(parents map[int64]int64, n int64) *topics.Collection {
	levels := map[int64]int{0: 1}
	var list []*topics.Topic
	for id := int64(0); id < n; id++ {
		topic := &topics.Topic{ID: id, Rank: int(id), Title: fmt.Sprintf("t%d", id)}
		if id != 0 {
			parent := parents[id]
			topic.ParentID = &parent
			levels[id] = levels[parent] + 1
		}
		topic.Level = levels[id]
		list = append(list, topic)
	}
	return topics.NewCollection(list)
}

func header(msgType int32, userID int64, ts float64) *wire.MessageHeader {
	return &wire.MessageHeader{
		ID:               uuid.NewString(),
		Type:             msgType,
		ChatSessionToken: "test_session_token",
		UserID:           userID,
		Timestamp:        ts,
	}
}

func minuteCreate(topicID int64, ts float64) *wire.Message {
	return &wire.Message{
		Header: header(wire.MessageTypeMinuteCreate, 1, ts),
		MinuteCreateMessage: &wire.MinuteCreateMessage{
			MinuteID:       uuid.NewString(),
			TopicID:        topicID,
			StartTimestamp: int64(ts),
		},
	}
}

func minuteUpdate(topicID int64, ts float64) *wire.Message {
	end := int64(ts)
	return &wire.Message{
		Header: header(wire.MessageTypeMinuteUpdate, 1, ts),
		MinuteUpdateMessage: &wire.MinuteUpdateMessage{
			MinuteID:       uuid.NewString(),
			TopicID:        topicID,
			StartTimestamp: end,
			EndTimestamp:   &end,
		},
	}
}

func tagCreate(tagID, name string, userID int64, ts float64) *wire.Message {
	return &wire.Message{
		Header: header(wire.MessageTypeTagCreate, userID, ts),
		TagCreateMessage: &wire.TagCreateMessage{
			TagID: tagID,
			Name:  name,
		},
	}
}

func tagDelete(tagID string, userID int64, ts float64) *wire.Message {
	return &wire.Message{
		Header: header(wire.MessageTypeTagDelete, userID, ts),
		TagDeleteMessage: &wire.TagDeleteMessage{
			TagID: tagID,
		},
	}
}

func speakingMarker(userID int64, isSpeaking bool, ts float64) *wire.Message {
	return &wire.Message{
		Header: header(wire.MessageTypeMarkerCreate, userID, ts),
		MarkerCreateMessage: &wire.MarkerCreateMessage{
			MarkerID: uuid.NewString(),
			Marker: &wire.Marker{
				Type: wire.MarkerTypeSpeaking,
				SpeakingMarker: &wire.SpeakingMarker{
					UserID:     userID,
					IsSpeaking: isSpeaking,
				},
			},
		},
	}
}
