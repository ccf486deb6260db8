package jobs

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/persistsvc/internal/chat/topics"
	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/db"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/repos"
	"github.com/yungbote/persistsvc/internal/types"
)

const testOwner = "persistsvc"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// testDB opens a private in-memory sqlite database migrated to the
// full table set.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestPersister(t *testing.T, gdb *gorm.DB) *Persister {
	t.Helper()
	log := testLogger(t)
	return NewPersister(PersisterConfig{
		DB:         gdb,
		Owner:      testOwner,
		Jobs:       repos.NewPersistJobRepo(gdb, log),
		Messages:   repos.NewChatMessageRepo(gdb, log),
		Users:      repos.NewChatUserRepo(gdb, log),
		Minutes:    repos.NewChatMinuteRepo(gdb, log),
		Markers:    repos.NewChatSpeakingMarkerRepo(gdb, log),
		Tags:       repos.NewChatTagRepo(gdb, log),
		Archives:   repos.NewChatArchiveJobRepo(gdb, log),
		Highlights: repos.NewChatHighlightSessionRepo(gdb, log),
		Loader:     topics.NewLoader(repos.NewTopicRepo(gdb, log), log),
	}, log)
}

// fixture describes one seeded chat session plus its persist job.
type fixture struct {
	JobID     int64
	SessionID int64
	RootID    int64
	LeafID    int64
	FormatID  int64
	UserIDs   []int64
}

// seedChat seeds a chat with one root and one leaf topic and two
// participants. The caller builds the message stream against the
// returned topic ids and hands it to seedStream.
func seedChat(t *testing.T, gdb *gorm.DB, rootTitle string) fixture {
	t.Helper()

	root := &types.Topic{Rank: 0, Title: rootTitle}
	mustCreate(t, gdb, root)
	leaf := &types.Topic{ParentID: &root.ID, Rank: 1, Title: "Talk"}
	mustCreate(t, gdb, leaf)

	chat := &types.Chat{TopicID: root.ID}
	mustCreate(t, gdb, chat)
	session := &types.ChatSession{ChatID: chat.ID, Token: uuid.NewString()}
	mustCreate(t, gdb, session)

	userIDs := []int64{101, 102}
	for i, userID := range userIDs {
		mustCreate(t, gdb, &types.ChatUser{
			ChatSessionID: session.ID,
			UserID:        userID,
			Token:         uuid.NewString(),
			Participant:   i + 1,
		})
	}

	format := &types.ChatMessageFormatType{Name: wire.FormatThriftBinaryB64, Description: "Thrift binary base64"}
	mustCreate(t, gdb, format)

	return fixture{
		SessionID: session.ID,
		RootID:    root.ID,
		LeafID:    leaf.ID,
		FormatID:  format.ID,
		UserIDs:   userIDs,
	}
}

// seedStream stores the encoded message stream and an unclaimed persist
// job for the fixture's session, filling in fix.JobID.
func seedStream(t *testing.T, gdb *gorm.DB, fix *fixture, msgs []*wire.Message) {
	t.Helper()

	for _, msg := range msgs {
		data, err := wire.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal message: %v", err)
		}
		mustCreate(t, gdb, &types.ChatMessage{
			MessageID:     msg.Header.ID,
			ChatSessionID: fix.SessionID,
			FormatTypeID:  fix.FormatID,
			Timestamp:     msg.Header.Timestamp,
			Time:          wire.TimeFromUnix(msg.Header.Timestamp),
			Data:          data,
		})
	}

	job := &types.ChatPersistJob{
		ChatSessionID: fix.SessionID,
		Created:       time.Now().UTC(),
	}
	mustCreate(t, gdb, job)
	fix.JobID = job.ID
}

// terminalOnlyStream is the smallest valid stream: start the leaf
// minute, then end it.
func terminalOnlyStream(leafID int64) []*wire.Message {
	return []*wire.Message{
		minuteCreateMsg(leafID, 1345643927),
		minuteUpdateMsg(leafID, 1345643963),
	}
}

func mustCreate(t *testing.T, gdb *gorm.DB, value interface{}) {
	t.Helper()
	if err := gdb.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

func wireHeader(msgType int32, userID int64, ts float64) *wire.MessageHeader {
	return &wire.MessageHeader{
		ID:               uuid.NewString(),
		Type:             msgType,
		ChatSessionToken: "test_session_token",
		UserID:           userID,
		Timestamp:        ts,
	}
}

func minuteCreateMsg(topicID int64, ts float64) *wire.Message {
	return &wire.Message{
		Header: wireHeader(wire.MessageTypeMinuteCreate, 1, ts),
		MinuteCreateMessage: &wire.MinuteCreateMessage{
			MinuteID:       uuid.NewString(),
			TopicID:        topicID,
			StartTimestamp: int64(ts),
		},
	}
}

func minuteUpdateMsg(topicID int64, ts float64) *wire.Message {
	end := int64(ts)
	return &wire.Message{
		Header: wireHeader(wire.MessageTypeMinuteUpdate, 1, ts),
		MinuteUpdateMessage: &wire.MinuteUpdateMessage{
			MinuteID:       uuid.NewString(),
			TopicID:        topicID,
			StartTimestamp: end,
			EndTimestamp:   &end,
		},
	}
}

func tagCreateMsg(tagID, name string, userID int64, ts float64) *wire.Message {
	return &wire.Message{
		Header:           wireHeader(wire.MessageTypeTagCreate, userID, ts),
		TagCreateMessage: &wire.TagCreateMessage{TagID: tagID, Name: name},
	}
}

func tagDeleteMsg(tagID string, userID int64, ts float64) *wire.Message {
	return &wire.Message{
		Header:           wireHeader(wire.MessageTypeTagDelete, userID, ts),
		TagDeleteMessage: &wire.TagDeleteMessage{TagID: tagID},
	}
}

func speakingMarkerMsg(userID int64, isSpeaking bool, ts float64) *wire.Message {
	return &wire.Message{
		Header: wireHeader(wire.MessageTypeMarkerCreate, userID, ts),
		MarkerCreateMessage: &wire.MarkerCreateMessage{
			MarkerID: uuid.NewString(),
			Marker: &wire.Marker{
				Type:           wire.MarkerTypeSpeaking,
				SpeakingMarker: &wire.SpeakingMarker{UserID: userID, IsSpeaking: isSpeaking},
			},
		},
	}
}
