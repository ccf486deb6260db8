package interpret

import (
	"errors"
	"testing"

	"github.com/yungbote/persistsvc/internal/chat/wire"
)

const sessionID = int64(42)

func chainIDs(h *MinuteHandler, leafID int64) []int64 {
	var out []int64
	for _, t := range h.EndTopicChain(leafID) {
		out = append(out, t.ID)
	}
	return out
}

func equalInt64s(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEndTopicChains(t *testing.T) {
	cases := []struct {
		name    string
		parents map[int64]int64
		n       int64
		chains  map[int64][]int64
	}{
		{
			name:    "flat",
			parents: map[int64]int64{1: 0, 2: 0, 3: 0},
			n:       4,
			chains:  map[int64][]int64{3: {0}},
		},
		{
			name:    "nested",
			parents: map[int64]int64{1: 0, 2: 0, 3: 2, 4: 3, 5: 2, 6: 0},
			n:       7,
			chains:  map[int64][]int64{4: {3}, 5: {2}, 6: {0}},
		},
		{
			name:    "deep",
			parents: map[int64]int64{1: 0, 2: 0, 3: 2, 4: 3, 5: 3, 6: 2, 7: 6, 8: 7, 9: 0, 10: 9},
			n:       11,
			chains:  map[int64][]int64{4: {3}, 8: {7, 6, 2}, 10: {9, 0}},
		},
		{
			name:    "wide",
			parents: map[int64]int64{1: 0, 2: 1, 3: 0, 4: 3, 5: 3, 6: 5, 7: 3, 8: 0, 9: 0, 10: 9},
			n:       11,
			chains:  map[int64][]int64{2: {1}, 6: {5}, 7: {3}, 10: {9, 0}},
		},
		{
			name:    "single leaf",
			parents: map[int64]int64{1: 0},
			n:       2,
			chains:  map[int64][]int64{1: {0}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewMinuteHandler(sessionID, collectionFromParents(tc.parents, tc.n), testLogger(t))
			for leafID, want := range tc.chains {
				if got := chainIDs(h, leafID); !equalInt64s(got, want) {
					t.Errorf("end topic chain for leaf %d = %v, want %v", leafID, got, want)
				}
			}
			// Non-highest leaves carry no chain.
			for _, leaf := range h.topics.LeafListByRank() {
				if _, expected := tc.chains[leaf.ID]; !expected {
					if got := chainIDs(h, leaf.ID); len(got) != 0 {
						t.Errorf("leaf %d should have no end topic chain, got %v", leaf.ID, got)
					}
				}
			}
		})
	}
}

// Creating then updating only the leaves must close every minute in
// the tree, whatever its shape, with monotone non-decreasing starts.
func TestLeafStreamClosesAllMinutes(t *testing.T) {
	cases := []struct {
		name    string
		parents map[int64]int64
		n       int64
	}{
		{"nested", map[int64]int64{1: 0, 2: 0, 3: 2, 4: 3, 5: 2, 6: 0}, 7},
		{"deep", map[int64]int64{1: 0, 2: 0, 3: 2, 4: 3, 5: 3, 6: 2, 7: 6, 8: 7, 9: 0, 10: 9}, 11},
		{"wide", map[int64]int64{1: 0, 2: 1, 3: 0, 4: 3, 5: 3, 6: 5, 7: 3, 8: 0, 9: 0, 10: 9}, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coll := collectionFromParents(tc.parents, tc.n)
			h := NewMinuteHandler(sessionID, coll, testLogger(t))
			if err := h.Initialize(); err != nil {
				t.Fatalf("Initialize: %v", err)
			}

			ts := float64(1000)
			leaves := coll.LeafListByRank()
			for _, leaf := range leaves {
				if err := h.CreateModels(minuteCreate(leaf.ID, ts)); err != nil {
					t.Fatalf("CreateModels(%d): %v", leaf.ID, err)
				}
				ts += 60
			}
			last := leaves[len(leaves)-1]
			if err := h.UpdateModels(minuteUpdate(last.ID, ts)); err != nil {
				t.Fatalf("UpdateModels(%d): %v", last.ID, err)
			}

			minutes, err := h.Finalize()
			if err != nil {
				t.Fatalf("Finalize: %v", err)
			}
			if len(minutes) != int(tc.n) {
				t.Fatalf("got %d minutes, want %d", len(minutes), tc.n)
			}
			for i, m := range minutes {
				if m.Start.IsZero() {
					t.Errorf("minute for topic %d has unset start", m.TopicID)
				}
				if m.End == nil {
					t.Errorf("minute for topic %d has unset end", m.TopicID)
				} else if m.End.Before(m.Start) {
					t.Errorf("minute for topic %d ends before it starts", m.TopicID)
				}
				if i > 0 && m.Start.Before(minutes[i-1].Start) {
					t.Errorf("minute starts not monotone at rank %d", i)
				}
				if m.ChatSessionID != sessionID {
					t.Errorf("minute for topic %d bound to session %d", m.TopicID, m.ChatSessionID)
				}
			}
		})
	}
}

// Minute boundaries come from the payload timestamps, not the header:
// the header carries the broadcast time with fractional drift, while
// the payload carries the boundary the client actually declared.
func TestMinuteBoundsComeFromPayload(t *testing.T) {
	coll := collectionFromParents(map[int64]int64{1: 0}, 2)
	h := NewMinuteHandler(sessionID, coll, testLogger(t))
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	create := minuteCreate(1, 1345643927)
	create.Header.Timestamp = 1345643927.795392
	if err := h.CreateModels(create); err != nil {
		t.Fatalf("CreateModels: %v", err)
	}
	update := minuteUpdate(1, 1345643963)
	update.Header.Timestamp = 1345643963.615938902
	if err := h.UpdateModels(update); err != nil {
		t.Fatalf("UpdateModels: %v", err)
	}

	minutes, err := h.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	wantStart := wire.TimeFromUnix(1345643927)
	wantEnd := wire.TimeFromUnix(1345643963)
	for _, m := range minutes {
		if !m.Start.Equal(wantStart) {
			t.Errorf("minute for topic %d starts at %v, want %v", m.TopicID, m.Start, wantStart)
		}
		if m.End == nil || !m.End.Equal(wantEnd) {
			t.Errorf("minute for topic %d ends at %v, want %v", m.TopicID, m.End, wantEnd)
		}
	}
}

func TestTerminalUpdateWithoutEndTimestampFails(t *testing.T) {
	h := NewMinuteHandler(sessionID, collectionFromParents(map[int64]int64{1: 0}, 2), testLogger(t))
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := h.CreateModels(minuteCreate(1, 1000)); err != nil {
		t.Fatalf("CreateModels: %v", err)
	}
	update := minuteUpdate(1, 1100)
	update.MinuteUpdateMessage.EndTimestamp = nil
	if err := h.UpdateModels(update); err == nil {
		t.Fatal("terminal update without an end timestamp must fail")
	}
}

func TestCreateUnknownTopicIsHard(t *testing.T) {
	h := NewMinuteHandler(sessionID, collectionFromParents(map[int64]int64{1: 0}, 2), testLogger(t))
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	err := h.CreateModels(minuteCreate(99, 1000))
	if !errors.Is(err, ErrTopicIDDoesNotExist) {
		t.Fatalf("err = %v, want ErrTopicIDDoesNotExist", err)
	}
	if IsSoft(err) {
		t.Fatal("unknown topic must be a hard failure")
	}
}

func TestCreateNonLeafIgnored(t *testing.T) {
	h := NewMinuteHandler(sessionID, collectionFromParents(map[int64]int64{1: 0}, 2), testLogger(t))
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := h.CreateModels(minuteCreate(0, 1000)); err != nil {
		t.Fatalf("non-leaf create should be ignored, got %v", err)
	}
	if h.ActiveMinute() != nil {
		t.Fatal("non-leaf create must not set the active minute")
	}
}

func TestUpdateIgnoredForNonTerminalLeaf(t *testing.T) {
	coll := collectionFromParents(map[int64]int64{1: 0, 2: 0}, 3)
	h := NewMinuteHandler(sessionID, coll, testLogger(t))
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := h.CreateModels(minuteCreate(1, 1000)); err != nil {
		t.Fatalf("CreateModels: %v", err)
	}
	// Leaf 1 is not the terminal leaf; its update carries nothing.
	if err := h.UpdateModels(minuteUpdate(1, 1060)); err != nil {
		t.Fatalf("UpdateModels: %v", err)
	}
	if h.minutes[1].End != nil {
		t.Fatal("non-terminal update must not close the minute")
	}
}

func TestFinalizeWithoutTerminalUpdateFails(t *testing.T) {
	h := NewMinuteHandler(sessionID, collectionFromParents(map[int64]int64{1: 0}, 2), testLogger(t))
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := h.CreateModels(minuteCreate(1, 1000)); err != nil {
		t.Fatalf("CreateModels: %v", err)
	}
	if _, err := h.Finalize(); !errors.Is(err, ErrInvalidChatMinute) {
		t.Fatalf("Finalize err = %v, want ErrInvalidChatMinute", err)
	}
}

func TestActiveMinuteFollowsLatestLeaf(t *testing.T) {
	coll := collectionFromParents(map[int64]int64{1: 0, 2: 0}, 3)
	h := NewMinuteHandler(sessionID, coll, testLogger(t))
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if h.ActiveMinute() != nil {
		t.Fatal("active minute must start nil")
	}
	if err := h.CreateModels(minuteCreate(1, 1000)); err != nil {
		t.Fatalf("CreateModels: %v", err)
	}
	if got := h.ActiveMinute(); got == nil || got.TopicID != 1 {
		t.Fatalf("active minute = %+v, want topic 1", got)
	}
	if err := h.CreateModels(minuteCreate(2, 1060)); err != nil {
		t.Fatalf("CreateModels: %v", err)
	}
	if got := h.ActiveMinute(); got == nil || got.TopicID != 2 {
		t.Fatalf("active minute = %+v, want topic 2", got)
	}
	// The previous leaf closed when the next one started.
	if h.minutes[1].End == nil || !h.minutes[1].End.Equal(wire.TimeFromUnix(1060)) {
		t.Fatalf("previous leaf end = %v, want ts 1060", h.minutes[1].End)
	}
}

func TestTrailingMessagesAfterTerminalUpdate(t *testing.T) {
	coll := collectionFromParents(map[int64]int64{1: 0}, 2)
	h := NewMinuteHandler(sessionID, coll, testLogger(t))
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := h.CreateModels(minuteCreate(1, 1000)); err != nil {
		t.Fatalf("CreateModels: %v", err)
	}
	if err := h.UpdateModels(minuteUpdate(1, 1100)); err != nil {
		t.Fatalf("UpdateModels: %v", err)
	}
	// A second terminal update is tolerated and just rewrites the end.
	if err := h.UpdateModels(minuteUpdate(1, 1100)); err != nil {
		t.Fatalf("repeat UpdateModels: %v", err)
	}
	if _, err := h.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}
