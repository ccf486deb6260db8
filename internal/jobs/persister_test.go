package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/persistsvc/internal/chat/interpret"
	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/repos"
	"github.com/yungbote/persistsvc/internal/types"
)

// A full single-topic chat: one minute pair, one speaking pair, four
// tags of which two survive. Everything lands in one commit. The minute
// headers carry the broadcast time with fractional drift; the stored
// boundaries must come from the payload timestamps.
func TestPersistSingleTopicChat(t *testing.T) {
	gdb := testDB(t)
	fix := seedChat(t, gdb, "Root")
	create := minuteCreateMsg(fix.LeafID, 1345643927)
	create.Header.Timestamp = 1345643927.795392
	update := minuteUpdateMsg(fix.LeafID, 1345643963)
	update.Header.Timestamp = 1345643963.615938902
	seedStream(t, gdb, &fix, []*wire.Message{
		create,
		tagCreateMsg("a", "Tag", 101, 1345643936),
		speakingMarkerMsg(101, true, 1345643940),
		tagCreateMsg("b", "del", 101, 1345643943),
		tagDeleteMsg("b", 101, 1345643948),
		speakingMarkerMsg(101, false, 1345643950),
		tagCreateMsg("c", "dup", 102, 1345643953),
		tagCreateMsg("d", "dup", 102, 1345643957),
		update,
	})

	p := newTestPersister(t, gdb)
	if err := p.Persist(context.Background(), fix.JobID); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	var job types.ChatPersistJob
	if err := gdb.First(&job, fix.JobID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Owner == nil || *job.Owner != testOwner {
		t.Fatalf("job owner = %v, want %q", job.Owner, testOwner)
	}
	if job.Start == nil || job.End == nil {
		t.Fatalf("job start/end not recorded: start=%v end=%v", job.Start, job.End)
	}
	if job.Successful == nil || !*job.Successful {
		t.Fatalf("job successful = %v, want true", job.Successful)
	}

	var minutes []types.ChatMinute
	if err := gdb.Where("chat_session_id = ?", fix.SessionID).Order("topic_id").Find(&minutes).Error; err != nil {
		t.Fatalf("load minutes: %v", err)
	}
	if len(minutes) != 2 {
		t.Fatalf("got %d minutes, want 2 (root and leaf)", len(minutes))
	}
	start := wire.TimeFromUnix(1345643927)
	end := wire.TimeFromUnix(1345643963)
	var leafMinute types.ChatMinute
	for _, m := range minutes {
		if !m.Start.Equal(start) {
			t.Errorf("minute topic %d start = %v, want %v", m.TopicID, m.Start, start)
		}
		if m.End == nil || !m.End.Equal(end) {
			t.Errorf("minute topic %d end = %v, want %v", m.TopicID, m.End, end)
		}
		if m.TopicID == fix.LeafID {
			leafMinute = m
		}
	}
	if leafMinute.ID == 0 {
		t.Fatal("no minute for the leaf topic")
	}

	var markers []types.ChatSpeakingMarker
	if err := gdb.Find(&markers).Error; err != nil {
		t.Fatalf("load markers: %v", err)
	}
	if len(markers) != 1 {
		t.Fatalf("got %d speaking markers, want 1", len(markers))
	}
	if markers[0].UserID != 101 || markers[0].ChatMinuteID != leafMinute.ID {
		t.Errorf("marker = %+v, want user 101 on leaf minute %d", markers[0], leafMinute.ID)
	}
	if !markers[0].Start.Equal(wire.TimeFromUnix(1345643940)) || !markers[0].End.Equal(wire.TimeFromUnix(1345643950)) {
		t.Errorf("marker interval = [%v, %v]", markers[0].Start, markers[0].End)
	}

	var tags []types.ChatTag
	if err := gdb.Order("id").Find(&tags).Error; err != nil {
		t.Fatalf("load tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	if tags[0].Name != "Tag" || tags[1].Name != "dup" {
		t.Fatalf("tags = [%s, %s], want [Tag, dup]", tags[0].Name, tags[1].Name)
	}
	for _, tag := range tags {
		if tag.ChatMinuteID != leafMinute.ID {
			t.Errorf("tag %q bound to minute %d, want leaf minute %d", tag.Name, tag.ChatMinuteID, leafMinute.ID)
		}
		if tag.Deleted {
			t.Errorf("surviving tag %q marked deleted", tag.Name)
		}
	}

	var archives []types.ChatArchiveJob
	if err := gdb.Where("chat_session_id = ?", fix.SessionID).Find(&archives).Error; err != nil {
		t.Fatalf("load archive jobs: %v", err)
	}
	if len(archives) != 1 {
		t.Fatalf("got %d archive jobs, want 1", len(archives))
	}
	archive := archives[0]
	if archive.RetriesRemaining != archiveRetries {
		t.Errorf("archive retries = %d, want %d", archive.RetriesRemaining, archiveRetries)
	}
	if delay := archive.NotBefore.Sub(archive.Created); delay < archiveDelay-time.Second || delay > archiveDelay+time.Second {
		t.Errorf("archive not_before delay = %v, want ~%v", delay, archiveDelay)
	}

	var highlights []types.ChatHighlightSession
	if err := gdb.Where("chat_session_id = ?", fix.SessionID).Order("user_id").Find(&highlights).Error; err != nil {
		t.Fatalf("load highlights: %v", err)
	}
	if len(highlights) != 2 {
		t.Fatalf("got %d highlights, want one per participant", len(highlights))
	}
	for i, h := range highlights {
		if h.UserID != fix.UserIDs[i] {
			t.Errorf("highlight[%d] user = %d, want %d", i, h.UserID, fix.UserIDs[i])
		}
		if h.Rank != 0 {
			t.Errorf("highlight[%d] rank = %d, want 0 for a first highlight", i, h.Rank)
		}
	}
}

// A lost claim race surfaces as ErrDuplicatePersistJob and leaves the
// row exactly as the winner left it.
func TestPersistLostClaimLeavesJobUntouched(t *testing.T) {
	gdb := testDB(t)
	fix := seedChat(t, gdb, "Root")
	seedStream(t, gdb, &fix, terminalOnlyStream(fix.LeafID))

	jobRepo := repos.NewPersistJobRepo(gdb, testLogger(t))
	if err := jobRepo.Claim(context.Background(), nil, fix.JobID, "other-instance"); err != nil {
		t.Fatalf("pre-claim: %v", err)
	}

	p := newTestPersister(t, gdb)
	err := p.Persist(context.Background(), fix.JobID)
	if !errors.Is(err, repos.ErrDuplicatePersistJob) {
		t.Fatalf("err = %v, want ErrDuplicatePersistJob", err)
	}

	var job types.ChatPersistJob
	if err := gdb.First(&job, fix.JobID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Owner == nil || *job.Owner != "other-instance" {
		t.Fatalf("job owner = %v, want the original claimant", job.Owner)
	}
	if job.Successful != nil || job.End != nil {
		t.Fatalf("loser modified the job: successful=%v end=%v", job.Successful, job.End)
	}

	var count int64
	if err := gdb.Model(&types.ChatMinute{}).Count(&count).Error; err != nil {
		t.Fatalf("count minutes: %v", err)
	}
	if count != 0 {
		t.Fatalf("loser wrote %d minutes", count)
	}
}

// Two instances race the conditional claim update on the same job;
// exactly one wins and its name lands on the row.
func TestConcurrentClaimHasOneWinner(t *testing.T) {
	gdb := testDB(t)
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	// Serialize sqlite writes so the race is decided by the conditional
	// update rather than a busy error.
	sqlDB.SetMaxOpenConns(1)

	fix := seedChat(t, gdb, "Root")
	seedStream(t, gdb, &fix, nil)

	jobRepo := repos.NewPersistJobRepo(gdb, testLogger(t))
	owners := []string{"instance-a", "instance-b"}
	results := make(chan error, len(owners))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for _, owner := range owners {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			<-start
			results <- jobRepo.Claim(context.Background(), nil, fix.JobID, owner)
		}(owner)
	}
	close(start)
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repos.ErrDuplicatePersistJob):
			losses++
		default:
			t.Fatalf("claim: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("got %d winners and %d losers, want exactly one of each", wins, losses)
	}

	var job types.ChatPersistJob
	if err := gdb.First(&job, fix.JobID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Owner == nil || (*job.Owner != "instance-a" && *job.Owner != "instance-b") {
		t.Fatalf("job owner = %v, want one of the racing instances", job.Owner)
	}
	if job.Start == nil {
		t.Fatal("winner must record the claim start")
	}
}

func TestPersistTutorialSkipsHighlights(t *testing.T) {
	gdb := testDB(t)
	fix := seedChat(t, gdb, tutorialRootTitle)
	seedStream(t, gdb, &fix, terminalOnlyStream(fix.LeafID))

	p := newTestPersister(t, gdb)
	if err := p.Persist(context.Background(), fix.JobID); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	var archives int64
	if err := gdb.Model(&types.ChatArchiveJob{}).Count(&archives).Error; err != nil {
		t.Fatalf("count archive jobs: %v", err)
	}
	if archives != 1 {
		t.Fatalf("got %d archive jobs, want 1 (archival is not skipped)", archives)
	}

	var highlights int64
	if err := gdb.Model(&types.ChatHighlightSession{}).Count(&highlights).Error; err != nil {
		t.Fatalf("count highlights: %v", err)
	}
	if highlights != 0 {
		t.Fatalf("got %d highlights for a tutorial chat, want 0", highlights)
	}
}

// A stream with no terminal minute update leaves an open minute; the
// job aborts with successful=false and none of its output survives.
func TestPersistInvalidMinuteAborts(t *testing.T) {
	gdb := testDB(t)
	fix := seedChat(t, gdb, "Root")
	seedStream(t, gdb, &fix, []*wire.Message{
		minuteCreateMsg(fix.LeafID, 1345643927),
		tagCreateMsg("a", "Tag", 101, 1345643936),
	})

	p := newTestPersister(t, gdb)
	err := p.Persist(context.Background(), fix.JobID)
	if !errors.Is(err, interpret.ErrInvalidChatMinute) {
		t.Fatalf("err = %v, want ErrInvalidChatMinute", err)
	}

	var job types.ChatPersistJob
	if err := gdb.First(&job, fix.JobID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Successful == nil || *job.Successful {
		t.Fatalf("job successful = %v, want false", job.Successful)
	}
	if job.Owner == nil || job.Start == nil {
		t.Fatal("abort must keep owner and start so the failure stays on record")
	}

	for _, probe := range []struct {
		name  string
		model interface{}
	}{
		{"minutes", &types.ChatMinute{}},
		{"tags", &types.ChatTag{}},
		{"archive jobs", &types.ChatArchiveJob{}},
		{"highlights", &types.ChatHighlightSession{}},
	} {
		var count int64
		if err := gdb.Model(probe.model).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", probe.name, err)
		}
		if count != 0 {
			t.Errorf("aborted job left %d %s behind", count, probe.name)
		}
	}
}

// A user who bookmarked the chat by hand while the job ran produces a
// uniqueness conflict; the highlight transaction rolls back and the job
// output stays committed.
func TestPersistHighlightConflictKeepsJobOutput(t *testing.T) {
	gdb := testDB(t)
	fix := seedChat(t, gdb, "Root")
	seedStream(t, gdb, &fix, terminalOnlyStream(fix.LeafID))

	mustCreate(t, gdb, &types.ChatHighlightSession{
		UserID:        fix.UserIDs[0],
		ChatSessionID: fix.SessionID,
		Rank:          5,
	})

	p := newTestPersister(t, gdb)
	if err := p.Persist(context.Background(), fix.JobID); err != nil {
		t.Fatalf("Persist must survive a highlight conflict, got: %v", err)
	}

	var job types.ChatPersistJob
	if err := gdb.First(&job, fix.JobID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Successful == nil || !*job.Successful {
		t.Fatalf("job successful = %v, want true", job.Successful)
	}

	var minutes int64
	if err := gdb.Model(&types.ChatMinute{}).Count(&minutes).Error; err != nil {
		t.Fatalf("count minutes: %v", err)
	}
	if minutes != 2 {
		t.Fatalf("got %d minutes, want 2 committed before the conflict", minutes)
	}

	// The highlight transaction is all or nothing: only the manual
	// bookmark remains, untouched.
	var highlights []types.ChatHighlightSession
	if err := gdb.Find(&highlights).Error; err != nil {
		t.Fatalf("load highlights: %v", err)
	}
	if len(highlights) != 1 {
		t.Fatalf("got %d highlights, want only the pre-existing one", len(highlights))
	}
	if highlights[0].UserID != fix.UserIDs[0] || highlights[0].Rank != 5 {
		t.Fatalf("pre-existing highlight was modified: %+v", highlights[0])
	}
}

// An empty message stream leaves every minute unstarted, which is the
// same defect as a missing terminal update: the job aborts.
func TestPersistEmptySessionAborts(t *testing.T) {
	gdb := testDB(t)
	fix := seedChat(t, gdb, "Root")
	seedStream(t, gdb, &fix, nil)

	p := newTestPersister(t, gdb)
	err := p.Persist(context.Background(), fix.JobID)
	if !errors.Is(err, interpret.ErrInvalidChatMinute) {
		t.Fatalf("err = %v, want ErrInvalidChatMinute", err)
	}

	var job types.ChatPersistJob
	if err := gdb.First(&job, fix.JobID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Successful == nil || *job.Successful {
		t.Fatalf("job successful = %v, want false", job.Successful)
	}
}
