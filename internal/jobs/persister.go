// Package jobs implements the job-coordination side of persistsvc: a
// monitor that discovers unclaimed persist jobs, a worker pool that
// runs them and the persister that takes one job from claim to commit.
// All cross-instance coordination happens at the store through the
// conditional claim update; nothing in here locks across processes.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/chat/interpret"
	"github.com/yungbote/persistsvc/internal/chat/topics"
	"github.com/yungbote/persistsvc/internal/chat/wire"
	"github.com/yungbote/persistsvc/internal/observability"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/repos"
	"github.com/yungbote/persistsvc/internal/types"
)

// archiveDelay is how long the media provider needs before the archive
// service may pick up the session.
const archiveDelay = 5 * time.Minute

// archiveRetries is the archive job's initial retries_remaining.
const archiveRetries = 3

// tutorialRootTitle marks tutorial chats, which never produce
// highlight bookmarks.
const tutorialRootTitle = "Tutorial"

// Persister runs one persist job end to end: claim the row, load and
// decode the session's messages, interpret them into models, commit
// the models plus the follow-up archive job atomically, then add the
// per-user highlight bookmarks in a second, sacrificial transaction.
type Persister struct {
	db  *gorm.DB
	log *logger.Logger

	owner             string
	speakingThreshold time.Duration
	metrics           *observability.Metrics

	jobs       repos.PersistJobRepo
	messages   repos.ChatMessageRepo
	users      repos.ChatUserRepo
	minutes    repos.ChatMinuteRepo
	markers    repos.ChatSpeakingMarkerRepo
	tags       repos.ChatTagRepo
	archives   repos.ChatArchiveJobRepo
	highlights repos.ChatHighlightSessionRepo
	loader     *topics.Loader
}

// PersisterConfig collects the persister's collaborators.
type PersisterConfig struct {
	DB                *gorm.DB
	Owner             string
	SpeakingThreshold time.Duration
	Metrics           *observability.Metrics

	Jobs       repos.PersistJobRepo
	Messages   repos.ChatMessageRepo
	Users      repos.ChatUserRepo
	Minutes    repos.ChatMinuteRepo
	Markers    repos.ChatSpeakingMarkerRepo
	Tags       repos.ChatTagRepo
	Archives   repos.ChatArchiveJobRepo
	Highlights repos.ChatHighlightSessionRepo
	Loader     *topics.Loader
}

func NewPersister(cfg PersisterConfig, baseLog *logger.Logger) *Persister {
	return &Persister{
		db:                cfg.DB,
		log:               baseLog.With("service", "ChatPersister"),
		owner:             cfg.Owner,
		speakingThreshold: cfg.SpeakingThreshold,
		metrics:           cfg.Metrics,
		jobs:              cfg.Jobs,
		messages:          cfg.Messages,
		users:             cfg.Users,
		minutes:           cfg.Minutes,
		markers:           cfg.Markers,
		tags:              cfg.Tags,
		archives:          cfg.Archives,
		highlights:        cfg.Highlights,
		loader:            cfg.Loader,
	}
}

// Persist processes one job. A lost claim race surfaces as
// repos.ErrDuplicatePersistJob and leaves the row untouched; any other
// failure after the claim aborts the job, rolling back all in-flight
// writes and recording successful=false with owner and start intact,
// so re-processing is an administrative act rather than a retry loop.
func (p *Persister) Persist(ctx context.Context, jobID int64) error {
	ctx, span := observability.Tracer().Start(ctx, "persist_job",
		trace.WithAttributes(attribute.Int64("persist_job.id", jobID)))
	defer span.End()

	log := p.log.With("job_id", jobID)
	log.Info("Starting chat persist job")

	if err := p.jobs.Claim(ctx, nil, jobID, p.owner); err != nil {
		if errors.Is(err, repos.ErrDuplicatePersistJob) {
			log.Warn("Chat persist job already claimed, stopping processing")
			return err
		}
		return fmt.Errorf("claim persist job: %w", err)
	}

	if err := p.run(ctx, jobID, log); err != nil {
		span.RecordError(err)
		log.Error("Aborting chat persist job", "error", err)
		if abortErr := p.jobs.MarkFailed(ctx, nil, jobID); abortErr != nil {
			// The monitor will observe the job still claimed by us; an
			// operator decides what happens next.
			log.Error("Failed to record job abort", "error", abortErr)
		}
		return err
	}

	log.Info("Chat persist job finished")
	return nil
}

func (p *Persister) run(ctx context.Context, jobID int64, log *logger.Logger) error {
	tx := p.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin main transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	job, err := p.jobs.GetByID(ctx, tx, jobID)
	if err != nil {
		return fmt.Errorf("load persist job: %w", err)
	}

	coll, output, err := p.interpretSession(ctx, tx, job.ChatSessionID, log)
	if err != nil {
		return err
	}
	if err := p.stageOutput(ctx, tx, output); err != nil {
		return err
	}
	if err := p.stageArchiveJob(ctx, tx, job.ChatSessionID); err != nil {
		return err
	}
	if err := p.jobs.Finish(ctx, tx, jobID); err != nil {
		return fmt.Errorf("finish persist job: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit main transaction: %w", err)
	}
	p.metrics.RecordModelsPersisted(len(output.Minutes), len(output.Markers), len(output.Tags))
	p.metrics.RecordArchiveScheduled()

	// Highlights run after the job output is durable, in their own
	// transaction; an expected bookmark conflict must not destroy the
	// job output, and a hard highlight failure must not either.
	if err := p.createHighlights(ctx, job.ChatSessionID, coll, log); err != nil {
		log.Warn("Highlight creation failed, continuing", "error", err)
	}
	return nil
}

// interpretSession loads, decodes and interprets the session's message
// log inside the main transaction.
func (p *Persister) interpretSession(ctx context.Context, tx *gorm.DB, chatSessionID int64, log *logger.Logger) (*topics.Collection, *interpret.Output, error) {
	formatID, err := p.messages.FormatTypeID(ctx, tx, wire.FormatThriftBinaryB64)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve message format %s: %w", wire.FormatThriftBinaryB64, err)
	}
	rows, err := p.messages.ListBySession(ctx, tx, chatSessionID, formatID)
	if err != nil {
		return nil, nil, fmt.Errorf("load chat messages: %w", err)
	}
	log.Info("Loaded chat messages to process", "chat_session_id", chatSessionID, "count", len(rows))
	p.metrics.RecordMessagesDecoded(len(rows))

	decoded := make([]*wire.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := wire.Unmarshal(row.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("decode chat message id=%s: %w", row.MessageID, err)
		}
		decoded = append(decoded, msg)
	}

	coll, err := p.loader.LoadForSession(ctx, tx, chatSessionID)
	if err != nil {
		return nil, nil, err
	}

	dispatcher, err := interpret.NewDispatcher(chatSessionID, coll, p.speakingThreshold, p.log)
	if err != nil {
		return nil, nil, err
	}
	for _, msg := range decoded {
		if err := dispatcher.Process(msg); err != nil {
			return nil, nil, fmt.Errorf("process chat message id=%s: %w", msg.Header.ID, err)
		}
	}
	output, err := dispatcher.Finalize()
	if err != nil {
		return nil, nil, err
	}
	return coll, output, nil
}

// stageOutput inserts the interpreter's models. Minutes go first so
// their generated ids can be resolved into the marker and tag rows.
func (p *Persister) stageOutput(ctx context.Context, tx *gorm.DB, output *interpret.Output) error {
	if err := p.minutes.CreateAll(ctx, tx, output.Minutes); err != nil {
		return fmt.Errorf("insert chat minutes: %w", err)
	}

	markers := make([]*types.ChatSpeakingMarker, 0, len(output.Markers))
	for _, m := range output.Markers {
		markers = append(markers, &types.ChatSpeakingMarker{
			UserID:       m.UserID,
			ChatMinuteID: m.Minute.ID,
			Start:        m.Start,
			End:          m.End,
		})
	}
	if err := p.markers.CreateAll(ctx, tx, markers); err != nil {
		return fmt.Errorf("insert chat speaking markers: %w", err)
	}

	tags := make([]*types.ChatTag, 0, len(output.Tags))
	for _, t := range output.Tags {
		tags = append(tags, &types.ChatTag{
			UserID:       t.UserID,
			ChatMinuteID: t.Minute.ID,
			TagID:        t.TagID,
			Name:         t.Name,
			Deleted:      t.Deleted,
		})
	}
	if err := p.tags.CreateAll(ctx, tx, tags); err != nil {
		return fmt.Errorf("insert chat tags: %w", err)
	}
	return nil
}

func (p *Persister) stageArchiveJob(ctx context.Context, tx *gorm.DB, chatSessionID int64) error {
	now := time.Now().UTC()
	job := &types.ChatArchiveJob{
		ChatSessionID:    chatSessionID,
		Created:          now,
		NotBefore:        now.Add(archiveDelay),
		RetriesRemaining: archiveRetries,
	}
	if err := p.archives.Create(ctx, tx, job); err != nil {
		return fmt.Errorf("insert chat archive job: %w", err)
	}
	return nil
}

// createHighlights bookmarks the finished chat for every participant,
// ranked after the user's existing highlights. Tutorial chats are
// skipped entirely. A uniqueness conflict means the user bookmarked
// the chat manually while the job ran; the transaction is rolled back
// and the job carries on.
func (p *Persister) createHighlights(ctx context.Context, chatSessionID int64, coll *topics.Collection, log *logger.Logger) error {
	if root := coll.Root(); root != nil && root.Title == tutorialRootTitle {
		log.Info("Tutorial chat, skipping highlight creation", "chat_session_id", chatSessionID)
		return nil
	}

	participants, err := p.users.ListBySession(ctx, nil, chatSessionID)
	if err != nil {
		return fmt.Errorf("load chat participants: %w", err)
	}

	tx := p.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin highlight transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	for _, participant := range participants {
		count, err := p.highlights.CountForUser(ctx, tx, participant.UserID)
		if err != nil {
			return fmt.Errorf("count highlights for user_id=%d: %w", participant.UserID, err)
		}
		highlight := &types.ChatHighlightSession{
			UserID:        participant.UserID,
			ChatSessionID: chatSessionID,
			Rank:          int(count),
		}
		if err := p.highlights.Create(ctx, tx, highlight); err != nil {
			if isUniqueViolation(err) {
				p.metrics.RecordHighlightConflict()
				log.Warn("User already has a highlight for this chat, skipping highlights",
					"user_id", participant.UserID, "chat_session_id", chatSessionID)
				return nil
			}
			return fmt.Errorf("insert highlight for user_id=%d: %w", participant.UserID, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit highlight transaction: %w", err)
	}
	return nil
}

// isUniqueViolation detects a unique-constraint conflict across the
// dialects in use (gorm translation for postgres, raw message for the
// sqlite used in tests).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
