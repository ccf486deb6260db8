package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/types"
)

// ErrDuplicatePersistJob means the claim update matched zero rows: another
// worker owns the job. Callers must exit the work cycle cleanly and leave
// the row untouched.
var ErrDuplicatePersistJob = errors.New("chat persist job already claimed")

type PersistJobRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.ChatPersistJob, error)
	ListUnclaimed(ctx context.Context, tx *gorm.DB) ([]*types.ChatPersistJob, error)
	Claim(ctx context.Context, tx *gorm.DB, id int64, owner string) error
	Finish(ctx context.Context, tx *gorm.DB, id int64) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id int64) error
}

type persistJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersistJobRepo(db *gorm.DB, baseLog *logger.Logger) PersistJobRepo {
	return &persistJobRepo{
		db:  db,
		log: baseLog.With("repo", "PersistJobRepo"),
	}
}

func (r *persistJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.ChatPersistJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.ChatPersistJob
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *persistJobRepo) ListUnclaimed(ctx context.Context, tx *gorm.DB) ([]*types.ChatPersistJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var jobs []*types.ChatPersistJob
	if err := transaction.WithContext(ctx).
		Where("owner IS NULL AND start IS NULL").
		Order("created ASC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Claim sets owner and start on the row iff nobody owns it yet:
//
//	UPDATE chat_persist_job SET owner = ?, start = now()
//	WHERE id = ? AND owner IS NULL
//
// Zero affected rows means the race was lost and ErrDuplicatePersistJob is
// returned. Exactly one worker across all instances can win.
func (r *persistJobRepo) Claim(ctx context.Context, tx *gorm.DB, id int64, owner string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ChatPersistJob{}).
		Where("id = ? AND owner IS NULL", id).
		Updates(map[string]interface{}{
			"owner": owner,
			"start": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job_id=%d: %w", id, ErrDuplicatePersistJob)
	}
	return nil
}

func (r *persistJobRepo) Finish(ctx context.Context, tx *gorm.DB, id int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ChatPersistJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"end":        time.Now().UTC(),
			"successful": true,
		}).Error
}

// MarkFailed records an aborted job. Owner and start stay populated so a
// failed job is a persistent record; re-running it is an administrative
// act, never an automatic retry.
func (r *persistJobRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id int64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ChatPersistJob{}).
		Where("id = ?", id).
		Update("successful", false).Error
}
