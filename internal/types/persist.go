package types

import (
	"time"
)

// Output-side tables, plus the job rows that coordinate the work.

// ChatPersistJob is the unit of work. A job is unclaimed while owner and
// start are both NULL; the conditional claim update is the only arbiter
// between competing workers.
type ChatPersistJob struct {
	ID            int64      `gorm:"column:id;primaryKey" json:"id"`
	ChatSessionID int64      `gorm:"column:chat_session_id;not null;index" json:"chat_session_id"`
	Created       time.Time  `gorm:"column:created;not null" json:"created"`
	Start         *time.Time `gorm:"column:start" json:"start,omitempty"`
	End           *time.Time `gorm:"column:end" json:"end,omitempty"`
	Owner         *string    `gorm:"column:owner" json:"owner,omitempty"`
	Successful    *bool      `gorm:"column:successful" json:"successful,omitempty"`
}

func (ChatPersistJob) TableName() string { return "chat_persist_job" }

// Unclaimed reports whether the row is still up for grabs.
func (j *ChatPersistJob) Unclaimed() bool {
	return j.Owner == nil && j.Start == nil
}

type ChatMinute struct {
	ID            int64      `gorm:"column:id;primaryKey" json:"id"`
	ChatSessionID int64      `gorm:"column:chat_session_id;not null;index" json:"chat_session_id"`
	TopicID       int64      `gorm:"column:topic_id;not null" json:"topic_id"`
	Start         time.Time  `gorm:"column:start;not null" json:"start"`
	End           *time.Time `gorm:"column:end" json:"end,omitempty"`
}

func (ChatMinute) TableName() string { return "chat_minute" }

type ChatSpeakingMarker struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	UserID       int64     `gorm:"column:user_id;not null" json:"user_id"`
	ChatMinuteID int64     `gorm:"column:chat_minute_id;not null;index" json:"chat_minute_id"`
	Start        time.Time `gorm:"column:start;not null" json:"start"`
	End          time.Time `gorm:"column:end;not null" json:"end"`
}

func (ChatSpeakingMarker) TableName() string { return "chat_speaking_marker" }

type ChatTag struct {
	ID           int64  `gorm:"column:id;primaryKey" json:"id"`
	UserID       int64  `gorm:"column:user_id;not null;uniqueIndex:uq_chat_tag_user_minute_name" json:"user_id"`
	ChatMinuteID int64  `gorm:"column:chat_minute_id;not null;uniqueIndex:uq_chat_tag_user_minute_name" json:"chat_minute_id"`
	TagID        *int64 `gorm:"column:tag_id" json:"tag_id,omitempty"`
	Name         string `gorm:"column:name;not null;uniqueIndex:uq_chat_tag_user_minute_name" json:"name"`
	Deleted      bool   `gorm:"column:deleted;not null;default:false" json:"deleted"`
}

func (ChatTag) TableName() string { return "chat_tag" }

// ChatArchiveJob schedules media archival for a finished chat. The archive
// service claims these the same way persist jobs are claimed here;
// not_before delays pickup because the media provider needs a few minutes.
type ChatArchiveJob struct {
	ID               int64      `gorm:"column:id;primaryKey" json:"id"`
	ChatSessionID    int64      `gorm:"column:chat_session_id;not null;index" json:"chat_session_id"`
	Created          time.Time  `gorm:"column:created;not null" json:"created"`
	NotBefore        time.Time  `gorm:"column:not_before;not null" json:"not_before"`
	Start            *time.Time `gorm:"column:start" json:"start,omitempty"`
	End              *time.Time `gorm:"column:end" json:"end,omitempty"`
	Successful       *bool      `gorm:"column:successful" json:"successful,omitempty"`
	RetriesRemaining int        `gorm:"column:retries_remaining;not null" json:"retries_remaining"`
}

func (ChatArchiveJob) TableName() string { return "chat_archive_job" }

type ChatHighlightSession struct {
	ID            int64 `gorm:"column:id;primaryKey" json:"id"`
	UserID        int64 `gorm:"column:user_id;not null;uniqueIndex:uq_chat_highlight_user_session" json:"user_id"`
	ChatSessionID int64 `gorm:"column:chat_session_id;not null;uniqueIndex:uq_chat_highlight_user_session" json:"chat_session_id"`
	Rank          int   `gorm:"column:rank;not null" json:"rank"`
}

func (ChatHighlightSession) TableName() string { return "chat_highlight_session" }
