package types

import (
	"time"
)

// Input-side tables. These rows are produced by the upstream chat service;
// persistsvc only reads them.

type Chat struct {
	ID      int64      `gorm:"column:id;primaryKey" json:"id"`
	TopicID int64      `gorm:"column:topic_id;not null;index" json:"topic_id"`
	Start   *time.Time `gorm:"column:start" json:"start,omitempty"`
	End     *time.Time `gorm:"column:end" json:"end,omitempty"`
}

func (Chat) TableName() string { return "chat" }

type ChatSession struct {
	ID     int64      `gorm:"column:id;primaryKey" json:"id"`
	ChatID int64      `gorm:"column:chat_id;not null;index" json:"chat_id"`
	Token  string     `gorm:"column:token;not null;uniqueIndex" json:"token"`
	Start  *time.Time `gorm:"column:start" json:"start,omitempty"`
	End    *time.Time `gorm:"column:end" json:"end,omitempty"`
}

func (ChatSession) TableName() string { return "chat_session" }

type ChatUser struct {
	ID            int64  `gorm:"column:id;primaryKey" json:"id"`
	ChatSessionID int64  `gorm:"column:chat_session_id;not null;index" json:"chat_session_id"`
	UserID        int64  `gorm:"column:user_id;not null" json:"user_id"`
	Token         string `gorm:"column:token" json:"token"`
	Participant   int    `gorm:"column:participant;not null;default:0" json:"participant"`
}

func (ChatUser) TableName() string { return "chat_user" }

type Topic struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	ParentID    *int64 `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Rank        int    `gorm:"column:rank;not null" json:"rank"`
	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description" json:"description"`
	UserID      int64  `gorm:"column:user_id" json:"user_id"`
}

func (Topic) TableName() string { return "topic" }

type ChatMessageFormatType struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string `gorm:"column:description" json:"description"`
}

func (ChatMessageFormatType) TableName() string { return "chat_message_format_type" }

// ChatMessage carries one wire message. Timestamp is the float epoch
// second used for ordering; Time is the same instant as a timezone aware
// column; Data is the base64 payload in the format named by FormatTypeID.
type ChatMessage struct {
	ID            int64     `gorm:"column:id;primaryKey" json:"id"`
	MessageID     string    `gorm:"column:message_id;not null;uniqueIndex" json:"message_id"`
	ChatSessionID int64     `gorm:"column:chat_session_id;not null;index" json:"chat_session_id"`
	FormatTypeID  int64     `gorm:"column:format_type_id;not null" json:"format_type_id"`
	Timestamp     float64   `gorm:"column:timestamp;not null;index" json:"timestamp"`
	Time          time.Time `gorm:"column:time;not null" json:"time"`
	Data          string    `gorm:"column:data;type:text;not null" json:"data"`
}

func (ChatMessage) TableName() string { return "chat_message" }
