// Package wire implements the chat service's message encoding: a thrift
// binary struct, base64 encoded, one per chat_message row. The layout is
// owned by the upstream chat service and consumed as-is here.
package wire

import (
	"math"
	"time"
)

// FormatThriftBinaryB64 is the chat_message_format_type name this codec
// understands.
const FormatThriftBinaryB64 = "THRIFT_BINARY_B64"

// Message type tags carried in MessageHeader.Type.
const (
	MessageTypeTagCreate            int32 = 100
	MessageTypeTagDelete            int32 = 101
	MessageTypeWhiteboardCreate     int32 = 200
	MessageTypeWhiteboardDelete     int32 = 201
	MessageTypeWhiteboardPathCreate int32 = 202
	MessageTypeWhiteboardPathDelete int32 = 203
	MessageTypeMinuteCreate         int32 = 300
	MessageTypeMinuteUpdate         int32 = 301
	MessageTypeMarkerCreate         int32 = 400
)

// Marker kinds carried in Marker.Type.
const (
	MarkerTypeJoined     int32 = 0
	MarkerTypeConnected  int32 = 1
	MarkerTypePublishing int32 = 2
	MarkerTypeSpeaking   int32 = 3
	MarkerTypeStarted    int32 = 4
	MarkerTypeEnded      int32 = 5
)

type MessageRoute struct {
	Type       int32
	Recipients []int64
}

// MessageHeader is present on every message. Timestamp is Unix epoch
// seconds with fractional precision.
type MessageHeader struct {
	ID               string
	Type             int32
	ChatSessionToken string
	UserID           int64
	Timestamp        float64
	Route            *MessageRoute
}

// Message is the union over all chat wire payloads. Exactly one payload
// field is set per message; Header.Type declares which.
type Message struct {
	Header                      *MessageHeader
	MinuteCreateMessage         *MinuteCreateMessage
	MinuteUpdateMessage         *MinuteUpdateMessage
	MarkerCreateMessage         *MarkerCreateMessage
	TagCreateMessage            *TagCreateMessage
	TagDeleteMessage            *TagDeleteMessage
	WhiteboardCreateMessage     *WhiteboardCreateMessage
	WhiteboardDeleteMessage     *WhiteboardDeleteMessage
	WhiteboardCreatePathMessage *WhiteboardCreatePathMessage
	WhiteboardDeletePathMessage *WhiteboardDeletePathMessage
}

type MinuteCreateMessage struct {
	MinuteID       string
	TopicID        int64
	StartTimestamp int64
	EndTimestamp   *int64
}

type MinuteUpdateMessage struct {
	MinuteID       string
	TopicID        int64
	StartTimestamp int64
	EndTimestamp   *int64
}

type MarkerCreateMessage struct {
	MarkerID string
	Marker   *Marker
}

// Marker is its own union; Type declares which member is set.
type Marker struct {
	Type             int32
	JoinedMarker     *JoinedMarker
	ConnectedMarker  *ConnectedMarker
	PublishingMarker *PublishingMarker
	SpeakingMarker   *SpeakingMarker
	StartedMarker    *StartedMarker
	EndedMarker      *EndedMarker
}

type JoinedMarker struct {
	UserID int64
	Name   string
}

type ConnectedMarker struct {
	UserID      int64
	IsConnected bool
}

type PublishingMarker struct {
	UserID       int64
	IsPublishing bool
}

type SpeakingMarker struct {
	UserID     int64
	IsSpeaking bool
}

type StartedMarker struct {
	UserID int64
}

type EndedMarker struct {
	UserID int64
}

type TagCreateMessage struct {
	TagID          string
	MinuteID       string
	Name           string
	TagReferenceID *int64
}

type TagDeleteMessage struct {
	TagID string
}

type WhiteboardCreateMessage struct {
	WhiteboardID string
	Name         string
}

type WhiteboardDeleteMessage struct {
	WhiteboardID string
}

type WhiteboardCreatePathMessage struct {
	WhiteboardID string
	PathID       string
	PathData     string
}

type WhiteboardDeletePathMessage struct {
	WhiteboardID string
	PathID       string
}

// TimeFromUnix converts a wire timestamp (fractional epoch seconds) to a
// UTC time. The store's timezone aware columns are filled from this.
func TimeFromUnix(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

// UnixFromTime is the inverse of TimeFromUnix, used by fixtures.
func UnixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
