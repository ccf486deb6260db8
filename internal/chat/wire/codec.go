package wire

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/apache/thrift/lib/go/thrift"
)

// Marshal encodes a message the way the chat service stores it: thrift
// binary, then base64. Used by fixtures and tests; production traffic is
// written by the chat service itself.
func Marshal(m *Message) (string, error) {
	buf := thrift.NewTMemoryBuffer()
	p := thrift.NewTBinaryProtocolConf(buf, nil)
	ctx := context.Background()
	if err := m.write(ctx, p); err != nil {
		return "", fmt.Errorf("encode thrift message: %w", err)
	}
	if err := p.Flush(ctx); err != nil {
		return "", fmt.Errorf("flush thrift message: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Unmarshal decodes one chat_message.data payload.
func Unmarshal(data string) (*Message, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	buf := thrift.NewTMemoryBuffer()
	if _, err := buf.Write(raw); err != nil {
		return nil, err
	}
	p := thrift.NewTBinaryProtocolConf(buf, nil)
	var m Message
	if err := m.read(context.Background(), p); err != nil {
		return nil, fmt.Errorf("decode thrift message: %w", err)
	}
	return &m, nil
}

// readStruct drives a field loop. The callback returns false when it does
// not own the field, in which case the field is skipped; unknown fields
// keep old payloads decodable.
func readStruct(ctx context.Context, p thrift.TProtocol, field func(ftype thrift.TType, id int16) (bool, error)) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, ftype, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if ftype == thrift.STOP {
			break
		}
		handled, err := field(ftype, id)
		if err != nil {
			return err
		}
		if !handled {
			if err := thrift.SkipDefaultDepth(ctx, p, ftype); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func writeField(ctx context.Context, p thrift.TProtocol, name string, ftype thrift.TType, id int16, body func() error) error {
	if err := p.WriteFieldBegin(ctx, name, ftype, id); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	return p.WriteFieldEnd(ctx)
}

func writeStringField(ctx context.Context, p thrift.TProtocol, name string, id int16, v string) error {
	return writeField(ctx, p, name, thrift.STRING, id, func() error { return p.WriteString(ctx, v) })
}

func writeI32Field(ctx context.Context, p thrift.TProtocol, name string, id int16, v int32) error {
	return writeField(ctx, p, name, thrift.I32, id, func() error { return p.WriteI32(ctx, v) })
}

func writeI64Field(ctx context.Context, p thrift.TProtocol, name string, id int16, v int64) error {
	return writeField(ctx, p, name, thrift.I64, id, func() error { return p.WriteI64(ctx, v) })
}

func writeDoubleField(ctx context.Context, p thrift.TProtocol, name string, id int16, v float64) error {
	return writeField(ctx, p, name, thrift.DOUBLE, id, func() error { return p.WriteDouble(ctx, v) })
}

func writeBoolField(ctx context.Context, p thrift.TProtocol, name string, id int16, v bool) error {
	return writeField(ctx, p, name, thrift.BOOL, id, func() error { return p.WriteBool(ctx, v) })
}

func writeStructField(ctx context.Context, p thrift.TProtocol, name string, id int16, body func(context.Context, thrift.TProtocol) error) error {
	return writeField(ctx, p, name, thrift.STRUCT, id, func() error { return body(ctx, p) })
}

func (m *Message) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "Message"); err != nil {
		return err
	}
	if m.Header != nil {
		if err := writeStructField(ctx, p, "header", 1, m.Header.write); err != nil {
			return err
		}
	}
	if m.MinuteCreateMessage != nil {
		if err := writeStructField(ctx, p, "minuteCreateMessage", 2, m.MinuteCreateMessage.write); err != nil {
			return err
		}
	}
	if m.MinuteUpdateMessage != nil {
		if err := writeStructField(ctx, p, "minuteUpdateMessage", 3, m.MinuteUpdateMessage.write); err != nil {
			return err
		}
	}
	if m.MarkerCreateMessage != nil {
		if err := writeStructField(ctx, p, "markerCreateMessage", 4, m.MarkerCreateMessage.write); err != nil {
			return err
		}
	}
	if m.TagCreateMessage != nil {
		if err := writeStructField(ctx, p, "tagCreateMessage", 5, m.TagCreateMessage.write); err != nil {
			return err
		}
	}
	if m.TagDeleteMessage != nil {
		if err := writeStructField(ctx, p, "tagDeleteMessage", 6, m.TagDeleteMessage.write); err != nil {
			return err
		}
	}
	if m.WhiteboardCreateMessage != nil {
		if err := writeStructField(ctx, p, "whiteboardCreateMessage", 7, m.WhiteboardCreateMessage.write); err != nil {
			return err
		}
	}
	if m.WhiteboardDeleteMessage != nil {
		if err := writeStructField(ctx, p, "whiteboardDeleteMessage", 8, m.WhiteboardDeleteMessage.write); err != nil {
			return err
		}
	}
	if m.WhiteboardCreatePathMessage != nil {
		if err := writeStructField(ctx, p, "whiteboardCreatePathMessage", 9, m.WhiteboardCreatePathMessage.write); err != nil {
			return err
		}
	}
	if m.WhiteboardDeletePathMessage != nil {
		if err := writeStructField(ctx, p, "whiteboardDeletePathMessage", 10, m.WhiteboardDeletePathMessage.write); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *Message) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		if ftype != thrift.STRUCT {
			return false, nil
		}
		switch id {
		case 1:
			m.Header = &MessageHeader{}
			return true, m.Header.read(ctx, p)
		case 2:
			m.MinuteCreateMessage = &MinuteCreateMessage{}
			return true, m.MinuteCreateMessage.read(ctx, p)
		case 3:
			m.MinuteUpdateMessage = &MinuteUpdateMessage{}
			return true, m.MinuteUpdateMessage.read(ctx, p)
		case 4:
			m.MarkerCreateMessage = &MarkerCreateMessage{}
			return true, m.MarkerCreateMessage.read(ctx, p)
		case 5:
			m.TagCreateMessage = &TagCreateMessage{}
			return true, m.TagCreateMessage.read(ctx, p)
		case 6:
			m.TagDeleteMessage = &TagDeleteMessage{}
			return true, m.TagDeleteMessage.read(ctx, p)
		case 7:
			m.WhiteboardCreateMessage = &WhiteboardCreateMessage{}
			return true, m.WhiteboardCreateMessage.read(ctx, p)
		case 8:
			m.WhiteboardDeleteMessage = &WhiteboardDeleteMessage{}
			return true, m.WhiteboardDeleteMessage.read(ctx, p)
		case 9:
			m.WhiteboardCreatePathMessage = &WhiteboardCreatePathMessage{}
			return true, m.WhiteboardCreatePathMessage.read(ctx, p)
		case 10:
			m.WhiteboardDeletePathMessage = &WhiteboardDeletePathMessage{}
			return true, m.WhiteboardDeletePathMessage.read(ctx, p)
		}
		return false, nil
	})
}

func (h *MessageHeader) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "MessageHeader"); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "id", 1, h.ID); err != nil {
		return err
	}
	if err := writeI32Field(ctx, p, "type", 2, h.Type); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "chatSessionToken", 3, h.ChatSessionToken); err != nil {
		return err
	}
	if err := writeI64Field(ctx, p, "userId", 4, h.UserID); err != nil {
		return err
	}
	if err := writeDoubleField(ctx, p, "timestamp", 5, h.Timestamp); err != nil {
		return err
	}
	if h.Route != nil {
		if err := writeStructField(ctx, p, "route", 6, h.Route.write); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (h *MessageHeader) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.STRING:
			h.ID, err = p.ReadString(ctx)
		case id == 2 && ftype == thrift.I32:
			h.Type, err = p.ReadI32(ctx)
		case id == 3 && ftype == thrift.STRING:
			h.ChatSessionToken, err = p.ReadString(ctx)
		case id == 4 && ftype == thrift.I64:
			h.UserID, err = p.ReadI64(ctx)
		case id == 5 && ftype == thrift.DOUBLE:
			h.Timestamp, err = p.ReadDouble(ctx)
		case id == 6 && ftype == thrift.STRUCT:
			h.Route = &MessageRoute{}
			err = h.Route.read(ctx, p)
		default:
			return false, nil
		}
		return true, err
	})
}

func (r *MessageRoute) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "MessageRoute"); err != nil {
		return err
	}
	if err := writeI32Field(ctx, p, "type", 1, r.Type); err != nil {
		return err
	}
	err := writeField(ctx, p, "recipients", thrift.LIST, 2, func() error {
		if err := p.WriteListBegin(ctx, thrift.I64, len(r.Recipients)); err != nil {
			return err
		}
		for _, id := range r.Recipients {
			if err := p.WriteI64(ctx, id); err != nil {
				return err
			}
		}
		return p.WriteListEnd(ctx)
	})
	if err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (r *MessageRoute) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		switch {
		case id == 1 && ftype == thrift.I32:
			v, err := p.ReadI32(ctx)
			r.Type = v
			return true, err
		case id == 2 && ftype == thrift.LIST:
			_, size, err := p.ReadListBegin(ctx)
			if err != nil {
				return true, err
			}
			r.Recipients = make([]int64, 0, size)
			for i := 0; i < size; i++ {
				v, err := p.ReadI64(ctx)
				if err != nil {
					return true, err
				}
				r.Recipients = append(r.Recipients, v)
			}
			return true, p.ReadListEnd(ctx)
		}
		return false, nil
	})
}

func writeMinutePayload(ctx context.Context, p thrift.TProtocol, structName, minuteID string, topicID, startTimestamp int64, endTimestamp *int64) error {
	if err := p.WriteStructBegin(ctx, structName); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "minuteId", 1, minuteID); err != nil {
		return err
	}
	if err := writeI64Field(ctx, p, "topicId", 2, topicID); err != nil {
		return err
	}
	if err := writeI64Field(ctx, p, "startTimestamp", 3, startTimestamp); err != nil {
		return err
	}
	if endTimestamp != nil {
		if err := writeI64Field(ctx, p, "endTimestamp", 4, *endTimestamp); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func readMinutePayload(ctx context.Context, p thrift.TProtocol, minuteID *string, topicID, startTimestamp *int64, endTimestamp **int64) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.STRING:
			*minuteID, err = p.ReadString(ctx)
		case id == 2 && ftype == thrift.I64:
			*topicID, err = p.ReadI64(ctx)
		case id == 3 && ftype == thrift.I64:
			*startTimestamp, err = p.ReadI64(ctx)
		case id == 4 && ftype == thrift.I64:
			var v int64
			v, err = p.ReadI64(ctx)
			*endTimestamp = &v
		default:
			return false, nil
		}
		return true, err
	})
}

func (m *MinuteCreateMessage) write(ctx context.Context, p thrift.TProtocol) error {
	return writeMinutePayload(ctx, p, "MinuteCreateMessage", m.MinuteID, m.TopicID, m.StartTimestamp, m.EndTimestamp)
}

func (m *MinuteCreateMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readMinutePayload(ctx, p, &m.MinuteID, &m.TopicID, &m.StartTimestamp, &m.EndTimestamp)
}

func (m *MinuteUpdateMessage) write(ctx context.Context, p thrift.TProtocol) error {
	return writeMinutePayload(ctx, p, "MinuteUpdateMessage", m.MinuteID, m.TopicID, m.StartTimestamp, m.EndTimestamp)
}

func (m *MinuteUpdateMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readMinutePayload(ctx, p, &m.MinuteID, &m.TopicID, &m.StartTimestamp, &m.EndTimestamp)
}

func (m *MarkerCreateMessage) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "MarkerCreateMessage"); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "markerId", 1, m.MarkerID); err != nil {
		return err
	}
	if m.Marker != nil {
		if err := writeStructField(ctx, p, "marker", 2, m.Marker.write); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *MarkerCreateMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.STRING:
			m.MarkerID, err = p.ReadString(ctx)
		case id == 2 && ftype == thrift.STRUCT:
			m.Marker = &Marker{}
			err = m.Marker.read(ctx, p)
		default:
			return false, nil
		}
		return true, err
	})
}

func (m *Marker) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "Marker"); err != nil {
		return err
	}
	if err := writeI32Field(ctx, p, "type", 1, m.Type); err != nil {
		return err
	}
	if m.JoinedMarker != nil {
		if err := writeStructField(ctx, p, "joinedMarker", 2, m.JoinedMarker.write); err != nil {
			return err
		}
	}
	if m.ConnectedMarker != nil {
		if err := writeStructField(ctx, p, "connectedMarker", 3, m.ConnectedMarker.write); err != nil {
			return err
		}
	}
	if m.PublishingMarker != nil {
		if err := writeStructField(ctx, p, "publishingMarker", 4, m.PublishingMarker.write); err != nil {
			return err
		}
	}
	if m.SpeakingMarker != nil {
		if err := writeStructField(ctx, p, "speakingMarker", 5, m.SpeakingMarker.write); err != nil {
			return err
		}
	}
	if m.StartedMarker != nil {
		if err := writeStructField(ctx, p, "startedMarker", 6, m.StartedMarker.write); err != nil {
			return err
		}
	}
	if m.EndedMarker != nil {
		if err := writeStructField(ctx, p, "endedMarker", 7, m.EndedMarker.write); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *Marker) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		if id == 1 && ftype == thrift.I32 {
			v, err := p.ReadI32(ctx)
			m.Type = v
			return true, err
		}
		if ftype != thrift.STRUCT {
			return false, nil
		}
		switch id {
		case 2:
			m.JoinedMarker = &JoinedMarker{}
			return true, m.JoinedMarker.read(ctx, p)
		case 3:
			m.ConnectedMarker = &ConnectedMarker{}
			return true, m.ConnectedMarker.read(ctx, p)
		case 4:
			m.PublishingMarker = &PublishingMarker{}
			return true, m.PublishingMarker.read(ctx, p)
		case 5:
			m.SpeakingMarker = &SpeakingMarker{}
			return true, m.SpeakingMarker.read(ctx, p)
		case 6:
			m.StartedMarker = &StartedMarker{}
			return true, m.StartedMarker.read(ctx, p)
		case 7:
			m.EndedMarker = &EndedMarker{}
			return true, m.EndedMarker.read(ctx, p)
		}
		return false, nil
	})
}

func (m *JoinedMarker) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "JoinedMarker"); err != nil {
		return err
	}
	if err := writeI64Field(ctx, p, "userId", 1, m.UserID); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "name", 2, m.Name); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *JoinedMarker) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.I64:
			m.UserID, err = p.ReadI64(ctx)
		case id == 2 && ftype == thrift.STRING:
			m.Name, err = p.ReadString(ctx)
		default:
			return false, nil
		}
		return true, err
	})
}

func writeUserBoolMarker(ctx context.Context, p thrift.TProtocol, structName, flagName string, userID int64, flag bool) error {
	if err := p.WriteStructBegin(ctx, structName); err != nil {
		return err
	}
	if err := writeI64Field(ctx, p, "userId", 1, userID); err != nil {
		return err
	}
	if err := writeBoolField(ctx, p, flagName, 2, flag); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func readUserBoolMarker(ctx context.Context, p thrift.TProtocol, userID *int64, flag *bool) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.I64:
			*userID, err = p.ReadI64(ctx)
		case id == 2 && ftype == thrift.BOOL:
			*flag, err = p.ReadBool(ctx)
		default:
			return false, nil
		}
		return true, err
	})
}

func (m *ConnectedMarker) write(ctx context.Context, p thrift.TProtocol) error {
	return writeUserBoolMarker(ctx, p, "ConnectedMarker", "isConnected", m.UserID, m.IsConnected)
}

func (m *ConnectedMarker) read(ctx context.Context, p thrift.TProtocol) error {
	return readUserBoolMarker(ctx, p, &m.UserID, &m.IsConnected)
}

func (m *PublishingMarker) write(ctx context.Context, p thrift.TProtocol) error {
	return writeUserBoolMarker(ctx, p, "PublishingMarker", "isPublishing", m.UserID, m.IsPublishing)
}

func (m *PublishingMarker) read(ctx context.Context, p thrift.TProtocol) error {
	return readUserBoolMarker(ctx, p, &m.UserID, &m.IsPublishing)
}

func (m *SpeakingMarker) write(ctx context.Context, p thrift.TProtocol) error {
	return writeUserBoolMarker(ctx, p, "SpeakingMarker", "isSpeaking", m.UserID, m.IsSpeaking)
}

func (m *SpeakingMarker) read(ctx context.Context, p thrift.TProtocol) error {
	return readUserBoolMarker(ctx, p, &m.UserID, &m.IsSpeaking)
}

func writeUserOnlyMarker(ctx context.Context, p thrift.TProtocol, structName string, userID int64) error {
	if err := p.WriteStructBegin(ctx, structName); err != nil {
		return err
	}
	if err := writeI64Field(ctx, p, "userId", 1, userID); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func readUserOnlyMarker(ctx context.Context, p thrift.TProtocol, userID *int64) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		if id == 1 && ftype == thrift.I64 {
			v, err := p.ReadI64(ctx)
			*userID = v
			return true, err
		}
		return false, nil
	})
}

func (m *StartedMarker) write(ctx context.Context, p thrift.TProtocol) error {
	return writeUserOnlyMarker(ctx, p, "StartedMarker", m.UserID)
}

func (m *StartedMarker) read(ctx context.Context, p thrift.TProtocol) error {
	return readUserOnlyMarker(ctx, p, &m.UserID)
}

func (m *EndedMarker) write(ctx context.Context, p thrift.TProtocol) error {
	return writeUserOnlyMarker(ctx, p, "EndedMarker", m.UserID)
}

func (m *EndedMarker) read(ctx context.Context, p thrift.TProtocol) error {
	return readUserOnlyMarker(ctx, p, &m.UserID)
}

func (m *TagCreateMessage) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "TagCreateMessage"); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "tagId", 1, m.TagID); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "minuteId", 2, m.MinuteID); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "name", 3, m.Name); err != nil {
		return err
	}
	if m.TagReferenceID != nil {
		if err := writeI64Field(ctx, p, "tagReferenceId", 4, *m.TagReferenceID); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *TagCreateMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.STRING:
			m.TagID, err = p.ReadString(ctx)
		case id == 2 && ftype == thrift.STRING:
			m.MinuteID, err = p.ReadString(ctx)
		case id == 3 && ftype == thrift.STRING:
			m.Name, err = p.ReadString(ctx)
		case id == 4 && ftype == thrift.I64:
			var v int64
			v, err = p.ReadI64(ctx)
			m.TagReferenceID = &v
		default:
			return false, nil
		}
		return true, err
	})
}

func (m *TagDeleteMessage) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "TagDeleteMessage"); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "tagId", 1, m.TagID); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *TagDeleteMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		if id == 1 && ftype == thrift.STRING {
			v, err := p.ReadString(ctx)
			m.TagID = v
			return true, err
		}
		return false, nil
	})
}

func (m *WhiteboardCreateMessage) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "WhiteboardCreateMessage"); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "whiteboardId", 1, m.WhiteboardID); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "name", 2, m.Name); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *WhiteboardCreateMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.STRING:
			m.WhiteboardID, err = p.ReadString(ctx)
		case id == 2 && ftype == thrift.STRING:
			m.Name, err = p.ReadString(ctx)
		default:
			return false, nil
		}
		return true, err
	})
}

func (m *WhiteboardDeleteMessage) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "WhiteboardDeleteMessage"); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "whiteboardId", 1, m.WhiteboardID); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *WhiteboardDeleteMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		if id == 1 && ftype == thrift.STRING {
			v, err := p.ReadString(ctx)
			m.WhiteboardID = v
			return true, err
		}
		return false, nil
	})
}

func (m *WhiteboardCreatePathMessage) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "WhiteboardCreatePathMessage"); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "whiteboardId", 1, m.WhiteboardID); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "pathId", 2, m.PathID); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "pathData", 3, m.PathData); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *WhiteboardCreatePathMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.STRING:
			m.WhiteboardID, err = p.ReadString(ctx)
		case id == 2 && ftype == thrift.STRING:
			m.PathID, err = p.ReadString(ctx)
		case id == 3 && ftype == thrift.STRING:
			m.PathData, err = p.ReadString(ctx)
		default:
			return false, nil
		}
		return true, err
	})
}

func (m *WhiteboardDeletePathMessage) write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "WhiteboardDeletePathMessage"); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "whiteboardId", 1, m.WhiteboardID); err != nil {
		return err
	}
	if err := writeStringField(ctx, p, "pathId", 2, m.PathID); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (m *WhiteboardDeletePathMessage) read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, func(ftype thrift.TType, id int16) (bool, error) {
		var err error
		switch {
		case id == 1 && ftype == thrift.STRING:
			m.WhiteboardID, err = p.ReadString(ctx)
		case id == 2 && ftype == thrift.STRING:
			m.PathID, err = p.ReadString(ctx)
		default:
			return false, nil
		}
		return true, err
	})
}
