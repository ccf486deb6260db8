package wire

import (
	"math"
	"testing"
	"time"
)

func TestRoundTripMinuteCreate(t *testing.T) {
	end := int64(1345643963)
	in := &Message{
		Header: &MessageHeader{
			ID:               "3a6f2b14c9d84e0f",
			Type:             MessageTypeMinuteCreate,
			ChatSessionToken: "session_token_1",
			UserID:           7,
			Timestamp:        1345643927.5,
			Route:            &MessageRoute{Type: 1, Recipients: []int64{3, 5}},
		},
		MinuteCreateMessage: &MinuteCreateMessage{
			MinuteID:       "m1",
			TopicID:        2,
			StartTimestamp: 1345643927,
			EndTimestamp:   &end,
		},
	}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	h := out.Header
	if h.ID != in.Header.ID || h.Type != in.Header.Type || h.UserID != 7 {
		t.Fatalf("header mismatch: %+v", h)
	}
	if h.Timestamp != 1345643927.5 {
		t.Fatalf("timestamp = %v, want 1345643927.5", h.Timestamp)
	}
	if h.Route == nil || len(h.Route.Recipients) != 2 || h.Route.Recipients[1] != 5 {
		t.Fatalf("route mismatch: %+v", h.Route)
	}
	body := out.MinuteCreateMessage
	if body == nil || body.MinuteID != "m1" || body.TopicID != 2 {
		t.Fatalf("payload mismatch: %+v", body)
	}
	if body.EndTimestamp == nil || *body.EndTimestamp != end {
		t.Fatalf("end timestamp mismatch: %v", body.EndTimestamp)
	}
}

func TestRoundTripSpeakingMarker(t *testing.T) {
	in := &Message{
		Header: &MessageHeader{
			ID:        "abc",
			Type:      MessageTypeMarkerCreate,
			UserID:    3,
			Timestamp: 100.25,
		},
		MarkerCreateMessage: &MarkerCreateMessage{
			MarkerID: "mk1",
			Marker: &Marker{
				Type:           MarkerTypeSpeaking,
				SpeakingMarker: &SpeakingMarker{UserID: 3, IsSpeaking: true},
			},
		},
	}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	marker := out.MarkerCreateMessage
	if marker == nil || marker.MarkerID != "mk1" {
		t.Fatalf("marker payload mismatch: %+v", marker)
	}
	if marker.Marker.Type != MarkerTypeSpeaking {
		t.Fatalf("marker type = %d, want speaking", marker.Marker.Type)
	}
	sp := marker.Marker.SpeakingMarker
	if sp == nil || sp.UserID != 3 || !sp.IsSpeaking {
		t.Fatalf("speaking marker mismatch: %+v", sp)
	}
}

func TestRoundTripTagMessages(t *testing.T) {
	ref := int64(12)
	create := &Message{
		Header: &MessageHeader{ID: "c1", Type: MessageTypeTagCreate, UserID: 1, Timestamp: 10},
		TagCreateMessage: &TagCreateMessage{
			TagID:          "t1",
			MinuteID:       "m1",
			Name:           "Tag",
			TagReferenceID: &ref,
		},
	}
	data, err := Marshal(create)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	body := out.TagCreateMessage
	if body == nil || body.TagID != "t1" || body.Name != "Tag" {
		t.Fatalf("tag create mismatch: %+v", body)
	}
	if body.TagReferenceID == nil || *body.TagReferenceID != ref {
		t.Fatalf("tag reference mismatch: %v", body.TagReferenceID)
	}

	del := &Message{
		Header:           &MessageHeader{ID: "d1", Type: MessageTypeTagDelete, UserID: 1, Timestamp: 20},
		TagDeleteMessage: &TagDeleteMessage{TagID: "t1"},
	}
	data, err = Marshal(del)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err = Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.TagDeleteMessage == nil || out.TagDeleteMessage.TagID != "t1" {
		t.Fatalf("tag delete mismatch: %+v", out.TagDeleteMessage)
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := Unmarshal("not base64!!"); err == nil {
		t.Fatal("Unmarshal accepted invalid base64")
	}
}

func TestTimeFromUnix(t *testing.T) {
	ts := 1345643927.5
	converted := TimeFromUnix(ts)
	if converted.Location() != time.UTC {
		t.Fatal("converted time not UTC")
	}
	if got := UnixFromTime(converted); math.Abs(got-ts) > 1e-6 {
		t.Fatalf("round trip = %v, want %v", got, ts)
	}
	whole := TimeFromUnix(100)
	if whole.Nanosecond() != 0 {
		t.Fatalf("whole second carries nanos: %d", whole.Nanosecond())
	}
}
