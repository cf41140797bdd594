package protocol

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestParseRequestHeader(t *testing.T) {
	buf := EncodeRequestHeader(5, OpCreateRoom, 10)
	h, err := ParseRequestHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if h.RoomNameLen != 5 || h.Operation != OpCreateRoom || h.PayloadLen != 10 {
		t.Errorf("Got: %+v; Expected: room=5 op=1 payload=10", h)
	}
}

func TestParseRequestHeaderRejects(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want error
	}{
		{"short", make([]byte, 10), ErrShortHeader},
		{"zero room name", EncodeRequestHeader(0, OpCreateRoom, 4), ErrBadRoomNameLen},
		{"unknown op", EncodeRequestHeader(4, 9, 4), ErrBadOperation},
		{"payload below room name", EncodeRequestHeader(8, OpJoinRoom, 4), ErrPayloadTooShort},
		{"oversized payload", EncodeRequestHeader(4, OpJoinRoom, MaxPayloadLen+1), ErrPayloadTooLarge},
	}
	for _, tc := range cases {
		if _, err := ParseRequestHeader(tc.buf); err != tc.want {
			t.Errorf("%s: got %v; expected %v", tc.name, err, tc.want)
		}
	}

	// Non-request state byte is a protocol violation.
	buf := EncodeRequestHeader(4, OpJoinRoom, 4)
	buf[2] = 2
	if _, err := ParseRequestHeader(buf); err != ErrBadState {
		t.Errorf("state byte: got %v; expected %v", err, ErrBadState)
	}

	// A length bit set beyond the low 8 bytes of the 29-byte field.
	buf = EncodeRequestHeader(4, OpJoinRoom, 4)
	buf[5] = 1
	if _, err := ParseRequestHeader(buf); err != ErrPayloadTooLarge {
		t.Errorf("high length bits: got %v; expected %v", err, ErrPayloadTooLarge)
	}
}

func TestDatagramRoundTrip(t *testing.T) {
	raw, err := EncodeDatagram("lobby", "tok-1", []byte("hi"))
	if err != nil {
		t.Fatal(err)
	}
	dg, err := ParseDatagram(raw)
	if err != nil {
		t.Fatal(err)
	}
	if dg.RoomName != "lobby" || dg.Token != "tok-1" || string(dg.Body) != "hi" {
		t.Errorf("Got: %+v; Expected: lobby/tok-1/hi", dg)
	}
}

func TestParseDatagramRejects(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want error
	}{
		{"empty", nil, ErrShortDatagram},
		{"one byte", []byte{5}, ErrShortDatagram},
		{"zero room len", []byte{0, 3, 'a', 'b', 'c'}, ErrZeroFieldLength},
		{"zero token len", []byte{1, 0, 'a'}, ErrZeroFieldLength},
		{"declared length exceeds datagram", []byte{5, 5, 'a', 'b'}, ErrBadFieldLength},
		{"bad utf8 room", []byte{1, 1, 0xff, 't'}, ErrInvalidUTF8},
	}
	for _, tc := range cases {
		if _, err := ParseDatagram(tc.buf); err != tc.want {
			t.Errorf("%s: got %v; expected %v", tc.name, err, tc.want)
		}
	}
}

func TestRelayPayload(t *testing.T) {
	got := RelayPayload("alice", []byte("hi"))
	if !bytes.Equal(got, []byte("alice:hi")) {
		t.Errorf("Got: %q; Expected: %q", got, "alice:hi")
	}
}

func TestStatusReplies(t *testing.T) {
	var reply StatusReply
	if err := json.Unmarshal(AckReply(), &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Status != StatusAcknowledge {
		t.Errorf("ack status: got %d; expected %d", reply.Status, StatusAcknowledge)
	}
	if err := json.Unmarshal(CompleteReply("tok"), &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Status != StatusComplete || reply.Token != "tok" {
		t.Errorf("complete: got %+v", reply)
	}
	if err := json.Unmarshal(ErrorReply("room not found"), &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Error != "room not found" {
		t.Errorf("error: got %+v", reply)
	}
}

func TestPortReportRoundTrip(t *testing.T) {
	port, err := ParsePortReport(EncodePortReport(5001))
	if err != nil {
		t.Fatal(err)
	}
	if port != 5001 {
		t.Errorf("Got: %d; Expected: 5001", port)
	}
}
