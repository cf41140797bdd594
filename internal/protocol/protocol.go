// Package protocol implements the wire formats of both channels: the 32-byte
// control-plane request header with its JSON status replies, and the
// data-plane datagram framing.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"unicode/utf8"
)

// Control-plane operations.
const (
	OpCreateRoom byte = 1
	OpJoinRoom   byte = 2
)

// StateRequest is the only state code a client may send in its header.
// The server never trusts it beyond that.
const StateRequest byte = 0

// Server status codes, carried in the JSON "status" field of replies.
const (
	StatusAcknowledge = 1
	StatusComplete    = 2
)

// HeaderSize is the fixed control request header:
// [1: room-name length][1: operation][1: state][29: big-endian payload length].
const HeaderSize = 32

// MaxPayloadLen caps the declared payload. The field is 29 bytes wide on the
// wire but a room name plus display name never comes near this.
const MaxPayloadLen = 64 * 1024

var (
	ErrShortHeader     = errors.New("short header")
	ErrBadOperation    = errors.New("unknown operation")
	ErrBadState        = errors.New("unexpected state code")
	ErrBadRoomNameLen  = errors.New("bad room name length")
	ErrPayloadTooLarge = errors.New("declared payload too large")
	ErrPayloadTooShort = errors.New("payload shorter than room name")
	ErrShortDatagram   = errors.New("short datagram")
	ErrBadFieldLength  = errors.New("field length exceeds datagram")
	ErrZeroFieldLength = errors.New("zero field length")
	ErrInvalidUTF8     = errors.New("field is not valid UTF-8")
)

// RequestHeader is the decoded form of the fixed control header.
type RequestHeader struct {
	RoomNameLen int
	Operation   byte
	State       byte
	PayloadLen  int
}

// ParseRequestHeader validates and decodes a control request header.
// The inbound state byte is advisory: anything but StateRequest is rejected,
// but nothing else is derived from it.
func ParseRequestHeader(buf []byte) (RequestHeader, error) {
	if len(buf) < HeaderSize {
		return RequestHeader{}, ErrShortHeader
	}
	h := RequestHeader{
		RoomNameLen: int(buf[0]),
		Operation:   buf[1],
		State:       buf[2],
	}
	if h.RoomNameLen == 0 {
		return RequestHeader{}, ErrBadRoomNameLen
	}
	if h.Operation != OpCreateRoom && h.Operation != OpJoinRoom {
		return RequestHeader{}, ErrBadOperation
	}
	if h.State != StateRequest {
		return RequestHeader{}, ErrBadState
	}
	// 29-byte big-endian length; anything past the low 8 bytes must be zero.
	for _, b := range buf[3 : HeaderSize-8] {
		if b != 0 {
			return RequestHeader{}, ErrPayloadTooLarge
		}
	}
	n := binary.BigEndian.Uint64(buf[HeaderSize-8 : HeaderSize])
	if n > MaxPayloadLen {
		return RequestHeader{}, ErrPayloadTooLarge
	}
	h.PayloadLen = int(n)
	if h.PayloadLen < h.RoomNameLen {
		return RequestHeader{}, ErrPayloadTooShort
	}
	return h, nil
}

// EncodeRequestHeader builds the header a client sends.
func EncodeRequestHeader(roomNameLen int, op byte, payloadLen int) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = byte(roomNameLen)
	buf[1] = op
	buf[2] = StateRequest
	binary.BigEndian.PutUint64(buf[HeaderSize-8:], uint64(payloadLen))
	return buf
}

// StatusReply is the JSON body of both server replies on the control channel.
type StatusReply struct {
	Status int    `json:"status"`
	Token  string `json:"token,omitempty"`
	Error  string `json:"error,omitempty"`
}

func AckReply() []byte {
	b, _ := json.Marshal(StatusReply{Status: StatusAcknowledge})
	return b
}

func CompleteReply(token string) []byte {
	b, _ := json.Marshal(StatusReply{Status: StatusComplete, Token: token})
	return b
}

func ErrorReply(msg string) []byte {
	b, _ := json.Marshal(StatusReply{Error: msg})
	return b
}

// Datagram is a parsed client-to-server relay message.
type Datagram struct {
	RoomName string
	Token    string
	Body     []byte
}

// ParseDatagram decodes [1: room len][1: token len][room][token][body].
// Both length fields must be non-zero, in bounds, and name valid UTF-8.
func ParseDatagram(buf []byte) (Datagram, error) {
	if len(buf) < 2 {
		return Datagram{}, ErrShortDatagram
	}
	roomLen := int(buf[0])
	tokenLen := int(buf[1])
	if roomLen == 0 || tokenLen == 0 {
		return Datagram{}, ErrZeroFieldLength
	}
	if 2+roomLen+tokenLen > len(buf) {
		return Datagram{}, ErrBadFieldLength
	}
	room := buf[2 : 2+roomLen]
	token := buf[2+roomLen : 2+roomLen+tokenLen]
	if !utf8.Valid(room) || !utf8.Valid(token) {
		return Datagram{}, ErrInvalidUTF8
	}
	body := make([]byte, len(buf)-2-roomLen-tokenLen)
	copy(body, buf[2+roomLen+tokenLen:])
	return Datagram{RoomName: string(room), Token: string(token), Body: body}, nil
}

// EncodeDatagram builds a client-to-server relay message.
func EncodeDatagram(roomName, token string, body []byte) ([]byte, error) {
	if len(roomName) == 0 || len(roomName) > 255 {
		return nil, ErrBadRoomNameLen
	}
	if len(token) == 0 || len(token) > 255 {
		return nil, ErrBadFieldLength
	}
	out := make([]byte, 0, 2+len(roomName)+len(token)+len(body))
	out = append(out, byte(len(roomName)), byte(len(token)))
	out = append(out, roomName...)
	out = append(out, token...)
	out = append(out, body...)
	return out, nil
}

// RelayPayload is what room members receive: display name, ':', body.
func RelayPayload(displayName string, body []byte) []byte {
	out := make([]byte, 0, len(displayName)+1+len(body))
	out = append(out, displayName...)
	out = append(out, ':')
	out = append(out, body...)
	return out
}

// EncodePortReport is the 2-byte big-endian relay port the client sends
// after a successful handshake.
func EncodePortReport(port uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, port)
	return buf
}

func ParsePortReport(buf []byte) (uint16, error) {
	if len(buf) < 2 {
		return 0, ErrShortHeader
	}
	return binary.BigEndian.Uint16(buf), nil
}
