package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const MaxDisplayNameLen = 64

var (
	ErrUnknownToken    = errors.New("unknown token")
	ErrNoSuchEndpoint  = errors.New("no session for endpoint")
	ErrInvalidSession  = errors.New("invalid session for room")
	ErrNameTooLong     = errors.New("display name too long")
	ErrEndpointInvalid = errors.New("invalid relay endpoint")
)

// Token is the opaque bearer credential of a session.
type Token string

// NewToken issues a fresh 128-bit random token in canonical form.
// Tokens are never reused.
func NewToken() Token {
	return Token(uuid.NewString())
}

type Role int

const (
	RoleHost Role = iota
	RoleMember
)

func (r Role) String() string {
	if r == RoleHost {
		return "host"
	}
	return "member"
}

type SessionState int

const (
	// Provisional: token issued, relay endpoint not yet reported.
	// Invisible to the data plane.
	Provisional SessionState = iota
	Bound
)

// Session is a client's membership in a room. Created provisional by the
// control-plane handshake, bound once the client reports its relay port.
type Session struct {
	Token       Token
	Room        RoomName
	DisplayName string
	Role        Role
	State       SessionState
	Endpoint    Endpoint
	CreatedAt   time.Time
	LastActive  time.Time
}

// ActiveAt is the timestamp the reaper judges the session by. A provisional
// session has no traffic yet, so its creation time substitutes.
func (s *Session) ActiveAt() time.Time {
	if s.State == Provisional {
		return s.CreatedAt
	}
	return s.LastActive
}

func ValidateDisplayName(name string) error {
	if len(name) > MaxDisplayNameLen {
		return ErrNameTooLong
	}
	return nil
}
