package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/z6wdc/online-chat-messenger/internal/domain"
)

type roomState struct {
	name      domain.RoomName
	hostToken domain.Token
	members   map[domain.Token]struct{}
}

// Registry owns all room and session state. Every operation is a short
// critical section under one mutex; no network I/O happens while it is held.
// Callers get back copies and snapshots to act on outside the lock.
type Registry struct {
	mu         sync.Mutex
	rooms      map[domain.RoomName]*roomState
	sessions   map[domain.Token]*domain.Session
	byEndpoint map[domain.Endpoint]domain.Token
	now        func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[domain.RoomName]*roomState),
		sessions:   make(map[domain.Token]*domain.Session),
		byEndpoint: make(map[domain.Endpoint]domain.Token),
		now:        time.Now,
	}
}

// CreateRoom allocates a room plus a provisional host session and returns
// the host's token. Fails if the name already belongs to a live room.
func (r *Registry) CreateRoom(name domain.RoomName, hostDisplayName string) (domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[name]; ok {
		return "", domain.ErrDuplicateRoom
	}
	token := domain.NewToken()
	r.sessions[token] = &domain.Session{
		Token:       token,
		Room:        name,
		DisplayName: hostDisplayName,
		Role:        domain.RoleHost,
		State:       domain.Provisional,
		CreatedAt:   r.now(),
	}
	r.rooms[name] = &roomState{
		name:      name,
		hostToken: token,
		members:   make(map[domain.Token]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("room", string(name)).Str("host", hostDisplayName).Msg("created room")
	return token, nil
}

// JoinRoom allocates a provisional member session in an existing room.
func (r *Registry) JoinRoom(name domain.RoomName, memberDisplayName string) (domain.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[name]
	if !ok {
		return "", domain.ErrRoomNotFound
	}
	token := domain.NewToken()
	r.sessions[token] = &domain.Session{
		Token:       token,
		Room:        name,
		DisplayName: memberDisplayName,
		Role:        domain.RoleMember,
		State:       domain.Provisional,
		CreatedAt:   r.now(),
	}
	room.members[token] = struct{}{}
	log.Info().Str("module", "app.registry").Str("room", string(name)).Str("member", memberDisplayName).Msg("member joined")
	return token, nil
}

// BindEndpoint attaches the reported relay endpoint to a provisional session,
// making it visible to the data plane, and stamps its first activity.
func (r *Registry) BindEndpoint(token domain.Token, ep domain.Endpoint) error {
	if !ep.IsValid() {
		return domain.ErrEndpointInvalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return domain.ErrUnknownToken
	}
	if s.State == domain.Bound {
		delete(r.byEndpoint, s.Endpoint)
	}
	s.State = domain.Bound
	s.Endpoint = ep
	s.LastActive = r.now()
	r.byEndpoint[ep] = token
	log.Info().Str("module", "app.registry").Str("room", string(s.Room)).Str("endpoint", ep.String()).Str("role", s.Role.String()).Msg("bound endpoint")
	return nil
}

// Touch refreshes the activity timestamp of the session bound to ep.
func (r *Registry) Touch(ep domain.Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.byEndpoint[ep]
	if !ok {
		return domain.ErrNoSuchEndpoint
	}
	r.sessions[token].LastActive = r.now()
	return nil
}

// Resolve validates that token names a bound session in roomName and returns
// the sender's display name plus every other bound endpoint in the room.
func (r *Registry) Resolve(roomName domain.RoomName, token domain.Token) (string, []domain.Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok || s.Room != roomName || s.State != domain.Bound {
		return "", nil, domain.ErrInvalidSession
	}
	room := r.rooms[roomName]
	targets := make([]domain.Endpoint, 0, len(room.members))
	appendBound := func(t domain.Token) {
		if t == token {
			return
		}
		if peer, ok := r.sessions[t]; ok && peer.State == domain.Bound {
			targets = append(targets, peer.Endpoint)
		}
	}
	appendBound(room.hostToken)
	for member := range room.members {
		appendBound(member)
	}
	return s.DisplayName, targets, nil
}

// EvictMember removes a single member session and returns the endpoint that
// should receive the removal notice. The caller sends it; the registry does
// no network I/O. Evicting a host is a room closure, use CloseRoom.
func (r *Registry) EvictMember(token domain.Token) (domain.Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return domain.Endpoint{}, domain.ErrUnknownToken
	}
	r.dropSessionLocked(s)
	if room, ok := r.rooms[s.Room]; ok {
		delete(room.members, token)
	}
	log.Info().Str("module", "app.registry").Str("room", string(s.Room)).Str("member", s.DisplayName).Msg("evicted member")
	return s.Endpoint, nil
}

// CloseRoom removes the room and every session in it, returning the bound
// endpoints that must receive the closure notice.
func (r *Registry) CloseRoom(name domain.RoomName) ([]domain.Endpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[name]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	notify := r.closeRoomLocked(room)
	log.Info().Str("module", "app.registry").Str("room", string(name)).Int("notified", len(notify)).Msg("closed room")
	return notify, nil
}

// Abandon reclaims whatever a failed handshake left behind. A provisional
// host takes its freshly created room down with it; a member is dropped
// silently. Returns endpoints to notify when a room closed under members.
func (r *Registry) Abandon(token domain.Token) []domain.Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil
	}
	if s.Role == domain.RoleHost {
		if room, ok := r.rooms[s.Room]; ok {
			notify := r.closeRoomLocked(room)
			log.Info().Str("module", "app.registry").Str("room", string(s.Room)).Msg("abandoned handshake closed room")
			return notify
		}
	}
	r.dropSessionLocked(s)
	if room, ok := r.rooms[s.Room]; ok {
		delete(room.members, token)
	}
	log.Info().Str("module", "app.registry").Str("room", string(s.Room)).Msg("abandoned handshake dropped session")
	return nil
}

type SweepKind int

const (
	RoomClosed SweepKind = iota
	MemberEvicted
)

// SweepAction is one state change the sweep already applied, plus the
// endpoints the caller must notify about it.
type SweepAction struct {
	Kind        SweepKind
	Room        domain.RoomName
	DisplayName string
	Notify      []domain.Endpoint
}

// SweepExpired removes every session whose last activity predates
// now-timeout, in a single critical section. An expired host closes its
// whole room; hosts are checked before members so a closing room never
// also reports per-member evictions. Notices are sent by the caller,
// outside the lock.
func (r *Registry) SweepExpired(now time.Time, timeout time.Duration) []SweepAction {
	cutoff := now.Add(-timeout)
	r.mu.Lock()
	defer r.mu.Unlock()

	var actions []SweepAction
	for name, room := range r.rooms {
		host, ok := r.sessions[room.hostToken]
		if ok && host.ActiveAt().Before(cutoff) {
			actions = append(actions, SweepAction{
				Kind:        RoomClosed,
				Room:        name,
				DisplayName: host.DisplayName,
				Notify:      r.closeRoomLocked(room),
			})
			continue
		}
		for token := range room.members {
			member, ok := r.sessions[token]
			if !ok || !member.ActiveAt().Before(cutoff) {
				continue
			}
			r.dropSessionLocked(member)
			delete(room.members, token)
			action := SweepAction{
				Kind:        MemberEvicted,
				Room:        name,
				DisplayName: member.DisplayName,
			}
			if member.State == domain.Bound {
				action.Notify = []domain.Endpoint{member.Endpoint}
			}
			actions = append(actions, action)
		}
	}
	return actions
}

// RoomInfo is a read-only snapshot for the admin surface.
type RoomInfo struct {
	Name    string `json:"name"`
	Host    string `json:"host"`
	Members int    `json:"members"`
}

func (r *Registry) Rooms() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for name, room := range r.rooms {
		info := RoomInfo{Name: string(name), Members: len(room.members)}
		if host, ok := r.sessions[room.hostToken]; ok {
			info.Host = host.DisplayName
		}
		out = append(out, info)
	}
	return out
}

func (r *Registry) closeRoomLocked(room *roomState) []domain.Endpoint {
	notify := make([]domain.Endpoint, 0, len(room.members)+1)
	drop := func(t domain.Token) {
		s, ok := r.sessions[t]
		if !ok {
			return
		}
		if s.State == domain.Bound {
			notify = append(notify, s.Endpoint)
		}
		r.dropSessionLocked(s)
	}
	drop(room.hostToken)
	for member := range room.members {
		drop(member)
	}
	delete(r.rooms, room.name)
	return notify
}

func (r *Registry) dropSessionLocked(s *domain.Session) {
	if s.State == domain.Bound {
		if owner, ok := r.byEndpoint[s.Endpoint]; ok && owner == s.Token {
			delete(r.byEndpoint, s.Endpoint)
		}
	}
	delete(r.sessions, s.Token)
}
