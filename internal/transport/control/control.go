// Package control implements the control plane: a TCP listener whose
// per-connection handlers drive the create/join handshake against the
// registry and bind each client's relay endpoint.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/z6wdc/online-chat-messenger/internal/app"
	"github.com/z6wdc/online-chat-messenger/internal/domain"
	"github.com/z6wdc/online-chat-messenger/internal/protocol"
)

type Server struct {
	ln             net.Listener
	reg            *app.Registry
	notifier       app.Notifier
	timeout        time.Duration
	maxRoomNameLen int
	closeOnce      sync.Once
}

func Listen(host string, port int, reg *app.Registry, notifier app.Notifier, timeout time.Duration, maxRoomNameLen int) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("bind control socket: %w", err)
	}
	return &Server{
		ln:             ln,
		reg:            reg,
		notifier:       notifier,
		timeout:        timeout,
		maxRoomNameLen: maxRoomNameLen,
	}, nil
}

// Run accepts connections until ctx is canceled, one goroutine per handshake.
func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	log.Info().Str("module", "transport.control").Str("addr", s.ln.Addr().String()).Msg("control listening")
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info().Str("module", "transport.control").Msg("control listener closed")
				return
			}
			log.Warn().Err(err).Str("module", "transport.control").Msg("accept error")
			continue
		}
		go s.handle(conn)
	}
}

// handle runs the handshake state machine for one connection:
// AwaitHeader, AwaitPayload, AwaitEndpointReport, Done. Any short read or
// decode failure aborts and reclaims whatever provisional state was created.
// The whole exchange happens under one read deadline and never under the
// registry lock, so a slow client cannot stall other handshakes.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	_ = conn.SetDeadline(time.Now().Add(s.timeout))

	header := make([]byte, protocol.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		log.Warn().Err(err).Str("module", "transport.control").Str("remote", remote).Msg("short header, dropping connection")
		return
	}
	h, err := protocol.ParseRequestHeader(header)
	if err != nil {
		log.Warn().Err(err).Str("module", "transport.control").Str("remote", remote).Msg("bad header, dropping connection")
		return
	}
	if h.RoomNameLen > s.maxRoomNameLen {
		log.Warn().Int("room_name_len", h.RoomNameLen).Str("module", "transport.control").Str("remote", remote).Msg("room name too long, dropping connection")
		return
	}

	if _, err := conn.Write(protocol.AckReply()); err != nil {
		return
	}
	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(conn, payload); err != nil {
		log.Warn().Err(err).Str("module", "transport.control").Str("remote", remote).Msg("short payload, dropping connection")
		return
	}
	roomBytes := payload[:h.RoomNameLen]
	nameBytes := payload[h.RoomNameLen:]
	if !utf8.Valid(roomBytes) || !utf8.Valid(nameBytes) {
		log.Warn().Str("module", "transport.control").Str("remote", remote).Msg("payload not UTF-8, dropping connection")
		return
	}
	roomName := domain.RoomName(roomBytes)
	displayName := string(nameBytes)
	if err := domain.ValidateDisplayName(displayName); err != nil {
		_, _ = conn.Write(protocol.ErrorReply(err.Error()))
		return
	}

	var token domain.Token
	switch h.Operation {
	case protocol.OpCreateRoom:
		token, err = s.reg.CreateRoom(roomName, displayName)
	case protocol.OpJoinRoom:
		token, err = s.reg.JoinRoom(roomName, displayName)
	}
	if err != nil {
		log.Info().Err(err).Str("module", "transport.control").Str("room", string(roomName)).Msg("handshake rejected")
		_, _ = conn.Write(protocol.ErrorReply(err.Error()))
		return
	}

	// A provisional session now exists; every exit below either binds it
	// or reclaims it.
	if _, err := conn.Write(protocol.CompleteReply(string(token))); err != nil {
		s.abandon(token, roomName)
		return
	}
	portBuf := make([]byte, 2)
	if _, err := io.ReadFull(conn, portBuf); err != nil {
		log.Warn().Err(err).Str("module", "transport.control").Str("room", string(roomName)).Msg("no endpoint report, abandoning handshake")
		s.abandon(token, roomName)
		return
	}
	port, _ := protocol.ParsePortReport(portBuf)
	ep := domain.NewEndpoint(conn.RemoteAddr().(*net.TCPAddr).AddrPort().Addr(), port)
	if err := s.reg.BindEndpoint(token, ep); err != nil {
		log.Warn().Err(err).Str("module", "transport.control").Str("room", string(roomName)).Msg("endpoint bind failed, abandoning handshake")
		s.abandon(token, roomName)
		return
	}
	log.Info().Str("module", "transport.control").Str("room", string(roomName)).Str("endpoint", ep.String()).Msg("handshake complete")
}

func (s *Server) abandon(token domain.Token, room domain.RoomName) {
	notify := s.reg.Abandon(token)
	if s.notifier == nil {
		return
	}
	for _, ep := range notify {
		s.notifier.Notify(ep, app.ClosureNotice(room))
	}
}

// LocalPort reports the bound port, useful when listening on port 0.
func (s *Server) LocalPort() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *Server) Close() {
	s.closeOnce.Do(func() {
		_ = s.ln.Close()
	})
}
