// Package relay implements the data plane: a single UDP receive loop that
// validates datagrams against the registry and fans messages out to every
// other member of the sender's room.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/z6wdc/online-chat-messenger/internal/app"
	"github.com/z6wdc/online-chat-messenger/internal/domain"
	"github.com/z6wdc/online-chat-messenger/internal/protocol"
)

type Relay struct {
	conn      *net.UDPConn
	reg       *app.Registry
	bufSize   int
	closeOnce sync.Once
}

func Listen(host string, port, bufSize int, reg *app.Registry) (*Relay, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("resolve relay addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind relay socket: %w", err)
	}
	return &Relay{conn: conn, reg: reg, bufSize: bufSize}, nil
}

// Run reads datagrams until ctx is canceled or the socket closes. The
// receive buffer is reused; handle never retains it.
func (r *Relay) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		r.Close()
	}()
	log.Info().Str("module", "transport.relay").Str("addr", r.conn.LocalAddr().String()).Msg("relay listening")
	buf := make([]byte, r.bufSize)
	for {
		n, src, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info().Str("module", "transport.relay").Msg("relay socket closed")
				return
			}
			log.Warn().Err(err).Str("module", "transport.relay").Msg("relay read error")
			continue
		}
		r.handle(buf[:n], src)
	}
}

func (r *Relay) handle(data []byte, src *net.UDPAddr) {
	dg, err := protocol.ParseDatagram(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "transport.relay").Str("src", src.String()).Msg("dropping malformed datagram")
		return
	}
	sender, targets, err := r.reg.Resolve(domain.RoomName(dg.RoomName), domain.Token(dg.Token))
	if err != nil {
		// Best-effort channel: invalid sessions are dropped without a reply.
		log.Debug().Str("module", "transport.relay").Str("room", dg.RoomName).Str("src", src.String()).Msg("dropping unresolvable datagram")
		return
	}
	payload := protocol.RelayPayload(sender, dg.Body)
	for _, ep := range targets {
		if _, err := r.conn.WriteToUDP(payload, ep.UDPAddr()); err != nil {
			log.Warn().Err(err).Str("module", "transport.relay").Str("dst", ep.String()).Msg("relay send failed")
		}
	}
	if ep, ok := domain.EndpointFromUDPAddr(src); ok {
		_ = r.reg.Touch(ep)
	}
}

// Notify sends a plain-text notice to an endpoint. Implements app.Notifier.
func (r *Relay) Notify(ep domain.Endpoint, message string) {
	if _, err := r.conn.WriteToUDP([]byte(message), ep.UDPAddr()); err != nil {
		log.Warn().Err(err).Str("module", "transport.relay").Str("dst", ep.String()).Msg("notice send failed")
	}
}

// LocalPort reports the bound port, useful when listening on port 0.
func (r *Relay) LocalPort() int {
	return r.conn.LocalAddr().(*net.UDPAddr).Port
}

func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		_ = r.conn.Close()
	})
}
