// Package client speaks the wire contract from the outside: the TCP
// handshake, the relay-port report, and the datagram exchange. It knows
// nothing about server internals beyond the protocol package.
package client

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/z6wdc/online-chat-messenger/internal/protocol"
)

// Session is an established chat membership: a token plus the UDP socket
// relayed traffic arrives on.
type Session struct {
	Room        string
	DisplayName string
	Token       string

	conn       *net.UDPConn
	serverAddr *net.UDPAddr
}

// Connect performs the full handshake: request header, acknowledge,
// payload, complete reply with token, then binds a local UDP socket and
// reports its port. The TCP connection is closed before returning; all
// further traffic is datagrams.
func Connect(host string, tcpPort, udpPort int, op byte, room, displayName string) (*Session, error) {
	if len(room) == 0 || len(room) > 255 {
		return nil, protocol.ErrBadRoomNameLen
	}
	tcp, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, tcpPort))
	if err != nil {
		return nil, fmt.Errorf("dial control channel: %w", err)
	}
	defer tcp.Close()

	header := protocol.EncodeRequestHeader(len(room), op, len(room)+len(displayName))
	if _, err := tcp.Write(header); err != nil {
		return nil, fmt.Errorf("send header: %w", err)
	}

	dec := json.NewDecoder(tcp)
	var reply protocol.StatusReply
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("read acknowledge: %w", err)
	}
	if reply.Status != protocol.StatusAcknowledge {
		return nil, fmt.Errorf("unexpected status %d", reply.Status)
	}

	if _, err := tcp.Write([]byte(room + displayName)); err != nil {
		return nil, fmt.Errorf("send payload: %w", err)
	}
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("read completion: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("server rejected handshake: %s", reply.Error)
	}
	if reply.Status != protocol.StatusComplete || reply.Token == "" {
		return nil, fmt.Errorf("unexpected status %d", reply.Status)
	}

	udp, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("bind relay socket: %w", err)
	}
	port := udp.LocalAddr().(*net.UDPAddr).Port
	if _, err := tcp.Write(protocol.EncodePortReport(uint16(port))); err != nil {
		udp.Close()
		return nil, fmt.Errorf("report relay port: %w", err)
	}

	serverAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, udpPort))
	if err != nil {
		udp.Close()
		return nil, fmt.Errorf("resolve relay addr: %w", err)
	}
	return &Session{
		Room:        room,
		DisplayName: displayName,
		Token:       reply.Token,
		conn:        udp,
		serverAddr:  serverAddr,
	}, nil
}

// Send relays one message to the room.
func (s *Session) Send(message string) error {
	dg, err := protocol.EncodeDatagram(s.Room, s.Token, []byte(message))
	if err != nil {
		return err
	}
	if _, err := s.conn.WriteToUDP(dg, s.serverAddr); err != nil {
		return fmt.Errorf("send datagram: %w", err)
	}
	return nil
}

// Receive blocks for the next relayed message or notice.
func (s *Session) Receive(buf []byte) (string, error) {
	n, _, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// SetReadDeadline bounds the next Receive.
func (s *Session) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

func (s *Session) Close() error { return s.conn.Close() }

// IsClosureNotice matches server closure notices by content, as the
// original client did.
func IsClosureNotice(msg string) bool {
	return strings.Contains(msg, "Chatroom") && strings.Contains(msg, "has been closed.")
}
