package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/z6wdc/online-chat-messenger/internal/app"
	"github.com/z6wdc/online-chat-messenger/internal/domain"
	"github.com/z6wdc/online-chat-messenger/internal/protocol"
)

func startServer(t *testing.T, reg *app.Registry) *Server {
	t.Helper()
	srv, err := Listen("127.0.0.1", 0, reg, nil, 2*time.Second, 256)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Run(ctx)
	return srv
}

func dial(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", srv.LocalPort()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// handshake drives the client side up to the completion reply.
func handshake(t *testing.T, conn net.Conn, op byte, room, name string) protocol.StatusReply {
	t.Helper()
	if _, err := conn.Write(protocol.EncodeRequestHeader(len(room), op, len(room)+len(name))); err != nil {
		t.Fatal(err)
	}
	dec := json.NewDecoder(conn)
	var reply protocol.StatusReply
	if err := dec.Decode(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Status != protocol.StatusAcknowledge {
		t.Fatalf("acknowledge: got %+v", reply)
	}
	if _, err := conn.Write([]byte(room + name)); err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(&reply); err != nil {
		t.Fatal(err)
	}
	return reply
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHandshakeCreateAndBind(t *testing.T) {
	reg := app.NewRegistry()
	srv := startServer(t, reg)
	conn := dial(t, srv)

	reply := handshake(t, conn, protocol.OpCreateRoom, "lobby", "alice")
	if reply.Status != protocol.StatusComplete || reply.Token == "" {
		t.Fatalf("completion: got %+v", reply)
	}
	if _, err := conn.Write(protocol.EncodePortReport(5001)); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		_, _, err := reg.Resolve("lobby", domain.Token(reply.Token))
		return err == nil
	}, "session never became bound")
}

func TestHandshakeJoin(t *testing.T) {
	reg := app.NewRegistry()
	srv := startServer(t, reg)
	if _, err := reg.CreateRoom("lobby", "alice"); err != nil {
		t.Fatal(err)
	}

	conn := dial(t, srv)
	reply := handshake(t, conn, protocol.OpJoinRoom, "lobby", "bob")
	if reply.Status != protocol.StatusComplete || reply.Token == "" {
		t.Fatalf("completion: got %+v", reply)
	}
}

func TestHandshakeDuplicateRoom(t *testing.T) {
	reg := app.NewRegistry()
	srv := startServer(t, reg)
	if _, err := reg.CreateRoom("lobby", "alice"); err != nil {
		t.Fatal(err)
	}

	conn := dial(t, srv)
	reply := handshake(t, conn, protocol.OpCreateRoom, "lobby", "mallory")
	if reply.Error == "" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
}

func TestHandshakeRoomNotFound(t *testing.T) {
	reg := app.NewRegistry()
	srv := startServer(t, reg)

	conn := dial(t, srv)
	reply := handshake(t, conn, protocol.OpJoinRoom, "nowhere", "bob")
	if reply.Error == "" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
}

func TestBadHeaderDropsConnectionWithoutReply(t *testing.T) {
	reg := app.NewRegistry()
	srv := startServer(t, reg)

	header := protocol.EncodeRequestHeader(5, protocol.OpCreateRoom, 10)
	header[1] = 9 // unknown operation
	conn := dial(t, srv)
	if _, err := conn.Write(header); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 1)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(buf); err != io.EOF {
		t.Errorf("Got: %v; Expected: EOF without reply", err)
	}
	if len(reg.Rooms()) != 0 {
		t.Error("rejected handshake mutated state")
	}
}

func TestAbandonedHandshakeReclaimsRoom(t *testing.T) {
	reg := app.NewRegistry()
	srv := startServer(t, reg)
	conn := dial(t, srv)

	reply := handshake(t, conn, protocol.OpCreateRoom, "lobby", "alice")
	if reply.Status != protocol.StatusComplete {
		t.Fatalf("completion: got %+v", reply)
	}
	// Never report a relay port.
	conn.Close()

	waitFor(t, func() bool {
		return len(reg.Rooms()) == 0
	}, "provisional room never reclaimed")
}
