package app

import (
	"sync"
	"testing"
	"time"

	"github.com/z6wdc/online-chat-messenger/internal/domain"
)

// recordingNotifier captures notices instead of sending datagrams.
type recordingNotifier struct {
	mu      sync.Mutex
	notices map[domain.Endpoint]string
}

func (n *recordingNotifier) Notify(ep domain.Endpoint, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.notices == nil {
		n.notices = make(map[domain.Endpoint]string)
	}
	n.notices[ep] = message
}

func TestReaperTickClosesRoom(t *testing.T) {
	reg, clock := newTestRegistry()
	hostToken, _ := reg.CreateRoom("lobby", "alice")
	_ = reg.BindEndpoint(hostToken, testEndpoint(5001))
	joinBound(t, reg, "lobby", "bob", 5002)

	notifier := &recordingNotifier{}
	rp := NewReaper(reg, notifier, 10*time.Second, 60*time.Second)
	rp.Tick(clock.now.Add(70 * time.Second))

	want := "Chatroom 'lobby' has been closed."
	for _, port := range []uint16{5001, 5002} {
		if got := notifier.notices[testEndpoint(port)]; got != want {
			t.Errorf("notice to :%d: got %q; expected %q", port, got, want)
		}
	}
}

func TestReaperTickEvictsMember(t *testing.T) {
	reg, clock := newTestRegistry()
	hostToken, _ := reg.CreateRoom("lobby", "alice")
	_ = reg.BindEndpoint(hostToken, testEndpoint(5001))
	joinBound(t, reg, "lobby", "bob", 5002)

	clock.now = clock.now.Add(50 * time.Second)
	_ = reg.Touch(testEndpoint(5001))

	notifier := &recordingNotifier{}
	rp := NewReaper(reg, notifier, 10*time.Second, 60*time.Second)
	rp.Tick(clock.now.Add(20 * time.Second))

	if _, ok := notifier.notices[testEndpoint(5001)]; ok {
		t.Error("active host must not be notified")
	}
	want := "You have been removed from chatroom 'lobby' due to inactivity."
	if got := notifier.notices[testEndpoint(5002)]; got != want {
		t.Errorf("Got: %q; Expected: %q", got, want)
	}
}
