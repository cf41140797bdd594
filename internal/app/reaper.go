package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/z6wdc/online-chat-messenger/internal/domain"
)

// Notifier delivers best-effort notices to client endpoints. The relay's
// UDP socket implements it.
type Notifier interface {
	Notify(ep domain.Endpoint, message string)
}

// Reaper periodically sweeps the registry for sessions whose inactivity
// exceeds the timeout, then sends the resulting notices outside the
// registry lock.
type Reaper struct {
	reg      *Registry
	notifier Notifier
	interval time.Duration
	timeout  time.Duration
}

func NewReaper(reg *Registry, notifier Notifier, interval, timeout time.Duration) *Reaper {
	return &Reaper{reg: reg, notifier: notifier, interval: interval, timeout: timeout}
}

func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.reaper").Msg("reaper ctx done")
			return
		case now := <-ticker.C:
			rp.Tick(now)
		}
	}
}

// Tick runs one sweep and delivers its notices.
func (rp *Reaper) Tick(now time.Time) {
	for _, action := range rp.reg.SweepExpired(now, rp.timeout) {
		switch action.Kind {
		case RoomClosed:
			log.Info().Str("module", "app.reaper").Str("room", string(action.Room)).Msg("host inactive, room closed")
			msg := ClosureNotice(action.Room)
			for _, ep := range action.Notify {
				rp.notifier.Notify(ep, msg)
			}
		case MemberEvicted:
			log.Info().Str("module", "app.reaper").Str("room", string(action.Room)).Str("member", action.DisplayName).Msg("member inactive, evicted")
			msg := RemovalNotice(action.Room)
			for _, ep := range action.Notify {
				rp.notifier.Notify(ep, msg)
			}
		}
	}
}

// ClosureNotice is matched by clients on content ("Chatroom" plus
// "has been closed."), so its wording is part of the wire contract.
func ClosureNotice(room domain.RoomName) string {
	return fmt.Sprintf("Chatroom '%s' has been closed.", room)
}

func RemovalNotice(room domain.RoomName) string {
	return fmt.Sprintf("You have been removed from chatroom '%s' due to inactivity.", room)
}
