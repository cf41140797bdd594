// Package server wires the registry, both protocol planes, the reaper and
// the admin surface together and manages their lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	adminhttp "github.com/z6wdc/online-chat-messenger/internal/adapters/http"
	"github.com/z6wdc/online-chat-messenger/internal/app"
	"github.com/z6wdc/online-chat-messenger/internal/config"
	"github.com/z6wdc/online-chat-messenger/internal/transport/control"
	"github.com/z6wdc/online-chat-messenger/internal/transport/relay"
)

type Server struct {
	cfg      *config.Config
	Registry *app.Registry
	relay    *relay.Relay
	control  *control.Server
	reaper   *app.Reaper
	admin    *http.Server
}

// New binds both sockets up front so startup failures surface before any
// goroutine runs. Set AdminPort to a negative value to disable the admin
// surface.
func New(cfg *config.Config) (*Server, error) {
	reg := app.NewRegistry()
	rl, err := relay.Listen(cfg.Host, cfg.UDPPort, cfg.BufferSize, reg)
	if err != nil {
		return nil, err
	}
	ctl, err := control.Listen(cfg.Host, cfg.TCPPort, reg, rl, cfg.HandshakeTimeout, cfg.MaxRoomNameLen)
	if err != nil {
		rl.Close()
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		Registry: reg,
		relay:    rl,
		control:  ctl,
		reaper:   app.NewReaper(reg, rl, cfg.ReapInterval, cfg.InactivityTimeout),
	}
	if cfg.AdminPort >= 0 {
		s.admin = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.AdminPort),
			Handler: adminhttp.SetupRouter(cfg, reg),
		}
	}
	return s, nil
}

// Run starts every worker and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) {
	go s.relay.Run(ctx)
	go s.control.Run(ctx)
	go s.reaper.Run(ctx)
	if s.admin != nil {
		go func() {
			log.Info().Str("module", "server").Str("addr", s.admin.Addr).Msg("admin surface started")
			if err := s.admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Str("module", "server").Msg("admin server error")
			}
		}()
	}
	log.Info().
		Str("module", "server").
		Int("tcp_port", s.ControlPort()).
		Int("udp_port", s.RelayPort()).
		Msg("chat server started")

	<-ctx.Done()
	log.Info().Str("module", "server").Msg("shutting down")
	if s.admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.admin.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("module", "server").Msg("admin server forced to shutdown")
		}
	}
	s.control.Close()
	s.relay.Close()
}

// ControlPort and RelayPort report the bound ports, useful with port 0.
func (s *Server) ControlPort() int { return s.control.LocalPort() }

func (s *Server) RelayPort() int { return s.relay.LocalPort() }
