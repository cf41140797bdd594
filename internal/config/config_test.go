package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.TCPPort != 12346 || cfg.UDPPort != 12345 {
		t.Errorf("ports: got tcp=%d udp=%d; expected 12346/12345", cfg.TCPPort, cfg.UDPPort)
	}
	if cfg.BufferSize != 4096 {
		t.Errorf("buffer size: got %d; expected 4096", cfg.BufferSize)
	}
	if cfg.InactivityTimeout != 60*time.Second || cfg.ReapInterval != 10*time.Second {
		t.Errorf("timeouts: got %v/%v; expected 60s/10s", cfg.InactivityTimeout, cfg.ReapInterval)
	}
	if cfg.MaxRoomNameLen != 256 {
		t.Errorf("max room name: got %d; expected 256", cfg.MaxRoomNameLen)
	}
}

func TestLoadWithoutFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "doesnotexist")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TCPPort != 12346 || cfg.Host != "127.0.0.1" {
		t.Errorf("Got: %+v; Expected defaults", cfg)
	}
}
