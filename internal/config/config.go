package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/z6wdc/online-chat-messenger/internal/domain"
)

type Config struct {
	Mode              string        `mapstructure:"mode"`
	Host              string        `mapstructure:"host"`
	TCPPort           int           `mapstructure:"tcp_port"`
	UDPPort           int           `mapstructure:"udp_port"`
	AdminPort         int           `mapstructure:"admin_port"`
	BufferSize        int           `mapstructure:"buffer_size"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	ReapInterval      time.Duration `mapstructure:"reap_interval"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
	MaxRoomNameLen    int           `mapstructure:"max_room_name_len"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults registers every key so a missing config file still yields a
// runnable server. Ports and buffer size match the historical defaults of
// the wire contract.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("tcp_port", 12346)
	v.SetDefault("udp_port", 12345)
	v.SetDefault("admin_port", 8080)
	v.SetDefault("buffer_size", 4096)
	v.SetDefault("inactivity_timeout", "60s")
	v.SetDefault("reap_interval", "10s")
	v.SetDefault("handshake_timeout", "10s")
	v.SetDefault("max_room_name_len", domain.MaxRoomNameLen)
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
