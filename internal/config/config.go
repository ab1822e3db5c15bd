package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "chargemap/libs/config"
)

// Config defines the chargemap daemon configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"CHARGEMAP_HTTP_PORT"`
	} `yaml:"http"`
	Backend struct {
		BaseURL   string        `yaml:"baseUrl" env:"CHARGEMAP_BACKEND_URL"`
		SocketURL string        `yaml:"socketUrl" env:"CHARGEMAP_SOCKET_URL"`
		Timeout   time.Duration `yaml:"timeout" env:"CHARGEMAP_BACKEND_TIMEOUT"`
	} `yaml:"backend"`
	Cache struct {
		StationsTTL time.Duration `yaml:"stationsTtl" env:"CHARGEMAP_STATIONS_TTL"`
		PointsTTL   time.Duration `yaml:"pointsTtl" env:"CHARGEMAP_POINTS_TTL"`
		Sweep       time.Duration `yaml:"sweep" env:"CHARGEMAP_CACHE_SWEEP"`
	} `yaml:"cache"`
	Live struct {
		Reconnect time.Duration `yaml:"reconnect" env:"CHARGEMAP_LIVE_RECONNECT"`
	} `yaml:"live"`
	RateLimit struct {
		PerSecond float64 `yaml:"perSecond" env:"CHARGEMAP_RATE_LIMIT_PER_SEC"`
		Burst     int     `yaml:"burst" env:"CHARGEMAP_RATE_LIMIT_BURST"`
	} `yaml:"rateLimit"`
	Redis struct {
		Addr     string `yaml:"addr" env:"CHARGEMAP_REDIS_ADDR"`
		Password string `yaml:"password" env:"CHARGEMAP_REDIS_PASSWORD"`
	} `yaml:"redis"`
}

// Load reads configuration via the shared helper and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8090"
	cfg.Backend.BaseURL = "http://localhost:3000/api"
	cfg.Backend.SocketURL = "ws://localhost:3000"
	cfg.Backend.Timeout = 10 * time.Second
	cfg.Cache.StationsTTL = 30 * time.Second
	cfg.Cache.PointsTTL = 10 * time.Second
	cfg.Cache.Sweep = 5 * time.Second
	cfg.Live.Reconnect = 5 * time.Second
	cfg.RateLimit.PerSecond = 5
	cfg.RateLimit.Burst = 10

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return nil, errors.New("config: backend base url required")
	}
	if strings.TrimSpace(cfg.Backend.SocketURL) == "" {
		return nil, errors.New("config: backend socket url required")
	}
	if cfg.Cache.StationsTTL <= 0 || cfg.Cache.PointsTTL <= 0 {
		return nil, errors.New("config: cache ttls must be positive")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
