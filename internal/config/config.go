package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jaam8/vote_tracker/internal/chain"
	"github.com/jaam8/vote_tracker/internal/timeline"
	"github.com/jaam8/vote_tracker/internal/wallet"
	"github.com/jaam8/vote_tracker/pkg/logger"
	"github.com/jaam8/vote_tracker/pkg/tarantool"
	"github.com/joho/godotenv"
)

type Config struct {
	RestPort         string           `yaml:"REST_PORT"          env:"REST_PORT"          env-default:"8080"`
	BotToken         string           `yaml:"BOT_TOKEN"          env:"BOT_TOKEN"`
	MmURL            string           `yaml:"MM_URL"             env:"MM_URL"`
	MmWsURL          string           `yaml:"MM_WS_URL"          env:"MM_WS_URL"`
	ChannelID        string           `yaml:"CHANNEL_ID"         env:"CHANNEL_ID"`
	LogLevel         string           `yaml:"LOG_LEVEL"          env:"LOG_LEVEL"          env-default:"debug"`
	TxConfirmTimeout time.Duration    `yaml:"TX_CONFIRM_TIMEOUT" env:"TX_CONFIRM_TIMEOUT" env-default:"2m"`
	TimelineWindow   time.Duration    `yaml:"TIMELINE_WINDOW"    env:"TIMELINE_WINDOW"    env-default:"10m"`
	TimelineStart    string           `yaml:"TIMELINE_START"     env:"TIMELINE_START"`
	AllowedOrigins   []string         `yaml:"ALLOWED_ORIGINS"    env:"ALLOWED_ORIGINS"    env-default:"*"`
	Tarantool        tarantool.Config `yaml:"TARANTOOL"          env:"TARANTOOL"`
	Chain            chain.Config     `yaml:"CHAIN"              env:"CHAIN"`
	Wallet           wallet.Config    `yaml:"WALLET"             env:"WALLET"`
}

func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ChatEnabled is true when the Mattermost bot is configured.
func (c *Config) ChatEnabled() bool {
	return c.BotToken != ""
}

func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if err := c.Chain.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Wallet.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.TxConfirmTimeout <= 0 {
		return errors.New("config: TX_CONFIRM_TIMEOUT must be positive")
	}
	if c.TimelineStart == "" && c.TimelineWindow <= 0 {
		return errors.New("config: TIMELINE_WINDOW must be positive")
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	if c.ChatEnabled() {
		if c.ChannelID == "" {
			return errors.New("config: CHANNEL_ID is required with BOT_TOKEN")
		}
		for name, raw := range map[string]string{"MM_URL": c.MmURL, "MM_WS_URL": c.MmWsURL} {
			if u, err := url.Parse(raw); err != nil || u.Host == "" {
				return fmt.Errorf("config: %s is not a URL: %q", name, raw)
			}
		}
	}
	return nil
}

func (c *Config) Window() (timeline.Window, error) {
	w := timeline.Window{Span: c.TimelineWindow}
	if c.TimelineStart != "" {
		start, err := time.Parse(time.RFC3339, c.TimelineStart)
		if err != nil {
			return timeline.Window{}, fmt.Errorf("config: TIMELINE_START: %w", err)
		}
		w.Start = start
	}
	if err := w.Validate(time.Now()); err != nil {
		return timeline.Window{}, fmt.Errorf("config: %w", err)
	}
	return w, nil
}
