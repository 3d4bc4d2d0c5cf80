package tarantool

import (
	"fmt"
	"net"
	"time"

	"github.com/tarantool/go-tarantool"
)

type Config struct {
	Host          string        `yaml:"TARANTOOL_HOST"           env:"TARANTOOL_HOST"           env-default:"localhost"`
	Port          string        `yaml:"TARANTOOL_PORT"           env:"TARANTOOL_PORT"           env-default:"3301"`
	Username      string        `yaml:"TARANTOOL_USER"           env:"TARANTOOL_USER"           env-default:"admin"`
	Password      string        `yaml:"TARANTOOL_PASSWORD"       env:"TARANTOOL_PASSWORD"       env-default:"secret"`
	Timeout       time.Duration `yaml:"TARANTOOL_TIMEOUT"        env:"TARANTOOL_TIMEOUT"        env-default:"5s"`
	Reconnect     time.Duration `yaml:"TARANTOOL_RECONNECT"      env:"TARANTOOL_RECONNECT"      env-default:"1s"`
	MaxReconnects uint          `yaml:"TARANTOOL_MAX_RECONNECTS" env:"TARANTOOL_MAX_RECONNECTS" env-default:"10"`
	// Disabled turns vote persistence off.
	Disabled bool `yaml:"TARANTOOL_DISABLED" env:"TARANTOOL_DISABLED" env-default:"false"`
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c Config) Opts() tarantool.Opts {
	return tarantool.Opts{
		User:          c.Username,
		Pass:          c.Password,
		Timeout:       c.Timeout,
		Reconnect:     c.Reconnect,
		MaxReconnects: c.MaxReconnects,
	}
}

func New(config Config) (*tarantool.Connection, error) {
	conn, err := tarantool.Connect(config.Addr(), config.Opts())
	if err != nil {
		return nil, fmt.Errorf("tarantool: failed to connect to %s: %w", config.Addr(), err)
	}
	return conn, nil
}
