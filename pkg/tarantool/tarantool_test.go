package tarantool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigOpts(t *testing.T) {
	cfg := Config{
		Host:          "tarantool",
		Port:          "3301",
		Username:      "admin",
		Password:      "secret",
		Timeout:       5 * time.Second,
		Reconnect:     time.Second,
		MaxReconnects: 10,
	}
	require.Equal(t, "tarantool:3301", cfg.Addr())

	opts := cfg.Opts()
	require.Equal(t, "admin", opts.User)
	require.Equal(t, "secret", opts.Pass)
	require.Equal(t, 5*time.Second, opts.Timeout)
	require.Equal(t, uint(10), opts.MaxReconnects)
}

func TestConfigAddrIPv6(t *testing.T) {
	require.Equal(t, "[::1]:3301", Config{Host: "::1", Port: "3301"}.Addr())
}
