package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/timer"
)

func TestLoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tmrkitd.json")
	data := `{
		"timer_kind": "wheel",
		"timer_capacity": 1024,
		"timer_spokes": 32,
		"listen_addr": "tcp://127.0.0.1:9000",
		"redis_addr": "127.0.0.1:6379"
	}`
	require.NoError(t, os.WriteFile(file, []byte(data), 0o644))

	t.Setenv("TMRKIT_TIMER_CAPACITY", "2048")
	t.Setenv("TMRKIT_LOG_STD_OUT", "false")
	t.Setenv("TMRKIT_TICK_MS", "5")
	require.NoError(t, LoadConfig(file, LoadFromEnv))

	require.Equal(t, "tcp://127.0.0.1:9000", Config.ListenAddr)
	require.Equal(t, "127.0.0.1:6379", Config.RedisAddr)
	require.Equal(t, "tmrkit:expired", Config.RedisChannel)
	require.False(t, Config.LogStdOut)
	require.Equal(t, 5*time.Millisecond, Config.Tick())

	tc := Config.ToTimerConfig()
	require.Equal(t, timer.Config{
		Kind:     timer.KindWheel,
		Capacity: 2048,
		Unit:     time.Millisecond,
		Spokes:   32,
		Levels:   timer.DefaultLevels,
		Dim:      timer.DefaultDim,
	}, tc)
	require.Contains(t, Config.JsonFormat(), `"timer_kind": "wheel"`)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv("TMRKIT_TIMER_CAPACITY", "lots")
	err := LoadConfig("", LoadFromEnv)
	require.ErrorIs(t, err, errs.Config)

	t.Setenv("TMRKIT_TIMER_CAPACITY", "16")
	t.Setenv("TMRKIT_TICK_MS", "0")
	err = LoadConfig("", LoadFromEnv)
	require.ErrorIs(t, err, errs.Config)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	require.ErrorIs(t, LoadConfig(bad, nil), errs.Config)

	require.Error(t, LoadConfig(filepath.Join(t.TempDir(), "missing.json"), nil))
}

func TestDefault(t *testing.T) {
	require.NoError(t, LoadConfig("", nil))
	require.NoError(t, Config.Check())
	s, err := timer.New[int](Config.ToTimerConfig())
	require.NoError(t, err)
	require.Equal(t, 1<<16, s.Cap())
}
