package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("daemon:\n  rate_limit: true\n"), 0o644))

	reloaded := make(chan *Config, 8)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("daemon:\n  rate_limit: false\n"), 0o644))

	// A truncated intermediate write may be seen first.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if !cfg.Daemon.RateLimit {
				return
			}
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}
}

func TestWatchReportsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tui:\n  theme: default\n"), 0o644))

	var mu sync.Mutex
	var errs []error
	gotErr := make(chan struct{}, 1)
	w, err := Watch(path,
		func(cfg *Config) { assert.NotEqual(t, "neon", cfg.TUI.Theme) },
		WithDebounce(20*time.Millisecond),
		WithReloadError(func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			select {
			case gotErr <- struct{}{}:
			default:
			}
		}),
	)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("tui:\n  theme: neon\n"), 0o644))

	select {
	case <-gotErr:
	case <-time.After(2 * time.Second):
		t.Fatal("reload error was not reported")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, errs[0].Error(), "tui.theme")
}

func TestWatchRequiresArguments(t *testing.T) {
	_, err := Watch("", func(*Config) {})
	assert.Error(t, err)

	_, err = Watch(filepath.Join(t.TempDir(), "config.yaml"), nil)
	assert.Error(t, err)
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	w, err := Watch(path, func(*Config) {})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
