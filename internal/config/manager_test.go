package config

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManagerYAML = `player:
  duration: 10
resources:
  - id: tile-a
    duration: 10`

const invalidManagerYAML = `player:
  tickInterval: "never"`

func TestNewManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "valid_config", content: validManagerYAML},
		{name: "invalid_config", content: invalidManagerYAML, wantErr: "failed to load initial configuration"},
		{name: "invalid_yaml_syntax", content: "player: [", wantErr: "failed to load initial configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := NewManager(writeConfig(t, tt.content))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "tile-a", m.GetConfig().Resources[0].ID)
			assert.NoError(t, m.Close())
		})
	}
}

type rejectAll struct{}

func (rejectAll) Validate(*Config) error { return errors.New("rejected") }

func TestManagerCustomValidator(t *testing.T) {
	t.Parallel()

	_, err := NewManager(writeConfig(t, validManagerYAML), WithValidator(rejectAll{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestReloadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, validManagerYAML)

	var mu sync.Mutex
	var calls [][2]int
	m, err := NewManager(path, WithReloadHandler(func(previous, current *Config) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{len(previous.Resources), len(current.Resources)})
	}))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`resources:
  - id: tile-a
    duration: 10
  - id: tile-b
    duration: 10`), 0600))
	require.NoError(t, m.ReloadConfig())
	assert.Len(t, m.GetConfig().Resources, 2)

	require.NoError(t, os.WriteFile(path, []byte(invalidManagerYAML), 0600))
	require.Error(t, m.ReloadConfig())
	assert.Len(t, m.GetConfig().Resources, 2, "last good config stays active")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][2]int{{1, 2}}, calls, "handlers only see successful reloads")
}

func TestWatchConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, validManagerYAML)
	reloaded := make(chan *Config, 16)
	m, err := NewManager(path, WithReloadHandler(func(_, current *Config) {
		select {
		case reloaded <- current:
		default:
		}
	}))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, m.Close())
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- m.WatchConfig(ctx)
	}()

	// Wait for watcher to initialize
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`resources:
  - id: watched
    duration: 3`), 0600))

	// a single write may surface as several events, the first seeing a truncated file
	deadline := time.After(2 * time.Second)
	for watched := false; !watched; {
		select {
		case cfg := <-reloaded:
			watched = len(cfg.Resources) == 1 && cfg.Resources[0].ID == "watched"
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}
	assert.Equal(t, "watched", m.GetConfig().Resources[0].ID)

	cancel()
	select {
	case err := <-watchErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchConfig did not stop after context cancellation")
	}
}

func TestWatchConfigAlreadyWatching(t *testing.T) {
	t.Parallel()

	m, err := NewManager(writeConfig(t, validManagerYAML))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, m.Close())
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = m.WatchConfig(ctx)
	}()
	time.Sleep(100 * time.Millisecond)

	err = m.WatchConfig(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}
