package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/stacklok/playback-sync/internal/config"
	"github.com/stacklok/playback-sync/internal/playback"
	"github.com/stacklok/playback-sync/internal/service"
)

func newTestService(t *testing.T) (*Service, *playback.Player) {
	t.Helper()

	clk := testingclock.NewFakeClock(time.Now())
	player := playback.New(playback.WithClock(clk))
	errCh := make(chan error, 1)
	go func() { errCh <- player.Start(context.Background()) }()

	svc, err := New(player, WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, player.Stop())
		require.NoError(t, <-errCh)
		svc.Close()
	})
	return svc, player
}

func resourceIDs(t *testing.T, svc *Service) []string {
	t.Helper()

	infos, err := svc.Resources(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	return ids
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "player is required")
}

func TestAddResource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		res     config.ResourceConfig
		wantErr error
	}{
		{name: "explicit id", res: config.ResourceConfig{ID: "tile-a", Duration: 10}},
		{name: "generated id", res: config.ResourceConfig{Duration: 10}},
		{name: "negative duration", res: config.ResourceConfig{ID: "bad", Duration: -1}, wantErr: service.ErrInvalidArgument},
		{name: "invalid latency", res: config.ResourceConfig{ID: "bad", SeekLatency: "soon"}, wantErr: service.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newTestService(t)
			id, err := svc.AddResource(context.Background(), tt.res)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, resourceIDs(t, svc))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, id)
			if tt.res.ID != "" {
				assert.Equal(t, tt.res.ID, id)
			}

			infos, err := svc.Resources(context.Background())
			require.NoError(t, err)
			require.Len(t, infos, 1)
			assert.Equal(t, id, infos[0].ID)
			assert.True(t, infos[0].Ready)
		})
	}
}

func TestAddResourceDuplicate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddResource(ctx, config.ResourceConfig{ID: "tile-a", Duration: 4})
	require.NoError(t, err)
	_, err = svc.AddResource(ctx, config.ResourceConfig{ID: "tile-a", Duration: 4})
	assert.ErrorIs(t, err, service.ErrResourceExists)
}

func TestAddResourceFailure(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddResource(ctx, config.ResourceConfig{ID: "broken", Duration: 4, Failure: "decode error"})
	require.NoError(t, err)

	st, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.ActiveResources)
	assert.Equal(t, 1, st.PendingResources)
}

func TestRemoveResource(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddResource(ctx, config.ResourceConfig{ID: "tile-a", Duration: 4})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveResource(ctx, "tile-a"))
	assert.Empty(t, resourceIDs(t, svc))
	assert.ErrorIs(t, svc.RemoveResource(ctx, "tile-a"), service.ErrResourceNotFound)

	// the id is free again
	_, err = svc.AddResource(ctx, config.ResourceConfig{ID: "tile-a", Duration: 4})
	assert.NoError(t, err)
}

func TestPlaybackControls(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddResource(ctx, config.ResourceConfig{ID: "tile-a", Duration: 8})
	require.NoError(t, err)

	accepted, err := svc.Seek(ctx, 2)
	require.NoError(t, err)
	assert.True(t, accepted)

	require.NoError(t, svc.SetPlaybackRate(ctx, 2))
	require.NoError(t, svc.SetDuration(ctx, 6))
	require.NoError(t, svc.RequestResync(ctx))

	st, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, st.CurrentTime)
	assert.Equal(t, 2.0, st.PlaybackRate)
	assert.Equal(t, 6.0, st.Duration)

	assert.ErrorIs(t, svc.SetPlaybackRate(ctx, 0), service.ErrInvalidArgument)
	assert.ErrorIs(t, svc.SetDuration(ctx, -3), service.ErrInvalidArgument)
	assert.ErrorIs(t, svc.Play(ctx, -time.Second, 0), service.ErrInvalidArgument)
	assert.ErrorIs(t, svc.Play(ctx, 0, -1), service.ErrInvalidArgument)

	accepted, err = svc.Seek(ctx, -1)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	assert.False(t, accepted)
	st, err = svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, st.CurrentTime, "a rejected seek leaves the time alone")

	require.NoError(t, svc.Play(ctx, time.Second, 0.5))
	st, err = svc.State(ctx)
	require.NoError(t, err)
	assert.True(t, st.Playing)

	require.NoError(t, svc.Pause(ctx))
	st, err = svc.State(ctx)
	require.NoError(t, err)
	assert.False(t, st.Playing)
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Reconcile(ctx, []config.ResourceConfig{
		{ID: "a", Duration: 4},
		{ID: "b", Duration: 4},
	}))
	_, err := svc.AddResource(ctx, config.ResourceConfig{ID: "manual", Duration: 4})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "manual"}, resourceIDs(t, svc))

	require.NoError(t, svc.Reconcile(ctx, []config.ResourceConfig{
		{ID: "b", Duration: 6},
		{ID: "c", Duration: 4},
	}))

	infos, err := svc.Resources(ctx)
	require.NoError(t, err)
	durations := make(map[string]float64)
	for _, info := range infos {
		durations[info.ID] = info.Duration
	}
	assert.Equal(t, map[string]float64{"b": 6, "c": 4, "manual": 4}, durations)
}

func TestReconcileReportsErrors(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddResource(ctx, config.ResourceConfig{ID: "manual", Duration: 4})
	require.NoError(t, err)

	err = svc.Reconcile(ctx, []config.ResourceConfig{
		{ID: "ok", Duration: 4},
		{ID: "bad", Duration: -4},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add bad")
	assert.ElementsMatch(t, []string{"manual", "ok"}, resourceIDs(t, svc))
}

func TestApplyPlayerConfig(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Play(ctx, time.Second, 0.5))
	require.NoError(t, svc.ApplyPlayerConfig(ctx,
		config.PlayerConfig{},
		config.PlayerConfig{PlaybackRate: 1.5, Duration: 9, TickInterval: "250ms", StepSize: 0.1},
	))

	st, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.5, st.PlaybackRate)
	assert.Equal(t, 9.0, st.Duration)
	assert.True(t, st.Playing, "driver restarted with the new settings")
}

func TestCheckReadiness(t *testing.T) {
	t.Parallel()

	clk := testingclock.NewFakeClock(time.Now())
	player := playback.New(playback.WithClock(clk))
	svc, err := New(player, WithReadinessTimeout(50*time.Millisecond))
	require.NoError(t, err)

	// not started: the loop never answers
	assert.ErrorIs(t, svc.CheckReadiness(context.Background()), service.ErrNotReady)

	errCh := make(chan error, 1)
	go func() { errCh <- player.Start(context.Background()) }()
	require.Eventually(t, func() bool {
		return svc.CheckReadiness(context.Background()) == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, player.Stop())
	require.NoError(t, <-errCh)
	assert.ErrorIs(t, svc.CheckReadiness(context.Background()), service.ErrNotReady)
	_, err = svc.State(context.Background())
	assert.ErrorIs(t, err, service.ErrNotReady)
}
