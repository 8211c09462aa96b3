package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testingclock "k8s.io/utils/clock/testing"
)

const tickInterval = 500 * time.Millisecond

func TestTicker_TicksUntilStopped(t *testing.T) {
	t.Parallel()

	clk := testingclock.NewFakeClock(time.Now())
	q := &queue{}
	ticks := 0
	tk := NewTicker(clk, q.post)

	tk.Start(tickInterval, func() { ticks++ })
	assert.True(t, tk.Running())
	assert.Equal(t, tickInterval, tk.Interval())

	for i := 0; i < 3; i++ {
		clk.Step(tickInterval)
		q.drain()
	}
	assert.Equal(t, 3, ticks)

	tk.Stop()
	assert.False(t, tk.Running())
	clk.Step(tickInterval)
	q.drain()
	assert.Equal(t, 3, ticks)
	assert.False(t, clk.HasWaiters(), "stop leaves no scheduled work")
}

func TestTicker_StartWhileRunningIsNoop(t *testing.T) {
	t.Parallel()

	clk := testingclock.NewFakeClock(time.Now())
	q := &queue{}
	first, second := 0, 0
	tk := NewTicker(clk, q.post)

	tk.Start(tickInterval, func() { first++ })
	tk.Start(time.Millisecond, func() { second++ })

	clk.Step(tickInterval)
	q.drain()

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
	assert.Equal(t, 1, clk.Waiters())
}

func TestTicker_StopFromTickCallback(t *testing.T) {
	t.Parallel()

	clk := testingclock.NewFakeClock(time.Now())
	q := &queue{}
	ticks := 0
	tk := NewTicker(clk, q.post)

	tk.Start(tickInterval, func() {
		ticks++
		tk.Stop()
	})

	clk.Step(tickInterval)
	q.drain()
	clk.Step(tickInterval)
	q.drain()

	assert.Equal(t, 1, ticks)
	assert.False(t, clk.HasWaiters())
}

func TestTicker_StopDiscardsParkedTick(t *testing.T) {
	t.Parallel()

	clk := testingclock.NewFakeClock(time.Now())
	q := &queue{}
	ticks := 0
	tk := NewTicker(clk, q.post)

	tk.Start(tickInterval, func() { ticks++ })
	clk.Step(tickInterval)
	tk.Stop()
	q.drain()

	assert.Equal(t, 0, ticks)
}
