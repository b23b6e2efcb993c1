package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixkme/tmrkit/timer"
)

func TestClockAdvance(t *testing.T) {
	sched, err := timer.NewDeltaList[int](timer.Config{Capacity: 16})
	require.NoError(t, err)
	t0 := time.Unix(1700000000, 0)
	c := New[int](sched, t0, 50*time.Millisecond)

	require.True(t, c.Start(1, 10*time.Millisecond).Valid())
	require.True(t, c.Start(2, 30*time.Millisecond).Valid())
	require.Equal(t, 10*time.Millisecond, c.NextDelay())

	var got []int
	fn := func(id int) { got = append(got, id) }
	require.Equal(t, 0, c.Advance(t0.Add(5*time.Millisecond), fn))
	require.Equal(t, 1, c.Advance(t0.Add(12*time.Millisecond), fn))
	require.Equal(t, []int{1}, got)

	// 时间回退不触发
	require.Equal(t, 0, c.Advance(t0, fn))
	require.Equal(t, 1, c.Advance(t0.Add(30*time.Millisecond), fn))
	require.Equal(t, []int{1, 2}, got)
	require.Equal(t, 50*time.Millisecond, c.NextDelay())
}

func TestClockRestartInCallback(t *testing.T) {
	sched, err := timer.NewMill[string](timer.Config{Capacity: 64, Levels: 2, Dim: 16})
	require.NoError(t, err)
	t0 := time.Unix(0, 0)
	c := New[string](sched, t0, time.Millisecond)
	require.Equal(t, time.Millisecond, c.NextDelay())

	c.Start("hb", 5*time.Millisecond)
	count := 0
	var restart func(string)
	restart = func(id string) {
		count++
		c.Start(id, 5*time.Millisecond)
	}
	now := t0
	for i := 0; i < 20; i++ {
		now = now.Add(time.Millisecond)
		c.Advance(now, restart)
	}
	require.Equal(t, 4, count)
	require.Equal(t, 1, c.Len())

	id, ok := c.StopFirst()
	require.True(t, ok)
	require.Equal(t, "hb", id)
	require.False(t, c.Stop("hb"))
}

func TestClockTryAdvance(t *testing.T) {
	sched, err := timer.NewWheel[int](timer.Config{Capacity: 16, Spokes: 4})
	require.NoError(t, err)
	t0 := time.Unix(0, 0)
	c := New[int](sched, t0, time.Millisecond)
	c.Start(1, 2*time.Millisecond)
	c.Start(2, 6*time.Millisecond)

	// 回调里再推进会被拒绝
	n, ok := c.TryAdvance(t0.Add(3*time.Millisecond), func(id int) {
		require.Equal(t, 1, id)
		_, nested := c.TryAdvance(t0.Add(10*time.Millisecond), nil)
		require.False(t, nested)
	})
	require.True(t, ok)
	require.Equal(t, 1, n)
	require.Equal(t, 1, c.Len())
}
