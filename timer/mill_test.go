package timer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/stretchr/testify/require"
)

func TestMillSpokeMapping(t *testing.T) {
	m, err := NewMill[int](Config{Capacity: 64, Levels: 3, Dim: 4})
	require.NoError(t, err)
	require.Equal(t, 63*ms, m.MaxDuration())

	cases := []struct {
		d            int
		level, spoke int
	}{
		{1, 0, 1},
		{3, 0, 3},
		{4, 1, 1},
		{15, 1, 3},
		{16, 2, 1},
		{63, 2, 3},
	}
	for _, c := range cases {
		h := m.Start(c.d, time.Duration(c.d)*ms)
		require.True(t, h.Valid(), "d=%d", c.d)
		require.Equal(t, c.level, h.Level(), "d=%d", c.d)
		require.Equal(t, c.spoke, h.Spoke(), "d=%d", c.d)
	}
	require.False(t, m.Start(64, 64*ms).Valid())
	require.Equal(t, len(cases), m.Len())

	// 低层先到，高层在游标扫到时整体触发
	require.Equal(t, []int{1, 3}, collect(m, 3*ms))
	require.Equal(t, []int{4}, collect(m, ms))
	require.Equal(t, []int{15}, collect(m, 8*ms))
	require.Equal(t, []int{16}, collect(m, 4*ms))
	require.Equal(t, []int{63}, collect(m, 32*ms))
	require.Equal(t, 0, m.Len())
}

func TestMillSpokeOrderAndStop(t *testing.T) {
	m, err := NewMill[string](Config{Capacity: 64, Levels: 2, Dim: 8})
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "a", "c"} {
		require.True(t, m.Start(id, 5*ms).Valid())
	}
	// 只删第一个匹配
	require.True(t, m.Stop("a"))
	require.Equal(t, 3, m.Len())

	var got []string
	m.ProcessExpired(5*ms, func(id string) { got = append(got, id) })
	require.Equal(t, []string{"b", "a", "c"}, got)
}

func TestMillSpokeFull(t *testing.T) {
	// 每个辐条容量 9/8+1 = 2
	m, err := NewMill[int](Config{Capacity: 9, Levels: 2, Dim: 4})
	require.NoError(t, err)
	require.True(t, m.Start(1, ms).Valid())
	require.True(t, m.Start(2, ms).Valid())
	require.False(t, m.Start(3, ms).Valid())
	require.True(t, m.Start(3, 2*ms).Valid())
	require.Equal(t, 15*ms, m.MaxDuration())
	require.False(t, m.Start(4, 16*ms).Valid())
}

func TestMillLongIdle(t *testing.T) {
	m, err := NewMill[int](Config{Capacity: 64, Levels: 3, Dim: 4})
	require.NoError(t, err)
	// 4*16+4+1 = 69 个tick后游标为 [1 1 0]
	require.Empty(t, collect(m, 69*ms))
	require.Equal(t, []int{1, 1, 0}, m.next)
	h := m.Start(9, 3*ms)
	require.Equal(t, 0, h.Level())
	require.Equal(t, 0, h.Spoke())
	require.Equal(t, []int{9}, collect(m, 3*ms))
}

func TestLeanMillCapacityRetention(t *testing.T) {
	// 每个辐条 9/8+1 = 2 个槽位
	m, err := NewLeanMill[int](Config{Capacity: 9, Levels: 2, Dim: 4}, SentinelNullifier[int]{Sentinel: -1})
	require.NoError(t, err)
	h1 := m.Start(1, ms)
	h2 := m.Start(2, ms)
	require.True(t, h1.Valid())
	require.True(t, h2.Valid())

	require.True(t, m.Stop(1))
	require.False(t, m.StopHandle(h1))
	require.Equal(t, 1, m.Len())
	// 取消的槽位仍然占着辐条
	require.Equal(t, 2, m.Active(0, 1))
	require.False(t, m.Start(3, ms).Valid())

	require.Equal(t, []int{2}, collect(m, ms))
	require.Equal(t, 0, m.Active(0, 1))
	require.Equal(t, 0, m.Len())

	// 转一圈回到辐条1
	collect(m, 3*ms)
	h4 := m.Start(4, ms)
	h5 := m.Start(5, ms)
	require.Equal(t, 1, h4.Spoke())
	require.True(t, h5.Valid())
	require.False(t, m.StopHandle(h2), "handle from a drained spoke")
	require.Equal(t, 2, m.Len())
	require.True(t, m.StopHandle(h5))
	require.Equal(t, []int{4}, collect(m, ms))
}

// 空转时只清空游标扫过的辐条
func TestLeanMillSkipKeepsUnvisited(t *testing.T) {
	m, err := NewLeanMill[int](Config{Capacity: 9, Levels: 2, Dim: 4}, SentinelNullifier[int]{Sentinel: -1})
	require.NoError(t, err)
	require.True(t, m.Start(1, 2*ms).Valid())
	require.True(t, m.Start(2, 2*ms).Valid())
	require.True(t, m.Stop(1))
	require.True(t, m.Stop(2))
	require.Equal(t, 0, m.Len())
	require.Equal(t, 2, m.Active(0, 2))

	require.Empty(t, collect(m, ms))
	require.Equal(t, 2, m.Active(0, 2))
	require.False(t, m.Start(3, ms).Valid())
	require.Empty(t, collect(m, ms))
	require.Equal(t, 0, m.Active(0, 2))

	// 第1层的辐条要等第1层游标经过
	h := m.Start(5, 8*ms)
	require.Equal(t, 1, h.Level())
	require.Equal(t, 2, h.Spoke())
	require.True(t, m.StopHandle(h))
	require.Empty(t, collect(m, 4*ms))
	require.Equal(t, []int{2, 1}, m.next)
	require.Equal(t, 1, m.Active(1, 2))
	require.Empty(t, collect(m, 4*ms))
	require.Equal(t, 0, m.Active(1, 2))
	require.Equal(t, 0, m.Active(0, 0))
}

func TestLeanMillSentinelID(t *testing.T) {
	m, err := NewLeanMill[int](Config{Capacity: 64, Levels: 2, Dim: 8}, SentinelNullifier[int]{Sentinel: -1})
	require.NoError(t, err)
	require.False(t, m.Start(-1, ms).Valid())
	require.Equal(t, 0, m.Active(0, 1))
	require.False(t, m.Stop(-1))

	_, err = NewLeanMill[int](Config{Capacity: 64, Levels: 2, Dim: 8}, nil)
	require.Error(t, err)
}

func TestLeanMillNullifyFunc(t *testing.T) {
	neg := NullifyFunc[int](func(id *int) bool {
		if *id < 0 {
			return false
		}
		*id = -1 - *id
		return true
	})
	m, err := NewLeanMill[int](Config{Capacity: 64, Levels: 2, Dim: 8}, neg)
	require.NoError(t, err)
	require.False(t, m.Start(-5, ms).Valid())
	require.True(t, m.Start(0, ms).Valid())
	require.True(t, m.Start(7, 2*ms).Valid())
	id, ok := m.StopFirst()
	require.True(t, ok)
	require.Equal(t, 0, id)
	require.Equal(t, []int{7}, collect(m, 2*ms))
}

func TestLeanMillUUID(t *testing.T) {
	m, err := NewLeanMill[uuid.UUID](Config{Capacity: 128, Levels: 2, Dim: 16}, UUIDNullifier())
	require.NoError(t, err)
	require.False(t, m.Start(uuid.Nil, ms).Valid())

	a, b := uuid.New(), uuid.New()
	require.True(t, m.Start(a, 20*ms).Valid())
	require.True(t, m.Start(b, 20*ms).Valid())
	require.True(t, m.Stop(a))
	require.False(t, m.Stop(a))

	var got []uuid.UUID
	m.ProcessExpired(32*ms, func(id uuid.UUID) { got = append(got, id) })
	require.Equal(t, []uuid.UUID{b}, got)
}

func TestLeanMillXID(t *testing.T) {
	m, err := NewLeanMill[xid.ID](Config{Capacity: 128, Levels: 2, Dim: 16}, XIDNullifier())
	require.NoError(t, err)
	require.False(t, m.Start(xid.NilID(), ms).Valid())
	id := xid.New()
	h := m.Start(id, 3*ms)
	require.True(t, h.Valid())
	got, ok := m.StopFirst()
	require.True(t, ok)
	require.Equal(t, id, got)
	require.False(t, m.StopHandle(h))
}
