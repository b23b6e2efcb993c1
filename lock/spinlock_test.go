package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpinLock(t *testing.T) {
	var l SpinLock
	var wg sync.WaitGroup
	total := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				l.Lock()
				total++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 8000, total)
}

func TestSpinLockTryLock(t *testing.T) {
	var l SpinLock
	require.True(t, l.TryLock())
	require.False(t, l.TryLock())
	l.Unlock()
	require.True(t, l.TryLock())
	l.Unlock()
	require.Panics(t, l.Unlock)
}
