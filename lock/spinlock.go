package lock

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const maxBackoff = 16

// SpinLock 零值可用，临界区很短时比sync.Mutex开销小。不可重入
type SpinLock struct {
	state atomic.Uint32
}

var _ sync.Locker = (*SpinLock)(nil)

func (sl *SpinLock) Lock() {
	backoff := 1
	for !sl.state.CompareAndSwap(0, 1) {
		// 指数退避
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < maxBackoff {
			backoff <<= 1
		}
	}
}

func (sl *SpinLock) TryLock() bool {
	return sl.state.CompareAndSwap(0, 1)
}

func (sl *SpinLock) Unlock() {
	if sl.state.Swap(0) == 0 {
		panic("lock: unlock of unlocked SpinLock")
	}
}
