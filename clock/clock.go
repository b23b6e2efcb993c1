// Package clock 用外部时间驱动timer包的调度器
package clock

import (
	"time"

	"github.com/fixkme/tmrkit/lock"
	"github.com/fixkme/tmrkit/mlog"
	"github.com/fixkme/tmrkit/timer"
)

// Clock 给调度器加锁，并把调用者传入的时间戳换算成流逝时长。
// 到期回调在释放锁之后执行，回调里可以重新Start
type Clock[ID comparable] struct {
	mu    lock.SpinLock
	sched timer.Scheduler[ID]
	last  time.Time
	poll  time.Duration // 调度器不能预知下一个到期时间时的轮询间隔

	advMu lock.SpinLock
	fired []ID
}

func New[ID comparable](sched timer.Scheduler[ID], now time.Time, poll time.Duration) *Clock[ID] {
	if poll <= 0 {
		poll = timer.DefaultUnit
	}
	return &Clock[ID]{
		sched: sched,
		last:  now,
		poll:  poll,
		fired: make([]ID, 0, 64),
	}
}

func (c *Clock[ID]) Start(id ID, d time.Duration) timer.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Start(id, d)
}

func (c *Clock[ID]) Stop(id ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Stop(id)
}

func (c *Clock[ID]) StopHandle(h timer.Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.StopHandle(h)
}

func (c *Clock[ID]) StopFirst() (ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.StopFirst()
}

func (c *Clock[ID]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Len()
}

// Advance 推进到now，返回触发的个数。时间回退时不做任何事
func (c *Clock[ID]) Advance(now time.Time, fn func(ID)) int {
	c.advMu.Lock()
	defer c.advMu.Unlock()
	return c.advance(now, fn)
}

// TryAdvance 已有推进在进行时直接返回false
func (c *Clock[ID]) TryAdvance(now time.Time, fn func(ID)) (int, bool) {
	if !c.advMu.TryLock() {
		return 0, false
	}
	defer c.advMu.Unlock()
	return c.advance(now, fn), true
}

func (c *Clock[ID]) advance(now time.Time, fn func(ID)) int {
	c.mu.Lock()
	elapsed := now.Sub(c.last)
	if elapsed < 0 {
		c.mu.Unlock()
		mlog.Warnf("clock went backwards by %v", -elapsed)
		return 0
	}
	c.last = now
	c.fired = c.fired[:0]
	c.sched.ProcessExpired(elapsed, c.collect)
	c.mu.Unlock()

	if fn != nil {
		for _, id := range c.fired {
			fn(id)
		}
	}
	return len(c.fired)
}

func (c *Clock[ID]) collect(id ID) {
	c.fired = append(c.fired, id)
}

type peeker[ID comparable] interface {
	Peek() (ID, time.Duration, bool)
}

// NextDelay 下一次需要调用Advance的间隔
func (c *Clock[ID]) NextDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.sched.(peeker[ID]); ok {
		_, d, ok := p.Peek()
		if !ok {
			return c.poll
		}
		return min(d, c.poll)
	}
	return c.poll
}
