package timer

import (
	"time"

	"github.com/fixkme/tmrkit/ds/staticlist"
	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/mlog"
)

type entry[ID comparable] struct {
	id        ID
	remaining int64 // 与前一个节点的差值，tick
}

// DeltaList 按剩余时间排序的定时器链表，每个节点只记录与前驱的差值，
// 节点的真实剩余时间是从表头到它的差值之和
type DeltaList[ID comparable] struct {
	timers *staticlist.List[entry[ID]]
	ticker
}

func NewDeltaList[ID comparable](cfg Config) (*DeltaList[ID], error) {
	cfg = cfg.withDefaults()
	if cfg.Capacity <= 0 {
		return nil, errs.Config.Printf("capacity must be positive, got %d", cfg.Capacity)
	}
	return newDeltaList[ID](cfg.Capacity, cfg.Unit), nil
}

func newDeltaList[ID comparable](capacity int, unit time.Duration) *DeltaList[ID] {
	return &DeltaList[ID]{
		timers: staticlist.NewList[entry[ID]](capacity),
		ticker: ticker{unit: unit},
	}
}

func (l *DeltaList[ID]) Len() int {
	return l.timers.Len()
}

func (l *DeltaList[ID]) Cap() int {
	return l.timers.Cap()
}

func (l *DeltaList[ID]) Start(id ID, d time.Duration) Handle {
	return l.startTicks(id, l.span(d))
}

// startTicks 从表头开始扣减差值，插到第一个差值大于剩余预算的节点之前，
// 并把该节点的差值减去预算；相同到期时间的排在已有节点之后
func (l *DeltaList[ID]) startTicks(id ID, n int64) Handle {
	if l.timers.IsFull() {
		mlog.Debugf("timer list full, cap=%d id=%v", l.timers.Cap(), id)
		return InvalidHandle
	}
	it := l.timers.Front()
	for ; it != l.timers.Nil(); it = l.timers.Next(it) {
		e := l.timers.Pointer(it)
		if e.remaining > n {
			e.remaining -= n
			break
		}
		n -= e.remaining
	}
	p := l.timers.Insert(it, entry[ID]{id: id, remaining: n})
	return Handle{link: int32(p), gen: l.timers.Gen(p), ok: true}
}

func (l *DeltaList[ID]) Stop(id ID) bool {
	for it := l.timers.Front(); it != l.timers.Nil(); it = l.timers.Next(it) {
		if l.timers.Pointer(it).id == id {
			l.stopLink(it)
			return true
		}
	}
	return false
}

func (l *DeltaList[ID]) StopHandle(h Handle) bool {
	if !h.ok {
		return false
	}
	p := int(h.link)
	if !l.timers.Valid(p) || l.timers.Gen(p) != h.gen {
		return false
	}
	l.stopLink(p)
	return true
}

// stopLink 删除节点，差值并入后继
func (l *DeltaList[ID]) stopLink(p int) {
	if next := l.timers.Next(p); next != l.timers.Nil() {
		l.timers.Pointer(next).remaining += l.timers.Pointer(p).remaining
	}
	l.timers.Erase(p)
}

func (l *DeltaList[ID]) StopFirst() (id ID, ok bool) {
	if l.timers.IsEmpty() {
		return
	}
	p := l.timers.Front()
	id = l.timers.Pointer(p).id
	l.stopLink(p)
	return id, true
}

func (l *DeltaList[ID]) ProcessExpired(elapsed time.Duration, fn func(ID)) {
	l.expire(l.elapse(elapsed), fn)
}

// expire 消耗n个tick，触发所有被覆盖的节点，多出的部分滚入下一个节点；返回触发个数
func (l *DeltaList[ID]) expire(n int64, fn func(ID)) int {
	fired := 0
	for !l.timers.IsEmpty() {
		p := l.timers.Front()
		e := l.timers.Pointer(p)
		if e.remaining > n {
			e.remaining -= n
			break
		}
		n -= e.remaining
		id := e.id
		l.timers.Erase(p)
		fired++
		if fn != nil {
			fn(id)
		}
	}
	return fired
}

// Peek 最近到期的定时器及其剩余时间
func (l *DeltaList[ID]) Peek() (id ID, remaining time.Duration, ok bool) {
	if l.timers.IsEmpty() {
		return
	}
	e := l.timers.Pointer(l.timers.Front())
	return e.id, l.duration(e.remaining), true
}

// Range 按到期顺序遍历，remaining是累加后的剩余时间
func (l *DeltaList[ID]) Range(fn func(id ID, remaining time.Duration) bool) {
	var sum int64
	l.timers.Range(func(_ int, e *entry[ID]) bool {
		sum += e.remaining
		return fn(e.id, l.duration(sum))
	})
}
