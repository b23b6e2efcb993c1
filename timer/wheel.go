package timer

import (
	"time"

	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/mlog"
)

// Wheel 单层时间轮，每个辐条是一个DeltaList。
// 时长为d的定时器放在当前游标之后第d个辐条，辐条每被访问一次扣减一圈的tick数
type Wheel[ID comparable] struct {
	spokes []*DeltaList[ID]
	next   int // 最后一个处理过的辐条
	size   int
	cap    int
	ticker
}

func NewWheel[ID comparable](cfg Config) (*Wheel[ID], error) {
	cfg = cfg.withDefaults()
	if cfg.Capacity <= 0 {
		return nil, errs.Config.Printf("capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.Spokes < 2 {
		return nil, errs.Config.Printf("wheel needs at least 2 spokes, got %d", cfg.Spokes)
	}
	per := 2 * cfg.Capacity / cfg.Spokes
	if per < 1 {
		per = 1
	}
	w := &Wheel[ID]{
		spokes: make([]*DeltaList[ID], cfg.Spokes),
		cap:    cfg.Capacity,
		ticker: ticker{unit: cfg.Unit},
	}
	for i := range w.spokes {
		w.spokes[i] = newDeltaList[ID](per, cfg.Unit)
	}
	return w, nil
}

func (w *Wheel[ID]) Len() int {
	return w.size
}

func (w *Wheel[ID]) Cap() int {
	return w.cap
}

func (w *Wheel[ID]) Spokes() int {
	return len(w.spokes)
}

func (w *Wheel[ID]) Start(id ID, d time.Duration) Handle {
	if w.size >= w.cap {
		mlog.Debugf("wheel full, cap=%d id=%v", w.cap, id)
		return InvalidHandle
	}
	n := w.span(d)
	if n == 0 {
		n = 1
	}
	count := int64(len(w.spokes))
	spoke := (int64(w.next) + n%count) % count
	h := w.spokes[spoke].startTicks(id, n)
	if !h.ok {
		mlog.Debugf("wheel spoke %d full, id=%v", spoke, id)
		return InvalidHandle
	}
	h.spoke = int32(spoke)
	w.size++
	return h
}

func (w *Wheel[ID]) Stop(id ID) bool {
	for _, spoke := range w.spokes {
		if spoke.Stop(id) {
			w.size--
			return true
		}
	}
	return false
}

func (w *Wheel[ID]) StopHandle(h Handle) bool {
	if !h.ok || h.spoke < 0 || int(h.spoke) >= len(w.spokes) {
		return false
	}
	if !w.spokes[h.spoke].StopHandle(h) {
		return false
	}
	w.size--
	return true
}

// StopFirst 从下一个要处理的辐条开始，按访问顺序找第一个非空辐条的表头
func (w *Wheel[ID]) StopFirst() (id ID, ok bool) {
	count := len(w.spokes)
	for i := 1; i <= count; i++ {
		if id, ok = w.spokes[(w.next+i)%count].StopFirst(); ok {
			w.size--
			return
		}
	}
	return
}

func (w *Wheel[ID]) ProcessExpired(elapsed time.Duration, fn func(ID)) {
	n := w.elapse(elapsed)
	count := int64(len(w.spokes))
	for ; n > 0; n-- {
		if w.size == 0 {
			w.next = int((int64(w.next) + n%count) % count)
			return
		}
		w.next = (w.next + 1) % len(w.spokes)
		w.size -= w.spokes[w.next].expire(count, fn)
	}
}
