package timer

import (
	"math"
	"time"

	"github.com/fixkme/tmrkit/ds/staticlist"
	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/mlog"
)

// Mill 多层时间轮，每层Dim个辐条，第i层一个辐条覆盖Dim^i个tick。
// 不做降级重排：高层辐条被游标扫到时直接触发，精度随层数变粗
type Mill[ID comparable] struct {
	levels   int
	dim      int
	spokes   []*staticlist.List[ID] // levels*dim
	next     []int                  // 每层的游标
	size     int
	cap      int
	maxTicks int64
	ticker
}

// maxTicks dim^levels-1，溢出时返回MaxInt64
func maxTicks(levels, dim int) int64 {
	total := int64(1)
	for i := 0; i < levels; i++ {
		if total > math.MaxInt64/int64(dim) {
			return math.MaxInt64
		}
		total *= int64(dim)
	}
	return total - 1
}

func checkMill(cfg Config) error {
	if cfg.Capacity <= 0 {
		return errs.Config.Printf("capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.Levels < 1 || cfg.Dim < 2 {
		return errs.Config.Printf("invalid mill shape levels=%d dim=%d", cfg.Levels, cfg.Dim)
	}
	if cfg.Levels*cfg.Dim >= cfg.Capacity {
		return errs.Config.Printf("capacity %d must exceed levels*dim=%d", cfg.Capacity, cfg.Levels*cfg.Dim)
	}
	return nil
}

func NewMill[ID comparable](cfg Config) (*Mill[ID], error) {
	cfg = cfg.withDefaults()
	if err := checkMill(cfg); err != nil {
		return nil, err
	}
	m := &Mill[ID]{
		levels:   cfg.Levels,
		dim:      cfg.Dim,
		spokes:   make([]*staticlist.List[ID], cfg.Levels*cfg.Dim),
		next:     make([]int, cfg.Levels),
		cap:      cfg.Capacity,
		maxTicks: maxTicks(cfg.Levels, cfg.Dim),
		ticker:   ticker{unit: cfg.Unit},
	}
	per := cfg.Capacity/(cfg.Levels*cfg.Dim) + 1
	for i := range m.spokes {
		m.spokes[i] = staticlist.NewList[ID](per)
	}
	return m, nil
}

func (m *Mill[ID]) Len() int {
	return m.size
}

func (m *Mill[ID]) Cap() int {
	return m.cap
}

// MaxDuration 能登记的最长时长
func (m *Mill[ID]) MaxDuration() time.Duration {
	return m.duration(m.maxTicks)
}

// locate 找到能容纳n的最低层，返回层号和辐条号
func locate(n int64, next []int, dim int) (lvl, spoke int) {
	for lvl = 0; lvl < len(next)-1 && n >= int64(dim); lvl++ {
		n /= int64(dim)
	}
	return lvl, (int(n) + next[lvl]) % dim
}

func (m *Mill[ID]) Start(id ID, d time.Duration) Handle {
	if m.size >= m.cap {
		mlog.Debugf("mill full, cap=%d id=%v", m.cap, id)
		return InvalidHandle
	}
	n := m.span(d)
	if n == 0 {
		n = 1
	}
	if n > m.maxTicks {
		mlog.Debugf("mill duration out of range, d=%v id=%v", d, id)
		return InvalidHandle
	}
	lvl, spoke := locate(n, m.next, m.dim)
	list := m.spokes[lvl*m.dim+spoke]
	p := list.Insert(list.Nil(), id)
	if p == list.Nil() {
		mlog.Debugf("mill spoke %d/%d full, id=%v", lvl, spoke, id)
		return InvalidHandle
	}
	m.size++
	return Handle{level: int32(lvl), spoke: int32(spoke), link: int32(p), gen: list.Gen(p), ok: true}
}

// Stop 只删除第一个匹配的定时器
func (m *Mill[ID]) Stop(id ID) bool {
	for _, list := range m.spokes {
		for it := list.Front(); it != list.Nil(); it = list.Next(it) {
			if list.Get(it) == id {
				list.Erase(it)
				m.size--
				return true
			}
		}
	}
	return false
}

func (m *Mill[ID]) StopHandle(h Handle) bool {
	if !h.ok || h.level < 0 || int(h.level) >= m.levels || h.spoke < 0 || int(h.spoke) >= m.dim {
		return false
	}
	list := m.spokes[int(h.level)*m.dim+int(h.spoke)]
	p := int(h.link)
	if !list.Valid(p) || list.Gen(p) != h.gen {
		return false
	}
	list.Erase(p)
	m.size--
	return true
}

// StopFirst 从最低层开始，按游标的访问顺序找第一个非空辐条
func (m *Mill[ID]) StopFirst() (id ID, ok bool) {
	for lvl := 0; lvl < m.levels; lvl++ {
		for i := 1; i <= m.dim; i++ {
			list := m.spokes[lvl*m.dim+(m.next[lvl]+i)%m.dim]
			if id, ok = list.PopFront(); ok {
				m.size--
				return
			}
		}
	}
	return
}

func (m *Mill[ID]) ProcessExpired(elapsed time.Duration, fn func(ID)) {
	n := m.elapse(elapsed)
	for ; n > 0; n-- {
		if m.size == 0 {
			m.skip(n)
			return
		}
		m.tick(fn)
	}
}

// tick 第0层游标前进一格并触发该辐条，回绕到0时带动上一层
func (m *Mill[ID]) tick(fn func(ID)) {
	for lvl := 0; lvl < m.levels; lvl++ {
		spoke := (m.next[lvl] + 1) % m.dim
		m.next[lvl] = spoke
		list := m.spokes[lvl*m.dim+spoke]
		for {
			id, ok := list.PopFront()
			if !ok {
				break
			}
			m.size--
			if fn != nil {
				fn(id)
			}
		}
		if spoke != 0 {
			return
		}
	}
}

// skip 空转n个tick，只移动游标
func (m *Mill[ID]) skip(n int64) {
	advance(m.next, m.dim, n)
}

func advance(next []int, dim int, n int64) {
	carry := n
	for lvl := range next {
		if carry == 0 {
			return
		}
		total := int64(next[lvl]) + carry%int64(dim)
		next[lvl] = int(total % int64(dim))
		carry = carry/int64(dim) + total/int64(dim)
	}
}
