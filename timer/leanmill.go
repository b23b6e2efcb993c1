package timer

import (
	"time"

	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/mlog"
)

// LeanMill 和Mill相同的分层结构，每个辐条是一段定长数组，只追加不压缩。
// 取消只是把槽位置为无效，槽位仍占着辐条的容量，直到辐条被游标扫过清空
type LeanMill[ID comparable] struct {
	levels   int
	dim      int
	per      int      // 每个辐条的槽位数
	slots    []ID     // levels*dim*per
	active   []int    // 每个辐条已用的槽位数，包括被取消的
	epoch    []uint32 // 辐条每清空一次加一，用来识别过期句柄
	next     []int
	size     int
	cap      int
	maxTicks int64
	nul      Nullifier[ID]
	ticker
}

func NewLeanMill[ID comparable](cfg Config, nul Nullifier[ID]) (*LeanMill[ID], error) {
	cfg = cfg.withDefaults()
	if err := checkMill(cfg); err != nil {
		return nil, err
	}
	if nul == nil {
		return nil, errs.Config.Print("leanmill needs a nullifier")
	}
	spokes := cfg.Levels * cfg.Dim
	per := cfg.Capacity/spokes + 1
	m := &LeanMill[ID]{
		levels:   cfg.Levels,
		dim:      cfg.Dim,
		per:      per,
		slots:    make([]ID, spokes*per),
		active:   make([]int, spokes),
		epoch:    make([]uint32, spokes),
		next:     make([]int, cfg.Levels),
		cap:      cfg.Capacity,
		maxTicks: maxTicks(cfg.Levels, cfg.Dim),
		nul:      nul,
		ticker:   ticker{unit: cfg.Unit},
	}
	// 初始全部无效
	for i := range m.slots {
		m.nul.Nullify(&m.slots[i])
	}
	return m, nil
}

func (m *LeanMill[ID]) Len() int {
	return m.size
}

func (m *LeanMill[ID]) Cap() int {
	return m.cap
}

func (m *LeanMill[ID]) MaxDuration() time.Duration {
	return m.duration(m.maxTicks)
}

// Active 辐条已占用的槽位数，包括已取消但还没被清空的
func (m *LeanMill[ID]) Active(level, spoke int) int {
	if level < 0 || level >= m.levels || spoke < 0 || spoke >= m.dim {
		return 0
	}
	return m.active[level*m.dim+spoke]
}

func (m *LeanMill[ID]) Start(id ID, d time.Duration) Handle {
	if m.size >= m.cap {
		mlog.Debugf("leanmill full, cap=%d id=%v", m.cap, id)
		return InvalidHandle
	}
	n := m.span(d)
	if n == 0 {
		n = 1
	}
	if n > m.maxTicks {
		mlog.Debugf("leanmill duration out of range, d=%v id=%v", d, id)
		return InvalidHandle
	}
	lvl, spoke := locate(n, m.next, m.dim)
	k := lvl*m.dim + spoke
	pos := m.active[k]
	if pos >= m.per {
		mlog.Debugf("leanmill spoke %d/%d full, id=%v", lvl, spoke, id)
		return InvalidHandle
	}
	slot := &m.slots[k*m.per+pos]
	// 原地试一次，id本身就是无效值时拒绝
	*slot = id
	if !m.nul.Nullify(slot) {
		return InvalidHandle
	}
	*slot = id
	m.active[k]++
	m.size++
	return Handle{level: int32(lvl), spoke: int32(spoke), link: int32(pos), gen: m.epoch[k], ok: true}
}

func (m *LeanMill[ID]) Stop(id ID) bool {
	for k, n := range m.active {
		base := k * m.per
		for i := 0; i < n; i++ {
			slot := &m.slots[base+i]
			if *slot == id && m.nul.Nullify(slot) {
				m.size--
				return true
			}
		}
	}
	return false
}

func (m *LeanMill[ID]) StopHandle(h Handle) bool {
	if !h.ok || h.level < 0 || int(h.level) >= m.levels || h.spoke < 0 || int(h.spoke) >= m.dim {
		return false
	}
	k := int(h.level)*m.dim + int(h.spoke)
	pos := int(h.link)
	if pos < 0 || pos >= m.active[k] || m.epoch[k] != h.gen {
		return false
	}
	if !m.nul.Nullify(&m.slots[k*m.per+pos]) {
		return false
	}
	m.size--
	return true
}

func (m *LeanMill[ID]) StopFirst() (id ID, ok bool) {
	for lvl := 0; lvl < m.levels; lvl++ {
		for i := 1; i <= m.dim; i++ {
			k := lvl*m.dim + (m.next[lvl]+i)%m.dim
			base := k * m.per
			for j := 0; j < m.active[k]; j++ {
				slot := &m.slots[base+j]
				v := *slot
				if m.nul.Nullify(slot) {
					m.size--
					return v, true
				}
			}
		}
	}
	return
}

func (m *LeanMill[ID]) ProcessExpired(elapsed time.Duration, fn func(ID)) {
	n := m.elapse(elapsed)
	for ; n > 0; n-- {
		if m.size == 0 {
			m.skip(n)
			return
		}
		m.tick(fn)
	}
}

func (m *LeanMill[ID]) tick(fn func(ID)) {
	for lvl := 0; lvl < m.levels; lvl++ {
		spoke := (m.next[lvl] + 1) % m.dim
		m.next[lvl] = spoke
		m.drain(lvl*m.dim+spoke, fn)
		if spoke != 0 {
			return
		}
	}
}

// drain 按登记顺序触发辐条里有效的定时器，然后整体清空
func (m *LeanMill[ID]) drain(k int, fn func(ID)) {
	n := m.active[k]
	if n == 0 {
		return
	}
	base := k * m.per
	for i := 0; i < n; i++ {
		slot := &m.slots[base+i]
		v := *slot
		if m.nul.Nullify(slot) {
			m.size--
			if fn != nil {
				fn(v)
			}
		}
	}
	m.reset(k)
}

func (m *LeanMill[ID]) reset(k int) {
	if m.active[k] > 0 {
		m.active[k] = 0
		m.epoch[k]++
	}
}

// skip 没有有效定时器时空转n个tick。游标扫过的辐条里只剩已取消的槽位，
// 直接清空；没扫到的辐条保持原样
func (m *LeanMill[ID]) skip(n int64) {
	dim := int64(m.dim)
	carry := n
	for lvl := 0; lvl < m.levels && carry > 0; lvl++ {
		for i := int64(1); i <= min(carry, dim); i++ {
			m.reset(lvl*m.dim + int((int64(m.next[lvl])+i)%dim))
		}
		// 与advance相同的进位
		total := int64(m.next[lvl]) + carry%dim
		m.next[lvl] = int(total % dim)
		carry = carry/dim + total/dim
	}
}
