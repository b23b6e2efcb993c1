// Package timer 固定容量、构造后不再分配内存的定时器调度结构。
//
// 四种实现共享同一套操作：Start登记{id, 时长}并返回句柄，Stop按id或句柄取消，
// StopFirst取出最近的一个，ProcessExpired推进虚拟时钟并按发现顺序回调到期的id。
// 调度器从不读取系统时间，时间完全由调用者通过ProcessExpired喂入。
//
// 所有实现都不是并发安全的。回调里不允许再调用同一个调度器的Start/Stop。
package timer

import (
	"math"
	"time"

	"github.com/fixkme/tmrkit/errs"
)

type Kind string

const (
	KindList     Kind = "list"
	KindWheel    Kind = "wheel"
	KindMill     Kind = "mill"
	KindLeanMill Kind = "leanmill"
)

const (
	DefaultUnit   = time.Millisecond
	DefaultLevels = 5
	DefaultDim    = 64
)

// Config 构造参数，实例生命周期内不变
type Config struct {
	Kind     Kind
	Capacity int           // 定时器总数上限
	Unit     time.Duration // 一个tick的时长，默认1ms
	Spokes   int           // wheel的辐条数
	Levels   int           // mill的层数
	Dim      int           // mill每层的辐条数
}

func (c Config) withDefaults() Config {
	if c.Unit <= 0 {
		c.Unit = DefaultUnit
	}
	if c.Levels == 0 {
		c.Levels = DefaultLevels
	}
	if c.Dim == 0 {
		c.Dim = DefaultDim
	}
	return c
}

type Scheduler[ID comparable] interface {
	Start(id ID, d time.Duration) Handle
	Stop(id ID) bool
	StopHandle(h Handle) bool
	StopFirst() (ID, bool)
	ProcessExpired(elapsed time.Duration, fn func(ID))
	Len() int
	Cap() int
}

// Handle Start返回的句柄，定时器触发或被取消之后失效
type Handle struct {
	level int32
	spoke int32
	link  int32
	gen   uint32
	ok    bool
}

// InvalidHandle 容量耗尽或者时长超出范围
var InvalidHandle = Handle{}

func (h Handle) Valid() bool {
	return h.ok
}

func (h Handle) Level() int { return int(h.level) }
func (h Handle) Spoke() int { return int(h.spoke) }

// ticker 时长和tick之间的换算，累计不足一个tick的流逝时间
type ticker struct {
	unit  time.Duration
	carry time.Duration
}

// span 启动时长向上取整，负数视为0
func (t *ticker) span(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	n := int64(d / t.unit)
	if d%t.unit != 0 {
		n++
	}
	return n
}

// elapse 流逝时长向下取整，余数留到下一次
func (t *ticker) elapse(d time.Duration) int64 {
	if d < 0 {
		d = 0
	}
	d += t.carry
	t.carry = d % t.unit
	return int64(d / t.unit)
}

// duration tick换算回时长，溢出时取最大值
func (t *ticker) duration(n int64) time.Duration {
	if n > int64(math.MaxInt64/t.unit) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(n) * t.unit
}

// New 按cfg.Kind构造基于链表的调度器；LeanMill需要Nullifier，用NewLeanMill
func New[ID comparable](cfg Config) (Scheduler[ID], error) {
	switch cfg.Kind {
	case KindList, "":
		l, err := NewDeltaList[ID](cfg)
		if err != nil {
			return nil, err
		}
		return l, nil
	case KindWheel:
		w, err := NewWheel[ID](cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	case KindMill:
		m, err := NewMill[ID](cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindLeanMill:
		return nil, errs.Config.Printf("kind %s needs a nullifier, use NewLeanMill", cfg.Kind)
	}
	return nil, errs.Config.Printf("unknown kind %q", cfg.Kind)
}
