package server

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/armon/go-radix"
	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/fixkme/tmrkit/clock"
	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/lock"
	"github.com/fixkme/tmrkit/mlog"
	"github.com/fixkme/tmrkit/timer"
)

// Sink 会话的推送出口，gnet连接或者测试里的缓冲
type Sink interface {
	Push(frame []byte) error
}

// Notifier 到期事件的旁路通知，比如redis发布
type Notifier interface {
	Notify(msg []byte) bool
}

// ExpiredEvent 发布到redis的到期事件
type ExpiredEvent struct {
	Node    string `json:"node"`
	Session string `json:"session"`
	Name    string `json:"name"`
	Timer   string `json:"timer"`
	At      int64  `json:"at"` // 毫秒
}

type session struct {
	id   xid.ID
	key  string // id.String() + "/"
	sink Sink
}

type binding struct {
	id     xid.ID
	key    string
	handle timer.Handle
	sess   *session
}

// Service 与传输层无关的定时服务。定时器名字按会话隔离，
// 完整的key是"会话id/名字"，会话关闭时按前缀取消
type Service struct {
	mu       lock.SpinLock
	clock    *clock.Clock[xid.ID]
	sched    timer.Scheduler[xid.ID]
	names    *radix.Tree
	byID     map[xid.ID]*binding
	sessions map[xid.ID]*session
	node     uuid.UUID
	notifier Notifier
}

func NewService(sched timer.Scheduler[xid.ID], now time.Time, poll time.Duration) *Service {
	return &Service{
		clock:    clock.New[xid.ID](sched, now, poll),
		sched:    sched,
		names:    radix.New(),
		byID:     make(map[xid.ID]*binding, sched.Cap()),
		sessions: make(map[xid.ID]*session),
		node:     uuid.New(),
	}
}

// NewScheduler 按配置构造调度器，leanmill用xid的零值作为无效标记
func NewScheduler(cfg timer.Config) (timer.Scheduler[xid.ID], error) {
	if cfg.Kind == timer.KindLeanMill {
		m, err := timer.NewLeanMill[xid.ID](cfg, timer.XIDNullifier())
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return timer.New[xid.ID](cfg)
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) Node() uuid.UUID {
	return s.node
}

func (s *Service) Open(sink Sink) xid.ID {
	sess := &session{id: xid.New(), sink: sink}
	sess.key = sess.id.String() + "/"
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	mlog.Debugf("session %s opened", sess.id)
	return sess.id
}

// Close 取消会话的全部定时器，返回取消的个数
func (s *Service) Close(id xid.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return 0
	}
	delete(s.sessions, id)
	n := s.stopPrefix(sess.key)
	mlog.Debugf("session %s closed, %d timers cancelled", id, n)
	return n
}

func (s *Service) Handle(sid xid.ID, req *Request) *Reply {
	rsp := &Reply{Seq: req.Seq, Kind: KindReply}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok {
		rsp.Code = errs.ErrCode_NotFound
		return rsp
	}
	var err error
	switch req.Op {
	case OpPing:
		rsp.Count = int32(s.clock.Len())
	case OpStart:
		err = s.start(sess, req.Name, time.Duration(req.DurationMs)*time.Millisecond)
	case OpStop:
		err = s.stop(sess.key + req.Name)
	case OpStopFirst:
		rsp.Name, err = s.stopFirst()
	case OpStopPrefix:
		rsp.Count = int32(s.stopPrefix(sess.key + req.Name))
	default:
		err = errs.Protocol.Printf("unknown op %d", req.Op)
	}
	rsp.Code = errs.CodeOf(err)
	if err != nil {
		mlog.Debugf("session %s %s %q: %v", sid, req.Op, req.Name, err)
	}
	return rsp
}

func (s *Service) start(sess *session, name string, d time.Duration) error {
	if name == "" || strings.HasSuffix(name, "/") {
		return errs.Protocol.Printf("invalid name %q", name)
	}
	if d < 0 {
		return errs.Range.Printf("negative duration %v", d)
	}
	if m, ok := s.sched.(interface{ MaxDuration() time.Duration }); ok && d > m.MaxDuration() {
		return errs.Range.Printf("%v exceeds %v", d, m.MaxDuration())
	}
	key := sess.key + name
	var old *binding
	if v, ok := s.names.Get(key); ok {
		old = v.(*binding)
	}
	b := &binding{id: xid.New(), key: key, sess: sess}
	b.handle = s.clock.Start(b.id, d)
	if !b.handle.Valid() && old != nil {
		// 没有空位时先腾出旧的再试一次
		s.remove(old)
		old = nil
		b.handle = s.clock.Start(b.id, d)
	}
	if !b.handle.Valid() {
		if s.clock.Len() >= s.sched.Cap() {
			return errs.Capacity
		}
		return errs.Capacity.Print("spoke full")
	}
	if old != nil {
		// 重新计时
		s.remove(old)
	}
	s.names.Insert(key, b)
	s.byID[b.id] = b
	return nil
}

func (s *Service) stop(key string) error {
	v, ok := s.names.Get(key)
	if !ok {
		return errs.NotFound
	}
	b := v.(*binding)
	if !s.clock.StopHandle(b.handle) {
		// 已经到期，保留绑定等待推送
		return errs.NotFound
	}
	s.unbind(b)
	return nil
}

// remove 取消定时器并解除绑定，返回调度器里是否还有这个定时器
func (s *Service) remove(b *binding) bool {
	s.unbind(b)
	return s.clock.StopHandle(b.handle)
}

func (s *Service) unbind(b *binding) {
	s.names.Delete(b.key)
	delete(s.byID, b.id)
}

func (s *Service) stopFirst() (string, error) {
	for {
		id, ok := s.clock.StopFirst()
		if !ok {
			return "", errs.Empty
		}
		b, ok := s.byID[id]
		if !ok {
			continue
		}
		s.unbind(b)
		return b.key, nil
	}
}

func (s *Service) stopPrefix(prefix string) int {
	var found []*binding
	s.names.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		found = append(found, v.(*binding))
		return false
	})
	n := 0
	for _, b := range found {
		if s.remove(b) {
			n++
		}
	}
	return n
}

// Advance 推进到now，推送到期事件，返回触发个数
func (s *Service) Advance(now time.Time) int {
	return s.clock.Advance(now, func(id xid.ID) {
		s.expired(id, now)
	})
}

func (s *Service) NextDelay() time.Duration {
	return s.clock.NextDelay()
}

func (s *Service) Len() int {
	return s.clock.Len()
}

func (s *Service) expired(id xid.ID, now time.Time) {
	s.mu.Lock()
	b, ok := s.byID[id]
	if ok {
		s.unbind(b)
	}
	s.mu.Unlock()
	if !ok {
		// 到期前已经被取消或重新计时
		return
	}
	name := strings.TrimPrefix(b.key, b.sess.key)
	frame := AppendFrame(nil, &Reply{Kind: KindExpired, Name: name})
	if err := b.sess.sink.Push(frame); err != nil {
		mlog.Warnf("session %s push expired %q error %v", b.sess.id, name, err)
	}
	if s.notifier == nil {
		return
	}
	msg, err := json.Marshal(&ExpiredEvent{
		Node:    s.node.String(),
		Session: b.sess.id.String(),
		Name:    name,
		Timer:   id.String(),
		At:      now.UnixMilli(),
	})
	if err != nil {
		mlog.Errorf("marshal expired event error %v", err)
		return
	}
	s.notifier.Notify(msg)
}
