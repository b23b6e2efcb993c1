package server

import (
	"context"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/rs/xid"

	"github.com/fixkme/tmrkit/mlog"
)

type ServerOpt struct {
	gnet.Options
	Addr         string
	Tick         time.Duration // OnTick的最大间隔
	MaxFrameSize int
	Now          func() time.Time
}

// Server gnet事件引擎，OnTick驱动Service的虚拟时钟
type Server struct {
	gnet.BuiltinEventEngine
	eng gnet.Engine
	svc *Service
	opt *ServerOpt
}

func NewServer(svc *Service, opt *ServerOpt) *Server {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Tick <= 0 {
		opt.Tick = 10 * time.Millisecond
	}
	if opt.MaxFrameSize <= 0 {
		opt.MaxFrameSize = 4096
	}
	opt.Options.Ticker = true
	return &Server{svc: svc, opt: opt}
}

type connSink struct {
	c gnet.Conn
}

func (s connSink) Push(frame []byte) error {
	return s.c.AsyncWrite(frame, func(c gnet.Conn, err error) error {
		if err != nil {
			mlog.Warnf("%s AsyncWrite err:%v", c.RemoteAddr(), err)
		}
		return nil
	})
}

func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	mlog.Infof("tmrkitd listening on %s, node %s", s.opt.Addr, s.svc.Node())
	return gnet.None
}

func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	c.SetContext(s.svc.Open(connSink{c: c}))
	return nil, gnet.None
}

func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	if sid, ok := c.Context().(xid.ID); ok {
		s.svc.Close(sid)
	}
	if err != nil {
		mlog.Debugf("%s closed: %v", c.RemoteAddr(), err)
	}
	return gnet.None
}

func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	sid, ok := c.Context().(xid.ID)
	if !ok {
		return gnet.Close
	}
	var out []byte
	for {
		n := c.InboundBuffered()
		if n < msgLenSize {
			break
		}
		buf, err := c.Peek(n)
		if err != nil {
			break
		}
		payload, size, err := SplitFrame(buf, s.opt.MaxFrameSize)
		if err != nil {
			mlog.Warnf("%s %v", c.RemoteAddr(), err)
			return gnet.Close
		}
		if size == 0 {
			break
		}
		var req Request
		err = req.Unmarshal(payload)
		c.Discard(size)
		if err != nil {
			mlog.Warnf("%s decode request err:%v", c.RemoteAddr(), err)
			return gnet.Close
		}
		out = AppendFrame(out, s.svc.Handle(sid, &req))
	}
	if len(out) > 0 {
		if _, err := c.Write(out); err != nil {
			mlog.Warnf("%s write reply err:%v", c.RemoteAddr(), err)
			return gnet.Close
		}
	}
	return gnet.None
}

func (s *Server) OnTick() (time.Duration, gnet.Action) {
	s.svc.Advance(s.opt.Now())
	return max(min(s.svc.NextDelay(), s.opt.Tick), time.Millisecond), gnet.None
}

// Run 阻塞直到Stop
func (s *Server) Run() error {
	return gnet.Run(s, s.opt.Addr, gnet.WithOptions(s.opt.Options))
}

func (s *Server) Stop(ctx context.Context) error {
	return s.eng.Stop(ctx)
}
