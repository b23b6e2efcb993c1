package server

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/mlog"
)

// Client 阻塞式客户端，请求按seq匹配回复，到期推送进入Expired
type Client struct {
	conn    net.Conn
	wmu     sync.Mutex
	mu      sync.Mutex
	seq     uint32
	pending map[uint32]chan *Reply
	expired chan string
	done    chan struct{}
	err     error
	timeout time.Duration
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, timeout), nil
}

func NewClient(conn net.Conn, timeout time.Duration) *Client {
	c := &Client{
		conn:    conn,
		pending: make(map[uint32]chan *Reply),
		expired: make(chan string, 256),
		done:    make(chan struct{}),
		timeout: timeout,
	}
	go c.readLoop()
	return c
}

// Expired 到期的定时器名字，连接断开后关闭
func (c *Client) Expired() <-chan string {
	return c.expired
}

func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		close(c.expired)
	}()
	r := bufio.NewReader(c.conn)
	head := make([]byte, msgLenSize)
	var buf []byte
	for {
		if _, err := io.ReadFull(r, head); err != nil {
			c.fail(err)
			return
		}
		size := int(binary.LittleEndian.Uint32(head))
		if cap(buf) < size {
			buf = make([]byte, size)
		}
		buf = buf[:size]
		if _, err := io.ReadFull(r, buf); err != nil {
			c.fail(err)
			return
		}
		rsp := new(Reply)
		if err := rsp.Unmarshal(buf); err != nil {
			c.fail(err)
			return
		}
		if rsp.Kind == KindExpired {
			select {
			case c.expired <- rsp.Name:
			default:
				mlog.Warnf("client expired queue full, drop %q", rsp.Name)
			}
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[rsp.Seq]
		delete(c.pending, rsp.Seq)
		c.mu.Unlock()
		if ok {
			ch <- rsp
		}
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

func (c *Client) call(req *Request) (*Reply, error) {
	ch := make(chan *Reply, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.seq++
	req.Seq = c.seq
	c.pending[req.Seq] = ch
	c.mu.Unlock()

	c.wmu.Lock()
	_, err := c.conn.Write(AppendFrame(nil, req))
	c.wmu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, req.Seq)
		c.mu.Unlock()
		return nil, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case rsp := <-ch:
		if rsp.Code != errs.ErrCode_OK {
			return rsp, errs.FromCode(rsp.Code)
		}
		return rsp, nil
	case <-c.done:
		return nil, io.ErrUnexpectedEOF
	case <-timer.C:
		c.mu.Lock()
		delete(c.pending, req.Seq)
		c.mu.Unlock()
		return nil, errs.Unknown.Printf("seq %d timeout", req.Seq)
	}
}

func (c *Client) Ping() (int, error) {
	rsp, err := c.call(&Request{Op: OpPing})
	if err != nil {
		return 0, err
	}
	return int(rsp.Count), nil
}

func (c *Client) Start(name string, d time.Duration) error {
	_, err := c.call(&Request{Op: OpStart, Name: name, DurationMs: d.Milliseconds()})
	return err
}

func (c *Client) Stop(name string) error {
	_, err := c.call(&Request{Op: OpStop, Name: name})
	return err
}

// StopFirst 返回的是完整key，可能属于其它会话
func (c *Client) StopFirst() (string, error) {
	rsp, err := c.call(&Request{Op: OpStopFirst})
	if err != nil {
		return "", err
	}
	return rsp.Name, nil
}

func (c *Client) StopPrefix(prefix string) (int, error) {
	rsp, err := c.call(&Request{Op: OpStopPrefix, Name: prefix})
	if err != nil {
		return 0, err
	}
	return int(rsp.Count), nil
}

func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}
