package redis

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/fixkme/tmrkit/mlog"
)

// Publisher redis.Client和redis.ClusterClient都满足
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Notifier 异步发布消息，队列满时丢弃，不阻塞调用者
type Notifier struct {
	pub     Publisher
	channel string
	queue   chan []byte
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

func NewNotifier(pub Publisher, channel string, size int) *Notifier {
	if size <= 0 {
		size = 1024
	}
	return &Notifier{
		pub:     pub,
		channel: channel,
		queue:   make(chan []byte, size),
	}
}

func (n *Notifier) Start(ctx context.Context) {
	n.wg.Add(1)
	go n.run(ctx)
}

func (n *Notifier) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			mlog.Errorf("redis notifier routine recover error %v", r)
		}
		n.wg.Done()
	}()
	for msg := range n.queue {
		if err := n.pub.Publish(ctx, n.channel, msg).Err(); err != nil {
			mlog.Warnf("redis publish %s error %v", n.channel, err)
		}
	}
}

// Notify 返回false表示队列已满或已关闭
func (n *Notifier) Notify(msg []byte) (ok bool) {
	defer func() {
		// 关闭之后再发送
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case n.queue <- msg:
		return true
	default:
		if n.dropped.Add(1)%1000 == 1 {
			mlog.Warnf("redis notifier queue full, dropped %d", n.dropped.Load())
		}
		return false
	}
}

func (n *Notifier) Dropped() int64 {
	return n.dropped.Load()
}

// Close 发完队列里剩下的消息再返回
func (n *Notifier) Close() {
	n.once.Do(func() {
		close(n.queue)
	})
	n.wg.Wait()
}
