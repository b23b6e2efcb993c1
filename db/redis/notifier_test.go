package redis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []string
	fail bool
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	f.msgs = append(f.msgs, channel+":"+string(message.([]byte)))
	cmd.SetVal(1)
	return cmd
}

func TestNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, "tmrkit:expired", 8)
	n.Start(context.Background())
	for _, m := range []string{"a", "b", "c"} {
		require.True(t, n.Notify([]byte(m)))
	}
	n.Close()
	require.Equal(t, []string{"tmrkit:expired:a", "tmrkit:expired:b", "tmrkit:expired:c"}, pub.msgs)

	// 关闭之后丢弃
	require.False(t, n.Notify([]byte("d")))
	n.Close()
}

func TestNotifierQueueFull(t *testing.T) {
	pub := &fakePublisher{fail: true}
	n := NewNotifier(pub, "ch", 2)
	// 没有启动，队列满了就丢
	require.True(t, n.Notify([]byte("a")))
	require.True(t, n.Notify([]byte("b")))
	require.False(t, n.Notify([]byte("c")))
	require.Equal(t, int64(1), n.Dropped())

	// 发布失败只记日志
	n.Start(context.Background())
	n.Close()
	require.Empty(t, pub.msgs)
}

func TestOptions(t *testing.T) {
	o, err := Options(RedisMode_Cluster, "a:1,b:2", "", "pw", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"a:1", "b:2"}, o.(*redis.ClusterOptions).Addrs)

	o, err = Options(RedisMode_Sentinel, "s:1", "master", "", 2)
	require.NoError(t, err)
	require.Equal(t, "master", o.(*redis.FailoverOptions).MasterName)

	o, err = Options("", "127.0.0.1:6379,ignored:1", "", "", 3)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6379", o.(*redis.Options).Addr)
	require.Equal(t, 3, o.(*redis.Options).DB)

	_, err = Options(RedisMode_Single, "", "", "", 0)
	require.Error(t, err)

	_, err = NewRedis(context.Background(), RedisMode_Cluster, &redis.Options{})
	require.Error(t, err)
}
