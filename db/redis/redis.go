package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fixkme/tmrkit/errs"
)

const (
	RedisMode_Single   = "single"
	RedisMode_Sentinel = "sentinel"
	RedisMode_Cluster  = "cluster"
)

type RedisImpl struct {
	client  *redis.Client
	cluster *redis.ClusterClient
}

// Options 按模式构造go-redis的参数，addr多个地址用,隔开
func Options(mode, addr, masterName, password string, db int) (any, error) {
	addrs := strings.Split(addr, ",")
	if len(addr) == 0 || len(addrs) < 1 {
		return nil, errs.Config.Printf("redis addr invalid (%s)", addr)
	}
	switch mode {
	case RedisMode_Cluster:
		return &redis.ClusterOptions{
			Addrs:    addrs,
			Password: password,
		}, nil
	case RedisMode_Sentinel:
		return &redis.FailoverOptions{
			MasterName:    masterName,
			SentinelAddrs: addrs,
			Password:      password,
			DB:            db,
		}, nil
	default:
		return &redis.Options{
			Addr:     addrs[0],
			Password: password,
			DB:       db,
		}, nil
	}
}

func NewRedis(ctx context.Context, mode string, opts any) (*RedisImpl, error) {
	var err error
	db := &RedisImpl{}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	switch mode {
	case RedisMode_Cluster:
		o, ok := opts.(*redis.ClusterOptions)
		if !ok {
			return nil, fmt.Errorf("redis mode %s expects *redis.ClusterOptions, got %T", mode, opts)
		}
		db.cluster = redis.NewClusterClient(o)
		err = db.cluster.Ping(ctx).Err()
	case RedisMode_Sentinel:
		o, ok := opts.(*redis.FailoverOptions)
		if !ok {
			return nil, fmt.Errorf("redis mode %s expects *redis.FailoverOptions, got %T", mode, opts)
		}
		db.client = redis.NewFailoverClient(o)
		err = db.client.Ping(ctx).Err()
	default: // 默认single模式
		o, ok := opts.(*redis.Options)
		if !ok {
			return nil, fmt.Errorf("redis mode %s expects *redis.Options, got %T", mode, opts)
		}
		db.client = redis.NewClient(o)
		err = db.client.Ping(ctx).Err()
	}

	if err != nil {
		db.Stop()
		return nil, err
	}

	return db, nil
}

func (db *RedisImpl) Client() *redis.Client {
	return db.client
}

func (db *RedisImpl) ClusterClient() *redis.ClusterClient {
	return db.cluster
}

func (db *RedisImpl) Stop() {
	if db.client != nil {
		db.client.Close()
	}
	if db.cluster != nil {
		db.cluster.Close()
	}
}

func (db *RedisImpl) GetCmdable() redis.Cmdable {
	if db.client != nil {
		return db.client
	}
	if db.cluster != nil {
		return db.cluster
	}
	return nil
}
