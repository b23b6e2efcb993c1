package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/urfave/cli"

	"github.com/fixkme/tmrkit/db/redis"
	"github.com/fixkme/tmrkit/framework/app"
	"github.com/fixkme/tmrkit/framework/config"
	"github.com/fixkme/tmrkit/mlog"
	"github.com/fixkme/tmrkit/server"
)

var (
	configFile string

	serveFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "json config file, TMRKIT_* env vars override it",
			Destination: &configFile,
		},
	}
)

func serve(ctx *cli.Context) error {
	if err := config.LoadConfig(configFile, config.LoadFromEnv); err != nil {
		return err
	}
	conf := config.Config
	conf.AppVersion = version

	logCtx, logCancel := context.WithCancel(context.Background())
	logWg := &sync.WaitGroup{}
	defer func() {
		logCancel()
		logWg.Wait()
	}()
	level := mlog.ParseLevel(conf.LogLevel)
	if conf.LogPath == "" {
		mlog.UseStdLogger(level)
	} else if err := mlog.UseDefaultLogger(logCtx, logWg, conf.LogPath, conf.LogName, level, conf.LogStdOut); err != nil {
		return err
	}
	if conf.IsDebug {
		mlog.Debugf("config:\n%s", conf.JsonFormat())
	}

	a := app.New()
	srv := &serverModule{conf: conf, app: a}
	mods := []app.Module{srv}
	if conf.RedisAddr != "" {
		nm := &notifierModule{conf: conf}
		srv.notifier = nm
		mods = []app.Module{nm, srv}
	}
	return a.Run(mods...)
}

// notifierModule 把到期事件发布到redis
type notifierModule struct {
	conf *config.AppConfig
	db   *redis.RedisImpl
	n    *redis.Notifier
}

func (m *notifierModule) Name() string {
	return "notifier"
}

func (m *notifierModule) OnInit() error {
	opts, err := redis.Options(m.conf.RedisMode, m.conf.RedisAddr, m.conf.RedisMasterName, m.conf.RedisPassword, m.conf.RedisDB)
	if err != nil {
		return err
	}
	m.db, err = redis.NewRedis(context.Background(), m.conf.RedisMode, opts)
	if err != nil {
		return err
	}
	var pub redis.Publisher = m.db.Client()
	if m.conf.RedisMode == redis.RedisMode_Cluster {
		pub = m.db.ClusterClient()
	}
	m.n = redis.NewNotifier(pub, m.conf.RedisChannel, 0)
	m.n.Start(context.Background())
	mlog.Infof("redis notifier %s channel %s", strings.Split(m.conf.RedisAddr, ",")[0], m.conf.RedisChannel)
	return nil
}

func (m *notifierModule) Run() {}

func (m *notifierModule) Destroy() {
	if m.n != nil {
		m.n.Close()
		if d := m.n.Dropped(); d > 0 {
			mlog.Warnf("redis notifier dropped %d events", d)
		}
	}
	if m.db != nil {
		m.db.Stop()
	}
}

type serverModule struct {
	conf     *config.AppConfig
	app      *app.App
	notifier *notifierModule
	srv      *server.Server
}

func (m *serverModule) Name() string {
	return "server"
}

func (m *serverModule) OnInit() error {
	sched, err := server.NewScheduler(m.conf.ToTimerConfig())
	if err != nil {
		return err
	}
	svc := server.NewService(sched, time.Now(), m.conf.Tick())
	if m.notifier != nil {
		svc.SetNotifier(m.notifier.n)
	}
	m.srv = server.NewServer(svc, &server.ServerOpt{
		Options: gnet.Options{
			Multicore:    m.conf.PollerNum == 0,
			NumEventLoop: m.conf.PollerNum,
			ReusePort:    true,
		},
		Addr:         m.conf.ListenAddr,
		Tick:         m.conf.Tick(),
		MaxFrameSize: m.conf.MaxFrameSize,
	})
	mlog.Infof("timer %s capacity %d", m.conf.TimerKind, sched.Cap())
	return nil
}

func (m *serverModule) Run() {
	if err := m.srv.Run(); err != nil {
		mlog.Errorf("server exited: %v", err)
		m.app.Stop()
	}
}

func (m *serverModule) Destroy() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.srv.Stop(ctx); err != nil {
		mlog.Warnf("server stop: %v", err)
	}
}
