package app

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/fixkme/tmrkit/errs"
	"github.com/fixkme/tmrkit/mlog"
)

// 节点全局状态
const (
	AppStateNone = iota // 未开始或已停止
	AppStateInit        // 正在初始化中
	AppStateRun         // 正在运行中
	AppStateStop        // 正在停止中
)

type Module interface {
	OnInit() error // 初始化
	Destroy()      // 销毁
	Run()          // 启动，阻塞直到Destroy
	Name() string  // 名字
}

// App 按注册顺序初始化和启动模块，收到信号后逆序销毁
type App struct {
	mods  []Module
	state int32
	sig   chan os.Signal
	wg    sync.WaitGroup
}

func New() *App {
	return &App{sig: make(chan os.Signal, 1)}
}

func (app *App) setState(s int32) {
	atomic.StoreInt32(&app.state, s)
}

func (app *App) GetState() int32 {
	return atomic.LoadInt32(&app.state)
}

func (app *App) start(mods ...Module) error {
	if app.GetState() != AppStateNone || len(app.mods) != 0 {
		return errs.Config.Print("app cannot start twice")
	}
	mlog.Info("app starting up")
	app.setState(AppStateInit)
	for _, mi := range mods {
		if err := mi.OnInit(); err != nil {
			// 已经初始化的模块逆序销毁
			for i := len(app.mods) - 1; i >= 0; i-- {
				destroy(app.mods[i])
			}
			app.mods = nil
			app.setState(AppStateNone)
			return fmt.Errorf("module %s init error: %w", mi.Name(), err)
		}
		app.mods = append(app.mods, mi)
	}
	for _, m := range app.mods {
		app.wg.Add(1)
		go run(m, &app.wg)
	}
	app.setState(AppStateRun)
	mlog.Info("app started")
	return nil
}

func (app *App) stop() {
	if app.GetState() != AppStateRun {
		return
	}
	mlog.Info("app stop begin")
	app.setState(AppStateStop)
	// 先进后出
	for i := len(app.mods) - 1; i >= 0; i-- {
		m := app.mods[i]
		mlog.Infof("app stop module %s", m.Name())
		destroy(m)
	}
	app.wg.Wait()
	app.setState(AppStateNone)
	mlog.Info("app stopped")
}

func run(m Module, wg *sync.WaitGroup) {
	defer func() {
		if r := recover(); r != nil {
			mlog.Errorf("%s module run panic: %v\n%s", m.Name(), r, debug.Stack())
		}
		wg.Done()
	}()
	m.Run()
}

func destroy(m Module) {
	defer func() {
		if r := recover(); r != nil {
			mlog.Errorf("%s module destroy panic: %v\n%s", m.Name(), r, debug.Stack())
		}
	}()
	m.Destroy()
}

// Run 启动所有模块并阻塞，SIGINT/SIGTERM或Stop之后逆序销毁；SIGHUP忽略
func (app *App) Run(mods ...Module) error {
	if err := app.start(mods...); err != nil {
		return err
	}
	signal.Notify(app.sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(app.sig)
	for {
		sig := <-app.sig
		mlog.Infof("server closing down (signal: %v)", sig)
		if sig != syscall.SIGHUP {
			break
		}
	}
	app.stop()
	return nil
}

func (app *App) Stop() {
	select {
	case app.sig <- syscall.SIGTERM:
	default:
	}
}
