package mlog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultDirMode  os.FileMode = 0755
	defaultFileMode os.FileMode = 0644
	defaultFileFlag int         = os.O_APPEND | os.O_CREATE | os.O_WRONLY

	rotateSize     = int64(100 * 1024 * 1024) // 100 MB
	rotateInterval = 30 * time.Second
)

// fileLogger 日志先进缓冲channel，由单独的协程写文件并按大小切割
type fileLogger struct {
	file   *os.File
	ll     *log.Logger
	buff   chan string
	level  Level
	stdOut bool
}

func newFileLogger(logpath, logName string, level Level, stdOut bool) (*fileLogger, error) {
	// 默认使用当前路径
	if len(logpath) == 0 {
		logpath = "."
	}
	logfile, err := openFile(filepath.Join(logpath, genLogName(logName)))
	if err != nil {
		return nil, err
	}
	if stdOut {
		log.SetFlags(log.Ldate | log.Lmicroseconds)
	}
	return &fileLogger{
		ll:     log.New(logfile, "", log.Ldate|log.Lmicroseconds),
		file:   logfile,
		buff:   make(chan string, 0x10000),
		level:  level,
		stdOut: stdOut,
	}, nil
}

func (me *fileLogger) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("mlog recover error %v\n", r)
			}
			me.file.Close()
			wg.Done()
		}()

		timer := time.NewTimer(rotateInterval)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				me.drain()
				return
			case str := <-me.buff:
				me.write(str)
			case <-timer.C:
				me.rotate()
				timer.Reset(rotateInterval)
			}
		}
	}()
}

func (me *fileLogger) write(str string) {
	if me.stdOut {
		log.Println(str)
	}
	me.ll.Println(str)
}

func (me *fileLogger) drain() {
	for {
		select {
		case str := <-me.buff:
			me.write(str)
		default:
			return
		}
	}
}

func (me *fileLogger) rotate() {
	size, err := getFileSize(me.file.Name())
	if err != nil {
		log.Println("mlog getFileSize error", err)
		return
	}
	if size <= rotateSize {
		return
	}
	file, err := rotateLogFile(me.file.Name())
	if err != nil {
		log.Println("mlog rotateLogFile error", err)
		return
	}
	me.ll.SetOutput(file)
	me.file.Close()
	me.file = file
}

func (me *fileLogger) IsLevelEnabled(level Level) bool {
	return me.level >= level
}

func (me *fileLogger) push(level Level, msg string) {
	me.buff <- getLevelTag(level) + msg
}

func (me *fileLogger) log(level Level, args ...any) {
	if me.IsLevelEnabled(level) {
		me.push(level, fmt.Sprint(args...))
	}
}

func (me *fileLogger) logf(level Level, format string, args ...any) {
	if me.IsLevelEnabled(level) {
		me.push(level, fmt.Sprintf(format, args...))
	}
}

func (me *fileLogger) Trace(args ...any) {
	me.log(TraceLevel, args...)
}

func (me *fileLogger) Tracef(format string, args ...any) {
	me.logf(TraceLevel, format, args...)
}

func (me *fileLogger) Debug(args ...any) {
	me.log(DebugLevel, args...)
}

func (me *fileLogger) Debugf(format string, args ...any) {
	me.logf(DebugLevel, format, args...)
}

func (me *fileLogger) Info(args ...any) {
	me.log(InfoLevel, args...)
}

func (me *fileLogger) Infof(format string, args ...any) {
	me.logf(InfoLevel, format, args...)
}

func (me *fileLogger) Notice(args ...any) {
	me.log(NoticeLevel, args...)
}

func (me *fileLogger) Noticef(format string, args ...any) {
	me.logf(NoticeLevel, format, args...)
}

func (me *fileLogger) Warn(args ...any) {
	me.log(WarnLevel, args...)
}

func (me *fileLogger) Warnf(format string, args ...any) {
	me.logf(WarnLevel, format, args...)
}

func (me *fileLogger) Error(args ...any) {
	me.log(ErrorLevel, args...)
}

func (me *fileLogger) Errorf(format string, args ...any) {
	me.logf(ErrorLevel, format, args...)
}

func (me *fileLogger) Fatal(args ...any) {
	me.log(FatalLevel, args...)
	time.Sleep(time.Second)
	os.Exit(1)
}

func (me *fileLogger) Fatalf(format string, args ...any) {
	me.logf(FatalLevel, format, args...)
	time.Sleep(time.Second)
	os.Exit(1)
}

func genLogName(logName string) string {
	if logName == "" {
		logName = "mlog"
	}
	return logName + ".log"
}

func openFile(fullpath string) (*os.File, error) {
	fullpath = strings.ReplaceAll(fullpath, "\\", "/")
	dir := filepath.Dir(fullpath)
	if _, err := os.Stat(dir); err != nil && !os.IsExist(err) {
		if err = os.MkdirAll(dir, defaultDirMode); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(fullpath, defaultFileFlag, defaultFileMode)
}

func getFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}

func rotateLogFile(filePath string) (*os.File, error) {
	timestamp := time.Now().Format("20060102_150405")
	newFilePath := fmt.Sprintf("%s.%s", filePath, timestamp)
	if err := os.Rename(filePath, newFilePath); err != nil {
		return nil, err
	}
	return os.Create(filePath)
}
