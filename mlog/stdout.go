package mlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// stdoutLogger 同步输出，测试里可以换成任意io.Writer
type stdoutLogger struct {
	level Level
	ll    *log.Logger
	exit  func(int)
}

func newStdoutLogger(level Level) *stdoutLogger {
	return newWriterLogger(os.Stdout, level)
}

// NewWriterLogger 同步写到w
func NewWriterLogger(w io.Writer, level Level) Logger {
	return newWriterLogger(w, level)
}

func newWriterLogger(w io.Writer, level Level) *stdoutLogger {
	return &stdoutLogger{
		level: level,
		ll:    log.New(w, "", log.Ldate|log.Lmicroseconds),
		exit:  os.Exit,
	}
}

func (l *stdoutLogger) IsLevelEnabled(level Level) bool {
	return l.level >= level
}

func (l *stdoutLogger) Log(level Level, args ...any) {
	if l.IsLevelEnabled(level) {
		l.ll.Println(getLevelTag(level) + fmt.Sprint(args...))
	}
}

func (l *stdoutLogger) Logf(level Level, format string, args ...any) {
	if l.IsLevelEnabled(level) {
		l.ll.Println(getLevelTag(level) + fmt.Sprintf(format, args...))
	}
}

func (l *stdoutLogger) Trace(v ...any) {
	l.Log(TraceLevel, v...)
}

func (l *stdoutLogger) Tracef(format string, v ...any) {
	l.Logf(TraceLevel, format, v...)
}

func (l *stdoutLogger) Debug(v ...any) {
	l.Log(DebugLevel, v...)
}

func (l *stdoutLogger) Debugf(format string, v ...any) {
	l.Logf(DebugLevel, format, v...)
}

func (l *stdoutLogger) Info(v ...any) {
	l.Log(InfoLevel, v...)
}

func (l *stdoutLogger) Infof(format string, v ...any) {
	l.Logf(InfoLevel, format, v...)
}

func (l *stdoutLogger) Notice(v ...any) {
	l.Log(NoticeLevel, v...)
}

func (l *stdoutLogger) Noticef(format string, v ...any) {
	l.Logf(NoticeLevel, format, v...)
}

func (l *stdoutLogger) Warn(v ...any) {
	l.Log(WarnLevel, v...)
}

func (l *stdoutLogger) Warnf(format string, v ...any) {
	l.Logf(WarnLevel, format, v...)
}

func (l *stdoutLogger) Error(v ...any) {
	l.Log(ErrorLevel, v...)
}

func (l *stdoutLogger) Errorf(format string, v ...any) {
	l.Logf(ErrorLevel, format, v...)
}

func (l *stdoutLogger) Fatal(v ...any) {
	l.Log(FatalLevel, v...)
	l.exit(1)
}

func (l *stdoutLogger) Fatalf(format string, v ...any) {
	l.Logf(FatalLevel, format, v...)
	l.exit(1)
}
