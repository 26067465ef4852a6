package logx

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Logger 日志接口定义
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Error(args ...interface{})
}

// Level 日志级别
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// ParseLevel 解析配置中的日志级别，无法识别时返回 info
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "", "info":
		return LevelInfo, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// DefaultLogger 实现
type DefaultLogger struct {
	level atomic.Int32
	debug *log.Logger
	info  *log.Logger
	error *log.Logger
}

func NewDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stdout, os.Stderr, LevelInfo, EnableColor())
}

// NewLogger 创建指定输出与级别的 logger，out 接收 debug/info，errOut 接收 error
func NewLogger(out, errOut io.Writer, level Level, color bool) *DefaultLogger {
	const flags = log.LstdFlags | log.Lmicroseconds | log.Lshortfile
	l := &DefaultLogger{
		debug: log.New(out, levelPrefix("[DEBUG] ", cyan, color), flags),
		info:  log.New(out, levelPrefix("[INFO] ", green, color), flags),
		error: log.New(errOut, levelPrefix("[ERROR] ", red, color), flags),
	}
	l.SetLevel(level)
	return l
}

func (l *DefaultLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *DefaultLogger) enabled(level Level) bool {
	return Level(l.level.Load()) <= level
}

// calldepth 2 让 Lshortfile 指向调用方而不是本文件
func (l *DefaultLogger) Debug(args ...interface{}) {
	if l.enabled(LevelDebug) {
		_ = l.debug.Output(2, sprintln(args...))
	}
}

func (l *DefaultLogger) Info(args ...interface{}) {
	if l.enabled(LevelInfo) {
		_ = l.info.Output(2, sprintln(args...))
	}
}

func (l *DefaultLogger) Error(args ...interface{}) {
	if l.enabled(LevelError) {
		_ = l.error.Output(2, sprintln(args...))
	}
}

// Discard 丢弃所有日志，测试中使用
type Discard struct{}

func (Discard) Debug(args ...interface{}) {}
func (Discard) Info(args ...interface{})  {}
func (Discard) Error(args ...interface{}) {}
