package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

// Log levels
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// levelColors maps log levels to ANSI color codes
var levelColors = map[LogLevel]string{
	DEBUG: "\033[36m", // Cyan
	INFO:  "\033[32m", // Green
	WARN:  "\033[33m", // Yellow
	ERROR: "\033[31m", // Red
	FATAL: "\033[35m", // Magenta
}

// levelPrefixes maps log levels to text prefixes
var levelPrefixes = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO ",
	WARN:  "WARN ",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// ParseLevel converts a level name to a LogLevel. Unknown names map to INFO.
func ParseLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// String returns the level name.
func (l LogLevel) String() string {
	if p, ok := levelPrefixes[l]; ok {
		return strings.TrimSpace(p)
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// sink is the writer shared between a logger and its named children.
type sink struct {
	mutex     sync.Mutex
	out       io.Writer
	file      *os.File
	useColors bool
	level     LogLevel
	exit      func(int)
}

// Logger handles logging for the renderer and its subsystems.
//
// A Logger is safe for concurrent use; worker goroutines of the
// rasterization pass and the presenter log through the same sink.
type Logger struct {
	sink      *sink
	component string
}

// NewLogger creates a new logger with the specified log level writing to stdout
func NewLogger(levelStr string) *Logger {
	s := &sink{
		out:       os.Stdout,
		level:     ParseLevel(levelStr),
		useColors: isTerminal(os.Stdout),
		exit:      os.Exit,
	}
	return &Logger{sink: s}
}

// NewFileLogger creates a new logger that writes to a file
func NewFileLogger(levelStr, filePath string) (*Logger, error) {
	file, err := openLogFile(filePath)
	if err != nil {
		return nil, err
	}

	l := NewLogger(levelStr)
	l.sink.out = file
	l.sink.file = file
	l.sink.useColors = false
	return l, nil
}

// NewMultiLogger creates a logger that writes to both console and file
func NewMultiLogger(levelStr, filePath string) (*Logger, error) {
	file, err := openLogFile(filePath)
	if err != nil {
		return nil, err
	}

	l := NewLogger(levelStr)
	l.sink.out = io.MultiWriter(os.Stdout, file)
	l.sink.file = file
	return l, nil
}

// NewWriterLogger creates a logger writing to w without colors.
func NewWriterLogger(levelStr string, w io.Writer) *Logger {
	l := NewLogger(levelStr)
	l.sink.out = w
	l.sink.useColors = false
	return l
}

// Discard returns a logger that drops every message.
func Discard() *Logger {
	return NewWriterLogger("fatal", io.Discard)
}

func openLogFile(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}
	return file, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Named returns a child logger whose messages are prefixed with component.
// The child shares level, output and file with its parent.
func (l *Logger) Named(component string) *Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &Logger{sink: l.sink, component: component}
}

// output formats and writes one message. depth is the caller depth of the
// public logging method.
func (l *Logger) output(level LogLevel, depth int, msg string) {
	s := l.sink
	s.mutex.Lock()
	if level < s.level {
		s.mutex.Unlock()
		return
	}

	_, file, line, ok := runtime.Caller(depth)
	if !ok {
		file = "unknown"
		line = 0
	}
	file = filepath.Base(file)

	now := time.Now().Format("2006/01/02 15:04:05")
	prefix := fmt.Sprintf("%s [%s] %s:%d:", now, levelPrefixes[level], file, line)
	if s.useColors {
		prefix = levelColors[level] + prefix + "\033[0m"
	}
	if l.component != "" {
		prefix += " " + l.component + ":"
	}

	fmt.Fprintln(s.out, prefix, msg)

	if level == FATAL {
		if s.file != nil {
			s.file.Close()
			s.file = nil
		}
		s.mutex.Unlock()
		s.exit(1)
		return
	}
	s.mutex.Unlock()
}

// enabled reports whether messages at level would be written.
func (l *Logger) enabled(level LogLevel) bool {
	l.sink.mutex.Lock()
	defer l.sink.mutex.Unlock()
	return level >= l.sink.level
}

// Debug logs a debug message
func (l *Logger) Debug(v ...interface{}) {
	l.output(DEBUG, 2, fmt.Sprint(v...))
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, v ...interface{}) {
	if !l.enabled(DEBUG) {
		return
	}
	l.output(DEBUG, 2, fmt.Sprintf(format, v...))
}

// Info logs an info message
func (l *Logger) Info(v ...interface{}) {
	l.output(INFO, 2, fmt.Sprint(v...))
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.output(INFO, 2, fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func (l *Logger) Warn(v ...interface{}) {
	l.output(WARN, 2, fmt.Sprint(v...))
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.output(WARN, 2, fmt.Sprintf(format, v...))
}

// Error logs an error message
func (l *Logger) Error(v ...interface{}) {
	l.output(ERROR, 2, fmt.Sprint(v...))
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.output(ERROR, 2, fmt.Sprintf(format, v...))
}

// Fatal logs a fatal message and exits the program
func (l *Logger) Fatal(v ...interface{}) {
	l.output(FATAL, 2, fmt.Sprint(v...))
}

// Fatalf logs a formatted fatal message and exits the program
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.output(FATAL, 2, fmt.Sprintf(format, v...))
}

// SetLevel sets the log level
func (l *Logger) SetLevel(levelStr string) {
	l.sink.mutex.Lock()
	l.sink.level = ParseLevel(levelStr)
	l.sink.mutex.Unlock()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.sink.mutex.Lock()
	defer l.sink.mutex.Unlock()
	return l.sink.level
}

// SetOutput sets the output writer for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mutex.Lock()
	l.sink.out = w
	l.sink.mutex.Unlock()
}

// EnableColors enables or disables colored output
func (l *Logger) EnableColors(enable bool) {
	l.sink.mutex.Lock()
	l.sink.useColors = enable
	l.sink.mutex.Unlock()
}

// Close closes the logger's file if it exists
func (l *Logger) Close() {
	l.sink.mutex.Lock()
	defer l.sink.mutex.Unlock()
	if l.sink.file != nil {
		l.sink.file.Close()
		l.sink.file = nil
	}
}
