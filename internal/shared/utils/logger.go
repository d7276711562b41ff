package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	logDirEnvVar  = "COLLAPSIBLE_LOG_DIR"
	logEchoEnvVar = "COLLAPSIBLE_LOG_STDERR"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to INFO.
func ParseLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// LogCategory selects the file a logger writes to.
type LogCategory string

const (
	LogCategoryService LogCategory = "service"
	LogCategoryProbe   LogCategory = "probe"
)

func (c LogCategory) fileName() string {
	if c == LogCategoryProbe {
		return "collapsible-probe.log"
	}
	return "collapsible-debug.log"
}

// logSink is one open destination shared by every logger of a category.
type logSink struct {
	mu  sync.Mutex
	out *log.Logger // nil when the file could not be opened
}

var (
	sinksMu sync.Mutex
	sinks   = make(map[LogCategory]*logSink)
)

func sinkFor(category LogCategory) *logSink {
	sinksMu.Lock()
	defer sinksMu.Unlock()

	if sink, ok := sinks[category]; ok {
		return sink
	}
	sink := &logSink{}
	if file, err := openLogFile(category); err != nil {
		log.Printf("Failed to open log file: %v", err)
	} else {
		sink.out = log.New(file, "", 0)
	}
	sinks[category] = sink
	return sink
}

func openLogFile(category LogCategory) (*os.File, error) {
	dir := strings.TrimSpace(os.Getenv(logDirEnvVar))
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = home
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, category.fileName()), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// Logger writes leveled, component-tagged lines. Loggers of the same category
// share one file; each keeps its own level.
type Logger struct {
	sink      *logSink
	category  LogCategory
	component string

	levelMu sync.RWMutex
	level   LogLevel
}

// NewComponentLogger creates a service logger for a specific component.
func NewComponentLogger(component string) *Logger {
	return NewCategorizedLogger(LogCategoryService, component)
}

// NewCategorizedLogger creates a logger for a specific category and component.
func NewCategorizedLogger(category LogCategory, component string) *Logger {
	return &Logger{sink: sinkFor(category), category: category, component: component, level: DEBUG}
}

// NewWriterLogger builds a logger that writes to w instead of a log file.
func NewWriterLogger(w io.Writer, component string, level LogLevel) *Logger {
	return &Logger{
		sink:      &logSink{out: log.New(w, "", 0)},
		category:  LogCategoryService,
		component: component,
		level:     level,
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.levelMu.Lock()
	l.level = level
	l.levelMu.Unlock()
}

func (l *Logger) enabled(level LogLevel) bool {
	l.levelMu.RLock()
	defer l.levelMu.RUnlock()
	return level >= l.level
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	if l == nil || l.sink == nil || !l.enabled(level) {
		return
	}

	// Skip log and the exported level method.
	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file, line = "???", 0
	}
	component := l.component
	if component == "" {
		component = "collapsible"
	}

	// 2025-09-30 12:34:56 [INFO] [PROBE] [probe] prober.go:123 - Message
	entry := fmt.Sprintf("%s [%s] [%s] [%s] %s:%d - %s",
		time.Now().Format("2006-01-02 15:04:05"), level, strings.ToUpper(string(l.category)),
		component, file, line, fmt.Sprintf(format, args...))

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.out != nil {
		l.sink.out.Println(entry)
	}
	if os.Getenv(logEchoEnvVar) == "1" {
		fmt.Fprintln(os.Stderr, entry)
	}
}

func (l *Logger) Debug(format string, args ...any) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(ERROR, format, args...) }
