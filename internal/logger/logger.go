package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	out      io.Writer
	jsonOut  io.Writer
	closer   io.Closer
	minLevel LogLevel
}

// FileOptions controls the rolling JSON log file. Zero sizes fall back to defaults.
type FileOptions struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogger writes colored lines to stdout and JSON lines to dir/rental-location.log.
func NewLogger(dir string) *Logger {
	return NewRotatingLogger(FileOptions{Dir: dir})
}

// NewRotatingLogger is NewLogger with explicit rotation limits for the JSON file.
func NewRotatingLogger(opts FileOptions) *Logger {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		log.Fatal("Failed to create logs directory:", err)
	}

	logFileName := filepath.Join(opts.Dir, "rental-location.log")
	file := &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    orDefault(opts.MaxSizeMB, 100),
		MaxBackups: orDefault(opts.MaxBackups, 7),
		MaxAge:     orDefault(opts.MaxAgeDays, 14),
		Compress:   opts.Compress,
	}

	logger := &Logger{
		out:      os.Stdout,
		jsonOut:  file,
		closer:   file,
		minLevel: DEBUG,
	}

	logger.Info("LOGGER", "Logging system initialized")
	logger.Info("LOGGER", fmt.Sprintf("Log file: %s", logFileName))

	return logger
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// NewWriterLogger logs plain JSON lines to w only. Used by tests and tools.
func NewWriterLogger(w io.Writer) *Logger {
	color.NoColor = true
	return &Logger{jsonOut: w, minLevel: DEBUG}
}

// SetLevel drops entries below level.
func (l *Logger) SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.minLevel = DEBUG
	case "WARN":
		l.minLevel = WARN
	case "ERROR":
		l.minLevel = ERROR
	default:
		l.minLevel = INFO
	}
}

func (l *Logger) log(level LogLevel, category, message string) {
	if level < l.minLevel && level != FATAL {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     l.levelToString(level),
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	if l.out != nil {
		fmt.Fprint(l.out, l.formatTerminalOutput(entry))
	}
	if l.jsonOut != nil {
		io.WriteString(l.jsonOut, l.formatJSONOutput(entry)+"\n")
	}
}

var levelColors = map[string][]color.Attribute{
	"DEBUG": {color.FgCyan},
	"INFO":  {color.FgGreen},
	"WARN":  {color.FgYellow},
	"ERROR": {color.FgRed},
	"FATAL": {color.FgRed, color.Bold},
}

func (l *Logger) formatTerminalOutput(entry LogEntry) string {
	attrs, ok := levelColors[entry.Level]
	if !ok {
		attrs = []color.Attribute{color.FgWhite}
	}
	levelStr := color.New(attrs...).Sprintf("%-5s", entry.Level)
	categoryStr := color.New(append([]color.Attribute{attrs[0]}, color.Bold)...).Sprintf("[%-10s]", entry.Category)
	timeStr := color.New(color.FgBlue).Sprint(entry.Timestamp[11:19])

	line := fmt.Sprintf("%s %s %s %s", timeStr, levelStr, categoryStr, entry.Message)
	if entry.File != "" && entry.Line > 0 {
		line += color.New(color.FgMagenta).Sprintf(" (%s:%d)", entry.File, entry.Line)
	}
	return line + "\n"
}

func (l *Logger) formatJSONOutput(entry LogEntry) string {
	jsonBytes, _ := json.Marshal(entry)
	return string(jsonBytes)
}

var levelNames = [...]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR", FATAL: "FATAL"}

func (l *Logger) levelToString(level LogLevel) string {
	if level < DEBUG || int(level) >= len(levelNames) {
		return "INFO"
	}
	return levelNames[level]
}

// Public logging methods
func (l *Logger) Debug(category, message string) {
	l.log(DEBUG, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(INFO, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(WARN, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(ERROR, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	os.Exit(1)
}

// Specialized logging methods for different components
func (l *Logger) LogRental(action, logID, message string) {
	l.Info("RENTAL", fmt.Sprintf("[%s] %s - %s", action, logID, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogLive(workDate, message string) {
	l.Debug("LIVE", fmt.Sprintf("[%s] %s", workDate, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

func (l *Logger) Close() {
	if l.closer != nil {
		l.Info("LOGGER", "Closing log file")
		l.closer.Close()
	}
}
