package logger

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger type is interface for available logging methods.
type Logger interface {
	Trace(...interface{})
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
	Panic(...interface{})
	Fatal(...interface{})
}

// LoggerImpl is a struct that extends sirupsen/logrus.
// Each instance owns its logrus.Logger so output and level are never shared through package globals.
type LoggerImpl struct {
	Logger         *log.Entry
	Service        string
	LogLevelStr    string
	PrintStackDump bool
	base           *log.Logger
	file           *os.File
	filePath       string
	mu             *sync.Mutex
}

// NewLogger will create a new logger implementation that writes to stderr.
func NewLogger(serviceName string, level string, stackDumpOnPanic bool) *LoggerImpl {
	l, err := newLogger(serviceName, level, stackDumpOnPanic, os.Stderr)
	if err != nil {
		fmt.Println("Error setting up logging: ", err)
		os.Exit(1)
	}
	l.base.SetFormatter(newTextFormatter(!isatty.IsTerminal(os.Stderr.Fd())))
	return l
}

// NewFileLogger creates a logger that writes every line to stderr and appends it to the file at filePath.
// The file is the execution log that is read back with ReadBack() once the run is complete.
func NewFileLogger(serviceName string, level string, stackDumpOnPanic bool, filePath string) (*LoggerImpl, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create log directory for %q", filePath)
	}
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open log file %q", filePath)
	}
	l, err := newLogger(serviceName, level, stackDumpOnPanic, io.MultiWriter(os.Stderr, f))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	l.base.SetFormatter(newTextFormatter(true)) // no colour codes in the file.
	l.file = f
	l.filePath = filePath
	return l, nil
}

func newLogger(serviceName string, level string, stackDumpOnPanic bool, w io.Writer) (*LoggerImpl, error) {
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	base := log.New()
	base.SetOutput(w)
	base.SetLevel(logLevel)
	entry := base.WithFields(log.Fields{
		"service": serviceName,
	})
	return &LoggerImpl{
		Logger:         entry,
		Service:        serviceName,
		LogLevelStr:    level,
		PrintStackDump: stackDumpOnPanic,
		base:           base,
		mu:             &sync.Mutex{},
	}, nil
}

func newTextFormatter(disableColors bool) *log.TextFormatter {
	return &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		DisableColors:   disableColors,
	}
}

// WithField returns a copy of the logger that adds key=value to every line.
// The copy shares output and the log file with its parent.
func (l *LoggerImpl) WithField(key string, value interface{}) *LoggerImpl {
	c := *l
	c.Logger = l.Logger.WithField(key, value)
	return &c
}

// Trace log.
func (l *LoggerImpl) Trace(message ...interface{}) {
	l.Logger.Trace(message...)
}

// Debug log.
func (l *LoggerImpl) Debug(message ...interface{}) {
	l.Logger.Debug(message...)
}

// Info log.
func (l *LoggerImpl) Info(message ...interface{}) {
	l.Logger.Info(message...)
}

// Warn log.
func (l *LoggerImpl) Warn(message ...interface{}) {
	l.Logger.Warn(message...)
}

// Error (with stack trace if the user asked for stack dumps).
func (l *LoggerImpl) Error(message ...interface{}) {
	if l.PrintStackDump {
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Error(message...)
	} else {
		l.Logger.Error(message...)
	}
}

// Panic (with stack trace in debug mode, or if user explicitly sets PrintStackDump).
func (l *LoggerImpl) Panic(message ...interface{}) {
	if l.PrintStackDump || l.LogLevelStr == "debug" || l.LogLevelStr == "trace" {
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Panic(message...)
	} else { // else log the message and quit without a stack dump...
		l.Logger.Fatal(message...)
	}
}

// Fatal causes exit(1) without a stack dump by default.
// Call Panic() to get a stack dump instead.
func (l *LoggerImpl) Fatal(message ...interface{}) {
	if l.LogLevelStr == "debug" || l.LogLevelStr == "trace" {
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Fatal(message...)
	} else {
		l.Logger.Fatal(message...)
	}
}

// SetOutput will set the log output to the Writer supplied.
// A log file opened by NewFileLogger keeps receiving output.
func (l *LoggerImpl) SetOutput(writer io.Writer) {
	if l.file != nil {
		writer = io.MultiWriter(writer, l.file)
	}
	l.base.SetOutput(writer)
}

// SetFormatter replaces the formatter e.g. with &logrus.JSONFormatter{}.
func (l *LoggerImpl) SetFormatter(f log.Formatter) {
	l.base.SetFormatter(f)
}

// FilePath returns the path of the execution log or empty string if there is no file.
func (l *LoggerImpl) FilePath() string {
	return l.filePath
}

// Flush commits the log file to stable storage so it can be read back in full.
func (l *LoggerImpl) Flush() error {
	if l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Sync()
}

// ReadBack flushes and returns the whole execution log.
func (l *LoggerImpl) ReadBack() ([]byte, error) {
	if l.file == nil {
		return nil, errors.New("logger has no log file to read back")
	}
	if err := l.Flush(); err != nil {
		return nil, errors.Wrap(err, "unable to flush log file")
	}
	return ioutil.ReadFile(l.filePath)
}

// Close closes the log file. Further output goes to stderr only.
func (l *LoggerImpl) Close() error {
	if l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.base.SetOutput(os.Stderr)
	err := l.file.Close()
	l.file = nil
	return err
}
