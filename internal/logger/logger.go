package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options - настройки логирования процесса
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // text, json
	File   string // пусто - только stdout

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Factory выдает именованные логгеры с общим выводом.
// Файл ротации открывается один раз на процесс.
type Factory struct {
	opts   Options
	out    io.Writer
	closer io.Closer

	mu      sync.Mutex
	loggers map[string]*logrus.Logger
}

func NewFactory(opts Options) (*Factory, error) {
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 50
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays == 0 {
		opts.MaxAgeDays = 30
	}

	f := &Factory{
		opts:    opts,
		out:     os.Stdout,
		loggers: make(map[string]*logrus.Logger),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		f.out = io.MultiWriter(os.Stdout, fileWriter)
		f.closer = fileWriter
	}

	return f, nil
}

// Get возвращает логгер компонента; поле component добавляется к каждой записи
func (f *Factory) Get(name string) *logrus.Logger {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.loggers[name]; ok {
		return l
	}

	l := newLogger(f.opts, f.out)
	l.AddHook(componentHook{name: name})
	f.loggers[name] = l
	return l
}

// Close закрывает файл лога
func (f *Factory) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func newLogger(opts Options, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return l
}

// Discard - логгер для тестов
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type componentHook struct {
	name string
}

func (h componentHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h componentHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["component"]; !ok {
		entry.Data["component"] = h.name
	}
	return nil
}
