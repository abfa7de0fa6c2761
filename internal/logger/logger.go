package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Config 日志配置
type Config struct {
	Level  string
	Output string // stdout / stderr / 文件路径
	Pretty bool   // 本地调试用的彩色输出
}

// Init 初始化全局 logger，只生效一次
func Init(cfg Config) {
	once.Do(func() {
		level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil || cfg.Level == "" {
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		out := openOutput(cfg.Output)
		if cfg.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
		}

		logger = zerolog.New(out).With().Timestamp().Logger()
		zerolog.DefaultContextLogger = &logger
	})
}

func openOutput(target string) io.Writer {
	switch target {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create log dir: %v\n", err)
			return os.Stderr
		}
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		return os.Stderr
	}
	return f
}

// Get 返回全局 logger
func Get() *zerolog.Logger {
	return &logger
}

// With 返回带固定字段的子 logger，例如 component=collector
func With(key, value string) zerolog.Logger {
	return logger.With().Str(key, value).Logger()
}

func Info() *zerolog.Event  { return logger.Info() }
func Warn() *zerolog.Event  { return logger.Warn() }
func Error() *zerolog.Event { return logger.Error() }
func Debug() *zerolog.Event { return logger.Debug() }
