package ctx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	convCfg "github.com/sofmon/actuator/lib/cfg"
)

const (
	configKeyLoggingLevel convCfg.ConfigKey = "logging_level"
	configKeyLoggingFile  convCfg.ConfigKey = "logging_file"
)

var (
	logOutput     io.Writer
	logOutputOnce sync.Once
)

// output is stdout, teed into "logging_file" when configured so the
// logfile endpoint serves what the service logs.
func output() io.Writer {
	logOutputOnce.Do(func() {
		logOutput = os.Stdout

		path := convCfg.StringOrDefault(configKeyLoggingFile, "")
		if path == "" {
			return
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v\n", path, err)
			return
		}

		logOutput = io.MultiWriter(os.Stdout, f)
	})
	return logOutput
}

// level reads "logging_level" (debug, info, warn, error); info by default.
func level() (l slog.Level) {
	err := l.UnmarshalText([]byte(convCfg.StringOrDefault(configKeyLoggingLevel, "info")))
	if err != nil {
		return slog.LevelInfo
	}
	return
}

func defaultLogger() *slog.Logger {
	return slog.New(
		slog.NewJSONHandler(
			output(),
			&slog.HandlerOptions{
				Level:     level(),
				AddSource: true,
			},
		),
	)
}

func (ctx Context) Logger() *slog.Logger {
	logger, _ := ctx.Value(contextKeyLogger).(*slog.Logger)
	if logger == nil {
		logger = defaultLogger()
	}
	return logger
}

func (ctx Context) WithLogger(logger *slog.Logger) Context {
	return ctx.with(contextKeyLogger, logger)
}
