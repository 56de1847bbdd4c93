// Package log provides structured logging for the traversal harvester.
//
// Two logger variants are available:
//   - Logger: non-sugared zap.Logger for core engine paths (structured fields)
//   - SugaredLogger: printf-style logging for CLI/debug surfaces
//
// Grounded on pithecene-io-quarry's log package: a thin wrapper threaded
// explicitly from the top (Service) down to every component that needs
// it, rather than a global singleton.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with the context fields every core-path entry
// in travharv carries: config_name, and task_id when applicable.
//
// Use this for core runtime paths where performance matters.
// For CLI/debug surfaces, use Sugar() to get a SugaredLogger.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI and debug surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

// New returns a Logger writing JSON to os.Stderr, with no context fields
// bound. Call WithConfig to attach a config_name for the duration of a
// config run.
func New() *Logger {
	return newWithWriter(os.Stderr)
}

// FromConfigFile builds a Logger from a JSON-encoded zap.Config file,
// the CLI's --logconf flag. This is the same marshalled shape
// zap.Config's own struct tags produce, so an operator can dump a
// working config with zap and edit it rather than learn a bespoke
// format.
func FromConfigFile(path string) (*Logger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("log: read config %s: %w", path, err)
	}
	var cfg zap.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("log: parse config %s: %w", path, err)
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("log: build logger from %s: %w", path, err)
	}
	return &Logger{zap: zl}, nil
}

// WithOutput returns a new logger writing JSON at debug level to w.
// The new core replaces l's core, so context fields already bound
// with WithConfig/WithTask are not carried over.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

func newWithWriter(w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return &Logger{zap: zap.New(core)}
}

// WithConfig returns a logger with config_name bound to every entry;
// Executor binds it for one config's run.
func (l *Logger) WithConfig(configName string) *Logger {
	return &Logger{zap: l.zap.With(zap.String("config_name", configName))}
}

// WithTask returns a logger with taskID additionally bound as task_id.
func (l *Logger) WithTask(taskID string) *Logger {
	return &Logger{zap: l.zap.With(zap.String("task_id", taskID))}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields ...zap.Field) { l.zap.Debug(message, fields...) }

// Info logs an info message.
func (l *Logger) Info(message string, fields ...zap.Field) { l.zap.Info(message, fields...) }

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields ...zap.Field) { l.zap.Warn(message, fields...) }

// Error logs an error message.
func (l *Logger) Error(message string, fields ...zap.Field) { l.zap.Error(message, fields...) }

// Sugar returns a SugaredLogger for printf-style logging.
// Use for CLI/debug surfaces where convenience matters more than performance.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) { s.sugar.Debugf(template, args...) }

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) { s.sugar.Infof(template, args...) }

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) { s.sugar.Warnf(template, args...) }

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) { s.sugar.Errorf(template, args...) }

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
