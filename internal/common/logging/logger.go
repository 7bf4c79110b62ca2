package logging

import (
	"fmt"
	"os"
	"time"
)

// NewDefaultLogger creates an info-level console logger writing to stdout
func NewDefaultLogger() Logger {
	logger, err := NewZapLogger(LogConfig{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: FormatConsole,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	return logger
}

// InitGlobalLogger configures the global logger from LOG_LEVEL, LOG_FORMAT and LOG_FILE.
// An empty LOG_FILE keeps output on stdout.
func InitGlobalLogger() error {
	config := LogConfig{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: FormatConsole,
		Name:   "enchantment-resolver",
	}
	if os.Getenv("LOG_FORMAT") == string(FormatJSON) {
		config.Format = FormatJSON
	}

	logFileName := os.Getenv("LOG_FILE")
	if logFileName != "" {
		file, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logFileName, err)
		}
		config.Output = file
	}

	logger, err := NewZapLogger(config)
	if err != nil {
		return err
	}
	SetGlobalLogger(logger)

	logger.Info("Logger initialized",
		Field{"level", config.Level.String()},
		Field{"format", string(config.Format)},
		Field{"log_file", logFileName},
	)
	return nil
}

// MustSync flushes buffered entries of the global logger. Call before exit.
func MustSync() {
	if zapLogger, ok := GetGlobalLogger().(*ZapAdapter); ok {
		_ = zapLogger.Sync()
	}
}

// Err creates an error field with key "error"
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Ints(key string, values []int) Field {
	return Field{Key: key, Value: values}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}
