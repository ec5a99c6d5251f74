package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	standardErrorOutputPathConstant      = "stderr"
	jsonZapEncodingConstant              = "json"
	consoleZapEncodingConstant           = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

// LoggerFactory builds zap loggers that write only to standard error, so
// rendered reports own standard output.
type LoggerFactory struct{}

// NewLoggerFactory constructs a logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a logger honoring the requested level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch requestedLogLevel {
	case LogLevelDebug:
		zapLevel = zapcore.DebugLevel
	case LogLevelInfo:
		zapLevel = zapcore.InfoLevel
	case LogLevelWarn:
		zapLevel = zapcore.WarnLevel
	case LogLevelError:
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	var zapEncoding string
	switch requestedLogFormat {
	case LogFormatStructured:
		zapEncoding = jsonZapEncodingConstant
	case LogFormatConsole:
		zapEncoding = consoleZapEncodingConstant
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	loggerConfiguration := zap.NewProductionConfig()
	loggerConfiguration.Level = zap.NewAtomicLevelAt(zapLevel)
	loggerConfiguration.Encoding = zapEncoding
	loggerConfiguration.OutputPaths = []string{standardErrorOutputPathConstant}
	loggerConfiguration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}
	loggerConfiguration.Sampling = nil

	return loggerConfiguration.Build()
}
