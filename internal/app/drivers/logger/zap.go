package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ppm-client/internal/app/config"
)

// NewZapLogger builds the application logger. Output goes to stdout/stderr
// unless file names are configured.
func NewZapLogger(driverConfig *config.DriverConfig, internalConfig *config.InternalConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(driverConfig.Logger.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	outputPaths := []string{"stdout"}
	if driverConfig.Logger.OutputFileName != "" {
		outputPaths = append(outputPaths, driverConfig.Logger.OutputFileName)
	}
	errorOutputPaths := []string{"stderr"}
	if driverConfig.Logger.OutputErrorFileName != "" {
		errorOutputPaths = append(errorOutputPaths, driverConfig.Logger.OutputErrorFileName)
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      internalConfig.App.Env == "development",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorOutputPaths,
		InitialFields: map[string]interface{}{
			"app_env":     internalConfig.App.Env,
			"app_version": internalConfig.App.Version,
			"pid":         os.Getpid(),
		},
	}

	zapLogger, err := zapConfig.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	return zapLogger, nil
}
