package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log and SLog are the process-wide loggers. They are no-ops until Init is called.
var (
	Log  = zap.NewNop()
	SLog = Log.Sugar()
)

// Init builds the process logger for the given environment.
func Init(env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the process logger.
func Set(l *zap.Logger) {
	Log = l
	SLog = l.Sugar()
}

// Sync flushes buffered entries. The error from syncing stderr is ignored.
func Sync() {
	_ = Log.Sync()
}
