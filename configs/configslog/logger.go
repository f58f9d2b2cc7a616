package configslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the structured logger used across repositories, services and
// handlers. SLog is its sugared twin for printf-style messages.
var (
	Log  *zap.Logger
	SLog *zap.SugaredLogger
)

// Init configures the global loggers. env is "development" or "production";
// anything else falls back to development settings.
func Init(env string) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stdout"}

	logger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		// Logging is not optional; without it the rest of the app is blind.
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	Log = logger
	SLog = logger.Sugar()
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func init() {
	// Tests and tools get a usable logger even without an explicit Init.
	if Log == nil {
		Log = zap.NewNop()
		SLog = Log.Sugar()
	}
}
