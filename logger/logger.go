// Package logger holds the process-wide zap logger used by canopy.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger. Components take a Named child of it.
	Logger *zap.SugaredLogger
	// JSONOutput reports whether Initialize selected the JSON encoder
	JSONOutput bool

	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

func init() {
	// quiet until Initialize runs so library code and tests print nothing
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger on stderr; stdout is reserved for
// command results. JSON output is meant for log shippers and CI.
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	SetVerbosity(verbosity)

	var encoder zapcore.Encoder
	if jsonOutput {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		encoder = newConsoleEncoder()
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	Logger = zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()
	return nil
}

// SetVerbosity changes the level of every logger derived from Logger,
// including component loggers handed out earlier.
func SetVerbosity(verbosity int) {
	level.SetLevel(VerbosityToLevel(verbosity))
}

// newConsoleEncoder drops caller and stack noise from the console output
func newConsoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	cfg.ConsoleSeparator = " "
	return zapcore.NewConsoleEncoder(cfg)
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		// syncing a terminal stderr fails with EINVAL on linux; nothing is lost
		_ = Logger.Sync()
	}
}
