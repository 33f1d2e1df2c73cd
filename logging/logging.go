// Package logging - Zap logger construction shared by the commands.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ModeRelease selects JSON production logging.
	ModeRelease = "release"
	// ModeDebug selects colored console logging.
	ModeDebug = "debug"
)

// New builds a logger for mode. Release mode logs JSON at info level, any
// other mode logs colored console output at debug level.
//
// Arguments:
//   - mode: ModeRelease or ModeDebug.
//   - level: Optional level override ("debug", "info", "warn", "error"); empty keeps the mode default.
//
// Returns:
//   - *zap.Logger: The logger.
//   - error: An error if the level is unknown or the logger cannot be built.
func New(mode, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(mode, ModeRelease) {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing log level %q", level)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return logger, nil
}

// Sync flushes logger, ignoring the errors stderr returns on some platforms.
func Sync(logger *zap.Logger) {
	if logger != nil {
		_ = logger.Sync()
	}
}
