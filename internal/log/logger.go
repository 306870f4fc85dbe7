// Package log provides structured logging via logrus, following the
// teacher's console-plus-rotated-file layering: a
// logrus-prefixed-formatter console writer, and an optional
// lumberjack-rotated file writer when Config.File is set.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a *logrus.Logger from cfg. The detector and grouper do not
// log through it; they report resets, emissions and finalized groups
// through their Observer interfaces instead (SPEC_FULL §6.2).
func New(cfg Config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(strings.ToLower(orDefault(cfg.Level, "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		ForceFormatting: true,
	})

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}
	l.SetOutput(out)

	return l, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
