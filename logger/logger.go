package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-mmpa/functions/config"
	"github.com/open-mmpa/functions/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger. Output always goes to stdout, which
// the function host collects; when a log directory is configured a rotated
// file copy is kept as well.
func NewLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	var output io.Writer = os.Stdout
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "failed to create log directory")
		}

		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "functions.log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		output = io.MultiWriter(os.Stdout, logFile)
	}
	log.SetOutput(output)

	return log, nil
}

// Setup builds the process logger and, when enabled, forwards warnings and
// errors to Cloud Logging. The returned func flushes the cloud sink. A cloud
// sink that cannot be created is reported and skipped.
func Setup(ctx context.Context, cfg *config.Config) (*logrus.Logger, func() error, error) {
	log, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	noop := func() error { return nil }
	if !cfg.Log.CloudEnabled {
		return log, noop, nil
	}

	hook, err := NewCloudHook(ctx, cfg.ProjectID, cfg.Log.CloudLogID)
	if err != nil {
		log.WithError(err).Warn("Cloud logging disabled")
		return log, noop, nil
	}
	log.AddHook(hook)

	return log, hook.Close, nil
}
