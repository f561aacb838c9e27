package logger

import (
	"context"

	"cloud.google.com/go/logging"
	"github.com/open-mmpa/functions/errors"
	"github.com/sirupsen/logrus"
)

type entryLogger interface {
	Log(e logging.Entry)
	LogSync(ctx context.Context, e logging.Entry) error
}

// CloudHook forwards warning and error entries to Cloud Logging so
// downstream failures land in the project's central log sink. Error and
// above are written synchronously; a function instance may be frozen
// before a buffered entry is flushed.
type CloudHook struct {
	client *logging.Client
	logger entryLogger
}

func NewCloudHook(ctx context.Context, projectID, logID string) (*CloudHook, error) {
	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cloud logging client")
	}

	return &CloudHook{
		client: client,
		logger: client.Logger(logID),
	}, nil
}

func (h *CloudHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
	}
}

func (h *CloudHook) Fire(entry *logrus.Entry) error {
	payload := make(map[string]interface{}, len(entry.Data)+1)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			payload[k] = err.Error()
			continue
		}
		payload[k] = v
	}
	payload["message"] = entry.Message

	e := logging.Entry{
		Timestamp: entry.Time,
		Severity:  severity(entry.Level),
		Payload:   payload,
	}

	if entry.Level > logrus.ErrorLevel {
		h.logger.Log(e)
		return nil
	}

	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := h.logger.LogSync(ctx, e); err != nil {
		return errors.Wrap(err, "failed to write cloud log entry")
	}
	return nil
}

// Close flushes buffered entries.
func (h *CloudHook) Close() error {
	if h.client == nil {
		return nil
	}
	return h.client.Close()
}

func severity(level logrus.Level) logging.Severity {
	switch level {
	case logrus.PanicLevel:
		return logging.Emergency
	case logrus.FatalLevel:
		return logging.Critical
	case logrus.ErrorLevel:
		return logging.Error
	case logrus.WarnLevel:
		return logging.Warning
	case logrus.InfoLevel:
		return logging.Info
	default:
		return logging.Debug
	}
}
