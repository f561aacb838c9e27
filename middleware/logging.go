package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	TraceKey  contextKey = "trace"
	LoggerKey contextKey = "logger"
)

type TraceInfo struct {
	RequestID string
	Function  string
	StartTime time.Time
	UserAgent string
	RemoteIP  string
}

// statusWriter records the status code and size written by a handler.
type statusWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.wroteHeader {
		return
	}
	sw.statusCode = code
	sw.wroteHeader = true
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.size += int64(n)
	return n, err
}

// Logging attaches a request-scoped logger and trace info to the context
// and logs request start and completion.
func Logging(log *logrus.Logger, function string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			traceInfo := &TraceInfo{
				RequestID: requestID,
				Function:  function,
				StartTime: time.Now(),
				UserAgent: r.UserAgent(),
				RemoteIP:  r.RemoteAddr,
			}
			w.Header().Set("X-Request-ID", requestID)

			entry := log.WithFields(logrus.Fields{
				"request_id": requestID,
				"function":   function,
				"method":     r.Method,
				"path":       r.URL.Path,
			})

			ctx := context.WithValue(r.Context(), TraceKey, traceInfo)
			ctx = context.WithValue(ctx, LoggerKey, entry)

			entry.WithFields(logrus.Fields{
				"remote_ip":  traceInfo.RemoteIP,
				"user_agent": traceInfo.UserAgent,
			}).Debug("Request started")

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			entry.WithFields(logrus.Fields{
				"status":   sw.statusCode,
				"size":     sw.size,
				"duration": time.Since(traceInfo.StartTime).String(),
			}).Info("Request completed")
		})
	}
}

func GetLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(LoggerKey).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func GetTraceInfo(ctx context.Context) *TraceInfo {
	if info, ok := ctx.Value(TraceKey).(*TraceInfo); ok && info != nil {
		return info
	}
	return &TraceInfo{}
}
