package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/open-mmpa/functions/embedding"
	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/metrics"
	"github.com/open-mmpa/functions/rerank"
	"github.com/open-mmpa/functions/utils"
	"github.com/sirupsen/logrus"
)

const allowedMethods = "GET, POST, OPTIONS"

type Transcriber interface {
	HandleTranscription(ctx context.Context, recordingFileName string, log *logrus.Entry) ([]string, error)
}

type Embedder interface {
	Generate(ctx context.Context, req embedding.Request, log *logrus.Entry) (*embedding.Result, error)
}

type Reranker interface {
	HandleRerank(ctx context.Context, req rerank.Request, log *logrus.Entry) ([]rerank.Ranking, error)
}

type Synthesizer interface {
	HandleSynthesis(ctx context.Context, text, languageCode string, log *logrus.Entry) ([]string, error)
}

type Services struct {
	Transcriber Transcriber
	Embedder    Embedder
	Reranker    Reranker
	Synthesizer Synthesizer
}

// Handlers serves one HTTP endpoint per capability. Preflight requests are
// answered by middleware before they reach any handler here.
type Handlers struct {
	services     Services
	metrics      *metrics.Metrics
	languageCode string
	debug        bool
	startTime    time.Time
}

type Option func(*Handlers)

// WithDebug adds runtime details to the health report.
func WithDebug(debug bool) Option {
	return func(h *Handlers) {
		h.debug = debug
	}
}

func NewHandlers(services Services, m *metrics.Metrics, languageCode string, opts ...Option) *Handlers {
	h := &Handlers{
		services:     services,
		metrics:      m,
		languageCode: languageCode,
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// allowMethod rejects anything but GET and POST with 405 and an empty
// result.
func allowMethod(w http.ResponseWriter, r *http.Request, op string) bool {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
		return true
	}
	w.Header().Set("Allow", allowedMethods)
	utils.RespondWithError(w, errors.MethodNotAllowed(op, r.Method), nil)
	return false
}

// fail logs err and writes its status with whatever partial result the
// handler holds. Client errors are annotations; downstream failures are
// errors and are counted.
func (h *Handlers) fail(w http.ResponseWriter, log *logrus.Entry, function string, err error, partial interface{}) {
	if errors.IsInvalidInput(err) {
		log.WithError(err).Warn("Invalid request")
		utils.RespondWithError(w, err, partial)
		return
	}

	stage := failedStage(err)
	log.WithError(err).WithField("stage", stage).Error("Downstream call failed")
	h.metrics.DownstreamFailure(function, stage)
	utils.RespondWithError(w, err, partial)
}

func failedStage(err error) string {
	if stage, ok := embedding.FailedStage(err); ok {
		return string(stage)
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Op != "" {
		return appErr.Op
	}
	return "unknown"
}
