// Package app wires configuration, storage and the inference clients into
// the four HTTP functions.
package app

import (
	"context"
	"net/http"

	"github.com/open-mmpa/functions/bootstrap"
	"github.com/open-mmpa/functions/config"
	"github.com/open-mmpa/functions/embedding"
	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/handlers"
	"github.com/open-mmpa/functions/metrics"
	"github.com/open-mmpa/functions/middleware"
	"github.com/open-mmpa/functions/rerank"
	"github.com/open-mmpa/functions/storage"
	"github.com/open-mmpa/functions/synthesis"
	"github.com/open-mmpa/functions/transcription"
	"github.com/sirupsen/logrus"
)

// Function is one named HTTP entry point with its middleware applied.
type Function struct {
	Name    string
	Handler http.Handler
}

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	handlers *handlers.Handlers
	limiter  middleware.RateLimiter
	closers  []func() error
}

type Option func(*App)

func WithLogger(log *logrus.Logger) Option {
	return func(a *App) {
		a.logger = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// New connects to storage and every downstream service named in cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	recognizer, err := transcription.NewChirpRecognizer(ctx, cfg.ProjectID, cfg.Region, cfg.Models.Speech)
	if err != nil {
		return nil, err
	}
	closers = append(closers, recognizer.Close)

	vertex, err := embedding.NewVertexClient(ctx, cfg.ProjectID, cfg.Region, cfg.Models.TextEmbedding, cfg.Models.MultiModal)
	if err != nil {
		cleanup()
		return nil, err
	}
	closers = append(closers, vertex.Close)

	ranker, err := rerank.NewDiscoveryRanker(ctx, cfg.ProjectID, cfg.Models.RankingLocation, cfg.Models.RankingConfig, cfg.Models.Ranking)
	if err != nil {
		cleanup()
		return nil, err
	}
	closers = append(closers, ranker.Close)

	synth, err := synthesis.NewGoogleSynthesizer(ctx)
	if err != nil {
		cleanup()
		return nil, err
	}
	closers = append(closers, synth.Close)

	services := handlers.Services{
		Transcriber: transcription.NewTranscriptionService(store, recognizer),
		Embedder:    embedding.NewGenerator(vertex, vertex, mediaResolver(cfg, store)),
		Reranker:    rerank.NewRerankService(ranker),
		Synthesizer: synthesis.NewSynthesisService(synth, store),
	}

	a := NewWithServices(cfg, services, opts...)
	a.closers = closers
	return a, nil
}

// NewWithServices builds the function table around already constructed
// services.
func NewWithServices(cfg *config.Config, services handlers.Services, opts ...Option) *App {
	a := &App{
		config: cfg,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.RateLimit.Enabled {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	}
	a.handlers = handlers.NewHandlers(services, a.metrics, cfg.LanguageCode, handlers.WithDebug(cfg.Debug))
	return a
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendGCS:
		fbApp, err := bootstrap.Process(cfg).EnsureInitialized(ctx)
		if err != nil {
			return nil, err
		}
		return storage.NewGCSStore(ctx, fbApp, cfg.Storage.Bucket)
	case config.BackendS3:
		return storage.NewSpacesStore(ctx, storage.SpacesConfig{
			AccessKey:     cfg.Storage.S3AccessKey,
			SecretKey:     cfg.Storage.S3SecretKey,
			Region:        cfg.Storage.S3Region,
			Endpoint:      cfg.Storage.S3Endpoint,
			Bucket:        cfg.Storage.Bucket,
			PublicBaseURL: cfg.Storage.S3PublicBaseURL,
		})
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// mediaResolver points the multi-modal model at bucket objects. Vertex AI
// reads gs:// URIs itself; objects in other stores are sent inline.
func mediaResolver(cfg *config.Config, store storage.Store) embedding.MediaResolver {
	if cfg.Storage.Backend == config.BackendGCS {
		return embedding.URIResolver(func(path string) string {
			return storage.URI("gs", store.Bucket(), path)
		})
	}
	return embedding.BytesResolver(store.Download)
}

// Functions returns the four capabilities, each behind the same middleware
// chain. Preflight handling sits inside logging so OPTIONS requests are
// still traced.
func (a *App) Functions() []Function {
	return []Function{
		{Name: "chirp", Handler: a.wrap("chirp", a.handlers.Chirp)},
		{Name: "embed", Handler: a.wrap("embed", a.handlers.Embed)},
		{Name: "rerank", Handler: a.wrap("rerank", a.handlers.Rerank)},
		{Name: "tts", Handler: a.wrap("tts", a.handlers.TTS)},
	}
}

func (a *App) wrap(function string, h http.HandlerFunc) http.Handler {
	var limit func(http.Handler) http.Handler
	if a.limiter != nil {
		limit = a.limiter.Middleware
	}

	return middleware.Chain(h,
		middleware.Logging(a.logger, function),
		middleware.Instrument(a.metrics, function),
		middleware.Recovery,
		middleware.Preflight,
		limit,
	)
}

func (a *App) Handlers() *handlers.Handlers {
	return a.handlers
}

// Close releases every downstream client. The first error is returned.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
