// Package openmmpa registers the chirp, embed, rerank and tts HTTP functions
// with the Cloud Functions runtime.
package openmmpa

import (
	"context"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/open-mmpa/functions/app"
	"github.com/open-mmpa/functions/config"
	"github.com/open-mmpa/functions/errors"
	"github.com/open-mmpa/functions/logger"
	"github.com/open-mmpa/functions/middleware"
	"github.com/open-mmpa/functions/utils"
	"github.com/sirupsen/logrus"
)

func init() {
	functions.HTTP("chirp", Chirp)
	functions.HTTP("embed", Embed)
	functions.HTTP("rerank", Rerank)
	functions.HTTP("tts", TTS)
}

var (
	mu     sync.Mutex
	routes map[string]http.Handler

	// newApp is replaced in tests.
	newApp = buildApp
)

func Chirp(w http.ResponseWriter, r *http.Request)  { serve("chirp", w, r) }
func Embed(w http.ResponseWriter, r *http.Request)  { serve("embed", w, r) }
func Rerank(w http.ResponseWriter, r *http.Request) { serve("rerank", w, r) }
func TTS(w http.ResponseWriter, r *http.Request)    { serve("tts", w, r) }

func serve(name string, w http.ResponseWriter, r *http.Request) {
	h, err := lookup(name)
	if err != nil {
		if middleware.IsPreflight(r) {
			middleware.WritePreflight(w)
			return
		}
		logrus.WithError(err).WithField("function", name).Error("Initialization failed")
		utils.RespondWithError(w, errors.Internal("openmmpa.serve", err, "initialization failed"), nil)
		return
	}
	h.ServeHTTP(w, r)
}

// lookup builds the application on first use. A failed build is retried by
// the next request.
func lookup(name string) (http.Handler, error) {
	mu.Lock()
	defer mu.Unlock()

	if routes == nil {
		a, err := newApp(context.Background())
		if err != nil {
			return nil, err
		}
		built := make(map[string]http.Handler)
		for _, fn := range a.Functions() {
			built[fn.Name] = fn.Handler
		}
		routes = built
	}

	h, ok := routes[name]
	if !ok {
		return nil, errors.Errorf("unknown function %q", name)
	}
	return h, nil
}

// Clients outlive the request that triggered initialization, so they are
// built on a background context.
func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// The instance has no shutdown hook to flush from; the cloud hook
	// writes errors synchronously instead.
	log, _, err := logger.Setup(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return app.New(ctx, cfg, app.WithLogger(log))
}
