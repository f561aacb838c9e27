// Package bootstrap owns process-wide application setup. Every entry
// point calls EnsureInitialized before touching Firebase-backed services;
// setup runs at most once per process.
package bootstrap

import (
	"context"
	"sync"

	firebase "firebase.google.com/go/v4"
	"github.com/open-mmpa/functions/config"
	"github.com/open-mmpa/functions/errors"
)

type InitFunc func(ctx context.Context) (*firebase.App, error)

type Initializer struct {
	mu   sync.Mutex
	app  *firebase.App
	init InitFunc
}

func NewInitializer(init InitFunc) *Initializer {
	return &Initializer{init: init}
}

// FirebaseInit initializes the default Firebase app with the project's
// storage bucket. Credentials come from the environment.
func FirebaseInit(cfg *config.Config) InitFunc {
	return func(ctx context.Context) (*firebase.App, error) {
		return firebase.NewApp(ctx, &firebase.Config{
			ProjectID:     cfg.ProjectID,
			StorageBucket: cfg.Storage.Bucket,
		})
	}
}

// EnsureInitialized returns the initialized app, running setup if no
// earlier call succeeded. A failed attempt leaves the initializer empty so
// the next caller tries again.
func (i *Initializer) EnsureInitialized(ctx context.Context) (*firebase.App, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.app != nil {
		return i.app, nil
	}

	app, err := i.init(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize firebase app")
	}
	i.app = app
	return app, nil
}

func (i *Initializer) Initialized() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.app != nil
}

var (
	processOnce sync.Once
	process     *Initializer
)

// Process returns the process-wide initializer. The config passed on the
// first call wins.
func Process(cfg *config.Config) *Initializer {
	processOnce.Do(func() {
		process = NewInitializer(FirebaseInit(cfg))
	})
	return process
}
