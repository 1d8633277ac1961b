package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/config"
	"github.com/aretw0/easel/internal/metrics"
	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/pkg/adapters/file"
	"github.com/aretw0/easel/pkg/adapters/firestore"
	httpAdapter "github.com/aretw0/easel/pkg/adapters/http"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/adapters/openai"
	"github.com/aretw0/easel/pkg/adapters/redis"
	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/aretw0/easel/pkg/persistence/middleware"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/session"
)

// App is the wired application: the editor plus what the transports share.
type App struct {
	Config  config.Config
	Editor  *easel.Editor
	Streams *httpAdapter.StreamManager
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	closers []func() error
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Build wires the stores, the generator and the editor from cfg.
func Build(cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Metrics: metrics.New(),
		Logger:  logger,
		Streams: httpAdapter.NewStreamManager(logger),
	}

	snapshots, history, locker, err := app.stores()
	if err != nil {
		app.Close()
		return nil, err
	}

	if cfg.Store.EncryptionKey != "" {
		mw, err := encryption(cfg.Store.EncryptionKey)
		if err != nil {
			app.Close()
			return nil, err
		}
		snapshots = middleware.Chain(snapshots, mw)
		logger.Info("snapshot encryption enabled")
	}

	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithMaxDocuments(cfg.MaxSessions),
	}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}

	client := openai.New(cfg.OpenAI.APIKey, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	orch := orchestrator.New(app.Metrics.InstrumentGenerator(client, cfg.OpenAI.Model, cfg.OpenAI.SlideModel),
		orchestrator.WithHistory(history),
		orchestrator.WithLogger(logger),
		orchestrator.WithEditModel(cfg.OpenAI.Model),
		orchestrator.WithSlideModel(cfg.OpenAI.SlideModel),
		orchestrator.WithMaxInputSize(cfg.MaxInputSize),
	)

	interp := runtime.NewInterpreter(
		runtime.WithCanvas(cfg.Canvas),
		runtime.WithLogger(logger),
		runtime.WithHooks(app.Metrics.Hooks()),
	)

	app.Editor = easel.New(
		session.NewManager(snapshots, sessionOpts...),
		orch,
		easel.WithInterpreter(interp),
		easel.WithKeyStore(client),
		easel.WithLogger(logger),
		easel.WithChangeListener(app.Streams.Notify),
	)

	if !client.Configured() {
		logger.Warn("OpenAI API key is not configured; chat endpoints answer 400 until one is set")
	}
	return app, nil
}

func (a *App) stores() (ports.SnapshotStore, ports.HistoryStore, ports.DistributedLocker, error) {
	cfg := a.Config.Store
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStore(), memory.NewHistory(), nil, nil

	case config.BackendFile:
		a.Logger.Info("using file snapshot store", "dir", cfg.DataDir)
		return file.New(cfg.DataDir), memory.NewHistory(), nil, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(context.Background(), cfg.FirestoreProject)
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.Logger.Info("using firestore snapshot store", "project", cfg.FirestoreProject)
		return firestore.New(client, cfg.FirestoreCollection), memory.NewHistory(), nil, nil

	case config.BackendRedis:
		client := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.closers = append(a.closers, client.Close)

		var opts []redis.Option
		if ttl := time.Duration(cfg.TTL); ttl > 0 {
			opts = append(opts, redis.WithTTL(ttl))
		}
		a.Logger.Info("using redis store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return redis.NewFromClient(client, opts...),
			redis.NewHistory(client, opts...),
			redis.NewLocker(client, "easel:"),
			nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// encryption builds the middleware from a comma-separated key list. The first
// key encrypts; the others are decryption fallbacks for rotation.
func encryption(spec string) (middleware.Middleware, error) {
	var keys [][]byte
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := middleware.ParseKey(part)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, errors.New("invalid encryption key: empty")
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    keys[0],
		FallbackKeys: keys[1:],
	}), nil
}
