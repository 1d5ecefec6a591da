package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	server "github.com/kazz187/taskforge/internal"
	"github.com/kazz187/taskforge/internal/agent"
	agentrepo "github.com/kazz187/taskforge/internal/agent/repositoryimpl"
	"github.com/kazz187/taskforge/internal/config"
	"github.com/kazz187/taskforge/internal/dashboard"
	"github.com/kazz187/taskforge/internal/eventbus"
	"github.com/kazz187/taskforge/internal/invoker"
	"github.com/kazz187/taskforge/internal/pushnotification"
	pushsubrepo "github.com/kazz187/taskforge/internal/pushsubscription/repositoryimpl"
	taskrepo "github.com/kazz187/taskforge/internal/task/repositoryimpl"
	"github.com/kazz187/taskforge/internal/workflow"
	"github.com/kazz187/taskforge/pkg/clog"
	"github.com/kazz187/taskforge/pkg/panicerr"
	"github.com/kazz187/taskforge/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.IsLocal() {
		handler = clog.NewConnectTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	store, closeStore, err := openStorage(env)
	if err != nil {
		slog.Error("failed to create storage", "type", env.StorageEnv.Type, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	completer, err := newCompleter(env)
	if err != nil {
		slog.Error("failed to create invoker", "invoker", env.Invoker, "error", err)
		os.Exit(1)
	}

	bus := eventbus.New()

	// Setup repositories
	taskRepo := taskrepo.NewYAMLRepository(store)
	agentRepo := agentrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	registry := agent.NewRegistry(agentRepo, taskRepo, env.AgentMaxLoad)
	engine := workflow.NewEngine(taskRepo, agentRepo, registry, invoker.NewLLM(completer), bus, workflow.Config{
		InvocationTimeout: env.InvocationTimeout,
	})

	// Setup servers
	workflowServer := workflow.NewServer(engine, agentRepo)
	agentServer := agent.NewServer(agentRepo, registry, taskRepo)
	hub := dashboard.NewHub()

	// Setup push notification
	vapidEnv := &env.VAPIDEnv
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushNotificationServer := pushnotification.NewServer(vapidEnv, pushSubRepo)
	pushDispatcher := pushnotification.NewDispatcher(bus, pushSender)

	srv := server.NewServer(env, workflowServer, agentServer, pushNotificationServer, hub)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if env.RosterEnv.Path != "" {
		syncer := agent.NewRosterSyncer(agentRepo, registry, env.RosterEnv.Path)
		if _, err := syncer.Sync(ctx); err != nil {
			slog.Error("failed to sync agent roster", "path", env.RosterEnv.Path, "error", err)
			os.Exit(1)
		}
		if env.RosterEnv.Watch {
			defer background(ctx, "roster watcher", syncer.Watch)()
		}
	}

	defer background(ctx, "dashboard hub", func(ctx context.Context) error {
		return hub.Run(ctx, bus)
	})()
	defer background(ctx, "push dispatcher", pushDispatcher.Start)()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func openStorage(env *config.Env) (storage.Storage, func(), error) {
	switch env.StorageEnv.Type {
	case "s3":
		s, err := storage.NewS3Storage(context.Background(), env.S3Bucket, env.S3Prefix, env.S3Region)
		return s, func() {}, err
	case "sqlite":
		s, err := storage.NewSQLiteStorage(env.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("failed to close sqlite storage", "error", err)
			}
		}, nil
	default:
		s, err := storage.NewLocalStorage(env.BaseDir)
		return s, func() {}, err
	}
}

func newCompleter(env *config.Env) (invoker.Completer, error) {
	switch env.Invoker {
	case "ollama":
		return invoker.NewOllamaCompleter(env.OllamaModel)
	default:
		return invoker.NewClaudeCompleter(env.ClaudeWorkDir, env.ClaudeMaxTurns), nil
	}
}

// background runs fn until ctx is done. The returned func waits for it.
func background(ctx context.Context, name string, fn func(context.Context) error) (wait func()) {
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		if err := panicerr.SafeContext(fn)(ctx); err != nil {
			slog.Error(name+" stopped", "error", err)
		}
	})
	return wg.Wait
}
