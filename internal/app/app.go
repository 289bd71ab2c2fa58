package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bindery/internal/config"
	"github.com/five82/bindery/internal/dispatch"
	"github.com/five82/bindery/internal/logging"
	"github.com/five82/bindery/internal/prefs"
	"github.com/five82/bindery/internal/queueapi"
	"github.com/five82/bindery/internal/state"
	"github.com/five82/bindery/internal/status"
	"github.com/five82/bindery/internal/ui"
)

// Services is the wired object graph shared by the TUI and the CLI commands.
type Services struct {
	Config     config.Config
	Logger     *slog.Logger
	Client     *queueapi.Client
	Status     *status.Store
	Dispatcher *dispatch.Dispatcher
	State      *state.Store

	closeLog func() error
}

// Open builds the client, status store and dispatcher from cfg. Logs go to
// cfg.LogFile; call Close when done.
func Open(cfg config.Config) (*Services, error) {
	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	svc, err := build(cfg, logger.Logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	svc.closeLog = logger.Close
	return svc, nil
}

func build(cfg config.Config, logger *slog.Logger) (*Services, error) {
	client, err := queueapi.NewClient(queueapi.Options{
		BaseURL:       cfg.BaseURL,
		APIPrefix:     cfg.APIPrefix,
		EnqueueMethod: cfg.EnqueueMethod,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init queue client: %w", err)
	}
	statusStore := status.NewStore(client, logger)
	return &Services{
		Config:     cfg,
		Logger:     logger,
		Client:     client,
		Status:     statusStore,
		Dispatcher: dispatch.New(client, statusStore, logger),
		State:      &state.Store{},
	}, nil
}

// Close releases the log file.
func (s *Services) Close() error {
	if s.closeLog == nil {
		return nil
	}
	return s.closeLog()
}

// Refresh fetches a sequenced snapshot and the active count and applies
// both to the shared state store. The returned view reflects whatever was
// applied, including a failed fetch.
func (s *Services) Refresh(ctx context.Context) state.View {
	res := s.Status.Sync(ctx)
	if res.Err != nil {
		s.Logger.Warn("status fetch failed", slog.Uint64("seq", res.Seq), slog.Any("error", res.Err))
	}
	s.State.Apply(res)

	n, err := s.Status.FetchActiveCount(ctx)
	if err != nil {
		s.Logger.Warn("active count fetch failed", slog.Any("error", err))
	}
	s.State.SetActiveCount(n, err)
	return s.State.Snapshot()
}

// Apply records a dispatch outcome's refresh, if any, and returns the view.
func (s *Services) Apply(out dispatch.Outcome) state.View {
	if out.Refresh != nil {
		s.State.Apply(*out.Refresh)
	}
	return s.State.Snapshot()
}

// RunTUI boots the terminal UI until the user quits or ctx is cancelled.
func (s *Services) RunTUI(ctx context.Context) error {
	userPrefs, err := prefs.Load(s.Config.PrefsPath)
	if err != nil {
		// Preferences are cosmetic; fall back to defaults in memory.
		s.Logger.Warn("load preferences failed", slog.String("path", s.Config.PrefsPath), slog.Any("error", err))
	}

	s.Logger.Info("starting ui",
		slog.String("base_url", s.Client.BaseURL()),
		slog.String("enqueue_method", s.Config.EnqueueMethod),
	)
	return ui.Run(ui.Options{
		Context:        ctx,
		Status:         s.Status,
		Dispatcher:     s.Dispatcher,
		Catalog:        s.Client,
		Store:          s.State,
		Prefs:          userPrefs,
		Logger:         s.Logger,
		DarkBackground: lipgloss.HasDarkBackground(),
	})
}

// Run opens services for cfg and runs the TUI.
func Run(ctx context.Context, cfg config.Config) error {
	svc, err := Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return svc.RunTUI(ctx)
}
