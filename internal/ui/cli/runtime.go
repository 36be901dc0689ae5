package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coreapp "aspectwatch/internal/core/app"
	"aspectwatch/internal/core/config"
	"aspectwatch/internal/core/errors"
	"aspectwatch/internal/data/history"
	"aspectwatch/internal/shared/observability"
	"aspectwatch/internal/shared/version"
	"aspectwatch/internal/ui/report"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	if opts.version {
		fmt.Printf("aspectwatch v%s\n", version.Version)
		return 0
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cfgPath, err := loadConfig(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	store, err := openHistoryStoreIfEnabled(cfg)
	if err != nil {
		slog.Error("history setup failed", "error", err)
		return 1
	}
	if store != nil {
		defer store.Close()
	}

	if opts.historyList {
		return printHistory(store, opts.since)
	}

	shutdownTracing := setupTracingIfEnabled(ctx, cfg)
	defer shutdownTracing()

	sessionOpts := make([]coreapp.Option, 0, 1)
	if store != nil {
		sessionOpts = append(sessionOpts, coreapp.WithHistory(history.NewAdapter(store)))
	}
	session, err := coreapp.New(cfg, sessionOpts...)
	if err != nil {
		slog.Error("failed to initialize session", "error", err)
		return 1
	}
	slog.Info("session started", "session", session.ID(), "provider", cfg.Provider.Kind)

	sinks := &updateSinks{}
	session.SetUpdateHandler(sinks.dispatch)
	sinks.add(reportSink(session))

	stopServer := startObservabilityIfEnabled(ctx, cfg, session)
	defer stopServer()

	if err := session.Recompute(ctx); err != nil {
		slog.Error("initial computation failed", "error", err)
		return 1
	}

	if !opts.ui {
		printSnapshot(os.Stdout, session.Snapshot(), session.Status())
	}

	if opts.once {
		return 0
	}

	if cfgPath != "" {
		watcher := config.NewWatcher(cfgPath, cfg.Watch.Debounce, func(next *config.Config, loadErr error) {
			if next != nil {
				applyFlagOverrides(next, opts)
			}
			_ = session.ApplyConfig(ctx, next, loadErr)
		})
		if err := watcher.Start(ctx); err != nil {
			slog.Error("failed to start config watcher", "error", err)
			return 1
		}
		defer watcher.Stop()
	}

	if opts.ui {
		if err := runUI(session, sinks); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	sinks.add(func(update coreapp.Update) {
		if update.Err != nil {
			fmt.Fprintln(os.Stderr, update.Status)
			return
		}
		printSnapshot(os.Stdout, update.Snapshot, update.Status)
	})
	<-ctx.Done()
	return 0
}

func loadConfig(opts cliOptions) (*config.Config, string, error) {
	cfg, err := config.Load(opts.configPath)
	path := opts.configPath
	if err != nil {
		if opts.configPath != defaultConfigPath || !errors.IsCode(err, errors.CodeNotFound) {
			return nil, "", err
		}
		slog.Info("no config file found, using built-in defaults", "path", opts.configPath)
		cfg = config.DefaultConfig()
		if err := config.ApplyEnvOverrides(cfg); err != nil {
			return nil, "", err
		}
		path = ""
	}

	applyFlagOverrides(cfg, opts)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func openHistoryStoreIfEnabled(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		if history.IsCorruptError(err) {
			return nil, fmt.Errorf("history database %q looks corrupt, move it aside to start fresh: %w", cfg.History.Path, err)
		}
		return nil, err
	}
	return store, nil
}

func printHistory(store *history.Store, sinceRaw string) int {
	since, err := parseSince(sinceRaw)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	rows, err := store.LoadSnapshots("", since)
	if err != nil {
		slog.Error("failed to load history", "error", err)
		return 1
	}
	fmt.Printf("Journaled snapshots (%d):\n", len(rows))
	for _, row := range rows {
		fmt.Printf("  %s session=%s moment=%s aspects=%d positive=%d negative=%d neutral=%d close=%d orb=%.2f filter=%s\n",
			row.Timestamp.Format(time.RFC3339),
			row.SessionID,
			row.Moment.Format(time.RFC3339),
			row.AspectCount,
			row.PositiveCount,
			row.NegativeCount,
			row.NeutralCount,
			row.CloseCount,
			row.Orb,
			row.Filter,
		)
	}
	return 0
}

func setupTracingIfEnabled(ctx context.Context, cfg *config.Config) func() {
	if !cfg.Observability.Enabled || !cfg.Observability.EnableTracing {
		return func() {}
	}
	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		return func() {}
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}
}

func startObservabilityIfEnabled(ctx context.Context, cfg *config.Config, session *coreapp.Session) func() {
	if !cfg.Observability.Enabled {
		return func() {}
	}
	server := observability.NewServer(fmt.Sprintf(":%d", cfg.Observability.Port), coreapp.NewHealthService(session))
	if err := server.Start(ctx); err != nil {
		slog.Warn("observability server unavailable", "error", err)
		return func() {}
	}
	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(stopCtx); err != nil {
			slog.Warn("observability server shutdown failed", "error", err)
		}
	}
}

// reportSink rewrites the configured report files after every successful
// trigger, using the output paths of the session's current configuration.
func reportSink(session *coreapp.Session) func(coreapp.Update) {
	return func(update coreapp.Update) {
		if update.Err != nil || update.Snapshot == nil {
			return
		}
		written, err := report.Write(update.Snapshot, session.Config().Output, version.Version)
		if err != nil {
			slog.Error("failed to write reports", "error", err)
			return
		}
		for _, path := range written {
			slog.Debug("report written", "path", path)
		}
	}
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "aspectwatch", "aspectwatch.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "aspectwatch", "aspectwatch.log")
	}

	return "aspectwatch.log"
}
