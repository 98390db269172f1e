// Command scrollwatch is the scroll-rendering diagnostics daemon.
//
// Usage:
//
//	scrollwatch -config scrollwatch.yaml       # watch the page from YAML config
//	scrollwatch -url https://example.com/grid  # quick single-page watch (stdout sink)
//	scrollwatch -targets targets.db            # load the target from SQLite, hot-reload on change
//	scrollwatch -add-target https://...        # upsert a target row into -targets and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/scrollscope/dbopen"
	"github.com/hazyhaar/scrollscope/idgen"
	"github.com/hazyhaar/scrollscope/scrollwatch"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	configPath := flag.String("config", "", "path to scrollwatch.yaml config file")
	singleURL := flag.String("url", "", "watch a single URL (stdout sink)")
	targetsDB := flag.String("targets", "", "path to a scroll_targets SQLite database")
	addTarget := flag.String("add-target", "", "upsert a target URL into -targets and exit")
	httpAddr := flag.String("http", "", "status API listen address (overrides config)")
	mcpMode := flag.Bool("mcp", false, "serve MCP tools on stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, options{
		configPath: *configPath,
		singleURL:  *singleURL,
		targetsDB:  *targetsDB,
		addTarget:  *addTarget,
		httpAddr:   *httpAddr,
		mcpMode:    *mcpMode,
	}); err != nil {
		logger.Error("scrollwatch: fatal", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	singleURL  string
	targetsDB  string
	addTarget  string
	httpAddr   string
	mcpMode    bool
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	if opts.addTarget != "" {
		return runAddTarget(ctx, opts.targetsDB, opts.addTarget)
	}

	var cfg *scrollwatch.Config
	switch {
	case opts.configPath != "":
		loaded, err := scrollwatch.LoadConfigFile(opts.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

	case opts.singleURL != "":
		cfg = &scrollwatch.Config{}
		cfg.Page.ID = idgen.New()
		cfg.Page.URL = opts.singleURL
		cfg.Diagnostics.AutoEnable = true

	case opts.targetsDB != "":
		loaded, err := loadTargetConfig(ctx, opts.targetsDB)
		if err != nil {
			return err
		}
		cfg = loaded

	default:
		fmt.Fprintln(os.Stderr, "usage: scrollwatch -config <file> | -url <url> | -targets <db>")
		os.Exit(1)
	}

	if opts.httpAddr != "" {
		cfg.HTTP.Addr = opts.httpAddr
	}

	sinks, err := scrollwatch.BuildSinks(cfg.Sinks, logger)
	if err != nil {
		return err
	}

	w := scrollwatch.New(cfg, logger, sinks...)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer w.Stop()

	var wg sync.WaitGroup

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: w.Handler()}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("scrollwatch: status API listening", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("scrollwatch: http server", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()
	}

	if opts.mcpMode {
		srv := mcp.NewServer(&mcp.Implementation{Name: "scrollwatch", Version: "0.1.0"}, nil)
		w.RegisterMCP(srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
				logger.Error("scrollwatch: mcp server", "error", err)
			}
		}()
	}

	if opts.targetsDB != "" {
		// Hot-reload is deliberately coarse: a changed row restarts the
		// process under its supervisor rather than re-wiring a live watcher.
		db, err := dbopen.Open(opts.targetsDB, dbopen.WithSchema(scrollwatch.TargetsSchema))
		if err != nil {
			return fmt.Errorf("open targets db: %w", err)
		}
		defer db.Close()

		watcher := scrollwatch.WatchTargets(db, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			watcher.OnChange(ctx, func() error {
				logger.Info("scrollwatch: targets changed, exiting for restart")
				stopSelf()
				return nil
			})
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

func runAddTarget(ctx context.Context, dbPath, url string) error {
	if dbPath == "" {
		return fmt.Errorf("-add-target requires -targets <db>")
	}
	db, err := dbopen.Open(dbPath,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(scrollwatch.TargetsSchema))
	if err != nil {
		return fmt.Errorf("open targets db: %w", err)
	}
	defer db.Close()

	t := scrollwatch.DBTarget{ID: idgen.New(), URL: url}
	if err := scrollwatch.UpsertTarget(ctx, db, t); err != nil {
		return fmt.Errorf("add target: %w", err)
	}
	fmt.Println(t.ID)
	return nil
}

func loadTargetConfig(ctx context.Context, dbPath string) (*scrollwatch.Config, error) {
	db, err := dbopen.Open(dbPath, dbopen.WithSchema(scrollwatch.TargetsSchema))
	if err != nil {
		return nil, fmt.Errorf("open targets db: %w", err)
	}
	defer db.Close()

	targets, err := scrollwatch.LoadTargets(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no active targets in %s", dbPath)
	}
	t := targets[0]

	cfg := &scrollwatch.Config{}
	cfg.Page = t.Page()
	cfg.Diagnostics.AutoEnable = t.AutoEnable
	return cfg, nil
}

func stopSelf() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	p.Signal(syscall.SIGTERM)
}
