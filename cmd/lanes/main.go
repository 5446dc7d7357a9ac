package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	rediscache "github.com/evanschultz/lanes/internal/adapters/cache/redis"
	"github.com/evanschultz/lanes/internal/adapters/storage/sqlite"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/config"
	"github.com/evanschultz/lanes/internal/domain"
	"github.com/evanschultz/lanes/internal/platform"
	"github.com/evanschultz/lanes/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// program is the subset of tea.Program the board command drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the board program; tests replace it.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version), fang.WithNotifySignal(os.Interrupt)); err != nil {
		os.Exit(1)
	}
}

// run executes args against a fresh command tree without fang styling.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	stdout     io.Writer
	stderr     io.Writer
}

// newRootCommand builds the command tree. The bare command runs the board.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("LANES_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	appName := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("LANES_APP_NAME")); envApp != "" {
		appName = envApp
	}

	var projectID int64
	root := &cobra.Command{
		Use:           "lanes",
		Short:         "A four-lane task board for the terminal",
		Long:          "lanes shows a project's tasks in To Do, Work In Progress, Under Review and Completed lanes.\nDrag a card to another lane to change its status.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBoard(cmd.Context(), opts, projectID)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	root.PersistentFlags().StringVar(&opts.appName, "app", appName, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	root.Flags().Int64Var(&projectID, "project", 0, "project id to open (defaults to the first project)")

	root.AddCommand(
		newPathsCommand(opts),
		newServeCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newProjectCommand(opts),
		newTaskCommand(opts),
		newCommentCommand(opts),
	)
	return root
}

// runtimeEnv is the opened configuration, logger, storage and service for
// one command run.
type runtimeEnv struct {
	cfg        config.Config
	configPath string
	paths      platform.Paths
	logger     *runtimeLogger
	repo       *sqlite.Repository
	svc        *app.Service
	closers    []func() error
}

// resolvePaths resolves config and data locations for the current flags.
func (o *rootOptions) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// open resolves config, builds the logger and opens storage and the service.
// quiet mutes the console sink so logs do not draw over the board.
func (o *rootOptions) open(ctx context.Context, command string, quiet bool) (*runtimeEnv, error) {
	paths, err := o.resolvePaths()
	if err != nil {
		return nil, err
	}

	configPath := o.configPath
	dbPath := o.dbPath
	dbOverridden := strings.TrimSpace(dbPath) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("LANES_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("LANES_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(o.stderr, o.appName, o.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if quiet {
		logger.SetConsoleEnabled(false)
	}
	env := &runtimeEnv{cfg: cfg, configPath: configPath, paths: paths, logger: logger}
	env.closers = append(env.closers, logger.Close)

	logger.Info("startup configuration resolved", "app", o.appName, "dev_mode", o.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", dbPath)
	logger.Info("configuration loaded", "config_path", configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level, "cache", cfg.Cache.Backend)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		env.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	env.repo = repo
	env.closers = append(env.closers, repo.Close)
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	cache, err := env.openCache(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.svc = app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		Cache:          cache,
		DefaultProject: cfg.Board.DefaultProject,
	})
	logger.Debug("application service initialized", "default_project", cfg.Board.DefaultProject)
	return env, nil
}

// openCache builds the configured task-list cache. An unreachable redis
// falls back to the in-memory cache.
func (e *runtimeEnv) openCache(ctx context.Context) (app.TaskCache, error) {
	ttl, err := e.cfg.Cache.TTLDuration()
	if err != nil {
		return nil, err
	}
	if e.cfg.Cache.Backend != config.CacheBackendRedis {
		return app.NewMemoryTaskCache(ttl, time.Now), nil
	}
	cache, err := rediscache.Dial(e.cfg.Cache.RedisURL, ttl)
	if err != nil {
		return nil, fmt.Errorf("configure redis cache: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		e.logger.Warn("redis unreachable, using memory cache", "url", e.cfg.Cache.RedisURL, "err", err)
		_ = cache.Close()
		return app.NewMemoryTaskCache(ttl, time.Now), nil
	}
	e.closers = append(e.closers, cache.Close)
	e.logger.Info("redis cache ready", "url", e.cfg.Cache.RedisURL, "ttl", ttl)
	return cache, nil
}

// Close releases everything open opened, newest first.
func (e *runtimeEnv) Close() {
	if e == nil {
		return
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("close failed", "err", err)
		}
	}
	e.closers = nil
}

// runBoard runs the interactive board.
func runBoard(ctx context.Context, opts *rootOptions, projectID int64) error {
	env, err := opts.open(ctx, "board", true)
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.logger

	logger.Info("command flow start", "command", "board")
	if _, err := env.svc.EnsureDefaultProject(ctx); err != nil {
		logger.Error("default project bootstrap failed", "err", err)
		return fmt.Errorf("ensure default project: %w", err)
	}

	m := tui.NewModel(
		env.svc,
		tui.WithLogger(logger.Handoff()),
		tui.WithProjectID(projectID),
		tui.WithDateLayout(domain.ResolveDateLayout(env.cfg.Board.DateLayout, timeLocale())),
		tui.WithOpener(tui.ClipboardOpener{Command: env.cfg.Attachments.OpenCommand}),
	)
	logger.Info("starting tui program loop", "project_id", projectID)
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "board")
	return nil
}

// timeLocale returns the locale governing date formats, POSIX precedence.
func timeLocale() string {
	for _, name := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// parseBoolEnv reads a boolean environment variable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
