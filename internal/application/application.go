package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/binpack/internal/api"
	"github.com/eugenenazirov/binpack/internal/config"
	"github.com/eugenenazirov/binpack/internal/mip"
	"github.com/eugenenazirov/binpack/internal/packing"
	"github.com/eugenenazirov/binpack/internal/session"
	"github.com/eugenenazirov/binpack/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	runner  *session.Runner
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server

	// interrupt cancels the base context of every request, which stops
	// running solves.
	interrupt context.CancelFunc
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	inst, err := InitialInstance(cfg)
	if err != nil {
		return nil, err
	}

	store := storage.NewMemoryStorage()
	if err := store.SetInstance(inst); err != nil {
		return nil, fmt.Errorf("failed to apply initial instance: %w", err)
	}

	runner, err := NewRunner(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Work dir artifacts are written by batch solves only; concurrent
	// requests would overwrite each other's files.
	handler := api.NewHandler(runner, store, api.WithSolveSettings(api.SolveSettings{
		Probe:     cfg.Probe,
		Commit:    cfg.Commit,
		TightBigM: cfg.TightBigM,
		SeedFFD:   cfg.WarmStartMode != config.WarmStartNone,
	}))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithSolveRateLimit(cfg.SolveRateLimitRPS, cfg.SolveRateLimitBurst),
	)

	base, interrupt := context.WithCancel(context.Background())
	server := NewServer(cfg, BuildRootHandler(apiRouter))
	server.BaseContext = func(net.Listener) context.Context { return base }

	return &App{
		storage:   store,
		runner:    runner,
		handler:   handler,
		router:    apiRouter,
		logger:    logger,
		server:    server,
		interrupt: interrupt,
	}, nil
}

// NewRunner resolves the configured backend and wraps it in a session runner.
func NewRunner(cfg config.Config, logger *zap.Logger) (*session.Runner, error) {
	backend, err := mip.Lookup(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("resolve solver backend: %w", err)
	}
	return session.NewRunner(backend, logger), nil
}

// InitialInstance builds the instance described by cfg, including its warm
// start.
func InitialInstance(cfg config.Config) (storage.Instance, error) {
	inst := storage.Instance{
		Sizes:    append([]int(nil), cfg.Sizes...),
		Capacity: cfg.Capacity,
	}
	n := len(cfg.Sizes)

	switch cfg.WarmStartMode {
	case config.WarmStartBuiltin:
		inst.WarmStart = storage.DefaultWarmStart()
	case config.WarmStartFile:
		f, err := os.Open(cfg.WarmStartFile)
		if err != nil {
			return storage.Instance{}, fmt.Errorf("open warm start: %w", err)
		}
		defer f.Close()
		a, err := packing.ReadAssignment(f, n, n)
		if err != nil {
			return storage.Instance{}, fmt.Errorf("read warm start %s: %w", cfg.WarmStartFile, err)
		}
		inst.WarmStart = a.Pairs()
	case config.WarmStartFFD:
		a, err := packing.FirstFitDecreasing(cfg.Sizes, cfg.Capacity)
		if err != nil {
			return storage.Instance{}, fmt.Errorf("first-fit warm start: %w", err)
		}
		inst.WarmStart = a.Pairs()
	case config.WarmStartNone:
	default:
		return storage.Instance{}, fmt.Errorf("unknown warm start mode %q", cfg.WarmStartMode)
	}

	if err := storage.Validate(inst); err != nil {
		return storage.Instance{}, err
	}
	return inst, nil
}

// Solve runs both phases on the configured instance and writes the summary
// followed by the report to out. Nothing is written if either phase fails.
func Solve(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	inst, err := InitialInstance(cfg)
	if err != nil {
		return err
	}
	runner, err := NewRunner(cfg, logger)
	if err != nil {
		return err
	}

	m, err := packing.Build(inst.Sizes, packing.WithCapacity(inst.Capacity), packing.WithTightBigM(cfg.TightBigM))
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	warm, err := inst.WarmStartAssignment()
	if err != nil {
		return fmt.Errorf("warm start: %w", err)
	}

	probe, commit := cfg.Probe, cfg.Commit
	probe.WorkDir = cfg.WorkDir
	commit.WorkDir = cfg.WorkDir

	logger.Info("solving",
		zap.String("backend", runner.Backend()),
		zap.Int("items", m.NumItems),
		zap.Int("capacity", m.Capacity),
		zap.Int("lower_bound", m.LowerBound()),
		zap.String("warm_start", cfg.WarmStartMode),
	)

	res, err := runner.Run(ctx, m, warm, probe, commit)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(out, packing.Summary(res.Stats.Stats, res.Solution)); err != nil {
		return err
	}
	_, err = io.WriteString(out, packing.Report(m, res.Solution))
	return err
}

// BuildRootHandler mounts the API under /api/ and answers / with a short index.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, rootIndex)
	}))
	return mux
}

const rootIndex = `binpack
GET  /api/health
GET  /api/instance
PUT  /api/instance
POST /api/solve
POST /api/report
`

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("backend", a.runner.Backend()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Interrupt cancels in-flight requests; their solves end as interrupted.
func (a *App) Interrupt() {
	a.interrupt()
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
