package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/binpack/internal/application"
	"github.com/eugenenazirov/binpack/internal/config"
	"github.com/eugenenazirov/binpack/internal/logging"
	"github.com/eugenenazirov/binpack/internal/mip"
	"github.com/eugenenazirov/binpack/internal/statuscode"

	_ "github.com/eugenenazirov/binpack/internal/mip/native"
)

var signalNotify = signal.Notify

type cli struct {
	app *kingpin.Application

	solve     *kingpin.CmdClause
	serve     *kingpin.CmdClause
	statusgen *kingpin.CmdClause

	configFile      *string
	sizes           *string
	capacity        *int
	tightBigM       *bool
	tightBigMSet    bool
	warmStart       *string
	warmStartFile   *string
	backend         *string
	workDir         *string
	emphasis        *int
	probeTimeLimit  *time.Duration
	commitNodeLimit *int
	logLevel        *string

	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int
	solveRateRPS   *float64
	solveRateBurst *int

	statusFile *string
}

func newCLI() *cli {
	c := &cli{}
	c.app = kingpin.New("binpack", "Bin-packing MIP builder with a probe/commit solve protocol")

	c.configFile = c.app.Flag("config", "Path to YAML configuration file").String()
	c.sizes = c.app.Flag("sizes", "Comma-separated item sizes").String()
	c.capacity = c.app.Flag("capacity", "Bin capacity (defaults to the largest item)").Default("0").Int()
	c.tightBigM = c.app.Flag("tight-big-m", "Use the bin capacity as big-M in the linkage rows").IsSetByUser(&c.tightBigMSet).Bool()
	c.warmStart = c.app.Flag("warm-start", "Warm start mode").Default("").Enum("", config.WarmStartBuiltin, config.WarmStartFile, config.WarmStartFFD, config.WarmStartNone)
	c.warmStartFile = c.app.Flag("warm-start-file", "YAML file with [item, bin] pairs").String()
	c.backend = c.app.Flag("backend", fmt.Sprintf("Solver backend (%s)", strings.Join(mip.Names(), ", "))).String()
	c.workDir = c.app.Flag("work-dir", "Directory for model and result artifacts").String()
	c.emphasis = c.app.Flag("emphasis", "MIP emphasis for both phases (0-4)").Default("-1").Int()
	c.probeTimeLimit = c.app.Flag("probe-time-limit", "Time limit of the probe phase").Default("0s").Duration()
	c.commitNodeLimit = c.app.Flag("commit-node-limit", "Node limit of the commit phase (0 for none)").Default("-1").Int()
	c.logLevel = c.app.Flag("log-level", "Log level (debug, info, warn, error)").String()

	c.solve = c.app.Command("solve", "Solve the configured instance and print the report").Default()

	c.serve = c.app.Command("serve", "Serve the HTTP API")
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	c.solveRateRPS = c.serve.Flag("solve-rate-limit-rps", "Solve and report requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.solveRateBurst = c.serve.Flag("solve-rate-limit-burst", "Burst capacity for the solve limiter").Default("-1").Int()

	c.statusgen = c.app.Command("statusgen", "Generate C status code definitions from four-line records")
	c.statusFile = c.statusgen.Arg("file", "Input file (stdin when omitted)").String()

	return c
}

// overrides converts parsed flags into config overrides; unset flags stay nil.
func (c *cli) overrides() *config.CLIOverrides {
	o := &config.CLIOverrides{ConfigFile: *c.configFile}

	setString := func(dst **string, v *string) {
		if *v != "" {
			*dst = v
		}
	}
	setString(&o.SizesStr, c.sizes)
	setString(&o.WarmStartMode, c.warmStart)
	setString(&o.WarmStartFile, c.warmStartFile)
	setString(&o.Backend, c.backend)
	setString(&o.WorkDir, c.workDir)
	setString(&o.LogLevel, c.logLevel)
	setString(&o.Port, c.port)

	if *c.capacity > 0 {
		o.Capacity = c.capacity
	}
	if c.tightBigMSet {
		o.TightBigM = c.tightBigM
	}
	if *c.emphasis >= 0 {
		o.Emphasis = c.emphasis
	}
	if *c.probeTimeLimit > 0 {
		o.ProbeTimeLimit = c.probeTimeLimit
	}
	if *c.commitNodeLimit >= 0 {
		o.CommitNodeLimit = c.commitNodeLimit
	}
	if *c.rateLimitRPS >= 0 {
		o.RateLimitRPS = c.rateLimitRPS
	}
	if *c.rateLimitBurst >= 0 {
		o.RateLimitBurst = c.rateLimitBurst
	}
	if *c.solveRateRPS >= 0 {
		o.SolveRateRPS = c.solveRateRPS
	}
	if *c.solveRateBurst >= 0 {
		o.SolveRateBurst = c.solveRateBurst
	}
	return o
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "binpack: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	c := newCLI()
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}

	if command == c.statusgen.FullCommand() {
		return generateStatusCodes(*c.statusFile, stdin, stdout)
	}

	cfg, err := config.Load(c.overrides())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case c.serve.FullCommand():
		return serve(cfg, logger)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return application.Solve(ctx, cfg, logger, stdout)
	}
}

func serve(cfg config.Config, logger *zap.Logger) error {
	app, err := application.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown(app.Server(), app.Interrupt, cfg.ShutdownGracePeriod, logger)
	return nil
}

func generateStatusCodes(path string, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	table, err := statuscode.Parse(in)
	if err != nil {
		return err
	}
	return statuscode.Render(stdout, table)
}

// shutdown waits for a signal and drains the server. Solves still running
// when the grace period ends are interrupted before the server is closed.
func shutdown(server *http.Server, interrupt func(), timeout time.Duration, logger *zap.Logger) {
	defer interrupt()

	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("shutting down server", zap.Stringer("signal", sig), zap.Duration("grace_period", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("grace period expired, interrupting running solves", zap.Error(err))
		interrupt()
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
