package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"

	"kvbench/internal/bench"
	"kvbench/internal/config"
	"kvbench/internal/container"
	"kvbench/internal/logging"
	"kvbench/internal/monitoring"
	"kvbench/internal/results"
	"kvbench/internal/workload"
)

type options struct {
	configPath  string
	container   string
	workloads   string
	threads     string
	maxThreads  int
	duration    time.Duration
	initialKeys int
	batchSize   uint64
	list        bool
	serve       bool
	summary     string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to YAML configuration file")
	flag.StringVar(&opts.container, "container", "", "Container to benchmark (see -list)")
	flag.StringVar(&opts.workloads, "workloads", "", `Semicolon-separated mixes, each a preset or "read,update,insert,delete"`)
	flag.StringVar(&opts.threads, "threads", "", `Comma-separated thread schedule, e.g. "1,8,16"`)
	flag.IntVar(&opts.maxThreads, "max-threads", 0, "Upper bound on any trial's thread count")
	flag.DurationVar(&opts.duration, "duration", 0, "Measured duration of each trial")
	flag.IntVar(&opts.initialKeys, "initial-keys", -1, "Keys inserted before each trial")
	flag.Uint64Var(&opts.batchSize, "batch", 0, "Insert keys reserved per worker batch")
	flag.BoolVar(&opts.list, "list", false, "List containers and workload presets, then exit")
	flag.BoolVar(&opts.serve, "serve", false, "Keep the monitoring server running after the sweep")
	flag.StringVar(&opts.summary, "summary", "", "Print a throughput table from an existing report log, then exit")
	flag.Usage = printUsage
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "kvbench: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.list {
		printList()
		return nil
	}
	if opts.summary != "" {
		return printSummary(opts.summary)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}

	logger := logging.NewLogger(&cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plan, err := bench.PlanFromConfig(cfg)
	if err != nil {
		return err
	}
	factory, err := container.Lookup(plan.Container)
	if err != nil {
		return err
	}

	reporterCfg := results.ReporterConfig{
		LogFile: cfg.Report.LogFile,
		Format:  cfg.Report.Format,
	}
	if cfg.Report.Console {
		reporterCfg.Console = os.Stdout
	}
	reporter, err := results.NewReporter(reporterCfg)
	if err != nil {
		return err
	}
	defer reporter.Close()

	var recorders []bench.Recorder
	var metrics *monitoring.Metrics
	var store *monitoring.ResultStore
	serving := cfg.Metrics.Enabled || opts.serve
	if serving {
		metrics = monitoring.NewMetrics()
		store = monitoring.NewResultStore()
		recorders = append(recorders, metrics, store)
	}

	runner := bench.New(plan, factory, cfg.ContainerOptions(), reporter, logger, recorders...)

	if serving {
		server := monitoring.NewServer(monitoring.ServerConfig{
			Addr:        cfg.Metrics.Addr,
			MetricsPath: cfg.Metrics.Path,
			MaxThreads:  cfg.Benchmark.MaxThreads,
		}, metrics, store, runner, logger)
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				logger.WithError(err).Error("Monitoring server shutdown error")
			}
		}()
	}

	logger.Info("Starting benchmark sweep",
		"container", plan.Container,
		"workloads", len(plan.Workloads),
		"threads", plan.Threads,
		"duration", plan.Duration.String(),
	)

	if _, err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Benchmark interrupted")
			return nil
		}
		return err
	}

	if opts.serve {
		logger.Info("Sweep finished, serving until interrupted")
		<-ctx.Done()
	}
	return nil
}

// applyFlags overrides configuration with any flag that was set and
// validates the result again
func applyFlags(cfg *config.Config, opts options) error {
	if opts.container != "" {
		cfg.Benchmark.Container = opts.container
	}
	if opts.workloads != "" {
		mixes, err := workload.ParseList(strings.Split(opts.workloads, ";"))
		if err != nil {
			return err
		}
		cfg.Benchmark.Workloads = mixes
	}
	if opts.threads != "" {
		threads, err := config.ParseThreads(opts.threads)
		if err != nil {
			return err
		}
		cfg.Benchmark.Threads = threads
	}
	if opts.maxThreads > 0 {
		cfg.Benchmark.MaxThreads = opts.maxThreads
	}
	if opts.duration > 0 {
		cfg.Benchmark.Duration = opts.duration
	}
	if opts.initialKeys >= 0 {
		cfg.Benchmark.InitialKeys = opts.initialKeys
	}
	if opts.batchSize > 0 {
		cfg.Benchmark.BatchSize = opts.batchSize
	}
	return cfg.Validate()
}

func printList() {
	fmt.Println("Containers:")
	for _, name := range container.Names() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("Workload presets:")
	for _, name := range workload.PresetNames() {
		preset, _ := workload.Preset(name)
		fmt.Printf("  %-12s %s\n", name, preset)
	}
}

func printSummary(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open report log: %w", err)
	}
	defer file.Close()

	entries, err := results.ReadLog(file)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no report lines found in %s", path)
	}
	_, err = results.BuildTable(entries).WriteTo(os.Stdout)
	return err
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `kvbench measures the throughput of concurrent key-value containers

Usage:
  %s [options]

Options:
`, os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment Variables:
  Configuration can be overridden using environment variables with the
  KVBENCH_ prefix, e.g. KVBENCH_CONTAINER or KVBENCH_THREADS.

Examples:
  # Default sweep (libcuckoo mix, 1..40 threads)
  %s

  # Two mixes on the sharded map, short trials
  %s -container sharded -workloads "read-heavy;50,0,50,0" -duration 2s

  # Summarise an existing report log
  %s -summary kvbench.log
`, os.Args[0], os.Args[0], os.Args[0])
}
