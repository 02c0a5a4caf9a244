package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kvbench/internal/container"
	"kvbench/internal/driver"
	"kvbench/internal/storage"
	"kvbench/internal/workload"
)

type Config struct {
	Benchmark BenchmarkConfig `yaml:"benchmark" json:"benchmark"`
	Container ContainerConfig `yaml:"container" json:"container"`
	Report    ReportConfig    `yaml:"report" json:"report"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

type BenchmarkConfig struct {
	Container     string            `yaml:"container" json:"container"`
	Workloads     []workload.Config `yaml:"workloads" json:"workloads"`
	Threads       []int             `yaml:"threads" json:"threads"`
	MaxThreads    int               `yaml:"max_threads" json:"max_threads"`
	Duration      time.Duration     `yaml:"duration" json:"duration"`
	InitialKeys   int               `yaml:"initial_keys" json:"initial_keys"`
	BatchSize     uint64            `yaml:"batch_size" json:"batch_size"`
	Seed          uint64            `yaml:"seed" json:"seed"`
	Value         int64             `yaml:"value" json:"value"`
	FailurePolicy string            `yaml:"failure_policy" json:"failure_policy"`
	Affinity      bool              `yaml:"affinity" json:"affinity"`
}

type ContainerConfig struct {
	// Capacity presizes the in-process maps
	Capacity int `yaml:"capacity" json:"capacity"`
	// LRUCapacity bounds the lru container; 0 means container.DefaultLRUCapacity
	LRUCapacity int          `yaml:"lru_capacity" json:"lru_capacity"`
	Shards      int          `yaml:"shards" json:"shards"`
	Badger      BadgerConfig `yaml:"badger" json:"badger"`
	Redis       RedisConfig  `yaml:"redis" json:"redis"`
}

type BadgerConfig struct {
	InMemory   bool          `yaml:"in_memory" json:"in_memory"`
	DataPath   string        `yaml:"data_path" json:"data_path"`
	SyncWrites bool          `yaml:"sync_writes" json:"sync_writes"`
	ValueLogGC bool          `yaml:"value_log_gc" json:"value_log_gc"`
	GCInterval time.Duration `yaml:"gc_interval" json:"gc_interval"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
	// FlushOnOpen empties the database before every trial
	FlushOnOpen bool `yaml:"flush_on_open" json:"flush_on_open"`
}

type ReportConfig struct {
	LogFile string `yaml:"log_file" json:"log_file"`
	Format  string `yaml:"format" json:"format"`
	Console bool   `yaml:"console" json:"console"`
}

type LoggingConfig struct {
	Level                string `yaml:"level" json:"level"`
	Format               string `yaml:"format" json:"format"`
	Output               string `yaml:"output" json:"output"`
	EnableRequestTracing bool   `yaml:"enable_request_tracing" json:"enable_request_tracing"`
	EnableCorrelationIDs bool   `yaml:"enable_correlation_ids" json:"enable_correlation_ids"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadFromEnvironment(config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func DefaultConfig() *Config {
	libcuckoo, _ := workload.Preset("libcuckoo")

	return &Config{
		Benchmark: BenchmarkConfig{
			Container:     "xsync",
			Workloads:     []workload.Config{libcuckoo},
			Threads:       []int{1, 8, 16, 24, 32, 40},
			MaxThreads:    driver.DefaultMaxThreads(),
			Duration:      10 * time.Second,
			InitialKeys:   1000,
			BatchSize:     1000,
			Seed:          0,
			Value:         100,
			FailurePolicy: "ignore",
			Affinity:      true,
		},
		Container: ContainerConfig{
			Capacity:    0,
			LRUCapacity: container.DefaultLRUCapacity,
			Shards:      32,
			Badger: BadgerConfig{
				InMemory:   true,
				DataPath:   "./data/badger",
				SyncWrites: false,
				ValueLogGC: false,
				GCInterval: 5 * time.Minute,
			},
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				DB:          0,
				KeyPrefix:   "kvbench:",
				FlushOnOpen: true,
			},
		},
		Report: ReportConfig{
			LogFile: "kvbench.log",
			Format:  "text",
			Console: true,
		},
		Logging: LoggingConfig{
			Level:                "info",
			Format:               "json",
			Output:               "stderr",
			EnableRequestTracing: true,
			EnableCorrelationIDs: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":2112",
			Path:    "/metrics",
		},
	}
}

func loadFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(configPath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to unmarshal YAML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	return nil
}

// loadFromEnvironment applies KVBENCH_* overrides. Unlike plain strings,
// malformed numbers, durations and mixes are reported rather than skipped.
func loadFromEnvironment(config *Config) error {
	// Benchmark configuration
	if name := os.Getenv("KVBENCH_CONTAINER"); name != "" {
		config.Benchmark.Container = name
	}
	if mixes := os.Getenv("KVBENCH_WORKLOADS"); mixes != "" {
		parsed, err := workload.ParseList(strings.Split(mixes, ";"))
		if err != nil {
			return fmt.Errorf("KVBENCH_WORKLOADS: %w", err)
		}
		config.Benchmark.Workloads = parsed
	}
	if threads := os.Getenv("KVBENCH_THREADS"); threads != "" {
		parsed, err := ParseThreads(threads)
		if err != nil {
			return fmt.Errorf("KVBENCH_THREADS: %w", err)
		}
		config.Benchmark.Threads = parsed
	}
	if limit := os.Getenv("KVBENCH_MAX_THREADS"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return fmt.Errorf("KVBENCH_MAX_THREADS: %w", err)
		}
		config.Benchmark.MaxThreads = n
	}
	if duration := os.Getenv("KVBENCH_DURATION"); duration != "" {
		d, err := time.ParseDuration(duration)
		if err != nil {
			return fmt.Errorf("KVBENCH_DURATION: %w", err)
		}
		config.Benchmark.Duration = d
	}
	if keys := os.Getenv("KVBENCH_INITIAL_KEYS"); keys != "" {
		n, err := strconv.Atoi(keys)
		if err != nil {
			return fmt.Errorf("KVBENCH_INITIAL_KEYS: %w", err)
		}
		config.Benchmark.InitialKeys = n
	}
	if batch := os.Getenv("KVBENCH_BATCH_SIZE"); batch != "" {
		n, err := strconv.ParseUint(batch, 10, 64)
		if err != nil {
			return fmt.Errorf("KVBENCH_BATCH_SIZE: %w", err)
		}
		config.Benchmark.BatchSize = n
	}
	if seed := os.Getenv("KVBENCH_SEED"); seed != "" {
		n, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("KVBENCH_SEED: %w", err)
		}
		config.Benchmark.Seed = n
	}
	if policy := os.Getenv("KVBENCH_FAILURE_POLICY"); policy != "" {
		config.Benchmark.FailurePolicy = policy
	}
	if pin := os.Getenv("KVBENCH_AFFINITY"); pin != "" {
		if b, err := strconv.ParseBool(pin); err == nil {
			config.Benchmark.Affinity = b
		}
	}

	// Container configuration
	if addr := os.Getenv("KVBENCH_REDIS_ADDR"); addr != "" {
		config.Container.Redis.Addr = addr
	}
	if password := os.Getenv("KVBENCH_REDIS_PASSWORD"); password != "" {
		config.Container.Redis.Password = password
	}
	if dataPath := os.Getenv("KVBENCH_BADGER_DATA_PATH"); dataPath != "" {
		config.Container.Badger.DataPath = dataPath
		config.Container.Badger.InMemory = false
	}

	// Report configuration
	if logFile := os.Getenv("KVBENCH_REPORT_LOG_FILE"); logFile != "" {
		config.Report.LogFile = logFile
	}
	if format := os.Getenv("KVBENCH_REPORT_FORMAT"); format != "" {
		config.Report.Format = format
	}

	// Logging configuration
	if level := os.Getenv("KVBENCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("KVBENCH_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	// Metrics configuration
	if enabled := os.Getenv("KVBENCH_METRICS_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Metrics.Enabled = b
		}
	}
	if addr := os.Getenv("KVBENCH_METRICS_ADDR"); addr != "" {
		config.Metrics.Addr = addr
	}

	return nil
}

// ParseThreads parses a comma-separated thread schedule such as "1,8,16"
func ParseThreads(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	threads := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid thread count %q: %w", part, err)
		}
		threads = append(threads, n)
	}
	return threads, nil
}

func (c *Config) Validate() error {
	// Benchmark validation
	if _, err := container.Lookup(c.Benchmark.Container); err != nil {
		return err
	}
	if len(c.Benchmark.Workloads) == 0 {
		return fmt.Errorf("at least one workload is required")
	}
	for _, w := range c.Benchmark.Workloads {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if len(c.Benchmark.Threads) == 0 {
		return fmt.Errorf("thread schedule cannot be empty")
	}
	if c.Benchmark.MaxThreads <= 0 || c.Benchmark.MaxThreads > driver.ThreadLimit {
		return fmt.Errorf("max threads must be between 1 and %d: %d", driver.ThreadLimit, c.Benchmark.MaxThreads)
	}
	for _, n := range c.Benchmark.Threads {
		if n <= 0 {
			return fmt.Errorf("thread count must be positive: %d", n)
		}
		if n > c.Benchmark.MaxThreads {
			return fmt.Errorf("thread count %d exceeds max threads %d", n, c.Benchmark.MaxThreads)
		}
	}
	if c.Benchmark.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.Benchmark.InitialKeys < 0 {
		return fmt.Errorf("initial keys cannot be negative: %d", c.Benchmark.InitialKeys)
	}
	if _, err := driver.ParseFailurePolicy(c.Benchmark.FailurePolicy); err != nil {
		return err
	}

	// Container validation
	if c.Container.Capacity < 0 {
		return fmt.Errorf("capacity cannot be negative: %d", c.Container.Capacity)
	}
	if c.Container.LRUCapacity < 0 {
		return fmt.Errorf("lru capacity cannot be negative: %d", c.Container.LRUCapacity)
	}
	if c.Container.Shards < 0 {
		return fmt.Errorf("shard count cannot be negative: %d", c.Container.Shards)
	}
	if !c.Container.Badger.InMemory && c.Container.Badger.DataPath == "" {
		return fmt.Errorf("badger data path cannot be empty when not using in-memory storage")
	}

	// Report validation
	validReportFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validReportFormats[strings.ToLower(c.Report.Format)] {
		return fmt.Errorf("invalid report format: %s", c.Report.Format)
	}

	// Logging validation
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	validFormats := map[string]bool{
		"json": true, "text": true, "console": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Metrics validation
	if c.Metrics.Enabled {
		if c.Metrics.Addr == "" {
			return fmt.Errorf("metrics address cannot be empty when metrics are enabled")
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("metrics path cannot be empty when metrics are enabled")
		}
	}

	return nil
}

// ContainerOptions converts the container section for container.New
func (c *Config) ContainerOptions() container.Options {
	return container.Options{
		Capacity:    c.Container.Capacity,
		LRUCapacity: c.Container.LRUCapacity,
		Shards:      c.Container.Shards,
		Badger: storage.Config{
			DataPath:   c.Container.Badger.DataPath,
			InMemory:   c.Container.Badger.InMemory,
			SyncWrites: c.Container.Badger.SyncWrites,
			ValueLogGC: c.Container.Badger.ValueLogGC,
			GCInterval: c.Container.Badger.GCInterval,
		},
		Redis: storage.RedisConfig{
			Addr:        c.Container.Redis.Addr,
			Password:    c.Container.Redis.Password,
			DB:          c.Container.Redis.DB,
			KeyPrefix:   c.Container.Redis.KeyPrefix,
			FlushOnOpen: c.Container.Redis.FlushOnOpen,
		},
	}
}

func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}
