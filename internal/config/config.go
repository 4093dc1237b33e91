package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Combine   CombineConfig   `yaml:"combine" envconfig:"COMBINE"`
	Reconcile ReconcileConfig `yaml:"reconcile" envconfig:"RECONCILE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	// InputDir is the root searched by combination patterns.
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	// OutputDir holds combined datasets; relative outputs resolve here.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

// CombineConfig configures the file aggregator.
type CombineConfig struct {
	Workers      int           `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
	Combinations []Combination `yaml:"combinations" ignored:"true" validate:"required,min=1,dive"`
}

// Combination maps a recursive file pattern to one combined output file.
type Combination struct {
	Pattern string `yaml:"pattern" validate:"required"`
	Output  string `yaml:"output" validate:"required"`
}

// ReconcileConfig names the combined datasets fed to the reconcilers.
type ReconcileConfig struct {
	FundingFile string `yaml:"funding_file" envconfig:"FUNDING_FILE" validate:"required"`
	SpotFile    string `yaml:"spot_file" envconfig:"SPOT_FILE" validate:"required"`
}

// TelemetryConfig configures tracing and metrics export.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=none prometheus"`
	// MetricsFile receives a Prometheus text-format snapshot at the end of a run.
	MetricsFile string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// RECON_* environment variables, in increasing order of precedence. An empty
// path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML file values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	seen := make(map[string]string, len(c.Combine.Combinations))
	for _, comb := range c.Combine.Combinations {
		out := filepath.Clean(c.OutputPath(comb.Output))
		if prev, dup := seen[out]; dup {
			return fmt.Errorf("combine.combinations: patterns %q and %q both write %s", prev, comb.Pattern, out)
		}
		seen[out] = comb.Pattern
	}
	return nil
}

// OutputPath resolves a combined file name against the output directory.
// Absolute paths are returned unchanged.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.OutputDir, name)
}

// FundingPath returns the resolved funding account dataset path.
func (c *Config) FundingPath() string {
	return c.OutputPath(c.Reconcile.FundingFile)
}

// SpotPath returns the resolved spot filled orders dataset path.
func (c *Config) SpotPath() string {
	return c.OutputPath(c.Reconcile.SpotFile)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"recon.yaml",
		"configs/recon.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			InputDir:  DefaultInputDir,
			OutputDir: DefaultOutputDir,
		},
		Combine: CombineConfig{
			Workers:      DefaultWorkers,
			Combinations: DefaultCombinations(),
		},
		Reconcile: ReconcileConfig{
			FundingFile: CombinedName(FundingAccountFile),
			SpotFile:    CombinedName(SpotFilledOrdersSplitFile),
		},
		Telemetry: TelemetryConfig{
			ServiceName:    DefaultServiceName,
			Environment:    DefaultEnvironment,
			TraceExporter:  DefaultTraceExporter,
			MetricExporter: DefaultMetricExporter,
			SampleRatio:    DefaultSampleRatio,
		},
	}
}
