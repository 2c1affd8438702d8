package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "wcabridge/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Conversion ConversionConfig `yaml:"conversion" envconfig:"CONVERSION"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ConversionConfig controls the netlist/BoM to dataset conversion.
type ConversionConfig struct {
	DatasetFileName string `yaml:"dataset_file_name" envconfig:"DATASET_FILE_NAME" validate:"required"`
	SniffLines      int    `yaml:"sniff_lines" envconfig:"SNIFF_LINES" validate:"min=1,max=1000"`
	ReviewCSV       bool   `yaml:"review_csv" envconfig:"REVIEW_CSV"`
	TransferFunc    string `yaml:"transfer_function" envconfig:"TRANSFER_FUNCTION"`

	// PackageDefaults overrides or extends the built-in per-package deviations.
	PackageDefaults map[string]DeviationConfig `yaml:"package_defaults" ignored:"true" validate:"dive"`
}

// DeviationConfig is one package default tuple as written in YAML.
type DeviationConfig struct {
	Tolerance   float64 `yaml:"tolerance" validate:"gte=0"`
	Temperature float64 `yaml:"temperature" validate:"gte=0"`
	Ageing      float64 `yaml:"ageing" validate:"gte=0"`
	Radiation   float64 `yaml:"radiation" validate:"gte=0"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST"`
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	StoreCapacity   int             `yaml:"store_capacity" envconfig:"STORE_CAPACITY" validate:"gte=0"`
	AllowedOrigins  []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration. Relative directories
// resolve against BaseDir, which defaults to the executable directory.
type PathsConfig struct {
	BaseDir     string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	UploadsDir  string `yaml:"uploads_dir" envconfig:"UPLOADS_DIR" validate:"required"`
	DatasetsDir string `yaml:"datasets_dir" envconfig:"DATASETS_DIR" validate:"required"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
}

// TelemetryConfig controls tracing and metrics.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, then the YAML file (configPath,
// or the first config.yaml found in the usual locations), then WCA_*
// environment variables, optionally seeded from a .env file.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to load .env file", err)
	}

	if configPath == "" {
		configPath = getConfigFilePath()
	}
	if configPath != "" {
		if err := loadFromFile(configPath, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", configPath)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// getConfigFilePath returns the first config file found in common locations
func getConfigFilePath() string {
	locations := []string{
		DefaultConfigFile,
		"configs/" + DefaultConfigFile,
		"../configs/" + DefaultConfigFile,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// ServerAddr returns the listen address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			DatasetFileName: DefaultDatasetFileName,
			SniffLines:      DefaultSniffLines,
		},
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			StoreCapacity:   DefaultStoreCapacity,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:     DefaultDataDir,
			LogsDir:     DefaultLogsDir,
			UploadsDir:  DefaultUploadsDir,
			DatasetsDir: DefaultDatasetsDir,
			ReportsDir:  DefaultReportsDir,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    DefaultServiceName,
			TraceExporter:  "none",
			MetricsEnabled: true,
		},
	}
}
