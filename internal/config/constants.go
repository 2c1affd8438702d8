package config

import "time"

// Application constants
const (
	AppName   = "WCA Bridge"
	EnvPrefix = "WCA"

	// DefaultDatasetFileName is the workbook name the WCA template expects
	// beside the worksheet.
	DefaultDatasetFileName = "Entrada_Datos_01.xlsx"
	DefaultConfigFile      = "config.yaml"
	DefaultEnvFile         = ".env"

	DefaultSniffLines = 20

	// File Paths (relative to the base directory)
	DefaultDataDir     = "data"
	DefaultLogsDir     = "logs"
	DefaultUploadsDir  = "data/uploads"
	DefaultDatasetsDir = "data/datasets"
	DefaultReportsDir  = "data/reports"

	// HTTP
	DefaultPort            = 8090
	DefaultMaxUploadBytes  = 10 << 20
	DefaultStoreCapacity   = 256
	DefaultRateLimit       = 10 // requests per second
	DefaultBurstSize       = 20
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultServiceName = "wcabridge"
)

// InputExtensions lists the file extensions input discovery picks up.
var InputExtensions = []string{".net", ".cir", ".asc", ".sp", ".spi", ".sxsch", ".bom", ".csv", ".txt", ".xlsx", ".xlsm"}
