// Package config provides configuration loading for wcabridge.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//	1. Default values (Default)
//	2. YAML file (config.yaml, configs/config.yaml, or an explicit path)
//	3. Environment variables, optionally seeded from a .env file
//
// # Environment Variables
//
// Environment variables use the WCA_ prefix and follow the struct layout:
//
//	WCA_CONVERSION_DATASET_FILE_NAME=Entrada_Datos_01.xlsx
//	WCA_CONVERSION_SNIFF_LINES=40
//	WCA_SERVER_PORT=8090
//	WCA_LOGGING_LEVEL=debug
//	WCA_TELEMETRY_TRACE_EXPORTER=stdout
//
// Package default overrides are only read from YAML:
//
//	conversion:
//	  package_defaults:
//	    C1206: {tolerance: 0.1, temperature: 0.0003}
//
// # Paths
//
// Relative directories resolve against paths.base_dir, or the executable
// directory when unset. See ResolvePaths.
package config
