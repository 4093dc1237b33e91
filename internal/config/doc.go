// Package config provides configuration management for the reconciliation
// tool. It handles loading configuration from multiple sources, validation,
// and resolution of dataset paths.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (recon.yaml or configs/recon.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern RECON_* for namespacing:
//
//	RECON_LOGGING_LEVEL=debug
//	RECON_PATHS_INPUT_DIR=./exports
//	RECON_PATHS_OUTPUT_DIR=./combined
//	RECON_COMBINE_WORKERS=8
//	RECON_TELEMETRY_METRICS_FILE=./recon.prom
//
// The combination list can only be set from the YAML file:
//
//	combine:
//	  combinations:
//	    - pattern: "**/Account History_Funding Account.csv"
//	      output: "Account History_Funding Account-combined.csv"
//
// # Validation
//
// Struct tags are checked with go-playground/validator. Load also rejects two
// combinations that resolve to the same output file, so each output has a
// single writer per run.
package config
