// Package config loads and validates shardstream engine configuration.
//
// Configuration is resolved from (in increasing precedence) built-in
// defaults, a YAML config file, a .env file, and SHARDSTREAM_* environment
// variables. Registries (schemes, decoder rules) are populated at startup
// from this configuration and are read-only during a pipeline run.
package config
