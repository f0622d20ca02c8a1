// Package config handles configuration loading and management for hittest.
//
// It provides functionality for:
//   - Loading configuration from .hittest.json or .hittest.yaml files
//   - Default configuration values
//   - HITTEST_* environment overrides merged on top
package config
