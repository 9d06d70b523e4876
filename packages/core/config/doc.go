// Package config handles configuration loading and management for httper.
//
// It provides functionality for:
//   - Loading configuration from .httper.yaml, .httper.yml or httper.yaml
//   - Default configuration values
//   - Merging command line overrides onto file settings
package config
