// Package cmd implements the httper CLI commands using Cobra.
//
// Available commands:
//   - run: Send the requests in .http files (also "httper FILE")
//   - validate: Check request file syntax without sending anything
//   - list: Display the requests defined in files
//   - init: Create a config, an environment file and an example request
//   - bench: Replay a request and report latency percentiles
//   - history: Show recently sent requests
//   - import, export: Convert between curl commands and .http files
//   - version: Show httper version information
//
// Flags default from HTTPER_* environment variables, then the config file.
package cmd
