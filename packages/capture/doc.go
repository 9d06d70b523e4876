// Package capture extracts single values from HTTP responses.
//
// It supports extracting:
//   - Response body values (gjson paths such as "data.items.0.id")
//   - Response headers ("header.Content-Type")
//   - Response status code and duration
//
// The CLI exposes it through the --query flag of the run command.
package capture
