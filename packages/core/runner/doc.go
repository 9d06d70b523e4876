// Package runner executes .http files.
//
// It provides functionality for:
//   - Loading environments, .env files and variables for a request file
//   - Substituting {{variables}} and parsing the file
//   - Sending the selected requests in order
//   - Saving response bodies and recording the exchange history
//   - Waiting for a service to become ready before running
package runner
