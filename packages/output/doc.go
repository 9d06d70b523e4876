// Package output renders exchanges for the terminal.
//
// Supported output formats:
//   - Console: the response status line, headers and body, followed by a
//     summary line such as "Response code: 200 OK; Time: 12ms; Content length: 16B"
//   - JSON: one machine-readable document per run
//
// Each formatter implements the Formatter interface. Results are written as
// each request completes; Flush emits anything a format accumulates.
package output
