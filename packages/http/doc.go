// Package http sends parsed request descriptors.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts, redirects, proxy and TLS verification
//   - A transport per protocol version (HTTP/1.x, HTTP/2 over TLS, h2c)
//   - Multipart bodies streamed part by part, files read straight from disk
//   - File handles released once the request has been sent
package http
