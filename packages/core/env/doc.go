// Package env handles environments and variable substitution for httper.
//
// It provides functionality for:
//   - Loading http-client.env.json and http-client.private.env.json
//   - Loading .env files
//   - Variable interpolation using {{variable}} syntax
//   - Process environment lookups with {{$env.NAME}}
//   - Dynamic variables such as {{$uuid}} and {{$timestamp}}
package env
