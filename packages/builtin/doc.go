// Package builtin provides the dynamic variables available in request files.
//
// Available variables:
//   - $uuid, $random.uuid: random UUID v4
//   - $timestamp: current Unix timestamp
//   - $isoTimestamp: current time in RFC 3339, UTC
//   - $randomInt: random integer between 0 and 1000
//   - $random.integer(from, to), $random.float(from, to)
//   - $random.alphabetic(n), $random.alphanumeric(n), $random.hexadecimal(n)
//   - $random.email
//
// Variables are written as {{$name}} in request files.
package builtin
