// Package parser turns httper request files into ready-to-send request
// descriptors.
//
// A request file looks like the request it describes:
//
//	# comments start with '#' or '//'
//	POST https://api.example.com/upload HTTP/1.1
//	Authorization: Bearer {{token}}
//	Content-Type: multipart/form-data; boundary=xyz
//
//	--xyz
//	Content-Disposition: form-data; name="title"
//
//	Quarterly report
//	--xyz
//	Content-Disposition: form-data; name="file"; filename="report.pdf"
//
//	< ./report.pdf
//	--xyz--
//
// The parser handles:
//   - The request line (method, absolute URL, optional protocol version)
//   - Header lines, with Content-Type and Authorization diverted into the
//     body and auth fields of the descriptor
//   - Bodies encoded as JSON, URL-encoded forms, multipart forms or raw bytes
//   - File references ("< path") resolved relative to the request file
//   - Several requests per file, separated by "###" lines
//
// Parsing is all or nothing: a file either yields complete descriptors or an
// error, and no file handle opened along the way outlives a failed parse.
package parser
