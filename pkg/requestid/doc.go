// Package requestid correlates log records across one HTTP request. The
// middleware assigns (or adopts) an X-Request-ID, and the logger extractor
// stamps it onto every record emitted under that request's context.
package requestid
