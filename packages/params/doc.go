// Package params encodes request parameters into query strings and
// application/x-www-form-urlencoded bodies.
//
// Params is decided once at the boundary:
//   - None(): nothing was given, nothing is sent
//   - Raw(s): an already encoded string, sent unchanged
//   - Pairs(fields...): ordered name/value pairs, duplicates kept in place
//
// Sequence values expand into repeated pairs. When the content type declares
// a charset, text values are transcoded into it before percent-encoding.
package params
