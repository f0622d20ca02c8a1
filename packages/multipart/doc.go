// Package multipart builds multipart/form-data request bodies.
//
// Plain fields and uploads are emitted in the order the caller gives them.
// An Upload used as a params.Field value keeps its position among the plain
// fields; FileField entries follow. Each call picks a fresh boundary that does
// not occur in any part.
package multipart
