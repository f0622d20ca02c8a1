// Package assertions checks responses against one-line expectations.
//
// Supported subjects:
//   - status and duration (expect status == 200, duration < 500)
//   - headers (header Content-Type contains application/json)
//   - decoded body text (text matches /order \d+/)
//   - JSON paths into the body (body.data.id exists, items[0] == 1)
//   - JSON Schema validation (body schema ./schema.json)
//
// Operators include equals, contains, exists, matches, length, includes,
// in, type and each.
package assertions
