// Package cmd implements the hittest CLI commands using Cobra.
//
// Available commands:
//   - encode: Encode name=value pairs as a query string, form, multipart or JSON body
//   - get: Serve a directory in-process, GET a path and check the response
//   - version: Show hittest version information
//
// Settings come from hittest.yaml, HITTEST_* environment variables and
// flags, later sources winning.
package cmd
