// Package output renders served exchanges and encoded request bodies for
// the hittest CLI. ConsoleFormatter writes a colored dump of the status,
// headers, body and assertion results; JSONFormatter writes one indented
// JSON document per exchange.
package output
