// Package http drives an in-process http.Handler the way a browser would.
//
// It provides:
//   - Request building from params, uploads and JSON values
//   - Cookie persistence across requests through a cookies.Jar
//   - Status expectations with descriptive AppError failures
//   - Redirect following and response inspection helpers
//
// No sockets are opened: every request is served by calling the handler's
// ServeHTTP with an httptest.ResponseRecorder.
package http
