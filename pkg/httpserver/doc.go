// Package httpserver wraps http.Server with environment-driven
// configuration, graceful shutdown on SIGINT/SIGTERM or context
// cancellation, and probe handlers for liveness and readiness.
package httpserver
