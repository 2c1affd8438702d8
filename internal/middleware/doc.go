// Package middleware holds the chi middleware stack of the HTTP server:
// request IDs, structured request logging, panic recovery, rate limiting,
// timeouts, CORS, OpenTelemetry tracing and request validation.
package middleware
