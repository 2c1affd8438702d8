package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apperrors "wcabridge/internal/errors"
	"wcabridge/internal/infrastructure"
)

// writeAPIError renders a predefined API error as RFC 7807 problem details
func writeAPIError(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	problem := apperrors.ProblemFromAPIError(apiErr, r)
	if traceID := requestTraceID(r); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}
	render.Render(w, r, problem)
}

// requestTraceID prefers the trace ID of the active span over the request ID
func requestTraceID(r *http.Request) string {
	if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
		return traceID
	}
	return middleware.GetReqID(r.Context())
}
