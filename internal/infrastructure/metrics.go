package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ConversionMetrics holds the instruments recorded for every conversion run
type ConversionMetrics struct {
	ConversionsTotal    metric.Int64Counter
	ConversionDuration  metric.Float64Histogram
	ComponentsExtracted metric.Int64Counter
	WarningsTotal       metric.Int64Counter
	PopulateRuns        metric.Int64Counter
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// ConversionOutcome describes one finished conversion for metric recording
type ConversionOutcome struct {
	Dialect    string
	Components int
	Warnings   map[string]int
	Duration   time.Duration
	Err        error
}

// NewConversionMetrics creates the conversion instruments on meter. A nil
// meter yields no-op instruments.
func NewConversionMetrics(meter metric.Meter) (*ConversionMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(InstrumentationName)
	}

	m := &ConversionMetrics{}
	var err error

	if m.ConversionsTotal, err = meter.Int64Counter(
		"wca_conversions_total",
		metric.WithDescription("Conversions attempted, by dialect and status"),
	); err != nil {
		return nil, err
	}

	if m.ConversionDuration, err = meter.Float64Histogram(
		"wca_conversion_duration_seconds",
		metric.WithDescription("Time spent converting one input file"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.ComponentsExtracted, err = meter.Int64Counter(
		"wca_components_extracted_total",
		metric.WithDescription("Components written to Parts Value"),
	); err != nil {
		return nil, err
	}

	if m.WarningsTotal, err = meter.Int64Counter(
		"wca_conversion_warnings_total",
		metric.WithDescription("Non-fatal warnings raised during conversion, by kind"),
	); err != nil {
		return nil, err
	}

	if m.PopulateRuns, err = meter.Int64Counter(
		"wca_populate_runs_total",
		metric.WithDescription("Worksheet population runs, by status"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordConversion records a finished conversion
func (m *ConversionMetrics) RecordConversion(ctx context.Context, out ConversionOutcome) {
	if m == nil {
		return
	}

	status := "success"
	if out.Err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("dialect", out.Dialect),
		attribute.String("status", status),
	)

	m.ConversionsTotal.Add(ctx, 1, attrs)
	m.ConversionDuration.Record(ctx, out.Duration.Seconds(), attrs)
	if out.Components > 0 {
		m.ComponentsExtracted.Add(ctx, int64(out.Components),
			metric.WithAttributes(attribute.String("dialect", out.Dialect)))
	}
	for kind, n := range out.Warnings {
		m.WarningsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
	}
}

// RecordPopulate records one worksheet population run
func (m *ConversionMetrics) RecordPopulate(ctx context.Context, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.PopulateRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordHTTPRequest records one served HTTP request
func (m *ConversionMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}
