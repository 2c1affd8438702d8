// Package services implements the conversion layer of wcabridge. It sits
// between the transports (CLI and HTTP) and the parsing and export packages.
//
// # Conversion
//
// ConversionService runs one conversion per call:
//
//	svc := services.NewConversionService(cfg.Conversion, nil, logger,
//	    services.WithMetrics(metrics))
//
//	result, err := svc.ProcessFile(ctx, "filter.net", services.ConversionOptions{
//	    Output:   "Entrada_Datos_01.xlsx",
//	    Transfer: "1/(1+s*R1*C1)",
//	})
//	fmt.Println(result.Summary())
//
// Every call classifies (or is told) the input dialect, parses it with a
// fresh warning log, aggregates deviations per package and writes the
// dataset workbook. Warnings travel back on the ConversionResult; they are
// never shared between calls, so concurrent conversions are independent.
//
// Structural failures (missing input, BoM without a usable header) are
// returned as errors from internal/errors and no workbook is written.
//
// # Batches
//
// ProcessBatch converts several inputs concurrently into separate workbooks
// and reports each outcome.
//
// # Health
//
// HealthService backs the /api/health endpoints.
package services
