// Package http implements the HTTP handlers of the WCA bridge server.
// Handlers stay thin: they parse and validate the request, call a service,
// and render the result with go-chi/render.
//
// # Endpoints
//
//	POST /api/v1/conversions               upload a netlist, BoM or CSV (multipart "file")
//	GET  /api/v1/conversions/{id}          conversion result with parts and deviations
//	GET  /api/v1/conversions/{id}/dataset  the dataset workbook
//	GET  /api/v1/conversions/{id}/review/{name}  one review CSV
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/metrics                      conversion store statistics
//
// # Error Handling
//
// All errors are RFC 7807 problem details produced by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/conversion",
//	    "title": "Unprocessable Entity",
//	    "status": 422,
//	    "detail": "Input could not be converted",
//	    "instance": "/api/v1/conversions"
//	}
package http
