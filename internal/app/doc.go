// Package app wires the conversion server together: configuration, logging,
// OpenTelemetry, the conversion services and the chi router.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, config.yaml, WCA_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Resolve and create the working directories
//	4. Create the conversion service, store and file manager
//	5. Mount handlers and middleware on the router
//
// # Usage
//
//	app, err := app.NewApplication("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests and
// flushes telemetry. Errors are returned; the package never calls os.Exit.
package app
