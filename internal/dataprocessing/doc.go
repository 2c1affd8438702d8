// Package dataprocessing turns circuit netlists, bills of materials and
// value CSVs into the canonical part set of a WCA dataset.
//
// # Pipeline
//
// A Source is read once (UTF-8, UTF-16 and Latin-1 are decoded),
// classified into a dialect and handed to the matching Parser:
//
//	src, err := dataprocessing.ReadSource("filter.net")
//	log := dataprocessing.NewWarningLog()
//	parts, err := dataprocessing.ParserFor(dataprocessing.Classify(src), 20).Parse(src, log)
//	devs := dataprocessing.AggregateDeviations(parts, dataprocessing.DefaultPackageDefaults())
//
// # Values
//
// Magnitudes such as "10k", "4.7u", "4k7" or "1e-9" go through the
// Normalizer, which never fails: unreadable text becomes 0 and unknown
// suffixes are ignored, each with a Warning on the call's WarningLog.
//
// # Packages
//
// Every part is tagged with a package label, taken from the input when it
// has one and guessed from the reference prefix otherwise. Deviation
// tuples are aggregated per package, falling back to PackageDefaults.
//
// Structural problems (a BoM without a header, an unreadable file) are
// returned as PARSING or NOT_FOUND application errors; nothing else aborts
// a conversion.
package dataprocessing
