// Package exporter writes canonical datasets.
//
// DatasetWriter stores a dataset into an .xlsx workbook as three sheets
// (Parts Value, Parts Deviation, Transfer) and reads Parts Value back for the
// WCA host. Workbook access goes through the Workbook interface; ExcelizeOpener
// is the production implementation.
//
// CSVWriter and ReviewExporter produce BOM-prefixed CSV copies of the sheets
// for quick review.
package exporter
