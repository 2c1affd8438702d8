// Package wca drives a worst-case-analysis host.
//
// A Populator reads the Parts Value sheet of a dataset workbook and assigns
// each value to the worksheet variable of the same name, copies the dataset
// beside the worksheet so its links resolve, and asks the host to
// recalculate. Hosts are reached through the Connector, Application and
// Worksheet interfaces; WorkbookHost is a spreadsheet-backed host whose
// variables are the workbook's defined names.
package wca
