// Package exporter writes combined datasets as CSV.
//
// CSVWriter resolves relative output names against the configured output
// directory, creates missing directories and truncates existing files. The
// output has a header row, no index column and no byte order mark:
//
//	writer := exporter.NewCSVWriter("combined", logger)
//	path, err := writer.WriteDataset("Account History_Funding Account-combined.csv", ds)
//
// Write failures are returned as FILE_WRITE application errors.
package exporter
