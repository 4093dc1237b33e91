package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"exrecon/internal/dataset"
	apperrors "exrecon/internal/errors"
)

// CSVWriter writes datasets as CSV files under an output directory.
type CSVWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(outputDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{outputDir: outputDir, logger: logger}
}

// WriteDataset writes the header row and every row of ds to filePath,
// replacing any existing file. Missing cells are written empty and numbers
// keep the text they were read with. It returns the resolved path.
func (w *CSVWriter) WriteDataset(filePath string, ds *dataset.Dataset) (string, error) {
	fullPath := w.ResolvePath(filePath)

	stream, err := w.CreateStreamWriter(filePath, ds.ColumnNames())
	if err != nil {
		return fullPath, apperrors.NewFileWriteError(fullPath, err)
	}

	for i := 0; i < ds.Len(); i++ {
		if err := stream.WriteRecord(ds.Row(i).Strings()); err != nil {
			stream.Abort()
			return fullPath, apperrors.NewFileWriteError(fullPath, fmt.Errorf("failed to write record %d: %w", i, err))
		}
	}

	if err := stream.Close(); err != nil {
		os.Remove(fullPath)
		return fullPath, apperrors.NewFileWriteError(fullPath, err)
	}

	w.logger.Info("Wrote CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", ds.Len()),
		slog.Int("column_count", len(ds.Columns())))

	return fullPath, nil
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates the file, its directory and writes headers.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.ResolvePath(filePath)

	w.logger.Debug("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Abort closes the stream and removes the partially written file.
func (s *StreamWriter) Abort() {
	s.file.Close()
	os.Remove(s.file.Name())
}

// ResolvePath resolves a relative path against the output directory.
// Absolute paths are returned as-is.
func (w *CSVWriter) ResolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(w.outputDir, filePath)
}
