package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domainStats "propztest/domain/stats"
	"propztest/internal"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
)

// ObservationReader builds a sample pair from per-observation outcomes
// stored in an Excel or CSV file.
type ObservationReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewObservationReader creates a reader; the file type follows the extension.
func NewObservationReader(filePath string, logger *internal.Logger) *ObservationReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &ObservationReader{filePath: filePath, fileType: fileType, logger: logger}
}

// ReadSamples reads both outcome columns and returns one sample per column.
func (r *ObservationReader) ReadSamples(spec ColumnSpec) (*domainStats.Sample, *domainStats.Sample, error) {
	data, err := r.ReadData(spec.Sheet)
	if err != nil {
		return nil, nil, err
	}

	counts := spec.Convention == domainStats.ConventionCounts
	s1, err := columnSample(data, spec.ColumnA, counts)
	if err != nil {
		return nil, nil, err
	}
	s2, err := columnSample(data, spec.ColumnB, counts)
	if err != nil {
		return nil, nil, err
	}

	r.logger.Info("[ObservationReader] %s: %s=%s %s=%s", r.filePath, spec.ColumnA, s1, spec.ColumnB, s2)
	return s1, s2, nil
}

// ReadData reads the raw rows of the file.
func (r *ObservationReader) ReadData(sheet string) (*SheetData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows(sheet)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}
	return processRows(rows), nil
}

func (r *ObservationReader) readExcelRows(sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	r.logger.Debug("[ObservationReader] sheet %q read (%d rows)", sheet, len(rows))
	return rows, nil
}

func (r *ObservationReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	r.logger.Debug("[ObservationReader] CSV read (%d rows)", len(rows))
	return rows, nil
}

// processRows converts raw string rows into header-keyed rows
func processRows(rows [][]string) *SheetData {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &SheetData{Headers: headers, Rows: dataRows}
}

// columnSample turns one column of outcomes into a sample holding either the
// success count or the success proportion.
func columnSample(data *SheetData, column string, counts bool) (*domainStats.Sample, error) {
	found := false
	for _, h := range data.Headers {
		if h == column {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("column %q not found (have %s)", column, strings.Join(data.Headers, ", "))
	}

	outcomes := make(stats.Float64Data, 0, len(data.Rows))
	for i, row := range data.Rows {
		cell := row[column]
		if cell == "" {
			continue
		}
		v, err := parseOutcome(cell)
		if err != nil {
			// +2: header row and 1-based numbering
			return nil, fmt.Errorf("row %d, column %q: %w", i+2, column, err)
		}
		outcomes = append(outcomes, v)
	}

	if len(outcomes) == 0 {
		return nil, fmt.Errorf("column %q has no observations", column)
	}

	summarize := stats.Mean
	if counts {
		summarize = stats.Sum
	}
	value, err := summarize(outcomes)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", column, err)
	}
	return domainStats.NewSample(value, len(outcomes)), nil
}

// parseOutcome maps a cell to 1 (success) or 0 (failure).
func parseOutcome(cell string) (float64, error) {
	switch strings.ToLower(cell) {
	case "1", "true", "t", "yes", "y", "success":
		return 1, nil
	case "0", "false", "f", "no", "n", "failure":
		return 0, nil
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil && (v == 0 || v == 1) {
		return v, nil
	}
	return 0, fmt.Errorf("%q is not a binary outcome", cell)
}
