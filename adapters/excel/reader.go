package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/errors"
	"github.com/potencialpi/sentiment-cx/ports"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DataReader reads survey exports from Excel or CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   Config
	logger   *zap.Logger
}

var _ ports.RecordSource = (*DataReader)(nil)

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string, config Config, logger *zap.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if config.ChoiceSeparator == "" {
		config.ChoiceSeparator = ";"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataReader{filePath: filePath, fileType: fileType, config: config, logger: logger}
}

func (r *DataReader) Name() string {
	return r.filePath
}

// Records reads the sheet and converts each data row into a ResponseRecord
func (r *DataReader) Records(ctx context.Context) ([]survey.ResponseRecord, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, errors.SourceError(err, r.filePath)
	}
	records, err := r.toRecords(data)
	if err != nil {
		return nil, errors.SourceError(err, r.filePath)
	}
	return records, nil
}

// ReadData reads the raw header/value rows
func (r *DataReader) ReadData() (*SheetData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	default:
		return r.readExcelData()
	}
}

func (r *DataReader) readExcelData() (*SheetData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	r.logger.Debug("excel sheet read",
		zap.String("sheet", sheet),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(startTime)))

	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}
	return r.processRows(rows), nil
}

func (r *DataReader) readCSVData() (*SheetData, error) {
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
	r.logger.Debug("csv file read", zap.Int("rows", len(rows)))

	if len(rows) < 1 {
		return nil, fmt.Errorf("CSV file has no header row")
	}
	return r.processRows(rows), nil
}

// processRows converts raw string rows into header-keyed rows
func (r *DataReader) processRows(rows [][]string) *SheetData {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData)
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &SheetData{Headers: headers, Rows: dataRows}
}

func (r *DataReader) toRecords(data *SheetData) ([]survey.ResponseRecord, error) {
	idColumn := r.config.IDColumn
	if idColumn == "" {
		idColumn = DetectIDColumn(data)
	}

	choice := make(map[string]bool, len(r.config.ChoiceColumns))
	for _, c := range r.config.ChoiceColumns {
		choice[c] = true
	}

	records := make([]survey.ResponseRecord, 0, len(data.Rows))
	for i, row := range data.Rows {
		rec := survey.ResponseRecord{
			ID:        row[idColumn],
			Responses: make(map[string]survey.Answer),
		}

		for _, header := range data.Headers {
			value := row[header]
			if header == "" || value == "" {
				continue
			}
			switch {
			case header == idColumn:
			case header == r.config.SentimentColumn:
				score, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d: sentiment %q is not a number", i+2, value)
				}
				rec.SentimentScore = survey.WithSentiment(score)
			case header == r.config.CreatedAtColumn:
				created, err := parseTime(value)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", i+2, err)
				}
				rec.CreatedAt = &created
			case choice[header]:
				rec.Responses[header] = survey.ChoicesAnswer(splitChoices(value, r.config.ChoiceSeparator)...)
			default:
				rec.Responses[header] = survey.TextAnswer(value)
			}
		}
		records = append(records, rec)
	}

	r.logger.Info("records loaded",
		zap.String("source", r.filePath),
		zap.Int("records", len(records)),
		zap.String("id_column", idColumn))
	return records, nil
}

// DetectIDColumn picks the first column with a common ID name whose values are all
// present and unique. It returns "" when none qualifies.
func DetectIDColumn(data *SheetData) string {
	candidates := []string{"id", "response_id", "respondent_id", "record_id", "customer_id", "user_id"}
	for _, name := range candidates {
		for _, header := range data.Headers {
			if strings.ToLower(header) == name && isUniqueColumn(data, header) {
				return header
			}
		}
	}
	return ""
}

func isUniqueColumn(data *SheetData, column string) bool {
	seen := make(map[string]bool, len(data.Rows))
	for _, row := range data.Rows {
		value := row[column]
		if value == "" || seen[value] {
			return false
		}
		seen[value] = true
	}
	return len(seen) > 0
}

func splitChoices(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
