package excel

// RawRowData represents a row of raw sheet data as header/value pairs
type RawRowData map[string]string

// SheetData represents the complete sheet
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}
