package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
)

// DetectFormat picks the reader for a file from its extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".parquet":
		return FormatParquet, nil
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON, nil
	case ".xlsx", ".xls":
		return "", fmt.Errorf("spreadsheet input is not supported, export the sheet to CSV: %s", path)
	default:
		return "", fmt.Errorf("unsupported input format: %s", path)
	}
}

// tableFunction returns the DuckDB table function reading path in the given format.
func tableFunction(format Format, path string) string {
	literal := quoteLiteral(path)
	switch format {
	case FormatParquet:
		return fmt.Sprintf("read_parquet(%s)", literal)
	case FormatJSON:
		return fmt.Sprintf("read_json_auto(%s)", literal)
	default:
		return fmt.Sprintf("read_csv_auto(%s, header = true)", literal)
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileStats describes how much of the input survived numeric cleaning.
type FileStats struct {
	TotalRows  int
	UsableRows int
	MinTime    float64
	MaxTime    float64
}

func (s FileStats) DroppedRows() int {
	return s.TotalRows - s.UsableRows
}
