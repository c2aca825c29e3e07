package parser

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/strrl/torque-analyzer/internal/config"
	"github.com/strrl/torque-analyzer/internal/db"
	"github.com/strrl/torque-analyzer/internal/signals"
)

type Parser struct {
	db      *sql.DB
	columns config.ColumnConfig
}

func NewParser(columns config.ColumnConfig) (*Parser, error) {
	database, err := db.GetDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}

	return &Parser{
		db:      database,
		columns: columns,
	}, nil
}

// sourceQuery projects the configured columns to DOUBLE. Cells that do not parse become NULL.
func (p *Parser) sourceQuery(path string) (string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`
		SELECT
			TRY_CAST(%s AS DOUBLE) AS t,
			TRY_CAST(%s AS DOUBLE) AS v,
			TRY_CAST(%s AS DOUBLE) AS c
		FROM %s
	`, quoteIdent(p.columns.Time), quoteIdent(p.columns.Speed), quoteIdent(p.columns.Current), tableFunction(format, path)), nil
}

const usableFilter = `
	t IS NOT NULL AND v IS NOT NULL AND c IS NOT NULL
	AND isfinite(t) AND isfinite(v) AND isfinite(c)
`

// FetchSamples returns the numeric rows of the file in file order. Rows with a missing or
// non-numeric time, speed or current cell are dropped.
func (p *Parser) FetchSamples(ctx context.Context, path string) ([]signals.Sample, error) {
	src, err := p.sourceQuery(path)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT t, v, c FROM (%s) WHERE %s`, src, usableFilter)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []signals.Sample
	for rows.Next() {
		var s signals.Sample
		if err := rows.Scan(&s.Time, &s.Speed, &s.Current); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return samples, nil
}

func (p *Parser) GetFileStats(ctx context.Context, path string) (FileStats, error) {
	src, err := p.sourceQuery(path)
	if err != nil {
		return FileStats{}, err
	}

	query := fmt.Sprintf(`
		WITH src AS (%s),
		clean AS (SELECT * FROM src WHERE %s)
		SELECT
			(SELECT COUNT(*) FROM src),
			(SELECT COUNT(*) FROM clean),
			(SELECT MIN(t) FROM clean),
			(SELECT MAX(t) FROM clean)
	`, src, usableFilter)

	var stats FileStats
	var minTime, maxTime sql.NullFloat64
	err = p.db.QueryRowContext(ctx, query).Scan(&stats.TotalRows, &stats.UsableRows, &minTime, &maxTime)
	if err != nil {
		return FileStats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	stats.MinTime = minTime.Float64
	stats.MaxTime = maxTime.Float64

	return stats, nil
}
