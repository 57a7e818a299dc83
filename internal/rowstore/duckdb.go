package rowstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/certstudio/backend/internal/models"
)

// DuckIndex stores rows in long format in DuckDB so large rosters can be
// queried without holding a second copy in memory.
type DuckIndex struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
	rows   int
	closed bool
}

// NewDuckIndex opens a DuckDB database at dbPath, or in memory when dbPath
// is empty.
func NewDuckIndex(dbPath, memoryLimit string) (*DuckIndex, error) {
	if memoryLimit == "" {
		memoryLimit = "256MB"
	}
	fmt.Printf("[RowIndex] Creating DuckDB index at %q\n", dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", memoryLimit),
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				fmt.Printf("[RowIndex] Pragma error: %v\n", err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if _, err := db.Exec(`
		CREATE TABLE cells (
			row_idx INTEGER NOT NULL,
			col     VARCHAR NOT NULL,
			value   VARCHAR NOT NULL
		)
	`); err != nil {
		db.Close()
		if dbPath != "" {
			os.Remove(dbPath)
		}
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &DuckIndex{db: db, dbPath: dbPath}, nil
}

// Load replaces the rows using the native appender.
func (d *DuckIndex) Load(ctx context.Context, table *models.DataTable) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	start := time.Now()

	if _, err := d.db.ExecContext(ctx, "DELETE FROM cells"); err != nil {
		return fmt.Errorf("clearing cells: %w", err)
	}
	d.rows = 0
	if table == nil || len(table.Rows) == 0 {
		return nil
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}
		appender, err := duckdb.NewAppenderFromConn(dConn, "", "cells")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, row := range table.Rows {
			for col, value := range row {
				if err := appender.AppendRow(int32(i), col, value); err != nil {
					return fmt.Errorf("failed to append row %d: %w", i, err)
				}
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	d.rows = len(table.Rows)
	fmt.Printf("[RowIndex] Loaded %d rows in %v\n", d.rows, time.Since(start))
	return nil
}

func (d *DuckIndex) Longest(ctx context.Context, column string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return "", ErrClosed
	}
	var v string
	err := d.db.QueryRowContext(ctx, `
		SELECT value FROM cells
		WHERE col = ? AND length(value) > 0
		ORDER BY length(value) DESC, row_idx ASC
		LIMIT 1
	`, column).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("longest %s: %w", column, err)
	}
	return v, nil
}

func (d *DuckIndex) LongestJoined(ctx context.Context, columns []string, sep string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}
	columns = uniqueColumns(columns)
	if len(columns) == 0 {
		return nil, nil
	}

	pos, inList, caseArgs, inArgs := positionExpr(columns)
	query := fmt.Sprintf(`
		SELECT row_idx FROM (
			SELECT row_idx, string_agg(value, ? ORDER BY pos) AS joined
			FROM (
				SELECT row_idx, value, %s AS pos FROM cells
				WHERE col IN (%s) AND trim(value) <> ''
			)
			GROUP BY row_idx
		)
		ORDER BY length(joined) DESC, row_idx ASC
		LIMIT 1
	`, pos, inList)

	var rowIdx int32
	args := append(append([]any{sep}, caseArgs...), inArgs...)
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&rowIdx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("longest joined: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT value FROM (
			SELECT value, %s AS pos FROM cells
			WHERE row_idx = ? AND col IN (%s) AND trim(value) <> ''
		)
		ORDER BY pos
	`, pos, inList), append(append(caseArgs, rowIdx), inArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("row %d values: %w", rowIdx, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// positionExpr builds a CASE expression ranking columns in order, the
// matching IN list, and the parameters of each.
func positionExpr(columns []string) (string, string, []any, []any) {
	var b strings.Builder
	b.WriteString("CASE col")
	caseArgs := make([]any, 0, len(columns))
	inArgs := make([]any, 0, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		fmt.Fprintf(&b, " WHEN ? THEN %d", i)
		caseArgs = append(caseArgs, c)
		inArgs = append(inArgs, c)
		marks[i] = "?"
	}
	b.WriteString(" END")
	return b.String(), strings.Join(marks, ", "), caseArgs, inArgs
}

func (d *DuckIndex) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rows
}

// Close releases the database and removes its file.
func (d *DuckIndex) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.db != nil {
		d.db.Close()
	}
	if d.dbPath != "" {
		os.Remove(d.dbPath)
	}
	return nil
}
