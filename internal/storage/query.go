package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	rawQueryTimeout  = 5 * time.Second
	rawQueryRowLimit = 1000
)

var (
	errEmptyQuery          = errors.New("empty query")
	errNotSelect           = errors.New("only SELECT queries allowed")
	errMultiStatementQuery = errors.New("multi-statement queries not allowed")
)

// ExecuteQuery runs an ad-hoc read-only SQL query, used by the UI
// query console. Only single SELECT statements are accepted and a row
// limit is appended when the query does not carry one.
func (s *Storage) ExecuteQuery(ctx context.Context, rawSQL string) (*QueryResult, error) {
	query := strings.TrimSpace(rawSQL)
	if query == "" {
		return nil, errEmptyQuery
	}
	if !strings.HasPrefix(strings.ToUpper(query), "SELECT") {
		return nil, errNotSelect
	}
	// A trailing semicolon is ordinary console input, not a second
	// statement.
	query = strings.TrimSpace(strings.TrimSuffix(query, ";"))
	if strings.Contains(query, ";") {
		return nil, errMultiStatementQuery
	}
	if !strings.Contains(strings.ToUpper(query), "LIMIT") {
		query = fmt.Sprintf("%s LIMIT %d", query, rawQueryRowLimit)
	}

	ctx, cancel := context.WithTimeout(ctx, rawQueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewQueryError("query failed", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, NewQueryError("failed to read columns", err)
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, NewQueryError("failed to scan row", err)
		}
		// Byte slices alias driver buffers; copy them out as strings.
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("error reading results", err)
	}
	return result, nil
}
