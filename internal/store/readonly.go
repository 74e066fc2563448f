package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Row is one result row of ReadQuery keyed by column name.
type Row map[string]any

// readOnly opens a second handle on the database file with mode=ro. SQLite
// refuses every write on it, including statements trailing the first one
// and pragmas that would lift the restriction.
func (s *Store) readOnly() (*sql.DB, error) {
	s.roOnce.Do(func() {
		db, err := sql.Open("sqlite3", "file:"+s.path+"?mode=ro&_busy_timeout=30000")
		if err == nil {
			err = db.Ping()
		}
		if err != nil {
			s.roErr = fmt.Errorf("store: open read-only: %w", err)
			return
		}
		s.ro = db
	})
	return s.ro, s.roErr
}

// ReadQuery runs caller-supplied SQL on the read-only handle and returns
// the rows keyed by column name. []byte values are returned as strings.
func (s *Store) ReadQuery(ctx context.Context, query string, args ...any) ([]Row, error) {
	db, err := s.readOnly()
	if err != nil {
		return nil, err
	}
	res, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: read query: %w", err)
	}
	defer res.Close()
	rows, err := scanRows(res)
	if err != nil {
		return nil, fmt.Errorf("store: read query: %w", err)
	}
	return rows, nil
}

func scanRows(res *sql.Rows) ([]Row, error) {
	cols, err := res.Columns()
	if err != nil {
		return nil, err
	}
	out := []Row{}
	for res.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := res.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, res.Err()
}
