package runtime

import (
	"context"
	"time"

	"github.com/risor-io/risor/object"

	"github.com/Tired-Fox/papi/internal/store"
)

// makeDBQueryFn creates the "db_query" host function.
//
// db_query(sql, args...) → list of row maps
//
// Queries run on the store's read-only handle; a statement that writes is
// a script error. Scripts scope their queries with the export_id global:
//
//	db_query("SELECT path FROM files WHERE export_id = ?", export_id)
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected the sql argument")
		}
		query, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: sql: %v", err)
		}
		params := make([]any, 0, len(args)-1)
		for _, arg := range args[1:] {
			params = append(params, queryParam(arg))
		}

		rows, err := s.ReadQuery(ctx, query, params...)
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}
		out := make([]object.Object, len(rows))
		for i, row := range rows {
			m := make(map[string]object.Object, len(row))
			for col, v := range row {
				obj := object.FromGoType(v)
				if object.IsError(obj) {
					return obj
				}
				m[col] = obj
			}
			out[i] = object.NewMap(m)
		}
		return object.NewList(out)
	})
}

// queryParam converts a script value to an SQL parameter. Values without a
// Go equivalent are bound as their string form.
func queryParam(arg object.Object) any {
	switch v := arg.Interface().(type) {
	case nil, int64, float64, string, bool, []byte, time.Time:
		return v
	default:
		return arg.Inspect()
	}
}
