package repository

import (
	"strconv"

	"github.com/pkg/errors"
)

// identifying columns checked in priority order
var idColumns = []string{"customer_id", "id", "customerId"}

// ExecuteSelectionSQL runs an operator-authored segment query verbatim and
// extracts customer IDs from it. Segment definitions are trusted input
// (authored by operators, not end users); the only guard is a read-only
// transaction so a typo cannot mutate data. The result set must expose one
// of customer_id, id or customerId; rows whose value cannot be coerced to
// an integer are dropped.
func (r *SegmentRepository) ExecuteSelectionSQL(query string) ([]int, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`SET TRANSACTION READ ONLY`); err != nil {
		return nil, err
	}

	rows, err := tx.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	idIdx := -1
	for _, want := range idColumns {
		for i, col := range cols {
			if col == want {
				idIdx = i
				break
			}
		}
		if idIdx >= 0 {
			break
		}
	}
	if idIdx < 0 {
		return nil, errors.Errorf("selection SQL must return a customer_id, id or customerId column, got %v", cols)
	}

	ids := []int{}
	values := make([]any, len(cols))
	for i := range values {
		values[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(values...); err != nil {
			return nil, err
		}
		if id, ok := coerceID(*values[idIdx].(*any)); ok {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, tx.Commit()
}

func coerceID(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	case []byte:
		id, err := strconv.Atoi(string(n))
		return id, err == nil
	case string:
		id, err := strconv.Atoi(n)
		return id, err == nil
	default:
		return 0, false
	}
}
