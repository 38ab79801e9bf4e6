package service

import (
	"context"
	"database/sql"
)

// BuiltinHandlers returns the registry of built-in segment handlers. New
// handlers are added here, at startup; the resolver never loads them
// dynamically.
func BuiltinHandlers(db *sql.DB) *HandlerRegistry {
	registry := NewHandlerRegistry()

	// Customers who completed the sales funnel.
	registry.Register("sales_completed", func(ctx context.Context) ([]int, error) {
		return queryIDs(ctx, db, `
            SELECT DISTINCT customer_id FROM funnel_events
            WHERE funnel_type = 'sales' AND to_stage = 'completed'
        `)
	})

	// Customers created in the last 30 days.
	registry.Register("recent_signups", func(ctx context.Context) ([]int, error) {
		return queryIDs(ctx, db, `
            SELECT id FROM customers
            WHERE created_at >= NOW() - INTERVAL '30 days'
        `)
	})

	// Customers with no funnel events at all.
	registry.Register("no_activity", func(ctx context.Context) ([]int, error) {
		return queryIDs(ctx, db, `
            SELECT c.id FROM customers c
            LEFT JOIN funnel_events fe ON c.id = fe.customer_id
            WHERE fe.id IS NULL
        `)
	})

	// Customers mid-way through the sales funnel.
	registry.Register("sales_in_progress", func(ctx context.Context) ([]int, error) {
		return queryIDs(ctx, db, `
            SELECT DISTINCT fe.customer_id
            FROM funnel_events fe
            WHERE fe.funnel_type = 'sales'
            AND fe.customer_id NOT IN (
                SELECT customer_id FROM funnel_events
                WHERE funnel_type = 'sales' AND to_stage IN ('completed', 'lost', 'cancelled')
            )
        `)
	})

	return registry
}

func queryIDs(ctx context.Context, db *sql.DB, query string) ([]int, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
