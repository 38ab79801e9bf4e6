package repository

import (
	"database/sql"
	"fmt"

	"github.com/nextcampus/crm-backend/internal/model"
)

type FunnelEventSearchParams struct {
	CustomerID    int
	CustomerEmail string
	FunnelType    string
	FromStage     string
	ToStage       string
	Page          int
	Limit         int
}

type FunnelEventRepositoryInterface interface {
	List(params FunnelEventSearchParams) ([]model.FunnelEventWithCustomer, int, error)
	GetByID(id int) (*model.FunnelEventWithCustomer, error)
	Create(e *model.FunnelEvent) error
}

type FunnelEventRepository struct {
	DB *sql.DB
}

func (r *FunnelEventRepository) List(params FunnelEventSearchParams) ([]model.FunnelEventWithCustomer, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	argPos := 1

	if params.CustomerID > 0 {
		where += fmt.Sprintf(` AND fe.customer_id = $%d`, argPos)
		args = append(args, params.CustomerID)
		argPos++
	}
	if params.CustomerEmail != "" {
		where += fmt.Sprintf(` AND c.email ILIKE $%d`, argPos)
		args = append(args, "%"+params.CustomerEmail+"%")
		argPos++
	}
	if params.FunnelType != "" {
		where += fmt.Sprintf(` AND fe.funnel_type = $%d`, argPos)
		args = append(args, params.FunnelType)
		argPos++
	}
	if params.FromStage != "" {
		where += fmt.Sprintf(` AND fe.from_stage = $%d`, argPos)
		args = append(args, params.FromStage)
		argPos++
	}
	if params.ToStage != "" {
		where += fmt.Sprintf(` AND fe.to_stage = $%d`, argPos)
		args = append(args, params.ToStage)
		argPos++
	}

	countQuery := `SELECT COUNT(*) FROM funnel_events fe JOIN customers c ON fe.customer_id = c.id ` + where
	var total int
	if err := r.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT fe.id, fe.customer_id, fe.funnel_type, fe.from_stage, fe.to_stage, fe.metadata, fe.created_at,
            c.email AS customer_email
        FROM funnel_events fe
        JOIN customers c ON fe.customer_id = c.id
        %s
        ORDER BY fe.created_at DESC
        LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := []model.FunnelEventWithCustomer{}
	for rows.Next() {
		var e model.FunnelEventWithCustomer
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.FunnelType, &e.FromStage,
			&e.ToStage, &e.Metadata, &e.CreatedAt, &e.CustomerEmail); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *FunnelEventRepository) GetByID(id int) (*model.FunnelEventWithCustomer, error) {
	var e model.FunnelEventWithCustomer
	err := r.DB.QueryRow(`
        SELECT fe.id, fe.customer_id, fe.funnel_type, fe.from_stage, fe.to_stage, fe.metadata, fe.created_at,
            c.email AS customer_email
        FROM funnel_events fe
        JOIN customers c ON fe.customer_id = c.id
        WHERE fe.id = $1
    `, id).Scan(&e.ID, &e.CustomerID, &e.FunnelType, &e.FromStage,
		&e.ToStage, &e.Metadata, &e.CreatedAt, &e.CustomerEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *FunnelEventRepository) Create(e *model.FunnelEvent) error {
	metadata := []byte(e.Metadata)
	if len(metadata) == 0 {
		metadata = []byte(`{}`)
	}
	query := `
        INSERT INTO funnel_events (customer_id, funnel_type, from_stage, to_stage, metadata)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query, e.CustomerID, e.FunnelType, e.FromStage, e.ToStage, metadata).
		Scan(&e.ID, &e.CreatedAt)
}

var _ FunnelEventRepositoryInterface = (*FunnelEventRepository)(nil)
