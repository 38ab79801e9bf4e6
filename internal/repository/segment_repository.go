package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/model"
)

type SegmentSearchParams struct {
	Search string
	Type   model.SegmentType
	Page   int
	Limit  int
}

type SegmentRepositoryInterface interface {
	List(params SegmentSearchParams) ([]model.CustomerSegmentWithCount, int, error)
	GetByID(id int) (*model.CustomerSegment, error)
	Create(s *model.CustomerSegment) error
	Update(s *model.CustomerSegment) error
	Delete(id int) error

	// Trusted, operator-authored read path for sql-type segments.
	ExecuteSelectionSQL(query string) ([]int, error)

	// Manual membership list.
	GetMemberIDs(segmentID int) ([]int, error)
	AddMember(segmentID, customerID int) (bool, error)
	RemoveMember(segmentID, customerID int) error
	ClearMembers(segmentID int) (int, error)
}

type SegmentRepository struct {
	DB *sql.DB
}

const segmentColumns = `id, name, description, type, selection_sql, handler_function, created_at, updated_at`

func scanSegment(row interface{ Scan(...any) error }) (*model.CustomerSegment, error) {
	var s model.CustomerSegment
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Type, &s.SelectionSQL,
		&s.HandlerFunction, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SegmentRepository) List(params SegmentSearchParams) ([]model.CustomerSegmentWithCount, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	argPos := 1

	if params.Search != "" {
		where += fmt.Sprintf(` AND (cs.name ILIKE $%d OR cs.description ILIKE $%d)`, argPos, argPos)
		args = append(args, "%"+params.Search+"%")
		argPos++
	}
	if params.Type != "" {
		where += fmt.Sprintf(` AND cs.type = $%d`, argPos)
		args = append(args, params.Type)
		argPos++
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM customer_segments cs `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT cs.id, cs.name, cs.description, cs.type, cs.selection_sql, cs.handler_function, cs.created_at, cs.updated_at,
            COALESCE((SELECT COUNT(*) FROM customer_segment_customer_list WHERE customer_segment_id = cs.id), 0)::int AS customer_count
        FROM customer_segments cs
        %s
        ORDER BY cs.created_at DESC
        LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	segments := []model.CustomerSegmentWithCount{}
	for rows.Next() {
		var s model.CustomerSegmentWithCount
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Type, &s.SelectionSQL,
			&s.HandlerFunction, &s.CreatedAt, &s.UpdatedAt, &s.CustomerCount); err != nil {
			return nil, 0, err
		}
		segments = append(segments, s)
	}
	return segments, total, rows.Err()
}

func (r *SegmentRepository) GetByID(id int) (*model.CustomerSegment, error) {
	row := r.DB.QueryRow(`SELECT `+segmentColumns+` FROM customer_segments WHERE id = $1`, id)
	s, err := scanSegment(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewSegmentNotFound(id)
	}
	return s, err
}

func (r *SegmentRepository) Create(s *model.CustomerSegment) error {
	query := `
        INSERT INTO customer_segments (name, description, type, selection_sql, handler_function)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query, s.Name, s.Description, s.Type, s.SelectionSQL, s.HandlerFunction).
		Scan(&s.ID, &s.CreatedAt)
}

func (r *SegmentRepository) Update(s *model.CustomerSegment) error {
	query := `
        UPDATE customer_segments
        SET name=$1, description=$2, type=$3, selection_sql=$4, handler_function=$5, updated_at=NOW()
        WHERE id=$6
    `
	res, err := r.DB.Exec(query, s.Name, s.Description, s.Type, s.SelectionSQL, s.HandlerFunction, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewSegmentNotFound(s.ID)
	}
	return nil
}

func (r *SegmentRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM customer_segments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewSegmentNotFound(id)
	}
	return nil
}

// ====================== Manual membership ======================

func (r *SegmentRepository) GetMemberIDs(segmentID int) ([]int, error) {
	rows, err := r.DB.Query(
		`SELECT customer_id FROM customer_segment_customer_list WHERE customer_segment_id = $1`,
		segmentID,
	)
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

// AddMember inserts the pair, ignoring duplicates. Reports whether a row
// was actually inserted.
func (r *SegmentRepository) AddMember(segmentID, customerID int) (bool, error) {
	res, err := r.DB.Exec(`
        INSERT INTO customer_segment_customer_list (customer_segment_id, customer_id)
        VALUES ($1, $2)
        ON CONFLICT (customer_segment_id, customer_id) DO NOTHING
    `, segmentID, customerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SegmentRepository) RemoveMember(segmentID, customerID int) error {
	_, err := r.DB.Exec(
		`DELETE FROM customer_segment_customer_list WHERE customer_segment_id=$1 AND customer_id=$2`,
		segmentID, customerID,
	)
	return err
}

func (r *SegmentRepository) ClearMembers(segmentID int) (int, error) {
	res, err := r.DB.Exec(
		`DELETE FROM customer_segment_customer_list WHERE customer_segment_id=$1`,
		segmentID,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ SegmentRepositoryInterface = (*SegmentRepository)(nil)
