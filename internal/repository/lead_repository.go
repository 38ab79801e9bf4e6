package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/model"

	"github.com/lib/pq"
)

type LeadSearchParams struct {
	Search     string
	Stage      model.LeadStage
	AssignedTo string
	Page       int
	Limit      int
}

type LeadRepositoryInterface interface {
	List(params LeadSearchParams) ([]model.Lead, int, error)
	GetByID(id int) (*model.Lead, error)
	Create(l *model.Lead) error
	Update(l *model.Lead) error
	Delete(id int) error
	BulkUpdateStage(ids []int, stage model.LeadStage) (int, error)
	BulkAssign(ids []int, assignee string) (int, error)
}

type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `id, first_name, last_name, email, mobile, source, stage, assigned_to, notes, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Mobile,
		&l.Source, &l.Stage, &l.AssignedTo, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) List(params LeadSearchParams) ([]model.Lead, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	argPos := 1

	if params.Search != "" {
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)`,
			argPos, argPos, argPos)
		args = append(args, "%"+params.Search+"%")
		argPos++
	}
	if params.Stage != "" {
		where += fmt.Sprintf(` AND stage = $%d`, argPos)
		args = append(args, params.Stage)
		argPos++
	}
	if params.AssignedTo != "" {
		where += fmt.Sprintf(` AND assigned_to = $%d`, argPos)
		args = append(args, params.AssignedTo)
		argPos++
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM leads `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, argPos, argPos+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *l)
	}
	return leads, total, rows.Err()
}

func (r *LeadRepository) GetByID(id int) (*model.Lead, error) {
	row := r.DB.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewLeadNotFound(id)
	}
	return l, err
}

func (r *LeadRepository) Create(l *model.Lead) error {
	if l.Stage == "" {
		l.Stage = model.StageNew
	}
	query := `
        INSERT INTO leads (first_name, last_name, email, mobile, source, stage, assigned_to, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query, l.FirstName, l.LastName, l.Email, l.Mobile,
		l.Source, l.Stage, l.AssignedTo, l.Notes).Scan(&l.ID, &l.CreatedAt)
}

func (r *LeadRepository) Update(l *model.Lead) error {
	query := `
        UPDATE leads
        SET first_name=$1, last_name=$2, email=$3, mobile=$4, source=$5, stage=$6, assigned_to=$7, notes=$8, updated_at=NOW()
        WHERE id=$9
    `
	res, err := r.DB.Exec(query, l.FirstName, l.LastName, l.Email, l.Mobile,
		l.Source, l.Stage, l.AssignedTo, l.Notes, l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewLeadNotFound(l.ID)
	}
	return nil
}

func (r *LeadRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM leads WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewLeadNotFound(id)
	}
	return nil
}

func (r *LeadRepository) BulkUpdateStage(ids []int, stage model.LeadStage) (int, error) {
	res, err := r.DB.Exec(
		`UPDATE leads SET stage=$1, updated_at=NOW() WHERE id = ANY($2)`,
		stage, pq.Array(ids),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *LeadRepository) BulkAssign(ids []int, assignee string) (int, error) {
	res, err := r.DB.Exec(
		`UPDATE leads SET assigned_to=$1, updated_at=NOW() WHERE id = ANY($2)`,
		assignee, pq.Array(ids),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
