package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/model"
)

type TemplateSearchParams struct {
	Search string
	Type   model.TemplateType
	Page   int
	Limit  int
}

type TemplateRepositoryInterface interface {
	List(params TemplateSearchParams) ([]model.MessageTemplate, int, error)
	GetByID(id int) (*model.MessageTemplate, error)
	Create(t *model.MessageTemplate) error
	Update(t *model.MessageTemplate) error
	Delete(id int) error
}

type TemplateRepository struct {
	DB *sql.DB
}

const templateColumns = `id, name, type, templating_type, subject, message, from_email, reply_to, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*model.MessageTemplate, error) {
	var t model.MessageTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Type, &t.TemplatingType, &t.Subject,
		&t.Message, &t.FromEmail, &t.ReplyTo, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) List(params TemplateSearchParams) ([]model.MessageTemplate, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	argPos := 1

	if params.Search != "" {
		where += fmt.Sprintf(` AND (name ILIKE $%d OR subject ILIKE $%d)`, argPos, argPos)
		args = append(args, "%"+params.Search+"%")
		argPos++
	}
	if params.Type != "" {
		where += fmt.Sprintf(` AND type = $%d`, argPos)
		args = append(args, params.Type)
		argPos++
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM message_templates `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM message_templates %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		templateColumns, where, argPos, argPos+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	templates := []model.MessageTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		templates = append(templates, *t)
	}
	return templates, total, rows.Err()
}

func (r *TemplateRepository) GetByID(id int) (*model.MessageTemplate, error) {
	row := r.DB.QueryRow(`SELECT `+templateColumns+` FROM message_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	return t, err
}

func (r *TemplateRepository) Create(t *model.MessageTemplate) error {
	if t.TemplatingType == "" {
		t.TemplatingType = "mjml"
	}
	query := `
        INSERT INTO message_templates (name, type, templating_type, subject, message, from_email, reply_to)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query, t.Name, t.Type, t.TemplatingType, t.Subject, t.Message, t.FromEmail, t.ReplyTo).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *TemplateRepository) Update(t *model.MessageTemplate) error {
	query := `
        UPDATE message_templates
        SET name=$1, type=$2, templating_type=$3, subject=$4, message=$5, from_email=$6, reply_to=$7, updated_at=NOW()
        WHERE id=$8
    `
	res, err := r.DB.Exec(query, t.Name, t.Type, t.TemplatingType, t.Subject, t.Message, t.FromEmail, t.ReplyTo, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewTemplateNotFound(t.ID)
	}
	return nil
}

func (r *TemplateRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM message_templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewTemplateNotFound(id)
	}
	return nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
