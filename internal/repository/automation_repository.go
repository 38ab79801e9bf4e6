package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/model"
)

type AutomationSearchParams struct {
	Search     string
	IsActive   *bool
	SegmentID  int
	TemplateID int
	Page       int
	Limit      int
}

type AutomationRepositoryInterface interface {
	List(params AutomationSearchParams) ([]model.AutomationWithRelations, int, error)
	GetByID(id int) (*model.Automation, error)
	GetWithRelations(id int) (*model.AutomationWithRelations, error)
	ListActive() ([]model.Automation, error)
	Create(a *model.Automation) error
	Update(a *model.Automation) error
	Delete(id int) error

	// Execution logs.
	CreateLog(automationID int, status model.LogStatus) (*model.AutomationLog, error)
	FinalizeLog(logID int, status model.LogStatus, customersProcessed int, errorMessage *string) error
	ListLogs(automationID, page, limit int) ([]model.AutomationLog, int, error)
	GetLog(logID int) (*model.AutomationLogWithDetails, error)
	RecentLogs(limit int) ([]model.AutomationLogWithDetails, error)
}

type AutomationRepository struct {
	DB *sql.DB
}

const automationColumns = `id, name, description, customer_segment_id, message_template_id, cron, is_active, created_at, updated_at`

func scanAutomation(row interface{ Scan(...any) error }) (*model.Automation, error) {
	var a model.Automation
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.CustomerSegmentID,
		&a.MessageTemplateID, &a.Cron, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AutomationRepository) List(params AutomationSearchParams) ([]model.AutomationWithRelations, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	argPos := 1

	if params.Search != "" {
		where += fmt.Sprintf(` AND (a.name ILIKE $%d OR a.description ILIKE $%d)`, argPos, argPos)
		args = append(args, "%"+params.Search+"%")
		argPos++
	}
	if params.IsActive != nil {
		where += fmt.Sprintf(` AND a.is_active = $%d`, argPos)
		args = append(args, *params.IsActive)
		argPos++
	}
	if params.SegmentID > 0 {
		where += fmt.Sprintf(` AND a.customer_segment_id = $%d`, argPos)
		args = append(args, params.SegmentID)
		argPos++
	}
	if params.TemplateID > 0 {
		where += fmt.Sprintf(` AND a.message_template_id = $%d`, argPos)
		args = append(args, params.TemplateID)
		argPos++
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM automations a `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT a.id, a.name, a.description, a.customer_segment_id, a.message_template_id, a.cron, a.is_active, a.created_at, a.updated_at,
            cs.name AS segment_name, mt.name AS template_name, mt.type AS template_type
        FROM automations a
        LEFT JOIN customer_segments cs ON a.customer_segment_id = cs.id
        LEFT JOIN message_templates mt ON a.message_template_id = mt.id
        %s
        ORDER BY a.created_at DESC
        LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	automations := []model.AutomationWithRelations{}
	for rows.Next() {
		var a model.AutomationWithRelations
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.CustomerSegmentID,
			&a.MessageTemplateID, &a.Cron, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
			&a.SegmentName, &a.TemplateName, &a.TemplateType); err != nil {
			return nil, 0, err
		}
		automations = append(automations, a)
	}
	return automations, total, rows.Err()
}

func (r *AutomationRepository) GetByID(id int) (*model.Automation, error) {
	row := r.DB.QueryRow(`SELECT `+automationColumns+` FROM automations WHERE id = $1`, id)
	a, err := scanAutomation(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewAutomationNotFound(id)
	}
	return a, err
}

func (r *AutomationRepository) GetWithRelations(id int) (*model.AutomationWithRelations, error) {
	query := `
        SELECT a.id, a.name, a.description, a.customer_segment_id, a.message_template_id, a.cron, a.is_active, a.created_at, a.updated_at,
            cs.name AS segment_name, mt.name AS template_name, mt.type AS template_type
        FROM automations a
        LEFT JOIN customer_segments cs ON a.customer_segment_id = cs.id
        LEFT JOIN message_templates mt ON a.message_template_id = mt.id
        WHERE a.id = $1
    `
	var a model.AutomationWithRelations
	err := r.DB.QueryRow(query, id).Scan(&a.ID, &a.Name, &a.Description, &a.CustomerSegmentID,
		&a.MessageTemplateID, &a.Cron, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		&a.SegmentName, &a.TemplateName, &a.TemplateType)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewAutomationNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListActive returns the automations the external trigger should schedule.
func (r *AutomationRepository) ListActive() ([]model.Automation, error) {
	rows, err := r.DB.Query(`SELECT ` + automationColumns + ` FROM automations WHERE is_active = true ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	automations := []model.Automation{}
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		automations = append(automations, *a)
	}
	return automations, rows.Err()
}

func (r *AutomationRepository) Create(a *model.Automation) error {
	query := `
        INSERT INTO automations (name, description, customer_segment_id, message_template_id, cron, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query, a.Name, a.Description, a.CustomerSegmentID,
		a.MessageTemplateID, a.Cron, a.IsActive).Scan(&a.ID, &a.CreatedAt)
}

func (r *AutomationRepository) Update(a *model.Automation) error {
	query := `
        UPDATE automations
        SET name=$1, description=$2, customer_segment_id=$3, message_template_id=$4, cron=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7
    `
	res, err := r.DB.Exec(query, a.Name, a.Description, a.CustomerSegmentID,
		a.MessageTemplateID, a.Cron, a.IsActive, a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewAutomationNotFound(a.ID)
	}
	return nil
}

func (r *AutomationRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM automations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewAutomationNotFound(id)
	}
	return nil
}

// ====================== Execution logs ======================

func (r *AutomationRepository) CreateLog(automationID int, status model.LogStatus) (*model.AutomationLog, error) {
	var l model.AutomationLog
	err := r.DB.QueryRow(`
        INSERT INTO automation_logs (automation_id, status)
        VALUES ($1, $2)
        RETURNING id, automation_id, status, customers_processed, error_message, started_at, completed_at
    `, automationID, status).Scan(&l.ID, &l.AutomationID, &l.Status,
		&l.CustomersProcessed, &l.ErrorMessage, &l.StartedAt, &l.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FinalizeLog writes the one terminal update of a log row.
func (r *AutomationRepository) FinalizeLog(logID int, status model.LogStatus, customersProcessed int, errorMessage *string) error {
	_, err := r.DB.Exec(`
        UPDATE automation_logs
        SET status=$1, customers_processed=$2, error_message=$3, completed_at=CURRENT_TIMESTAMP
        WHERE id=$4
    `, status, customersProcessed, errorMessage, logID)
	return err
}

func (r *AutomationRepository) ListLogs(automationID, page, limit int) ([]model.AutomationLog, int, error) {
	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM automation_logs WHERE automation_id = $1`, automationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(`
        SELECT id, automation_id, status, customers_processed, error_message, started_at, completed_at
        FROM automation_logs
        WHERE automation_id = $1
        ORDER BY started_at DESC
        LIMIT $2 OFFSET $3
    `, automationID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := []model.AutomationLog{}
	for rows.Next() {
		var l model.AutomationLog
		if err := rows.Scan(&l.ID, &l.AutomationID, &l.Status, &l.CustomersProcessed,
			&l.ErrorMessage, &l.StartedAt, &l.CompletedAt); err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

func (r *AutomationRepository) GetLog(logID int) (*model.AutomationLogWithDetails, error) {
	var l model.AutomationLogWithDetails
	err := r.DB.QueryRow(`
        SELECT al.id, al.automation_id, al.status, al.customers_processed, al.error_message, al.started_at, al.completed_at,
            a.name AS automation_name
        FROM automation_logs al
        JOIN automations a ON al.automation_id = a.id
        WHERE al.id = $1
    `, logID).Scan(&l.ID, &l.AutomationID, &l.Status, &l.CustomersProcessed,
		&l.ErrorMessage, &l.StartedAt, &l.CompletedAt, &l.AutomationName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *AutomationRepository) RecentLogs(limit int) ([]model.AutomationLogWithDetails, error) {
	rows, err := r.DB.Query(`
        SELECT al.id, al.automation_id, al.status, al.customers_processed, al.error_message, al.started_at, al.completed_at,
            a.name AS automation_name
        FROM automation_logs al
        JOIN automations a ON al.automation_id = a.id
        ORDER BY al.started_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.AutomationLogWithDetails{}
	for rows.Next() {
		var l model.AutomationLogWithDetails
		if err := rows.Scan(&l.ID, &l.AutomationID, &l.Status, &l.CustomersProcessed,
			&l.ErrorMessage, &l.StartedAt, &l.CompletedAt, &l.AutomationName); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

var _ AutomationRepositoryInterface = (*AutomationRepository)(nil)
