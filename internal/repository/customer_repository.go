package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/nextcampus/crm-backend/internal/errors"
	"github.com/nextcampus/crm-backend/internal/model"

	"github.com/lib/pq"
)

// CustomerSearchParams filters the customer list endpoint.
type CustomerSearchParams struct {
	Search    string
	Email     string
	LmsLeadID string
	Page      int
	Limit     int
}

type CustomerRepositoryInterface interface {
	List(params CustomerSearchParams) ([]model.Customer, int, error)
	GetByID(id int) (*model.Customer, error)
	GetByEmail(email string) (*model.Customer, error)
	GetByIDs(ids []int) ([]model.Customer, error)
	Upsert(c *model.Customer) error
	Update(c *model.Customer) error
	Delete(id int) error

	GetAttributes(customerID int) ([]model.CustomerAttribute, error)
	UpsertAttribute(a *model.CustomerAttribute) error
	DeleteAttribute(customerID int, fieldName string) error
	GetWithAttributes(customerID int) (*model.CustomerWithAttributes, error)
}

type CustomerRepository struct {
	DB *sql.DB
}

const customerColumns = `id, lms_lead_id, first_name, last_name, email, mobile, source_created_at, source_updated_at, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID, &c.LmsLeadID, &c.FirstName, &c.LastName, &c.Email, &c.Mobile,
		&c.SourceCreatedAt, &c.SourceUpdatedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) List(params CustomerSearchParams) ([]model.Customer, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	argPos := 1

	if params.Search != "" {
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR lms_lead_id ILIKE $%d)`,
			argPos, argPos, argPos, argPos)
		args = append(args, "%"+params.Search+"%")
		argPos++
	}
	if params.Email != "" {
		where += fmt.Sprintf(` AND email ILIKE $%d`, argPos)
		args = append(args, "%"+params.Email+"%")
		argPos++
	}
	if params.LmsLeadID != "" {
		where += fmt.Sprintf(` AND lms_lead_id = $%d`, argPos)
		args = append(args, params.LmsLeadID)
		argPos++
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM customers `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		customerColumns, where, argPos, argPos+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

func (r *CustomerRepository) GetByID(id int) (*model.Customer, error) {
	row := r.DB.QueryRow(`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, appErrors.NewCustomerNotFound(id)
	}
	return c, err
}

func (r *CustomerRepository) GetByEmail(email string) (*model.Customer, error) {
	row := r.DB.QueryRow(`SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetByIDs is the bulk fetch used by the automation executor after segment
// resolution. Order is datastore-determined.
func (r *CustomerRepository) GetByIDs(ids []int) ([]model.Customer, error) {
	if len(ids) == 0 {
		return []model.Customer{}, nil
	}

	rows, err := r.DB.Query(`SELECT `+customerColumns+` FROM customers WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// Upsert inserts a customer keyed on email. On conflict existing values win
// unless the incoming row provides a non-null replacement.
func (r *CustomerRepository) Upsert(c *model.Customer) error {
	query := `
        INSERT INTO customers (lms_lead_id, first_name, last_name, email, mobile, source_created_at, source_updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (email) DO UPDATE SET
            lms_lead_id = COALESCE(EXCLUDED.lms_lead_id, customers.lms_lead_id),
            first_name = COALESCE(EXCLUDED.first_name, customers.first_name),
            last_name = COALESCE(EXCLUDED.last_name, customers.last_name),
            mobile = COALESCE(EXCLUDED.mobile, customers.mobile),
            source_created_at = COALESCE(EXCLUDED.source_created_at, customers.source_created_at),
            source_updated_at = COALESCE(EXCLUDED.source_updated_at, customers.source_updated_at),
            updated_at = CURRENT_TIMESTAMP
        RETURNING ` + customerColumns
	row := r.DB.QueryRow(query,
		c.LmsLeadID, c.FirstName, c.LastName, c.Email, c.Mobile,
		c.SourceCreatedAt, c.SourceUpdatedAt,
	)
	saved, err := scanCustomer(row)
	if err != nil {
		return err
	}
	*c = *saved
	return nil
}

func (r *CustomerRepository) Update(c *model.Customer) error {
	query := `
        UPDATE customers
        SET lms_lead_id=$1, first_name=$2, last_name=$3, email=$4, mobile=$5, updated_at=NOW()
        WHERE id=$6
    `
	res, err := r.DB.Exec(query, c.LmsLeadID, c.FirstName, c.LastName, c.Email, c.Mobile, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCustomerNotFound(c.ID)
	}
	return nil
}

func (r *CustomerRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCustomerNotFound(id)
	}
	return nil
}

// ====================== Attributes ======================

func (r *CustomerRepository) GetAttributes(customerID int) ([]model.CustomerAttribute, error) {
	query := `
        SELECT id, customer_id, field_type, field_name, field_value, source_created_at, source_updated_at, created_at, updated_at
        FROM customer_attributes
        WHERE customer_id = $1
        ORDER BY field_name
    `
	rows, err := r.DB.Query(query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := []model.CustomerAttribute{}
	for rows.Next() {
		var a model.CustomerAttribute
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.FieldType, &a.FieldName, &a.FieldValue,
			&a.SourceCreatedAt, &a.SourceUpdatedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

func (r *CustomerRepository) UpsertAttribute(a *model.CustomerAttribute) error {
	query := `
        INSERT INTO customer_attributes (customer_id, field_type, field_name, field_value, source_created_at, source_updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (customer_id, field_name) DO UPDATE SET
            field_type = EXCLUDED.field_type,
            field_value = EXCLUDED.field_value,
            source_created_at = COALESCE(EXCLUDED.source_created_at, customer_attributes.source_created_at),
            source_updated_at = COALESCE(EXCLUDED.source_updated_at, customer_attributes.source_updated_at),
            updated_at = CURRENT_TIMESTAMP
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query,
		a.CustomerID, a.FieldType, a.FieldName, []byte(a.FieldValue),
		a.SourceCreatedAt, a.SourceUpdatedAt,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *CustomerRepository) DeleteAttribute(customerID int, fieldName string) error {
	_, err := r.DB.Exec(`DELETE FROM customer_attributes WHERE customer_id=$1 AND field_name=$2`, customerID, fieldName)
	return err
}

func (r *CustomerRepository) GetWithAttributes(customerID int) (*model.CustomerWithAttributes, error) {
	customer, err := r.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	attrs, err := r.GetAttributes(customerID)
	if err != nil {
		return nil, err
	}
	return &model.CustomerWithAttributes{Customer: *customer, Attributes: attrs}, nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
