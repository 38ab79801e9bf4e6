package repository

import (
	"database/sql"

	"github.com/nextcampus/crm-backend/internal/model"
)

// TrackerRepositoryInterface is the delivery tracker: the durable record of
// which customers an automation has already messaged.
type TrackerRepositoryInterface interface {
	TrackedCustomerIDs(automationID int) ([]int, error)
	AlreadySent(automationID, customerID int) (bool, error)
	// RecordSent is insert-or-ignore on the unique (automation, customer)
	// pair; a duplicate is a no-op, not an error. Reports whether a row was
	// inserted.
	RecordSent(automationID, customerID int) (bool, error)
	Entries(automationID int) ([]model.TrackerEntry, error)
	Clear(automationID int) (int, error)
}

type TrackerRepository struct {
	DB *sql.DB
}

func (r *TrackerRepository) TrackedCustomerIDs(automationID int) ([]int, error) {
	rows, err := r.DB.Query(
		`SELECT customer_id FROM automation_tracker WHERE automation_id = $1`,
		automationID,
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

func (r *TrackerRepository) AlreadySent(automationID, customerID int) (bool, error) {
	var one int
	err := r.DB.QueryRow(
		`SELECT 1 FROM automation_tracker WHERE automation_id = $1 AND customer_id = $2 LIMIT 1`,
		automationID, customerID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *TrackerRepository) RecordSent(automationID, customerID int) (bool, error) {
	res, err := r.DB.Exec(`
        INSERT INTO automation_tracker (automation_id, customer_id)
        VALUES ($1, $2)
        ON CONFLICT (automation_id, customer_id) DO NOTHING
    `, automationID, customerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *TrackerRepository) Entries(automationID int) ([]model.TrackerEntry, error) {
	rows, err := r.DB.Query(`
        SELECT id, automation_id, customer_id, message_sent_at
        FROM automation_tracker
        WHERE automation_id = $1
        ORDER BY message_sent_at DESC
    `, automationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.TrackerEntry{}
	for rows.Next() {
		var e model.TrackerEntry
		if err := rows.Scan(&e.ID, &e.AutomationID, &e.CustomerID, &e.MessageSentAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *TrackerRepository) Clear(automationID int) (int, error) {
	res, err := r.DB.Exec(`DELETE FROM automation_tracker WHERE automation_id = $1`, automationID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ TrackerRepositoryInterface = (*TrackerRepository)(nil)
