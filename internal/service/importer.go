package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nextcampus/crm-backend/internal/model"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxImportErrors bounds the per-row error list returned to the caller.
const maxImportErrors = 50

// ImportCustomerStore is the slice of the customer repository the importer
// needs.
type ImportCustomerStore interface {
	Upsert(c *model.Customer) error
	UpsertAttribute(a *model.CustomerAttribute) error
}

// ImportResult reports one CSV upload.
type ImportResult struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// CSVImporter ingests customer CSV files. The first row is the header;
// columns matching known customer fields map onto the customers table and
// every other column becomes a typed attribute. Rows are upserted keyed on
// email, so re-uploading the same file is harmless.
type CSVImporter struct {
	Customers ImportCustomerStore
	Logger    logrus.FieldLogger
}

// coreCustomerColumns are header names (after snake_case normalization)
// that map onto core customer fields instead of attributes.
var coreCustomerColumns = map[string]struct{}{
	"lms_lead_id":       {},
	"first_name":        {},
	"last_name":         {},
	"email":             {},
	"mobile":            {},
	"source_created_at": {},
	"source_updated_at": {},
}

// Import reads the whole CSV. A row without an email is skipped and
// reported; a row that fails to persist is skipped and reported; neither
// aborts the file.
func (imp *CSVImporter) Import(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv file")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv header")
	}

	// Normalize headers once: trim, strip a UTF-8 BOM from the first cell,
	// and fold camelCase names onto the snake_case column set.
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		columns[i] = ToSnakeCase(name)
	}

	emailIdx := -1
	for i, name := range columns {
		if name == "email" {
			emailIdx = i
			break
		}
	}
	if emailIdx == -1 {
		return nil, errors.New("csv is missing the required email column")
	}

	result := &ImportResult{Errors: []string{}}
	rowNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.Skipped++
			result.addError(fmt.Sprintf("row %d: %s", rowNum, err))
			continue
		}

		if err := imp.importRow(columns, emailIdx, record); err != nil {
			result.Skipped++
			result.addError(fmt.Sprintf("row %d: %s", rowNum, err))
			continue
		}
		result.Processed++
	}

	imp.logger().WithFields(logrus.Fields{
		"processed": result.Processed,
		"skipped":   result.Skipped,
	}).Info("csv import finished")

	return result, nil
}

func (imp *CSVImporter) importRow(columns []string, emailIdx int, record []string) error {
	if emailIdx >= len(record) || strings.TrimSpace(record[emailIdx]) == "" {
		return errors.New("missing email")
	}

	customer := model.Customer{Email: strings.TrimSpace(record[emailIdx])}
	type pendingAttr struct {
		name  string
		value string
	}
	attrs := []pendingAttr{}

	for i, name := range columns {
		if i >= len(record) || i == emailIdx {
			continue
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}

		if _, ok := coreCustomerColumns[name]; ok {
			applyCustomerField(&customer, name, value)
			continue
		}
		attrs = append(attrs, pendingAttr{name: name, value: value})
	}

	if err := imp.Customers.Upsert(&customer); err != nil {
		return err
	}

	for _, attr := range attrs {
		fieldType, encoded := InferFieldValue(attr.value)
		if err := imp.Customers.UpsertAttribute(&model.CustomerAttribute{
			CustomerID: customer.ID,
			FieldType:  fieldType,
			FieldName:  attr.name,
			FieldValue: encoded,
		}); err != nil {
			return errors.Wrapf(err, "attribute %q", attr.name)
		}
	}

	return nil
}

func applyCustomerField(c *model.Customer, name, value string) {
	switch name {
	case "lms_lead_id":
		c.LmsLeadID = &value
	case "first_name":
		c.FirstName = &value
	case "last_name":
		c.LastName = &value
	case "mobile":
		c.Mobile = &value
	case "source_created_at":
		if t, ok := parseTimestamp(value); ok {
			c.SourceCreatedAt = &t
		}
	case "source_updated_at":
		if t, ok := parseTimestamp(value); ok {
			c.SourceUpdatedAt = &t
		}
	}
}

// InferFieldValue classifies a raw CSV cell and returns its declared type
// together with the JSON encoding stored in the attribute row. Order
// matters: booleans before numerics, dates before timestamps, and JSON
// arrays before the string fallback.
func InferFieldValue(value string) (model.FieldType, json.RawMessage) {
	lower := strings.ToLower(value)
	if lower == "true" || lower == "false" {
		return model.FieldBoolean, json.RawMessage(lower)
	}

	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return model.FieldNumeric, json.RawMessage(value)
	}

	if _, err := time.Parse("2006-01-02", value); err == nil {
		return model.FieldDate, mustJSON(value)
	}
	if _, ok := parseTimestamp(value); ok {
		return model.FieldTimestamp, mustJSON(value)
	}

	if strings.HasPrefix(value, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(value), &arr); err == nil {
			return model.FieldArray, json.RawMessage(value)
		}
	}

	return model.FieldString, mustJSON(value)
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func mustJSON(v any) json.RawMessage {
	encoded, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return encoded
}

func (r *ImportResult) addError(msg string) {
	if len(r.Errors) < maxImportErrors {
		r.Errors = append(r.Errors, msg)
	}
}

func (imp *CSVImporter) logger() logrus.FieldLogger {
	if imp.Logger != nil {
		return imp.Logger
	}
	return logrus.StandardLogger()
}
