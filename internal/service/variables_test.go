package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nextcampus/crm-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestBuildVariablesCoreFields(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	customer := model.Customer{
		ID:        7,
		FirstName: strp("Jane"),
		LastName:  strp("Doe"),
		Email:     "jane@example.com",
		LmsLeadID: strp("LMS-42"),
		CreatedAt: created,
	}

	vars := BuildVariables(customer, nil)

	assert.Equal(t, "Jane", vars["first_name"])
	assert.Equal(t, "Jane", vars["firstName"])
	assert.Equal(t, "Doe", vars["lastName"])
	assert.Equal(t, "jane@example.com", vars["email"])
	assert.Equal(t, "LMS-42", vars["lmsLeadId"])
	assert.Equal(t, created, vars["createdAt"])

	// Nil pointers render blank, not missing.
	assert.Equal(t, "", vars["mobile"])
	assert.Equal(t, "", vars["source_created_at"])
}

func TestBuildVariablesAttributes(t *testing.T) {
	customer := model.Customer{ID: 1, Email: "a@example.com"}
	attrs := []model.CustomerAttribute{
		{FieldName: "gpa", FieldType: model.FieldNumeric, FieldValue: json.RawMessage(`3.8`)},
		{FieldName: "course_name", FieldType: model.FieldString, FieldValue: json.RawMessage(`"Physics"`)},
		{FieldName: "scholarship", FieldType: model.FieldBoolean, FieldValue: json.RawMessage(`true`)},
	}

	vars := BuildVariables(customer, attrs)

	assert.Equal(t, 3.8, vars["gpa"])
	assert.Equal(t, "Physics", vars["course_name"])
	assert.Equal(t, "Physics", vars["courseName"])
	assert.Equal(t, true, vars["scholarship"])
}

func TestBuildVariablesAttributeShadowsCustomerField(t *testing.T) {
	customer := model.Customer{ID: 1, FirstName: strp("FromCustomer"), Email: "a@example.com"}
	attrs := []model.CustomerAttribute{
		{FieldName: "first_name", FieldType: model.FieldString, FieldValue: json.RawMessage(`"FromAttribute"`)},
	}

	vars := BuildVariables(customer, attrs)

	assert.Equal(t, "FromAttribute", vars["first_name"])
	assert.Equal(t, "FromAttribute", vars["firstName"])
}

func TestBuildVariablesNullAttributeValue(t *testing.T) {
	customer := model.Customer{ID: 1, Email: "a@example.com"}
	attrs := []model.CustomerAttribute{
		{FieldName: "notes", FieldType: model.FieldString, FieldValue: json.RawMessage(`null`)},
	}

	vars := BuildVariables(customer, attrs)
	assert.Equal(t, "", vars["notes"])
}

func TestLookupVariableFallbacks(t *testing.T) {
	vars := map[string]any{
		"first_name": "snake",
		"courseName": "camel",
		"exact":      "exact",
	}

	v, ok := LookupVariable(vars, "exact")
	assert.True(t, ok)
	assert.Equal(t, "exact", v)

	// camelCase query finds the snake_case entry.
	v, ok = LookupVariable(vars, "firstName")
	assert.True(t, ok)
	assert.Equal(t, "snake", v)

	// snake_case query finds the camelCase entry.
	v, ok = LookupVariable(vars, "course_name")
	assert.True(t, ok)
	assert.Equal(t, "camel", v)

	_, ok = LookupVariable(vars, "missing")
	assert.False(t, ok)
}

func TestCaseTransforms(t *testing.T) {
	assert.Equal(t, "firstName", ToCamelCase("first_name"))
	assert.Equal(t, "lmsLeadId", ToCamelCase("lms_lead_id"))
	assert.Equal(t, "plain", ToCamelCase("plain"))

	assert.Equal(t, "first_name", ToSnakeCase("firstName"))
	assert.Equal(t, "lms_lead_id", ToSnakeCase("lmsLeadId"))
	assert.Equal(t, "plain", ToSnakeCase("plain"))
}
