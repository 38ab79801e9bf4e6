package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nextcampus/crm-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	page, limit := parsePagination(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	r = httptest.NewRequest(http.MethodGet, "/api/customers?page=3&limit=50", nil)
	page, limit = parsePagination(r)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, limit)

	// Limit is capped, junk values fall back to defaults.
	r = httptest.NewRequest(http.MethodGet, "/api/customers?page=abc&limit=9999", nil)
	page, limit = parsePagination(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, maxLimit, limit)
}

func TestNewPagination(t *testing.T) {
	p := newPagination(2, 20, 45)
	assert.Equal(t, 3, p.TotalPages)

	p = newPagination(1, 20, 0)
	assert.Equal(t, 0, p.TotalPages)
}

func TestValidateSegment(t *testing.T) {
	cases := []struct {
		name    string
		payload segmentPayload
		wantErr bool
	}{
		{"manual ok", segmentPayload{Name: "a", Type: "manual"}, false},
		{"sql ok", segmentPayload{Name: "a", Type: "sql", SelectionSQL: strp("SELECT id FROM customers")}, false},
		{"function ok", segmentPayload{Name: "a", Type: "function", HandlerFunction: strp("recent_signups")}, false},
		{"missing name", segmentPayload{Type: "manual"}, true},
		{"unknown type", segmentPayload{Name: "a", Type: "smart"}, true},
		{"sql without query", segmentPayload{Name: "a", Type: "sql"}, true},
		{"function without handler", segmentPayload{Name: "a", Type: "function"}, true},
		{"manual with sql payload", segmentPayload{Name: "a", Type: "manual", SelectionSQL: strp("SELECT 1")}, true},
		{"sql with handler payload", segmentPayload{Name: "a", Type: "sql", SelectionSQL: strp("SELECT 1"), HandlerFunction: strp("x")}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, msg := validateSegment(tc.payload)
			if tc.wantErr {
				assert.NotEmpty(t, msg)
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	subject := "Hi"
	_, msg := validateTemplate(templatePayload{Name: "t", Type: "email", Subject: &subject, Message: "body"})
	assert.Empty(t, msg)

	// Email templates cannot omit the subject.
	_, msg = validateTemplate(templatePayload{Name: "t", Type: "email", Message: "body"})
	assert.NotEmpty(t, msg)

	_, msg = validateTemplate(templatePayload{Name: "t", Type: "whatsapp", Message: "body"})
	assert.Empty(t, msg)

	_, msg = validateTemplate(templatePayload{Name: "t", Type: "sms", Message: "body"})
	assert.NotEmpty(t, msg)
}

func TestRequireAPIKey(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := RequireAPIKey("sekrit")(inner)

	r := httptest.NewRequest(http.MethodPost, "/api/external/customers", nil)
	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/api/external/customers", nil)
	r.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/api/external/customers", nil)
	r.Header.Set("X-API-Key", "sekrit")
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	// An empty configured key never matches anything.
	disabled := RequireAPIKey("")(inner)
	r = httptest.NewRequest(http.MethodPost, "/api/external/customers", nil)
	r.Header.Set("X-API-Key", "")
	w = httptest.NewRecorder()
	disabled.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInferAttributeType(t *testing.T) {
	cases := []struct {
		raw      string
		expected model.FieldType
	}{
		{`true`, model.FieldBoolean},
		{`42`, model.FieldNumeric},
		{`"12.5"`, model.FieldNumeric},
		{`["a"]`, model.FieldArray},
		{`"2026-01-15"`, model.FieldDate},
		{`"2026-01-15T10:00:00Z"`, model.FieldTimestamp},
		{`"hello"`, model.FieldString},
		{`{"k":"v"}`, model.FieldString},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, inferAttributeType([]byte(tc.raw)), "raw %s", tc.raw)
	}
}
