package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReplaceVariables(t *testing.T) {
	vars := map[string]any{
		"first_name": "Jane",
		"gpa":        3.8,
		"count":      float64(12),
	}

	out := ReplaceVariables("Hi {{firstName}}, your GPA is {{gpa}}", vars)
	assert.Equal(t, "Hi Jane, your GPA is 3.8", out)

	// Integral floats render without a decimal point.
	assert.Equal(t, "12 items", ReplaceVariables("{{count}} items", vars))
}

func TestReplaceVariablesUnresolvedTokenPreserved(t *testing.T) {
	out := ReplaceVariables("Hello {{missing}}, welcome {{first_name}}", map[string]any{
		"first_name": "Jane",
	})
	assert.Equal(t, "Hello {{missing}}, welcome Jane", out)
}

func TestReplaceVariablesDateFormatting(t *testing.T) {
	vars := map[string]any{
		"enrolled_at": time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, "Since January 15, 2026", ReplaceVariables("Since {{enrolledAt}}", vars))
}

func TestReplaceVariablesComplexValues(t *testing.T) {
	vars := map[string]any{
		"tags": []any{"a", "b"},
		"meta": map[string]any{"k": "v"},
		"nada": nil,
	}
	assert.Equal(t, `["a","b"]`, ReplaceVariables("{{tags}}", vars))
	assert.Equal(t, `{"k":"v"}`, ReplaceVariables("{{meta}}", vars))
	assert.Equal(t, "", ReplaceVariables("{{nada}}", vars))
}

func TestReplaceVariablesDotPath(t *testing.T) {
	vars := map[string]any{
		"customer": map[string]any{"first_name": "Jane"},
	}
	assert.Equal(t, "Jane", ReplaceVariables("{{customer.firstName}}", vars))

	// A dead-end path leaves the token alone.
	assert.Equal(t, "{{customer.missing}}", ReplaceVariables("{{customer.missing}}", vars))
}

func TestMJMLToHTMLPlainContent(t *testing.T) {
	out := MJMLToHTML("Hello\nWorld")

	assert.Contains(t, out, "Hello<br>World")
	assert.Contains(t, out, "<html>")
	assert.Contains(t, out, `width="600"`)
	assert.NotContains(t, out, "<mj-")
}

func TestMJMLToHTMLTagConversion(t *testing.T) {
	src := `<mj-body><mj-section><mj-column>` +
		`<mj-text>Hi there</mj-text>` +
		`<mj-button href="https://example.com/apply">Apply</mj-button>` +
		`<mj-image src="https://example.com/logo.png" />` +
		`<mj-divider></mj-divider>` +
		`<mj-spacer height="24px"></mj-spacer>` +
		`</mj-column></mj-section></mj-body>`

	out := MJMLToHTML(src)

	assert.Contains(t, out, `<body style="background-color: #f4f4f4; padding: 20px;">`)
	assert.Contains(t, out, "Hi there</p>")
	assert.Contains(t, out, `<a href="https://example.com/apply"`)
	assert.Contains(t, out, `<img src="https://example.com/logo.png"`)
	assert.Contains(t, out, "<hr style=")
	assert.Contains(t, out, `<div style="height: 24px;"></div>`)
	assert.NotContains(t, out, "<mj-body")
	assert.NotContains(t, out, "<mj-text")
}

func TestMJMLToHTMLUnknownTagPassesThrough(t *testing.T) {
	out := MJMLToHTML(`<mj-body><mj-carousel>x</mj-carousel></mj-body>`)
	assert.Contains(t, out, "<mj-carousel>")
}

func TestRenderTemplateRoundTrip(t *testing.T) {
	vars := map[string]any{"first_name": "Jane", "gpa": 3.8}
	out := RenderTemplate("<mj-body><mj-text>Hi {{firstName}}, your GPA is {{gpa}}</mj-text></mj-body>", vars)

	assert.Contains(t, out, "Hi Jane, your GPA is 3.8")
	assert.NotContains(t, out, "{{")
}
