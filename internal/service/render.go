package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// tokenPattern matches {{identifier}} and {{identifier.subidentifier}}.
var tokenPattern = regexp.MustCompile(`\{\{(\w+(?:\.\w+)?)\}\}`)

// ReplaceVariables substitutes {{token}} placeholders using the variable
// table. Each path segment is looked up exact-first, then camelCase, then
// snake_case. An unresolved token is left in place so partial templates can
// be previewed safely.
func ReplaceVariables(content string, vars map[string]any) string {
	return tokenPattern.ReplaceAllStringFunc(content, func(match string) string {
		key := match[2 : len(match)-2]

		var value any = vars
		for _, segment := range strings.Split(key, ".") {
			table, ok := value.(map[string]any)
			if !ok {
				return match
			}
			value, ok = LookupVariable(table, segment)
			if !ok {
				return match
			}
		}

		return formatValue(value, match)
	})
}

func formatValue(value any, fallback string) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format("January 2, 2006")
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fallback
		}
		return string(encoded)
	case float64:
		// JSON numbers decode as float64; keep integers clean.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// mjmlRules is the fixed, ordered list of tag-level rewrites. This is a
// deliberately lossy best-effort renderer, not a markup parser; unmatched
// mj-* tags pass through untouched.
var mjmlRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)<mj-body[^>]*>`), `<body style="background-color: #f4f4f4; padding: 20px;">`},
	{regexp.MustCompile(`(?i)</mj-body>`), `</body>`},
	{regexp.MustCompile(`(?i)<mj-section[^>]*>`), `<table width="100%" cellpadding="0" cellspacing="0"><tr><td style="padding: 20px; background-color: #ffffff;">`},
	{regexp.MustCompile(`(?i)</mj-section>`), `</td></tr></table>`},
	{regexp.MustCompile(`(?i)<mj-column[^>]*>`), `<div style="width: 100%;">`},
	{regexp.MustCompile(`(?i)</mj-column>`), `</div>`},
	{regexp.MustCompile(`(?i)<mj-text[^>]*>`), `<p style="margin: 0; padding: 10px 0; font-family: Arial, sans-serif; font-size: 14px; line-height: 1.5;">`},
	{regexp.MustCompile(`(?i)</mj-text>`), `</p>`},
	{regexp.MustCompile(`(?i)<mj-button[^>]*href="([^"]*)"[^>]*>`), `<a href="$1" style="display: inline-block; padding: 12px 24px; background-color: #333; color: #fff; text-decoration: none; border-radius: 4px; font-family: Arial, sans-serif;">`},
	{regexp.MustCompile(`(?i)</mj-button>`), `</a>`},
	{regexp.MustCompile(`(?i)<mj-image[^>]*src="([^"]*)"[^>]*>`), `<img src="$1" style="max-width: 100%; height: auto;" />`},
	{regexp.MustCompile(`(?i)<mj-divider[^>]*>`), `<hr style="border: none; border-top: 1px solid #e0e0e0; margin: 20px 0;" />`},
	{regexp.MustCompile(`(?i)</mj-divider>`), ``},
	{regexp.MustCompile(`(?i)<mj-spacer[^>]*height="(\d+)px"[^>]*>`), `<div style="height: $1px;"></div>`},
	{regexp.MustCompile(`(?i)</mj-spacer>`), ``},
}

// MJMLToHTML converts the supported MJML subset into standalone HTML
// suitable for email clients. Content without any mj- tag is wrapped as a
// single paragraph in a plain email shell, newlines becoming line breaks.
func MJMLToHTML(content string) string {
	if !strings.Contains(strings.ToLower(content), "<mj-") {
		return `<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body style="background-color: #f4f4f4; padding: 20px; font-family: Arial, sans-serif;">
<table width="100%" cellpadding="0" cellspacing="0"><tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="background-color: #ffffff; padding: 40px;"><tr><td>
` + strings.ReplaceAll(content, "\n", "<br>") + `
</td></tr></table>
</td></tr></table>
</body>
</html>`
	}

	html := content
	for _, rule := range mjmlRules {
		html = rule.pattern.ReplaceAllString(html, rule.replacement)
	}

	return `<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
` + html + `
</html>`
}

// RenderTemplate substitutes variables and converts the result to HTML.
func RenderTemplate(template string, vars map[string]any) string {
	return MJMLToHTML(ReplaceVariables(template, vars))
}

// SampleVariables feeds template previews when no customer is selected.
func SampleVariables() map[string]any {
	return map[string]any{
		"firstName":      "John",
		"first_name":     "John",
		"lastName":       "Doe",
		"last_name":      "Doe",
		"email":          "john.doe@example.com",
		"companyName":    "Your Next Campus",
		"company_name":   "Your Next Campus",
		"unsubscribeUrl": "https://example.com/unsubscribe",
	}
}
