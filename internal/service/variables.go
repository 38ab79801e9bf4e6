package service

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/nextcampus/crm-backend/internal/model"
)

// BuildVariables flattens a customer and its attributes into the lookup
// table used by template rendering. Every customer scalar is entered under
// its snake_case name and, when different, its camelCase equivalent.
// Attribute values are entered last (verbatim name plus both transforms),
// so an attribute shadows a same-named customer field. Null values become
// empty strings so templates render blank instead of leaving the literal
// placeholder. Treat the returned map as immutable.
func BuildVariables(customer model.Customer, attributes []model.CustomerAttribute) map[string]any {
	vars := map[string]any{}

	putBoth(vars, "id", customer.ID)
	putBoth(vars, "lms_lead_id", strOrEmpty(customer.LmsLeadID))
	putBoth(vars, "first_name", strOrEmpty(customer.FirstName))
	putBoth(vars, "last_name", strOrEmpty(customer.LastName))
	putBoth(vars, "email", customer.Email)
	putBoth(vars, "mobile", strOrEmpty(customer.Mobile))

	if customer.SourceCreatedAt != nil {
		putBoth(vars, "source_created_at", *customer.SourceCreatedAt)
	} else {
		putBoth(vars, "source_created_at", "")
	}
	if customer.SourceUpdatedAt != nil {
		putBoth(vars, "source_updated_at", *customer.SourceUpdatedAt)
	} else {
		putBoth(vars, "source_updated_at", "")
	}
	putBoth(vars, "created_at", customer.CreatedAt)

	for _, attr := range attributes {
		value := decodeAttributeValue(attr.FieldValue)

		vars[attr.FieldName] = value
		vars[ToCamelCase(attr.FieldName)] = value
		vars[ToSnakeCase(attr.FieldName)] = value
	}

	return vars
}

// decodeAttributeValue parses the JSON-stored attribute value to its
// underlying structure. If it does not parse, the raw text is kept.
func decodeAttributeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return ""
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return string(raw)
	}
	if value == nil {
		return ""
	}
	return value
}

// LookupVariable tries the exact key first, then its camelCase transform,
// then its snake_case transform.
func LookupVariable(vars map[string]any, key string) (any, bool) {
	if v, ok := vars[key]; ok {
		return v, true
	}
	if v, ok := vars[ToCamelCase(key)]; ok {
		return v, true
	}
	if v, ok := vars[ToSnakeCase(key)]; ok {
		return v, true
	}
	return nil, false
}

// ToCamelCase turns snake_case into camelCase; names without underscores
// pass through unchanged.
func ToCamelCase(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// ToSnakeCase turns camelCase into snake_case; lowercase names pass
// through unchanged.
func ToSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func putBoth(vars map[string]any, snakeKey string, value any) {
	vars[snakeKey] = value
	if camel := ToCamelCase(snakeKey); camel != snakeKey {
		vars[camel] = value
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
