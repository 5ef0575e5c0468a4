package utils

import (
	"encoding/json"
	"fmt"
)

// schemaDocument is the subset of JSON Schema the tool catalog uses.
type schemaDocument struct {
	Type       string                     `json:"type"`
	Properties map[string]json.RawMessage `json:"properties"`
	Required   []string                   `json:"required"`
}

// ValidateSchemaDocument checks that a tool input schema is a
// well-formed object schema: JSON decodes, type is "object", and every
// required property is declared under properties. Tool schemas are
// wire contract, so catalog tests run every descriptor through this.
func ValidateSchemaDocument(raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("schema is empty")
	}

	var doc schemaDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("schema does not decode: %w", err)
	}
	if doc.Type != "object" {
		return fmt.Errorf("schema type is %q, want \"object\"", doc.Type)
	}
	for _, name := range doc.Required {
		if _, ok := doc.Properties[name]; !ok {
			return fmt.Errorf("required property %q is not declared", name)
		}
	}
	return nil
}

// RequiredProperties returns the required property names of an object
// schema, in declaration order. A schema without a required clause
// yields nil.
func RequiredProperties(raw json.RawMessage) ([]string, error) {
	var doc schemaDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema does not decode: %w", err)
	}
	return doc.Required, nil
}
