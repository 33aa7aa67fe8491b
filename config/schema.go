package config

import (
	"encoding/json"
	"sync"

	"github.com/grovetools/hspdebug/schema"
	"github.com/invopop/jsonschema"
)

var (
	validatorOnce   sync.Once
	cachedValidator *schema.Validator
	validatorErr    error
)

// GenerateSchema generates the JSON Schema for hspdebug.yml.
// Extension sections such as "logging" are not part of it.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "json",
	}

	s := r.Reflect(&Config{})
	s.Title = "hspdebug configuration"
	s.Description = "Adapter settings read from hspdebug.yml or hspdebug.toml."

	return json.MarshalIndent(s, "", "  ")
}

// NewSchemaValidator returns the validator for the known configuration sections.
// The schema is generated and compiled once per process.
func NewSchemaValidator() (*schema.Validator, error) {
	validatorOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			validatorErr = err
			return
		}
		cachedValidator, validatorErr = schema.NewValidator("hspdebug.json", data)
	})
	return cachedValidator, validatorErr
}
