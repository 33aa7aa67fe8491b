package launch

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

// GenerateSchema returns the JSON Schema of the launch arguments, suitable
// for an editor's debugger contribution.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "json",
	}

	s := r.Reflect(&Arguments{})
	s.Title = "hspdebug launch arguments"
	s.Description = "Arguments of the DAP launch request."
	return json.MarshalIndent(s, "", "  ")
}

func schemaValidator() (*schema.Validator, error) {
	validatorOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			validatorErr = err
			return
		}
		cachedValidator, validatorErr = schema.NewValidator("launch.json", data)
	})
	return cachedValidator, validatorErr
}
