package prompt

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

// FileMapping is the response shape the model must produce: relative
// file path to complete file content.
type FileMapping map[string]string

var (
	schemaOnce sync.Once
	schemaJSON string
)

// OutputSchema returns the JSON schema for the response mapping,
// rendered as indented JSON for embedding in prompts.
func OutputSchema() string {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{DoNotReference: true}
		schema := reflector.Reflect(FileMapping{})
		schema.Version = ""
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			// Reflecting a map of strings cannot produce unmarshalable
			// output; fail loudly if it ever does.
			panic(err)
		}
		schemaJSON = string(data)
	})
	return schemaJSON
}
