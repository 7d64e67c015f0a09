package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
)

// CompileSchema compiles a schema map built by BuildBoxScoreSchema.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("boxscore.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("boxscore.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// SchemaErrors validates a decoded response and flattens the complaints to
// field paths. A nil result means the response conforms.
func SchemaErrors(schema *jsonschema.Schema, doc any) ([]candidate.SchemaError, error) {
	err := schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validate response: %w", err)
	}
	var out []candidate.SchemaError
	seen := map[string]bool{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			se := candidate.SchemaError{Path: candidate.FromPointer(e.InstanceLocation), Message: e.Message}
			if se.Path == "" {
				se.Path = "$"
			}
			if key := se.Path + "|" + se.Message; !seen[key] {
				seen[key] = true
				out = append(out, se)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
