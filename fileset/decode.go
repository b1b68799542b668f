package fileset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/filesmith/filesmith/extract"
)

// Decode parses a payload under its declared format and validates the
// result against the path-to-content schema. It never writes anything and
// never attempts partial recovery: the first shape or type deviation fails
// the whole payload.
func Decode(p extract.Payload) (*FileSet, error) {
	switch p.Format {
	case extract.FormatJSON:
		return decodeJSON(p.Content)
	case extract.FormatYAML:
		return decodeYAML(p.Content)
	default:
		return nil, fmt.Errorf("unsupported payload format %q", p.Format)
	}
}

// decodeJSON walks the payload token by token. The token stream preserves
// key order and surfaces duplicate keys, which map-based unmarshaling
// would silently overwrite.
func decodeJSON(content string) (*FileSet, error) {
	dec := json.NewDecoder(strings.NewReader(content))

	tok, err := dec.Token()
	if err != nil {
		return nil, &SyntaxError{Format: extract.FormatJSON, Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &SchemaError{Detail: fmt.Sprintf("top-level value is %s, want an object", describeJSONToken(tok))}
	}

	fs := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &SyntaxError{Format: extract.FormatJSON, Err: err}
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, &SyntaxError{Format: extract.FormatJSON, Err: fmt.Errorf("unexpected token %v as object key", keyTok)}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, &SyntaxError{Format: extract.FormatJSON, Err: err}
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, &SchemaError{Detail: fmt.Sprintf("value for key %q is not a string (found %s)", key, describeJSONValue(raw))}
		}
		if err := fs.add(key, value); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, &SyntaxError{Format: extract.FormatJSON, Err: err}
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, &SyntaxError{Format: extract.FormatJSON, Err: err}
		}
		return nil, &SyntaxError{Format: extract.FormatJSON, Err: fmt.Errorf("trailing data after object: %v", tok)}
	}
	return fs, nil
}

// decodeYAML parses into a yaml.Node tree rather than a map, preserving
// key order and duplicate keys for validation.
func decodeYAML(content string) (*FileSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, &SyntaxError{Format: extract.FormatYAML, Err: err}
	}
	if len(doc.Content) == 0 {
		return nil, &SchemaError{Detail: "payload is an empty document, want a mapping"}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &SchemaError{Detail: fmt.Sprintf("top-level value is %s, want a mapping", describeYAMLNode(root))}
	}

	fs := New()
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode || keyNode.Tag != "!!str" {
			return nil, &SchemaError{Detail: fmt.Sprintf("mapping key %q is not a string (%s)", keyNode.Value, describeYAMLNode(keyNode))}
		}
		if valueNode.Kind != yaml.ScalarNode || valueNode.Tag != "!!str" {
			return nil, &SchemaError{Detail: fmt.Sprintf("value for key %q is not a string (%s)", keyNode.Value, describeYAMLNode(valueNode))}
		}
		if err := fs.add(keyNode.Value, valueNode.Value); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func describeJSONToken(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '[' {
			return "an array"
		}
		return fmt.Sprintf("delimiter %q", v.String())
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", tok)
	}
}

func describeJSONValue(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "empty"
	}
	switch trimmed[0] {
	case '{':
		return "an object"
	case '[':
		return "an array"
	case 't', 'f':
		return "a boolean"
	case 'n':
		return "null"
	default:
		return "a number"
	}
}

func describeYAMLNode(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.AliasNode:
		return "an alias"
	case yaml.ScalarNode:
		return "a scalar tagged " + n.Tag
	default:
		return fmt.Sprintf("node kind %d", n.Kind)
	}
}
