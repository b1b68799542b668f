package fileset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesmith/filesmith/extract"
)

func jsonPayload(content string) extract.Payload {
	return extract.Payload{Format: extract.FormatJSON, Content: content}
}

func yamlPayload(content string) extract.Payload {
	return extract.Payload{Format: extract.FormatYAML, Content: content}
}

func TestDecodeJSON_Valid(t *testing.T) {
	fs, err := Decode(jsonPayload(`{"a.py": "content a", "b/c.txt": "content b"}`))
	require.NoError(t, err)
	require.Equal(t, 2, fs.Len())

	content, ok := fs.Get("a.py")
	require.True(t, ok)
	assert.Equal(t, "content a", content)

	assert.Equal(t, []string{"a.py", "b/c.txt"}, fs.Paths())
}

func TestDecodeJSON_PreservesPayloadOrder(t *testing.T) {
	fs, err := Decode(jsonPayload(`{"z.txt": "1", "a.txt": "2", "m.txt": "3"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z.txt", "a.txt", "m.txt"}, fs.Paths())
}

func TestDecodeJSON_EmptyObject(t *testing.T) {
	fs, err := Decode(jsonPayload(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 0, fs.Len())
}

func TestDecodeJSON_MalformedSyntax(t *testing.T) {
	_, err := Decode(jsonPayload(`{"a.py": "content a", "b.txt": }`))
	require.Error(t, err)

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, extract.FormatJSON, syntaxErr.Format)
}

func TestDecodeJSON_TopLevelArray(t *testing.T) {
	_, err := Decode(jsonPayload(`["a.py", "b.py"]`))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Detail, "array")
}

func TestDecodeJSON_TopLevelString(t *testing.T) {
	_, err := Decode(jsonPayload(`"just a string"`))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Detail, "want an object")
}

func TestDecodeJSON_NonStringValues(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		found   string
	}{
		{"number", `{"a.txt": 5}`, "a number"},
		{"null", `{"a.txt": null}`, "null"},
		{"bool", `{"a.txt": true}`, "a boolean"},
		{"array", `{"a.txt": ["x"]}`, "an array"},
		{"object", `{"a.txt": {"nested": "x"}}`, "an object"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(jsonPayload(tc.payload))

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr, "no coercion: %s must fail", tc.name)
			assert.Contains(t, schemaErr.Detail, `"a.txt"`)
			assert.Contains(t, schemaErr.Detail, tc.found)
		})
	}
}

func TestDecodeJSON_DuplicateKey(t *testing.T) {
	_, err := Decode(jsonPayload(`{"a.txt": "first", "a.txt": "second"}`))

	var dupErr *DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "a.txt", dupErr.Key)
}

func TestDecodeJSON_TrailingData(t *testing.T) {
	_, err := Decode(jsonPayload(`{"a.txt": "x"} {"b.txt": "y"}`))

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestDecodeYAML_Valid(t *testing.T) {
	fs, err := Decode(yamlPayload("a.py: content a\nb/c.txt: content b\n"))
	require.NoError(t, err)
	require.Equal(t, 2, fs.Len())

	content, ok := fs.Get("b/c.txt")
	require.True(t, ok)
	assert.Equal(t, "content b", content)
	assert.Equal(t, []string{"a.py", "b/c.txt"}, fs.Paths())
}

func TestDecodeYAML_BlockScalarContent(t *testing.T) {
	fs, err := Decode(yamlPayload("main.go: |\n  package main\n  func main() {}\n"))
	require.NoError(t, err)

	content, ok := fs.Get("main.go")
	require.True(t, ok)
	assert.Equal(t, "package main\nfunc main() {}\n", content)
}

func TestDecodeYAML_EmptyMapping(t *testing.T) {
	fs, err := Decode(yamlPayload("{}"))
	require.NoError(t, err)
	assert.Equal(t, 0, fs.Len())
}

func TestDecodeYAML_MalformedSyntax(t *testing.T) {
	_, err := Decode(yamlPayload("a.py: content a\n- b/c.txt: content b\n"))

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, extract.FormatYAML, syntaxErr.Format)
}

func TestDecodeYAML_TopLevelSequence(t *testing.T) {
	_, err := Decode(yamlPayload("- a.py\n- b.py\n"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Detail, "sequence")
}

func TestDecodeYAML_NonStringValue(t *testing.T) {
	// Unquoted 5 resolves as !!int; strictness forbids coercing it.
	_, err := Decode(yamlPayload("a.txt: 5\n"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Detail, `"a.txt"`)
}

func TestDecodeYAML_NonStringKey(t *testing.T) {
	_, err := Decode(yamlPayload("5: content\n"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestDecodeYAML_NestedMappingValue(t *testing.T) {
	_, err := Decode(yamlPayload("a.txt:\n  nested: value\n"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestDecodeYAML_DuplicateKey(t *testing.T) {
	_, err := Decode(yamlPayload("a.txt: first\na.txt: second\n"))

	var dupErr *DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "a.txt", dupErr.Key)
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, err := Decode(extract.Payload{Format: "xml", Content: "<a/>"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported payload format")
}

func TestFileSet_Each(t *testing.T) {
	fs, err := Decode(jsonPayload(`{"a.txt": "1", "b.txt": "2"}`))
	require.NoError(t, err)

	var got []string
	fs.Each(func(path, content string) {
		got = append(got, path+"="+content)
	})
	assert.Equal(t, []string{"a.txt=1", "b.txt=2"}, got)
}
