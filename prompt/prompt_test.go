package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesmith/filesmith/extract"
	"github.com/filesmith/filesmith/fileset"
)

func TestBuild_ContainsTaskAndContract(t *testing.T) {
	b := NewBuilder()
	p := b.Build("add a README", nil)

	assert.Contains(t, p, "add a README")
	assert.Contains(t, p, "# Output Contract")
	assert.Contains(t, p, "```json")
	assert.Contains(t, p, `no ".." components`)
	assert.Contains(t, p, OutputSchema())
}

func TestBuild_YAMLFormat(t *testing.T) {
	p := NewBuilder(WithFormat(extract.FormatYAML)).Build("task", nil)

	assert.Contains(t, p, "```yaml")
	assert.Contains(t, p, "fenced YAML block")
}

func TestBuild_ContextFilesFenced(t *testing.T) {
	files := []ContextFile{
		{Path: "main.go", Content: "package main\n"},
		{Path: "notes.md", Content: "plain text"},
	}
	p := NewBuilder().Build("task", files)

	assert.Contains(t, p, "# Current Files")
	assert.Contains(t, p, "main.go:\n```\npackage main\n```")
	assert.Contains(t, p, "notes.md:\n```\nplain text\n```")
}

func TestBuild_FenceOutrunsContent(t *testing.T) {
	// Content containing a triple-backtick fence must be wrapped in a
	// longer fence so the block stays intact.
	content := "# Example\n```go\nfunc main() {}\n```\n"
	p := NewBuilder().Build("task", []ContextFile{{Path: "doc.md", Content: content}})

	assert.Contains(t, p, "doc.md:\n````\n")
	assert.Contains(t, p, "```\n````\n")
}

func TestBuild_TruncatesLongContextFiles(t *testing.T) {
	long := strings.Repeat("0123456789\n", 1000)
	b := NewBuilder(WithMaxTokensPerFile(100))

	p := b.Build("task", []ContextFile{{Path: "big.txt", Content: long}})

	assert.Contains(t, p, "big.txt (truncated):")
	assert.Contains(t, p, "...[content truncated]...")
	assert.Less(t, len(p), len(long), "prompt must not carry the whole file")
}

func TestBuild_NoTruncationWhenDisabled(t *testing.T) {
	long := strings.Repeat("x", 10000)
	p := NewBuilder().Build("task", []ContextFile{{Path: "big.txt", Content: long}})

	assert.NotContains(t, p, "(truncated)")
	assert.Contains(t, p, long)
}

func TestCorrection_CarriesResponseAndCause(t *testing.T) {
	b := NewBuilder()
	raw := "I think the answer is:\n```json\n{\"a.txt\": 42}\n```"
	cause := errors.New(`value for "a.txt" is a number, expected a string`)

	p := b.Correction(raw, cause)

	assert.Contains(t, p, "could not be processed")
	assert.Contains(t, p, cause.Error())
	assert.Contains(t, p, raw)
	assert.Contains(t, p, "# Output Contract")
	// The failed response contains a triple fence; the quoting fence must
	// be longer.
	assert.Contains(t, p, "````\n"+raw)
}

func TestOutputSchema_DescribesStringMapping(t *testing.T) {
	schema := OutputSchema()

	assert.Contains(t, schema, `"object"`)
	assert.Contains(t, schema, `"string"`)
	// Stable across calls.
	assert.Equal(t, schema, OutputSchema())
}

func TestBuild_ProducedContractRoundTrips(t *testing.T) {
	// A response following the contract example must survive the pipeline
	// stages the contract promises.
	response := "```json\n{\"path/to/file.ext\": \"full file content\"}\n```"

	payload, err := extract.Extract(response, extract.FormatJSON)
	require.NoError(t, err)
	fs, err := fileset.Decode(payload)
	require.NoError(t, err)

	content, ok := fs.Get("path/to/file.ext")
	require.True(t, ok)
	assert.Equal(t, "full file content", content)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("a", 100)))
	// Runes, not bytes.
	assert.Equal(t, 1, EstimateTokens("日本語盤"))
}

func TestTruncateToTokens(t *testing.T) {
	text := strings.Repeat("line of text\n", 100)

	out, truncated := truncateToTokens(text, 50)
	require.True(t, truncated)
	assert.True(t, strings.HasSuffix(out, truncationMarker))
	assert.LessOrEqual(t, EstimateTokens(out), 51, "within a token of the budget")

	out, truncated = truncateToTokens("short", 50)
	assert.False(t, truncated)
	assert.Equal(t, "short", out)

	out, truncated = truncateToTokens(text, 0)
	assert.False(t, truncated)
	assert.Equal(t, text, out)
}
