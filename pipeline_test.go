package filesmith

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesmith/filesmith/extract"
	"github.com/filesmith/filesmith/fileset"
	"github.com/filesmith/filesmith/materialize"
	"github.com/filesmith/filesmith/provider"
)

func TestPipeline_EndToEnd(t *testing.T) {
	root := t.TempDir()
	raw := "Here is the update:\n" +
		"```json\n" +
		`{"src/a.txt": "hello", "../escape.txt": "bad", "sub/dir/b.txt": "world"}` + "\n" +
		"```\n"

	report, err := Apply(context.Background(), raw, root, extract.FormatJSON)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)

	assert.Equal(t, materialize.StatusWritten, report.Outcomes[0].Status)
	assert.Equal(t, materialize.StatusRejected, report.Outcomes[1].Status)
	assert.Equal(t, materialize.ReasonTraversalAttempt, report.Outcomes[1].Reason)
	assert.Equal(t, materialize.StatusWritten, report.Outcomes[2].Status)

	data, err := os.ReadFile(filepath.Join(root, "src", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(root, "sub", "dir", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func TestPipeline_NoBlockIsTerminal(t *testing.T) {
	_, err := Apply(context.Background(), "no payload here, sorry", t.TempDir(), extract.FormatJSON)
	require.ErrorIs(t, err, extract.ErrNoBlock)
}

func TestPipeline_DecodeErrorWritesNothing(t *testing.T) {
	root := t.TempDir()
	raw := "```json\n{\"good.txt\": \"x\", \"bad.txt\": 42}\n```"

	_, err := Apply(context.Background(), raw, root, extract.FormatJSON)

	var schemaErr *fileset.SchemaError
	require.ErrorAs(t, err, &schemaErr)

	// The whole FileSet is suspect after a decode failure: no partial writes.
	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestPipeline_EmptyMappingShortCircuits(t *testing.T) {
	report, err := Apply(context.Background(), "```json\n{}\n```", t.TempDir(), extract.FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.True(t, report.Clean())
}

func TestPipeline_YAMLFormat(t *testing.T) {
	root := t.TempDir()
	raw := "Result:\n```yaml\nnotes.txt: from yaml\n```"

	report, err := Apply(context.Background(), raw, root, extract.FormatYAML)
	require.NoError(t, err)
	require.True(t, report.Clean())

	data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from yaml", string(data))
}

func TestPipeline_RerunAfterFixIsSafe(t *testing.T) {
	root := t.TempDir()
	p := NewPipeline()

	first := "```json\n{\"keep.txt\": \"v1\", \"../bad.txt\": \"x\"}\n```"
	report, err := p.Run(context.Background(), first, root)
	require.NoError(t, err)
	require.False(t, report.Clean())

	// Corrected response re-runs the whole pipeline; the prior write is
	// simply overwritten.
	second := "```json\n{\"keep.txt\": \"v2\", \"fixed.txt\": \"x\"}\n```"
	report, err = p.Run(context.Background(), second, root)
	require.NoError(t, err)
	require.True(t, report.Clean())

	data, err := os.ReadFile(filepath.Join(root, "keep.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestPipeline_WithMockProvider(t *testing.T) {
	root := t.TempDir()
	client := provider.NewMock(provider.WithResponses(
		"Sure, here you go:\n```json\n{\"hello.txt\": \"from the model\"}\n```",
	))
	defer client.Close()

	resp, err := client.Complete(context.Background(), provider.Request{Prompt: "write hello.txt"})
	require.NoError(t, err)

	report, err := Apply(context.Background(), resp.Content, root, extract.FormatJSON)
	require.NoError(t, err)
	require.True(t, report.Clean())

	data, err := os.ReadFile(filepath.Join(root, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from the model", string(data))
	assert.Equal(t, 1, client.CallCount())
}

func TestPipeline_DuplicateKeyIsTerminal(t *testing.T) {
	raw := "```json\n{\"a.txt\": \"1\", \"a.txt\": \"2\"}\n```"

	_, err := Apply(context.Background(), raw, t.TempDir(), extract.FormatJSON)

	var dupErr *fileset.DuplicateKeyError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "a.txt", dupErr.Key)
}
