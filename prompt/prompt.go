// Package prompt builds the instruction prompts sent to the model.
//
// A prompt has three parts: the task, the output contract (the fenced
// mapping format the pipeline can consume, including its JSON schema),
// and any context files, each wrapped in a fence guaranteed to be longer
// than any fence-like run in the file's content. Correction builds the
// follow-up prompt used when a response fails extraction or decoding.
package prompt

import (
	"fmt"
	"strings"

	"github.com/filesmith/filesmith/extract"
)

// ContextFile is an existing file shown to the model as grounding.
type ContextFile struct {
	Path    string
	Content string
}

// Builder constructs prompts for one configured output format.
type Builder struct {
	format           extract.Format
	maxTokensPerFile int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithFormat sets the payload format the model is instructed to emit.
// Defaults to JSON.
func WithFormat(f extract.Format) BuilderOption {
	return func(b *Builder) { b.format = f }
}

// WithMaxTokensPerFile caps how much of each context file is included,
// measured in estimated tokens. 0 disables truncation.
func WithMaxTokensPerFile(n int) BuilderOption {
	return func(b *Builder) { b.maxTokensPerFile = n }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{format: extract.FormatJSON}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// System returns the system prompt shared by every request.
func (b *Builder) System() string {
	return "You are a careful software engineer. You change files only by " +
		"emitting the requested mapping, exactly in the format described. " +
		"You never write outside the project directory."
}

// Build assembles the user prompt for a task with optional context files.
func (b *Builder) Build(task string, files []ContextFile) string {
	var sb strings.Builder

	sb.WriteString("# Task\n\n")
	sb.WriteString(strings.TrimSpace(task))
	sb.WriteString("\n\n")
	sb.WriteString(b.contract())

	if len(files) > 0 {
		sb.WriteString("\n# Current Files\n\n")
		for _, f := range files {
			content, truncated := truncateToTokens(f.Content, b.maxTokensPerFile)
			fence := fenceFor(content)
			sb.WriteString(f.Path)
			if truncated {
				sb.WriteString(" (truncated)")
			}
			sb.WriteString(":\n")
			sb.WriteString(fence)
			sb.WriteString("\n")
			sb.WriteString(content)
			if !strings.HasSuffix(content, "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString(fence)
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// Correction builds the follow-up prompt sent after a response failed
// extraction or decoding. It includes the failed response verbatim and
// the reason, then restates the contract.
func (b *Builder) Correction(raw string, cause error) string {
	var sb strings.Builder

	sb.WriteString("Your previous response could not be processed.\n\n")
	sb.WriteString("Error: ")
	sb.WriteString(cause.Error())
	sb.WriteString("\n\nYour previous response was:\n")

	fence := fenceFor(raw)
	sb.WriteString(fence)
	sb.WriteString("\n")
	sb.WriteString(raw)
	if !strings.HasSuffix(raw, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(fence)
	sb.WriteString("\n\nRespond again, fixing the problem.\n\n")
	sb.WriteString(b.contract())

	return sb.String()
}

// contract describes the required response shape.
func (b *Builder) contract() string {
	name := strings.ToUpper(string(b.format))
	example := `{"path/to/file.ext": "full file content"}`
	if b.format == extract.FormatYAML {
		example = `path/to/file.ext: "full file content"`
	}
	return fmt.Sprintf(`# Output Contract

Respond with exactly one fenced %s block. The block must contain a single
mapping from relative file path to the complete new content of that file:

`+"```"+`%s
%s
`+"```"+`

Rules:
  - Every key is a path relative to the project root. No absolute paths,
    no ".." components.
  - Every value is the entire content of that file, not a diff.
  - Include a file only if it should be created or fully replaced.
  - No duplicate keys.
  - Nothing else goes inside the block.

The mapping must conform to this JSON schema:

%s
`, name, b.format, example, OutputSchema())
}

// fenceFor returns a backtick fence guaranteed not to collide with any
// backtick run inside content. Minimum three backticks.
func fenceFor(content string) string {
	longest := 0
	run := 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	n := longest + 1
	if n < 3 {
		n = 3
	}
	return strings.Repeat("`", n)
}
