package extract

import (
	"errors"
	"strings"
)

// Format identifies the structured-data format a payload is declared as.
type Format string

// Supported payload formats. Additional formats can be introduced by
// defining new Format values; the extractor only compares fence tags.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Sentinel errors returned by Extract.
var (
	// ErrNoBlock indicates no fenced block matching the expected format
	// was found in the response.
	ErrNoBlock = errors.New("no fenced block matching the expected format")

	// ErrEmptyBlock indicates a matching block was found but contains
	// only whitespace.
	ErrEmptyBlock = errors.New("fenced block contains only whitespace")
)

// Payload is the substring of a raw response identified as the
// structured-data block, tagged with its declared format. It lives for a
// single pipeline invocation.
type Payload struct {
	Format  Format
	Content string
}

// Matches reports whether a fence tag is acceptable for this format.
// Comparison is case-insensitive; an empty tag matches any format.
func (f Format) Matches(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	switch {
	case tag == "":
		return true
	case tag == string(f):
		return true
	case f == FormatYAML && tag == "yml":
		return true
	}
	return false
}

// Extract locates the structured payload block in a raw model response.
//
// The scan is line-based: an opening fence is a line starting (after
// surrounding whitespace) with a run of at least three backticks or tildes,
// optionally followed by a tag. The block is closed by the first subsequent
// line consisting solely of a run of the same character at least as long
// as the opener. If multiple blocks are present, the first whose tag
// matches the expected format wins; blocks with other tags are skipped
// without error. An opening fence with no closer is not a block.
func Extract(raw string, format Format) (Payload, error) {
	lines := strings.Split(raw, "\n")

	i := 0
	for i < len(lines) {
		ch, run, tag, ok := parseFence(lines[i])
		if !ok {
			i++
			continue
		}

		end := -1
		for j := i + 1; j < len(lines); j++ {
			if closesFence(lines[j], ch, run) {
				end = j
				break
			}
		}
		if end < 0 {
			// Unterminated fence; treat as prose and keep scanning.
			i++
			continue
		}

		if !format.Matches(tag) {
			i = end + 1
			continue
		}

		content := strings.TrimSpace(strings.Join(lines[i+1:end], "\n"))
		if content == "" {
			return Payload{}, ErrEmptyBlock
		}
		return Payload{Format: format, Content: content}, nil
	}

	return Payload{}, ErrNoBlock
}

// parseFence inspects a line for an opening fence. It returns the fence
// character, the length of the run, and the tag that follows it.
func parseFence(line string) (ch byte, run int, tag string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return 0, 0, "", false
	}
	ch = trimmed[0]
	if ch != '`' && ch != '~' {
		return 0, 0, "", false
	}
	run = 0
	for run < len(trimmed) && trimmed[run] == ch {
		run++
	}
	if run < 3 {
		return 0, 0, "", false
	}

	rest := strings.TrimSpace(trimmed[run:])
	// An info string containing the fence character is not a fence
	// (e.g. inline code spans like ```a``` on one line).
	if strings.ContainsRune(rest, rune(ch)) {
		return 0, 0, "", false
	}
	if fields := strings.Fields(rest); len(fields) > 0 {
		tag = fields[0]
	}
	return ch, run, tag, true
}

// closesFence reports whether a line terminates a fence opened with run
// repetitions of ch. The line must hold nothing but a run of the same
// character, at least as long as the opener.
func closesFence(line string, ch byte, run int) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < run {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != ch {
			return false
		}
	}
	return true
}
