package materialize

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// reservedRunes are characters never permitted in a proposed path. They
// cover the Windows-reserved set so a file set produced on one platform
// materializes on any other.
const reservedRunes = `<>:"|?*`

// Policy decides whether a proposed relative path may be written under a
// target root. The zero value is the default policy. Resolution is pure:
// no filesystem access, so it can run before any I/O and in parallel.
type Policy struct {
	// ExtraInvalidRunes extends the reserved character set, for callers
	// that restrict paths further (e.g. to a configured allow-list).
	ExtraInvalidRunes string
}

// Violation describes why a path was refused.
type Violation struct {
	Reason Reason
	Detail string
}

// Resolve validates rel against the policy and returns the absolute
// destination under root. root must already be an absolute, cleaned path.
// A nil Violation means the path is safe.
func (p Policy) Resolve(root, rel string) (string, *Violation) {
	if strings.TrimSpace(rel) == "" {
		return "", &Violation{ReasonEmptyPath, "path is empty"}
	}

	if isAbsolute(rel) {
		return "", &Violation{ReasonAbsolutePath, fmt.Sprintf("path %q is absolute", rel)}
	}

	// Both separator styles are honored before any normalization so a
	// `..` smuggled behind a backslash cannot survive to the join.
	normalized := strings.ReplaceAll(rel, `\`, "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", &Violation{ReasonTraversalAttempt, fmt.Sprintf("path %q contains a '..' segment", rel)}
		}
	}

	for _, r := range rel {
		if r < 0x20 || r == 0x7f {
			return "", &Violation{ReasonInvalidCharacter, fmt.Sprintf("path %q contains control character %q", rel, r)}
		}
		if strings.ContainsRune(reservedRunes, r) || strings.ContainsRune(p.ExtraInvalidRunes, r) {
			return "", &Violation{ReasonInvalidCharacter, fmt.Sprintf("path %q contains reserved character %q", rel, r)}
		}
	}

	cleaned := path.Clean(normalized)
	if cleaned == "." || cleaned == "/" {
		return "", &Violation{ReasonEmptyPath, fmt.Sprintf("path %q resolves to the target root itself", rel)}
	}

	resolved := filepath.Join(root, filepath.FromSlash(cleaned))
	if resolved == root || !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", &Violation{ReasonTraversalAttempt, fmt.Sprintf("path %q escapes the target root", rel)}
	}
	return resolved, nil
}

// isAbsolute detects absolute paths across platform conventions: a leading
// separator of either style, a drive-letter prefix, and UNC shares.
func isAbsolute(rel string) bool {
	if filepath.IsAbs(rel) {
		return true
	}
	if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) {
		return true
	}
	if len(rel) >= 2 && rel[1] == ':' && isASCIILetter(rel[0]) {
		return true
	}
	return false
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
