package materialize

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	return root
}

func TestPolicyResolve_ValidPaths(t *testing.T) {
	root := testRoot(t)
	var p Policy

	cases := []string{
		"file.txt",
		"subdir/file.txt",
		`subdir\file.txt`,
		".config/settings",
		"a/b/c/d.go",
	}
	for _, rel := range cases {
		resolved, violation := p.Resolve(root, rel)
		require.Nil(t, violation, "path %q", rel)
		assert.True(t, len(resolved) > len(root), "path %q resolved to %q", rel, resolved)
	}
}

func TestPolicyResolve_EmptyPath(t *testing.T) {
	root := testRoot(t)
	var p Policy

	for _, rel := range []string{"", "   ", ".", "./"} {
		_, violation := p.Resolve(root, rel)
		require.NotNil(t, violation, "path %q", rel)
		assert.Equal(t, ReasonEmptyPath, violation.Reason, "path %q", rel)
	}
}

func TestPolicyResolve_AbsolutePaths(t *testing.T) {
	root := testRoot(t)
	var p Policy

	cases := []string{
		"/etc/passwd",
		`\windows\system32`,
		`C:\Windows`,
		"c:/temp/x.txt",
		`\\server\share`,
	}
	for _, rel := range cases {
		_, violation := p.Resolve(root, rel)
		require.NotNil(t, violation, "path %q", rel)
		assert.Equal(t, ReasonAbsolutePath, violation.Reason, "path %q", rel)
	}
}

func TestPolicyResolve_Traversal(t *testing.T) {
	root := testRoot(t)
	var p Policy

	cases := []string{
		"../file.txt",
		"subdir/../../file.txt",
		`subdir\..\..\file.txt`,
		"subdir/../sub/../../file.txt",
		"..",
	}
	for _, rel := range cases {
		_, violation := p.Resolve(root, rel)
		require.NotNil(t, violation, "path %q", rel)
		assert.Equal(t, ReasonTraversalAttempt, violation.Reason, "path %q", rel)
	}
}

func TestPolicyResolve_InvalidCharacters(t *testing.T) {
	root := testRoot(t)
	var p Policy

	cases := []string{
		"file:name.txt",
		"file<>.txt",
		"file\x00name.txt",
		"file\nname.txt",
		"what?.txt",
	}
	for _, rel := range cases {
		_, violation := p.Resolve(root, rel)
		require.NotNil(t, violation, "path %q", rel)
		assert.Equal(t, ReasonInvalidCharacter, violation.Reason, "path %q", rel)
	}
}

func TestPolicyResolve_ExtraInvalidRunes(t *testing.T) {
	root := testRoot(t)
	p := Policy{ExtraInvalidRunes: "$"}

	_, violation := p.Resolve(root, "price$.txt")
	require.NotNil(t, violation)
	assert.Equal(t, ReasonInvalidCharacter, violation.Reason)

	resolved, violation := p.Resolve(root, "price.txt")
	require.Nil(t, violation)
	assert.NotEmpty(t, resolved)
}

func TestPolicyResolve_ContainmentAfterNormalization(t *testing.T) {
	root := testRoot(t)
	var p Policy

	// Redundant current-dir segments normalize away but stay inside root.
	resolved, violation := p.Resolve(root, "./a/./b.txt")
	require.Nil(t, violation)
	assert.Equal(t, filepath.Join(root, "a", "b.txt"), resolved)
}

func TestPolicyResolve_NoFilesystemAccess(t *testing.T) {
	// Policy must be pure: a root that does not exist is fine at this layer.
	var p Policy
	resolved, violation := p.Resolve(filepath.Join(string(filepath.Separator), "nonexistent-root"), "a.txt")
	require.Nil(t, violation)
	assert.Contains(t, resolved, "nonexistent-root")
}
