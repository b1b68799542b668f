// Package filesmith materializes LLM-proposed file rewrites onto disk,
// safely.
//
// A model is asked to return a single fenced block holding a mapping of
// relative file path to full file content. That reply is untrusted input:
// it can be wrapped inconsistently, structurally malformed, or actively
// hostile (paths escaping the repository). filesmith turns it into files
// through a strictly sequential, single-shot pipeline:
//
//   - extract: isolate the fenced payload block (first matching block wins)
//   - fileset: parse under the declared format and validate the
//     path-to-content schema, rejecting any other shape
//   - materialize: resolve each path against a containment policy and
//     write atomically under the target root, reporting one outcome per
//     file (written, rejected, failed, or cancelled)
//
// Each subpackage is usable independently; this package wires them into
// the one-shot Pipeline. Supporting packages cover the rest of the tool:
//
//   - provider: LLM client interface, Gemini REST implementation, mock
//   - prompt: instruction prompt and correction prompt construction
//   - config: settings from TOML/YAML files and FILESMITH_* environment
//   - workspace: git working-tree operations via the git CLI
//
// Quick start:
//
//	report, err := filesmith.Apply(ctx, response, repoDir, extract.FormatJSON)
//	if err != nil {
//	    // the response never reached the filesystem
//	}
//	for _, o := range report.Outcomes {
//	    fmt.Println(o.Path, o.Status, o.Detail)
//	}
package filesmith
