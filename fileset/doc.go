// Package fileset decodes an extracted payload into a validated mapping of
// relative file path to full file content.
//
// Decoding runs in two passes: a syntactic parse under the payload's
// declared format, then an exhaustive structural walk that accepts only a
// string-to-string mapping. Any other shape (non-object top level, nested
// values, numbers, nulls, arrays) is a SchemaError for the whole payload;
// no value is ever coerced. Duplicate path keys are a hard
// DuplicateKeyError for both JSON and YAML.
//
// A FileSet preserves the payload's key order, so downstream reporting is
// deterministic. An empty mapping is a valid FileSet meaning "no files to
// change".
package fileset
