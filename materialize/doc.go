// Package materialize turns a validated FileSet into files on disk under a
// single authorized target root.
//
// Every entry is resolved against a path policy before any I/O: absolute
// paths, traversal segments, control or reserved characters, and paths
// that normalize outside the root are rejected per entry, never aborting
// the batch. Writes go through a temporary file in the destination
// directory followed by a rename, so a failed write leaves previous
// content untouched. The report lists one outcome per input entry in the
// FileSet's order, even when writes run on a worker pool.
//
// The materializer holds no state across invocations; it is a function of
// (FileSet, TargetRoot) plus the policy it was built with.
package materialize
