package materialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/filesmith/filesmith/fileset"
)

// ErrTargetRoot indicates the target root does not exist or is not a
// directory. This is the only batch-level failure; everything past it is
// reported per entry.
var ErrTargetRoot = errors.New("target root is not an existing directory")

// Materializer writes FileSets to disk under a target root. It carries no
// state between invocations and is safe for concurrent use.
type Materializer struct {
	policy  Policy
	logger  *slog.Logger
	workers int
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithPolicy replaces the default path policy.
func WithPolicy(p Policy) Option {
	return func(m *Materializer) { m.policy = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Materializer) { m.logger = l }
}

// WithWorkers sets the number of concurrent file writers. Values below 2
// keep the sequential path. Entries remain reported in input order.
func WithWorkers(n int) Option {
	return func(m *Materializer) { m.workers = n }
}

// New creates a Materializer.
func New(opts ...Option) *Materializer {
	m := &Materializer{workers: 1}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// entry tracks one FileSet pair through resolution and writing.
type entry struct {
	index    int
	path     string
	content  string
	resolved string
}

// Materialize writes every FileSet entry under targetRoot and reports one
// Outcome per entry in input order. A single entry's rejection or failure
// never aborts the batch. Cancelling ctx stops the batch between file
// writes; unprocessed entries are reported as cancelled.
func (m *Materializer) Materialize(ctx context.Context, fs *fileset.FileSet, targetRoot string) (*Report, error) {
	root, err := filepath.Abs(targetRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTargetRoot, err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrTargetRoot, root)
	}

	outcomes := make([]Outcome, fs.Len())
	var pending []*entry

	// Pass 1: pure policy resolution, no I/O.
	i := 0
	fs.Each(func(path, content string) {
		e := &entry{index: i, path: path, content: content}
		i++
		resolved, violation := m.policy.Resolve(root, path)
		if violation != nil {
			m.logger.Warn("path rejected", "path", path, "reason", string(violation.Reason))
			outcomes[e.index] = Outcome{Path: path, Status: StatusRejected, Reason: violation.Reason, Detail: violation.Detail}
			return
		}
		e.resolved = resolved
		pending = append(pending, e)
	})

	// Pass 2: distinct entries normalizing to the same destination would
	// race a write; reject all of them instead.
	byTarget := make(map[string][]*entry, len(pending))
	for _, e := range pending {
		byTarget[e.resolved] = append(byTarget[e.resolved], e)
	}
	writable := pending[:0]
	for _, e := range pending {
		group := byTarget[e.resolved]
		if len(group) > 1 {
			others := make([]string, 0, len(group)-1)
			for _, o := range group {
				if o.index != e.index {
					others = append(others, o.path)
				}
			}
			outcomes[e.index] = Outcome{
				Path:   e.path,
				Status: StatusRejected,
				Reason: ReasonDuplicateTarget,
				Detail: fmt.Sprintf("resolves to the same file as %s", strings.Join(others, ", ")),
			}
			continue
		}
		writable = append(writable, e)
	}

	// Pass 3: writes.
	if m.workers > 1 {
		m.writeParallel(ctx, root, writable, outcomes)
	} else {
		m.writeSequential(ctx, root, writable, outcomes)
	}

	return &Report{Outcomes: outcomes}, nil
}

func (m *Materializer) writeSequential(ctx context.Context, root string, entries []*entry, outcomes []Outcome) {
	for n, e := range entries {
		if ctx.Err() != nil {
			for _, rest := range entries[n:] {
				outcomes[rest.index] = Outcome{Path: rest.path, Status: StatusCancelled, Detail: ctx.Err().Error()}
			}
			return
		}
		outcomes[e.index] = m.writeEntry(root, e)
	}
}

func (m *Materializer) writeParallel(ctx context.Context, root string, entries []*entry, outcomes []Outcome) {
	jobs := make(chan *entry)
	var wg sync.WaitGroup
	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				// Cancellation applies between writes, never mid-write.
				if ctx.Err() != nil {
					outcomes[e.index] = Outcome{Path: e.path, Status: StatusCancelled, Detail: ctx.Err().Error()}
					continue
				}
				outcomes[e.index] = m.writeEntry(root, e)
			}
		}()
	}
	for _, e := range entries {
		jobs <- e
	}
	close(jobs)
	wg.Wait()
}

// writeEntry creates intermediate directories and writes the content
// atomically. Outcomes here are Failed (I/O) or Rejected (symlink policy);
// only a completed rename yields Written.
func (m *Materializer) writeEntry(root string, e *entry) Outcome {
	if reason, err := m.ensureDirs(root, filepath.Dir(e.resolved)); err != nil {
		if reason != "" {
			return Outcome{Path: e.path, Status: StatusRejected, Reason: reason, Detail: err.Error()}
		}
		return Outcome{Path: e.path, Status: StatusFailed, Detail: err.Error()}
	}

	// Writing through a symlinked file would place content outside the
	// verified destination.
	if info, err := os.Lstat(e.resolved); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return Outcome{
			Path:   e.path,
			Status: StatusRejected,
			Reason: ReasonSymlinkEncountered,
			Detail: fmt.Sprintf("destination %s is a symlink", e.path),
		}
	}

	if err := atomicWrite(e.resolved, []byte(e.content)); err != nil {
		m.logger.Error("write failed", "path", e.path, "error", err)
		return Outcome{Path: e.path, Status: StatusFailed, Detail: err.Error()}
	}
	m.logger.Debug("file written", "path", e.path, "bytes", len(e.content))
	return Outcome{Path: e.path, Status: StatusWritten}
}

// ensureDirs creates the missing directories between root and dir, one
// component at a time. Existing components must be real directories: a
// symlink yields a SymlinkEncountered rejection, a regular file an I/O
// failure. Concurrent creation of the same directory is tolerated.
func (m *Materializer) ensureDirs(root, dir string) (Reason, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}

	current := root
	for _, segment := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, segment)
		info, err := os.Lstat(current)
		switch {
		case err == nil:
			if info.Mode()&os.ModeSymlink != 0 {
				return ReasonSymlinkEncountered, fmt.Errorf("path component %s is a symlink", current)
			}
			if !info.IsDir() {
				return "", fmt.Errorf("path component %s exists and is not a directory", current)
			}
		case os.IsNotExist(err):
			if mkErr := os.Mkdir(current, 0o755); mkErr != nil && !os.IsExist(mkErr) {
				return "", fmt.Errorf("creating directory %s: %w", current, mkErr)
			}
		default:
			return "", err
		}
	}
	return "", nil
}

// atomicWrite stages data in a temporary file beside the destination and
// renames it into place, so readers see either the old content or the
// complete new content.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".filesmith-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
