package materialize

import "fmt"

// Status is the disposition of a single FileSet entry.
type Status string

const (
	// StatusWritten means the full content is on disk at the resolved path.
	StatusWritten Status = "written"

	// StatusRejected means the path violated policy; nothing was written.
	StatusRejected Status = "rejected"

	// StatusFailed means I/O failed; prior content, if any, is untouched.
	StatusFailed Status = "failed"

	// StatusCancelled means the batch was cancelled before this entry was
	// processed.
	StatusCancelled Status = "cancelled"
)

// Reason tags a rejection with its policy violation.
type Reason string

const (
	ReasonEmptyPath          Reason = "EmptyPath"
	ReasonAbsolutePath       Reason = "AbsolutePath"
	ReasonTraversalAttempt   Reason = "TraversalAttempt"
	ReasonInvalidCharacter   Reason = "InvalidCharacter"
	ReasonDuplicateTarget    Reason = "DuplicateTarget"
	ReasonSymlinkEncountered Reason = "SymlinkEncountered"
)

// Outcome is the per-file disposition record. Detail carries the
// human-readable explanation: the policy violation for rejections, the
// underlying I/O error for failures.
type Outcome struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	Reason Reason `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Report aggregates the outcomes of one materialization, in input order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Clean reports whether every entry was written. An empty report is clean:
// an empty FileSet means "no files to change".
func (r *Report) Clean() bool {
	for _, o := range r.Outcomes {
		if o.Status != StatusWritten {
			return false
		}
	}
	return true
}

// ByStatus returns the outcomes with the given status, preserving order.
func (r *Report) ByStatus(s Status) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == s {
			out = append(out, o)
		}
	}
	return out
}

// Written returns the successfully written outcomes.
func (r *Report) Written() []Outcome { return r.ByStatus(StatusWritten) }

// Rejected returns the policy-rejected outcomes.
func (r *Report) Rejected() []Outcome { return r.ByStatus(StatusRejected) }

// Failed returns the outcomes whose I/O failed.
func (r *Report) Failed() []Outcome { return r.ByStatus(StatusFailed) }

// Cancelled returns the outcomes skipped due to cancellation.
func (r *Report) Cancelled() []Outcome { return r.ByStatus(StatusCancelled) }

// Summary renders a one-line count breakdown.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d written, %d rejected, %d failed, %d cancelled",
		len(r.Written()), len(r.Rejected()), len(r.Failed()), len(r.Cancelled()))
}
