package destroy

import "fmt"

// ResultStatus classifies the outcome for a single resource.
type ResultStatus string

const (
	StatusDeleted     ResultStatus = "deleted"
	StatusAlreadyGone ResultStatus = "already_gone"
	StatusSkipped     ResultStatus = "skipped"
	StatusFailed      ResultStatus = "failed"
)

// Result is the per-resource outcome of a destroy run.
type Result struct {
	Resource string       `json:"resource"`
	ID       string       `json:"id,omitempty"`
	Status   ResultStatus `json:"status"`
	Detail   string       `json:"detail,omitempty"`
}

// Report aggregates per-resource results so the operator can see
// exactly what remains after a partial failure.
type Report struct {
	Results     []Result `json:"results"`
	ArchivePath string   `json:"archive_path,omitempty"`
}

func (r *Report) add(resource, id string, status ResultStatus, detail string) {
	r.Results = append(r.Results, Result{Resource: resource, ID: id, Status: status, Detail: detail})
}

// Failed returns the results that need operator attention.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Clean reports whether every resource was deleted, already gone, or
// legitimately skipped.
func (r *Report) Clean() bool {
	return len(r.Failed()) == 0
}

// Summary renders a one-line outcome.
func (r *Report) Summary() string {
	counts := map[ResultStatus]int{}
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return fmt.Sprintf("%d deleted, %d already gone, %d skipped, %d failed",
		counts[StatusDeleted], counts[StatusAlreadyGone], counts[StatusSkipped], counts[StatusFailed])
}
