package reconciler

import (
	"fmt"
	"time"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Added     int `json:"added" yaml:"added"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Skipped   int `json:"skipped" yaml:"skipped"` // invalid upstream entries

	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	DryRun    bool          `json:"dry_run" yaml:"dry_run"`
}

// Changed returns the number of devices written (added plus updated).
func (r *Result) Changed() int {
	return r.Added + r.Updated
}

// HasChanges reports whether the pass wrote anything.
func (r *Result) HasChanges() bool {
	return r.Changed() > 0
}

// Total returns the number of upstream devices processed.
func (r *Result) Total() int {
	return r.Added + r.Updated + r.Unchanged
}

// String returns a one-line summary.
func (r *Result) String() string {
	return fmt.Sprintf("%d added, %d updated, %d unchanged in %s",
		r.Added, r.Updated, r.Unchanged, r.Duration.Round(time.Millisecond))
}

func (r *Result) finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
