package sync

import (
	"fmt"
	"time"

	"github.com/agentstation/storefront/pkg/reconciler"
)

// Status is the state of a sync run.
type Status string

// Run states.
const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run records one sync cycle.
type Run struct {
	ID        string        `json:"id" yaml:"id"`
	Trigger   Trigger       `json:"trigger" yaml:"trigger"`
	Status    Status        `json:"status" yaml:"status"`
	DryRun    bool          `json:"dry_run" yaml:"dry_run"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time,omitzero" yaml:"end_time,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// Fetched is the number of devices the upstream returned.
	Fetched   int `json:"fetched" yaml:"fetched"`
	Added     int `json:"added" yaml:"added"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Invalid   int `json:"invalid" yaml:"invalid"`

	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorClass string `json:"error_class,omitempty" yaml:"error_class,omitempty"`
}

// HasChanges returns true if the run wrote any device.
func (r *Run) HasChanges() bool {
	return !r.DryRun && r.Added+r.Updated > 0
}

// Apply copies the reconciliation counts onto the run.
func (r *Run) Apply(result *reconciler.Result) {
	if result == nil {
		return
	}
	r.Added = result.Added
	r.Updated = result.Updated
	r.Unchanged = result.Unchanged
	r.Invalid = result.Skipped
}

// Summary returns a human-readable summary of the run.
func (r *Run) Summary() string {
	switch r.Status {
	case StatusRunning:
		return fmt.Sprintf("Sync %s running since %s", r.ID, r.StartTime.Format(time.RFC3339))
	case StatusFailed:
		return fmt.Sprintf("Sync failed after %s: %s", r.Duration.Round(time.Millisecond), r.Error)
	}
	var summary string
	if r.Added+r.Updated == 0 {
		summary = fmt.Sprintf("No changes detected (%d devices checked)", r.Unchanged)
	} else {
		summary = fmt.Sprintf("%d added, %d updated, %d unchanged", r.Added, r.Updated, r.Unchanged)
	}
	if r.Invalid > 0 {
		summary += fmt.Sprintf(", %d invalid skipped", r.Invalid)
	}
	if r.DryRun {
		summary += " (Dry run)"
	}
	return summary
}
