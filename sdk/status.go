package sdk

import "strings"

// Statuses reported by the API server. The set is open, unknown values are kept as is.
const (
	StatusStarting     = "Starting"
	StatusRunning      = "Running"
	StatusProgressing  = "Progressing"
	StatusNotTriggered = "Not Triggered"
	StatusSucceeded    = "Succeeded"
	StatusFailed       = "Failed"
	StatusHealthy      = "Healthy"
	StatusDegraded     = "Degraded"
	StatusCancelled    = "Cancelled"
	StatusAborted      = "Aborted"
)

var inProgressStatuses = []string{StatusStarting, StatusRunning, StatusProgressing}

// StatusIsInProgress returns true if the status denotes a run still in flight.
// The comparison is case insensitive.
func StatusIsInProgress(status string) bool {
	status = strings.TrimSpace(status)
	for _, s := range inProgressStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}
