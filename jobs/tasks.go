package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSecurityScan is the task type for the periodic security sweep.
	TaskSecurityScan = "security:scan"
)

// SecurityScanPayload configures one security sweep over recent audit
// activity.
type SecurityScanPayload struct {
	WindowHours int `json:"window_hours"`
	Threshold   int `json:"threshold"`
}

// NewSecurityScanTask constructs an Asynq task for the security sweep.
func NewSecurityScanTask(payload SecurityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSecurityScan, data), nil
}
