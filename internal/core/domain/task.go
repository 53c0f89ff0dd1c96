package domain

import "fmt"

type TaskState string

const (
	TaskInProgress TaskState = "InProgress"
	TaskOK         TaskState = "Ok"
	TaskError      TaskState = "Error"
)

func (s TaskState) Terminal() bool {
	return s == TaskOK || s == TaskError
}

// TaskSnapshot is the value handed to pollers of a background extraction.
type TaskSnapshot struct {
	ID       string           `json:"task_id"`
	State    TaskState        `json:"state"`
	Progress string           `json:"progress"`
	Done     int              `json:"done"`
	Total    int              `json:"total"`
	Result   *DocumentSummary `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func FormatProgress(done, total int) string {
	return fmt.Sprintf("%d/%d", done, total)
}
