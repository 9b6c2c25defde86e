package entity

// Task describes one supported evaluation task.
type Task struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	SupportedMetrics []string `json:"supported_metrics"`
	SupportedFormats []string `json:"supported_formats"`
}

// TaskCategory groups related tasks for the task browser.
type TaskCategory struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tasks       []Task `json:"tasks"`
}
