package usecase

import (
	"github.com/lyuyangh/explainaboard-web/internal/analysis"
	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

// taskCategories is the static task registry. Dataset records reference task
// names from here; submissions only accept metrics their task declares.
var taskCategories = []entity.TaskCategory{
	{
		Name:        "text-classification",
		Description: "predicting a label over a whole piece of text",
		Tasks: []entity.Task{
			{
				Name:             "text-classification",
				Description:      "sentiment analysis, topic classification and similar single-label tasks",
				SupportedMetrics: []string{analysis.MetricAccuracy, analysis.MetricF1},
				SupportedFormats: []string{"json"},
			},
			{
				Name:             "natural-language-inference",
				Description:      "classifying the relation between a premise and a hypothesis",
				SupportedMetrics: []string{analysis.MetricAccuracy},
				SupportedFormats: []string{"json"},
			},
		},
	},
	{
		Name:        "span-prediction",
		Description: "predicting labels over spans of text",
		Tasks: []entity.Task{
			{
				Name:             "named-entity-recognition",
				Description:      "tagging entity spans in text",
				SupportedMetrics: []string{analysis.MetricF1},
				SupportedFormats: []string{"json"},
			},
		},
	},
}

type TaskUseCase struct{}

func NewTaskUseCase() *TaskUseCase {
	return &TaskUseCase{}
}

func (u *TaskUseCase) Categories() []entity.TaskCategory {
	return taskCategories
}

// SupportsMetric reports whether a task declares the metric.
func (u *TaskUseCase) SupportsMetric(task, metric string) bool {
	for _, category := range taskCategories {
		for _, t := range category.Tasks {
			if t.Name != task {
				continue
			}
			for _, m := range t.SupportedMetrics {
				if m == metric {
					return true
				}
			}
		}
	}
	return false
}
