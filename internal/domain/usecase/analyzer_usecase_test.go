package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

func TestProcessSystemCompletes(t *testing.T) {
	repo := newFakeSystemRepo()
	repo.systems["sys-1"] = &entity.System{SystemID: "sys-1", Status: entity.StatusPending}

	storage := newFakeStorage()
	storage.objects["systems/sys-1/output.json"] = []byte(`[
		{"true_label": "pos", "predicted_label": "pos", "sentence_length": 3},
		{"true_label": "neg", "predicted_label": "pos", "sentence_length": 8},
		{"true_label": "pos", "predicted_label": "pos", "sentence_length": 12},
		{"true_label": "neg", "predicted_label": "neg", "sentence_length": 20}
	]`)

	status := newFakeStatusRepo()
	uc := NewAnalyzerUseCase(repo, storage, status, 4)

	msg := &entity.SystemCreatedMessage{
		SystemID:  "sys-1",
		Task:      "text-classification",
		OutputKey: "systems/sys-1/output.json",
		Metrics:   []string{"Accuracy"},
		Features:  []string{"sentence_length"},
	}
	if err := uc.ProcessSystem(context.Background(), msg); err != nil {
		t.Fatalf("ProcessSystem failed: %v", err)
	}

	system := repo.systems["sys-1"]
	if system.Status != entity.StatusCompleted {
		t.Errorf("status: got %s, want COMPLETED", system.Status)
	}
	if system.AnalysisKey == "" {
		t.Fatal("analysis key not recorded")
	}
	if status.statuses["sys-1"] != string(entity.StatusCompleted) {
		t.Error("redis status not COMPLETED")
	}

	reportJSON, ok := storage.objects[system.AnalysisKey]
	if !ok {
		t.Fatal("analysis report not uploaded")
	}
	var report entity.AnalysisReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		t.Fatalf("stored report is not valid JSON: %v", err)
	}
	if got := report.Overall["Accuracy"].Value; !floatEq(got, 0.75) {
		t.Errorf("overall accuracy: got %v, want 0.75", got)
	}
	if len(report.Features["sentence_length"]) != 4 {
		t.Errorf("expected 4 buckets, got %d", len(report.Features["sentence_length"]))
	}

	var overall map[string]entity.Performance
	if err := json.Unmarshal(system.Overall, &overall); err != nil {
		t.Fatalf("stored overall results are not valid JSON: %v", err)
	}
	if !floatEq(overall["Accuracy"].Value, 0.75) {
		t.Errorf("overall column: got %v", overall["Accuracy"].Value)
	}
}

func TestProcessSystemMalformedOutputFails(t *testing.T) {
	repo := newFakeSystemRepo()
	repo.systems["sys-1"] = &entity.System{SystemID: "sys-1", Status: entity.StatusPending}

	storage := newFakeStorage()
	storage.objects["systems/sys-1/output.json"] = []byte(`{"not": "an array"}`)

	status := newFakeStatusRepo()
	uc := NewAnalyzerUseCase(repo, storage, status, 4)

	msg := &entity.SystemCreatedMessage{
		SystemID:  "sys-1",
		OutputKey: "systems/sys-1/output.json",
		Metrics:   []string{"Accuracy"},
	}
	// A submission that can never analyze must not be redelivered.
	if err := uc.ProcessSystem(context.Background(), msg); err != nil {
		t.Fatalf("expected the message to be acknowledged, got %v", err)
	}
	if repo.systems["sys-1"].Status != entity.StatusFailed {
		t.Errorf("status: got %s, want FAILED", repo.systems["sys-1"].Status)
	}
}

func TestProcessSystemMissingObjectRetries(t *testing.T) {
	repo := newFakeSystemRepo()
	repo.systems["sys-1"] = &entity.System{SystemID: "sys-1", Status: entity.StatusPending}

	uc := NewAnalyzerUseCase(repo, newFakeStorage(), newFakeStatusRepo(), 4)
	msg := &entity.SystemCreatedMessage{SystemID: "sys-1", OutputKey: "systems/sys-1/output.json"}

	if err := uc.ProcessSystem(context.Background(), msg); err == nil {
		t.Fatal("expected an error so the message is redelivered")
	}
}
