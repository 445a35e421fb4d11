package closing

import (
	"testing"
	"time"
)

var executedAt = time.Date(2025, 11, 30, 12, 0, 0, 0, time.UTC)

func item(id string, required bool, status CheckStatus) CheckItem {
	return CheckItem{
		ID:         id,
		Name:       id,
		Category:   "test",
		Required:   required,
		Status:     status,
		PeriodID:   "p1",
		ExecutedAt: executedAt,
	}
}

func TestSummarize_AllCompleted(t *testing.T) {
	result := Summarize([]CheckItem{
		item("a", true, StatusCompleted),
		item("b", true, StatusCompleted),
		item("c", false, StatusCompleted),
	}, "p1", executedAt)
	summary := result.Summary
	if !summary.CanClose {
		t.Fatalf("all completed must allow close")
	}
	if summary.SuccessRate != 100 {
		t.Fatalf("expected success rate 100, got %d", summary.SuccessRate)
	}
	if summary.Failed != 0 {
		t.Fatalf("expected 0 failed, got %d", summary.Failed)
	}
	if result.PeriodID != "p1" || !result.ExecutedAt.Equal(executedAt) {
		t.Fatalf("result metadata not carried through")
	}
}

func TestSummarize_RequiredFailureBlocks(t *testing.T) {
	result := Summarize([]CheckItem{
		item("a", true, StatusCompleted),
		item("b", true, StatusFailed),
		item("c", false, StatusCompleted),
	}, "p1", executedAt)
	summary := result.Summary
	if summary.CanClose {
		t.Fatalf("a failed required check must block close")
	}
	// 2 of 3 completed rounds to 67.
	if summary.SuccessRate != 67 {
		t.Fatalf("expected success rate 67, got %d", summary.SuccessRate)
	}
	if summary.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", summary.Failed)
	}
}

func TestSummarize_AdvisoryFailureDoesNotBlock(t *testing.T) {
	summary := Summarize([]CheckItem{
		item("a", true, StatusCompleted),
		item("b", false, StatusFailed),
	}, "p1", executedAt).Summary
	if !summary.CanClose {
		t.Fatalf("advisory failure must not block close")
	}
	if summary.SuccessRate != 50 {
		t.Fatalf("expected success rate 50, got %d", summary.SuccessRate)
	}
}

func TestSummarize_ExecutionErrorBlocks(t *testing.T) {
	summary := Summarize([]CheckItem{
		item("a", true, StatusCompleted),
		item("b", true, StatusError),
	}, "p1", executedAt).Summary
	if summary.CanClose {
		t.Fatalf("an errored required check must block close")
	}
	if summary.Failed != 1 {
		t.Fatalf("error status counts as not completed, got failed=%d", summary.Failed)
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, "p1", executedAt).Summary
	if summary.SuccessRate != 0 {
		t.Fatalf("empty run must report success rate 0, got %d", summary.SuccessRate)
	}
	if !summary.CanClose {
		t.Fatalf("no configured checks means nothing blocks the close")
	}
}

func TestFailedChecks(t *testing.T) {
	result := Summarize([]CheckItem{
		item("a", true, StatusCompleted),
		item("b", true, StatusFailed),
		item("c", false, StatusError),
	}, "p1", executedAt)
	failed := result.FailedChecks()
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed checks, got %d", len(failed))
	}
	if failed[0].ID != "b" || failed[1].ID != "c" {
		t.Fatalf("unexpected failed check order: %s, %s", failed[0].ID, failed[1].ID)
	}
}
