package answers

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestNewDefaultsToZero(t *testing.T) {
	record := New([]string{"chestPain", "age", "sex"})

	for _, field := range []string{"chestPain", "age", "sex"} {
		v, ok := record.Value(field)
		if !ok || v != 0 {
			t.Fatalf("expected %s to default to 0, got %v (present=%t)", field, v, ok)
		}
	}
	if len(record.Written()) != 0 {
		t.Fatalf("expected no written fields, got %v", record.Written())
	}
}

func TestWithReturnsCopy(t *testing.T) {
	original := New([]string{"age"})

	updated, err := original.With("age", 45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := original.Value("age"); v != 0 {
		t.Fatalf("expected original record to stay 0, got %v", v)
	}
	if v, _ := updated.Value("age"); v != 45 {
		t.Fatalf("expected updated record to hold 45, got %v", v)
	}
	if !slices.Equal(updated.Written(), []string{"age"}) {
		t.Fatalf("expected written order [age], got %v", updated.Written())
	}
}

func TestWithUnknownField(t *testing.T) {
	record := New([]string{"age"})

	if _, err := record.With("weight", 80); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSkipAndFlagKeepDefault(t *testing.T) {
	record := New([]string{"chestPain", "age"})

	record, _ = record.Skip("chestPain")
	record, _ = record.Flag("age")

	if v, _ := record.Value("age"); v != 0 {
		t.Fatalf("expected flagged field to stay 0, got %v", v)
	}
	if !slices.Equal(record.Skipped(), []string{"chestPain", "age"}) {
		t.Fatalf("unexpected skipped fields: %v", record.Skipped())
	}
	if !slices.Equal(record.Flagged(), []string{"age"}) {
		t.Fatalf("unexpected flagged fields: %v", record.Flagged())
	}
}

func TestFinalizeIsDetached(t *testing.T) {
	record := New([]string{"chestPain", "age", "sex"})
	record, _ = record.With("chestPain", 1)
	record, _ = record.With("age", 45)
	record, _ = record.With("sex", 1)

	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	answers := record.Finalize(at)
	if !answers.FinalizedAt.Equal(at) {
		t.Fatalf("expected finalized at %v, got %v", at, answers.FinalizedAt)
	}
	if answers.Value("chestPain") != 1 || answers.Value("age") != 45 || answers.Value("sex") != 1 {
		t.Fatalf("unexpected values: %v", answers.Values)
	}
	if !slices.Equal(answers.Order, []string{"chestPain", "age", "sex"}) {
		t.Fatalf("unexpected order: %v", answers.Order)
	}

	answers.Values["age"] = 99
	answers.Order[0] = "changed"
	if v, _ := record.Value("age"); v != 45 {
		t.Fatalf("expected record to be unaffected by snapshot edits, got %v", v)
	}
	if record.Written()[0] != "chestPain" {
		t.Fatalf("expected record order to be unaffected by snapshot edits")
	}
}
