package types

import (
	"encoding/json"
	"testing"
)

func TestBatchResultCounting(t *testing.T) {
	var b BatchResult

	b.AddSucceeded()
	b.AddSucceeded()
	b.AddSkipped()
	b.AddFailed("talent-1", "talent not found")

	if b.Succeeded != 2 || b.Skipped != 1 || b.Failed != 1 {
		t.Errorf("counts: got %+v", b)
	}
	if b.Total() != 4 {
		t.Errorf("Total: got %d, want 4", b.Total())
	}
	if len(b.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(b.Errors))
	}
	if b.Errors[0].OneID != "talent-1" || b.Errors[0].Reason != "talent not found" {
		t.Errorf("error: got %+v", b.Errors[0])
	}
}

func TestItemErrorMessage(t *testing.T) {
	e := ItemError{OneID: "talent-1", Reason: "already bound to agency x"}
	want := "item talent-1: already bound to agency x"
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}
}

func TestBatchResultJSONOmitsEmptyErrors(t *testing.T) {
	b := BatchResult{Succeeded: 3}
	data, err := json.Marshal(&b)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"succeeded":3,"skipped":0,"failed":0}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
