package types

import "fmt"

// ItemStatus classifies the outcome of one item in a batch operation.
type ItemStatus string

const (
	ItemSucceeded ItemStatus = "succeeded"
	ItemSkipped   ItemStatus = "skipped"
	ItemFailed    ItemStatus = "failed"
)

// ItemError describes why a single batch item failed. Batch operations
// collect these instead of aborting siblings.
type ItemError struct {
	OneID  string `json:"oneId"`
	Reason string `json:"reason"`
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %s: %s", e.OneID, e.Reason)
}

// BatchResult is the shared aggregate for every batch mutator. One item is
// counted exactly once: succeeded (state was written), skipped (recognized
// no-op, nothing written), or failed (per-item error, recorded in Errors).
type BatchResult struct {
	Succeeded int         `json:"succeeded"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// AddSucceeded counts one successfully mutated item.
func (b *BatchResult) AddSucceeded() { b.Succeeded++ }

// AddSkipped counts one recognized no-op.
func (b *BatchResult) AddSkipped() { b.Skipped++ }

// AddFailed counts one failed item and records its error.
func (b *BatchResult) AddFailed(oneID, reason string) {
	b.Failed++
	b.Errors = append(b.Errors, ItemError{OneID: oneID, Reason: reason})
}

// Total returns the number of items accounted for.
func (b *BatchResult) Total() int { return b.Succeeded + b.Skipped + b.Failed }
