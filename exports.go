package rebate

import "github.com/xraph/rebate/types"

// Re-export common types for convenience so users don't have to import types package.

// Rate is re-exported from types package.
type Rate = types.Rate

// Entity is re-exported from types package.
type Entity = types.Entity

// BatchResult is re-exported from types package.
type BatchResult = types.BatchResult

// Re-export Rate constructors
var (
	Percent    = types.Percent
	Hundredths = types.Hundredths
	NewRate    = types.NewRate
	MustRate   = types.MustRate
	MaxOf      = types.MaxOf
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
