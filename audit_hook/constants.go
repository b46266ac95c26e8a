package audithook

// Action constants for audit events.
const (
	// Binding actions
	ActionTalentBound   = "talent.bound"
	ActionTalentUnbound = "talent.unbound"

	// Rate actions
	ActionIndependentRateSet = "rate.set_independent"
	ActionOverrideUpdated    = "override.updated"
	ActionRecordWritten      = "record.written"

	// Batch and comparison actions
	ActionBatchCompleted = "batch.completed"
	ActionComparisonRun  = "comparison.run"
)

// Resource constants for audit events.
const (
	ResourceTalent   = "talent"
	ResourceOverride = "override"
	ResourceRecord   = "config_record"
	ResourceBatch    = "batch"
	ResourceImport   = "import"
)

// Category constants for audit events.
const (
	CategoryBinding    = "binding"
	CategoryRate       = "rate"
	CategoryAudit      = "audit"
	CategoryComparison = "comparison"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
