package pipeline

import "time"

// Stage is the step a run reached.
type Stage string

// Run stages, in order.
const (
	StageLease    Stage = "lease"
	StageGather   Stage = "gather"
	StagePrompt   Stage = "prompt"
	StageAnalyze  Stage = "analyze"
	StageValidate Stage = "validate"
	StagePersist  Stage = "persist"
	StageDone     Stage = "done"
)

// Code classifies how a run ended. Callers switch on it instead of
// inspecting error text.
type Code string

// Run outcome codes.
const (
	CodeOK               Code = "ok"
	CodePartial          Code = "partial"
	CodeNotConfigured    Code = "not_configured"
	CodeBusy             Code = "busy"
	CodeGatherFailed     Code = "gather_failed"
	CodePromptFailed     Code = "prompt_failed"
	CodeAnalysisFailed   Code = "analysis_failed"
	CodeValidationFailed Code = "validation_failed"
	CodeTimeout          Code = "timeout"
)

// Stats counts what a run persisted.
type Stats struct {
	TimelineEntries        int   `json:"timelineEntries"`
	GoalsExtracted         int   `json:"goalsExtracted"`
	InspirationExtracted   int   `json:"inspirationExtracted"`
	ManualEntriesProcessed int   `json:"manualEntriesProcessed"`
	QuadrantsUpdated       int   `json:"quadrantsUpdated"`
	SnapshotID             int64 `json:"snapshotId,omitempty"`
	Failures               int   `json:"failures"`
}

// Result is the outcome of one cycle: either success with stats, or the
// stage where it stopped and why.
type Result struct {
	RunID     string        `json:"runId"`
	Stage     Stage         `json:"stage"`
	Code      Code          `json:"code"`
	Err       error         `json:"-"`
	Stats     Stats         `json:"stats"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// OK reports whether the analysis was applied. A partial run applied some
// entities and logged the rest.
func (r Result) OK() bool {
	return r.Code == CodeOK || r.Code == CodePartial
}

// Error returns the error message, or "" on success.
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
