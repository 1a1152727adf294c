package job

import (
	"strings"
	"time"
)

// Stage identifies a position in the pipeline.
type Stage string

const (
	StageSalesIn    Stage = "sales_in"
	StageProduction Stage = "production"
	StageInstall    Stage = "install"
	StageProdReview Stage = "prod_review"
	StageSalesClose Stage = "sales_close"
	StageDone       Stage = "done"
)

// Status reflects whether a job is still open or has been closed out.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// transitionalStages is the forward order a job moves through before closing.
// StageDone is terminal and reachable only via the close transition.
var transitionalStages = []Stage{
	StageSalesIn,
	StageProduction,
	StageInstall,
	StageProdReview,
	StageSalesClose,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(transitionalStages)+1)
	for _, stage := range transitionalStages {
		set[stage] = struct{}{}
	}
	set[StageDone] = struct{}{}
	return set
}()

// TransitionalStages returns the ordered list of non-terminal stages.
func TransitionalStages() []Stage {
	cp := make([]Stage, len(transitionalStages))
	copy(cp, transitionalStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// StageIndex returns the position of a transitional stage in the forward
// order, or -1 for StageDone and unknown values.
func StageIndex(stage Stage) int {
	for i, s := range transitionalStages {
		if s == stage {
			return i
		}
	}
	return -1
}

// NextStage returns the stage one position forward. The second return is
// false when stage is the last transitional stage (close is a separate
// transition) or is not a transitional stage at all.
func NextStage(stage Stage) (Stage, bool) {
	idx := StageIndex(stage)
	if idx < 0 || idx >= len(transitionalStages)-1 {
		return "", false
	}
	return transitionalStages[idx+1], true
}

// PrevStage returns the stage one position back, clamped to the first stage.
func PrevStage(stage Stage) Stage {
	idx := StageIndex(stage)
	if idx <= 0 {
		return transitionalStages[0]
	}
	return transitionalStages[idx-1]
}

// IsTerminal reports whether the stage ends the pipeline.
func IsTerminal(stage Stage) bool {
	return stage == StageDone
}

// Label returns the human-readable stage name used in CLI output and
// notifications.
func (s Stage) Label() string {
	switch s {
	case StageSalesIn:
		return "Sales Intake"
	case StageProduction:
		return "Production"
	case StageInstall:
		return "Install"
	case StageProdReview:
		return "QC Review"
	case StageSalesClose:
		return "Sales Approval"
	case StageDone:
		return "Done"
	default:
		return string(s)
	}
}

// Override is a persisted manual checkpoint edit. An explicit Done=false
// entry wins over waterfall-implied completion; a missing entry defers to
// the waterfall.
type Override struct {
	Done bool       `json:"done"`
	By   string     `json:"by,omitempty"`
	At   *time.Time `json:"at,omitempty"`
	Note string     `json:"note,omitempty"`
}

// Job is a unit of work moving through the pipeline.
type Job struct {
	ID        string
	Title     string
	Customer  string
	Stage     Stage
	Status    Status
	Checklist map[string]Override
	SendBacks []SendBackRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApprovalRecord is the audit entry written when a stage is signed off.
// FieldsJSON snapshots the supporting form fields the gate was evaluated
// against. Records are append-only.
type ApprovalRecord struct {
	ID         string
	JobID      string
	Stage      Stage
	ApprovedBy string
	Notes      string
	FieldsJSON string
	CreatedAt  time.Time
}

// SendBackRecord logs a reasoned regression to the previous stage.
// Records are append-only and immutable once written.
type SendBackRecord struct {
	ID        string
	JobID     string
	FromStage Stage
	ToStage   Stage
	Reason    string
	Notes     string
	Actor     string
	CreatedAt time.Time
}
