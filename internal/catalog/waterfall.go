package catalog

import "wraptrack/internal/job"

// waterfallPrefix maps each stage to how many checkpoints (a prefix of the
// master list) are implicitly complete once a job has reached it. The counts
// grow monotonically along the stage order, and StageDone covers the full
// catalog.
var waterfallPrefix = map[job.Stage]int{
	job.StageSalesIn:    1,  // lead_created
	job.StageProduction: 7,  // through brief_received
	job.StageInstall:    14, // through laminated_ready
	job.StageProdReview: 18, // through install_complete
	job.StageSalesClose: 20, // through invoice_sent
	job.StageDone:       len(checkpoints),
}

// WaterfallSet returns the checkpoint ids auto-completed at the given stage.
func WaterfallSet(stage job.Stage) map[string]struct{} {
	n := waterfallPrefix[stage]
	set := make(map[string]struct{}, n)
	for _, cp := range checkpoints[:n] {
		set[cp.ID] = struct{}{}
	}
	return set
}

// WaterfallContains reports whether a checkpoint is auto-completed at the
// given stage.
func WaterfallContains(stage job.Stage, checkpointID string) bool {
	idx, ok := checkpointIndex[checkpointID]
	if !ok {
		return false
	}
	return idx < waterfallPrefix[stage]
}

// BlockRule flags a specific checkpoint as blocked once the job has reached
// a stage without that checkpoint being satisfied, beyond the standing
// hard-stop rules.
type BlockRule struct {
	Stage        job.Stage
	CheckpointID string
}

// blockRules: contract verification is an install-department item, but it is
// flagged red as soon as the job physically enters the install stage.
var blockRules = []BlockRule{
	{Stage: job.StageInstall, CheckpointID: "contract_verified"},
}

// BlockRules returns the supplementary stage-conditional block rules.
func BlockRules() []BlockRule {
	cp := make([]BlockRule, len(blockRules))
	copy(cp, blockRules)
	return cp
}
