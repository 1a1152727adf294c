package transition

import "wraptrack/internal/job"

// ReasonOther is the catch-all send-back reason available at every stage.
const ReasonOther = "Other"

// sendBackReasons declares the closed reason sets per originating stage.
// Stages without a declared set fall back to just ReasonOther.
var sendBackReasons = map[job.Stage][]string{
	job.StageProduction: {
		"Incorrect scope",
		"Missing design files",
		"Price needs adjustment",
		"Customer changed specs",
		"Installer not assigned",
		ReasonOther,
	},
	job.StageInstall: {
		"Vinyl defect",
		"Wrong color/material",
		"Dimensions mismatch",
		"Missing panels",
		"Customer postponed",
		ReasonOther,
	},
	job.StageProdReview: {
		"Quality issue",
		"Seams not aligned",
		"Bubbles/lifting",
		"Wrong vehicle",
		"Missing coverage",
		ReasonOther,
	},
	job.StageSalesClose: {
		"GPM below threshold",
		"Hours over budget",
		"Customer dispute",
		"Missing photos",
		"Reprint not logged",
		ReasonOther,
	},
}

// SendBackReasons returns the reasons a job at the given stage may be sent
// back with.
func SendBackReasons(stage job.Stage) []string {
	reasons, ok := sendBackReasons[stage]
	if !ok {
		return []string{ReasonOther}
	}
	cp := make([]string, len(reasons))
	copy(cp, reasons)
	return cp
}

// ValidSendBackReason reports whether reason belongs to the stage's set.
func ValidSendBackReason(stage job.Stage, reason string) bool {
	for _, r := range SendBackReasons(stage) {
		if r == reason {
			return true
		}
	}
	return false
}
