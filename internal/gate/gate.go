package gate

import (
	"strings"

	"wraptrack/internal/job"
)

// Result is the outcome of a gate evaluation. When denied, Predicate names
// the single failing check and Reason is the message to surface verbatim.
type Result struct {
	Allowed   bool
	Predicate string
	Reason    string
}

func allowed() Result {
	return Result{Allowed: true}
}

func denied(predicate, reason string) Result {
	return Result{Predicate: predicate, Reason: reason}
}

type predicate struct {
	name  string
	check func(Fields) (bool, string)
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}

// stageGates declares the ordered preconditions for advancing out of each
// stage. sales_close is absent on purpose: leaving it is the close
// transition, gated by CheckClose.
var stageGates = map[job.Stage][]predicate{
	job.StageSalesIn: {
		{name: "customer_name", check: func(f Fields) (bool, string) {
			return present(f.CustomerName), "customer name is required before leaving sales intake"
		}},
		{name: "sale_price", check: func(f Fields) (bool, string) {
			return f.SalePrice > 0, "a sale price must be recorded before leaving sales intake"
		}},
	},
	job.StageProduction: {
		{name: "linear_feet_printed", check: func(f Fields) (bool, string) {
			return f.LinearFeetPrinted > 0, "linear feet printed must be logged before leaving production"
		}},
	},
	job.StageInstall: {
		{name: "install_hours", check: func(f Fields) (bool, string) {
			return f.InstallHours > 0, "install hours must be logged before install sign-off"
		}},
		{name: "installer_signature", check: func(f Fields) (bool, string) {
			return present(f.InstallerSignature), "an installer signature is required before install sign-off"
		}},
	},
	job.StageProdReview: {
		{name: "qc_result", check: func(f Fields) (bool, string) {
			return present(f.QCResult), "a QC result must be selected before leaving QC review"
		}},
		{name: "reprint_cost", check: func(f Fields) (bool, string) {
			if !qcRequiresCost(f.QCResult) {
				return true, ""
			}
			return f.ReprintCost > 0, "a positive reprint cost must be entered for a reprint QC result"
		}},
	},
}

// Check evaluates the stage's predicates in order and stops at the first
// failure. Stages without declared predicates always pass.
func Check(stage job.Stage, fields Fields) Result {
	for _, p := range stageGates[stage] {
		ok, reason := p.check(fields)
		if !ok {
			return denied(p.name, reason)
		}
	}
	return allowed()
}

// CheckClose evaluates the single terminal-close predicate: the final sales
// approval flag must be set.
func CheckClose(fields Fields) Result {
	if !fields.FinalApproved {
		return denied("final_approval", "final sales approval is required to close the job")
	}
	return allowed()
}
