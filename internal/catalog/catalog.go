package catalog

// Department is a fixed, ordered grouping of checkpoints representing one
// functional phase of a job's life.
type Department string

const (
	DeptSales      Department = "sales"
	DeptContract   Department = "contract"
	DeptDesign     Department = "design"
	DeptProduction Department = "production"
	DeptInstall    Department = "install"
	DeptClose      Department = "close"
)

var departmentOrder = []Department{
	DeptSales,
	DeptContract,
	DeptDesign,
	DeptProduction,
	DeptInstall,
	DeptClose,
}

var departmentLabels = map[Department]string{
	DeptSales:      "Sales",
	DeptContract:   "Contract",
	DeptDesign:     "Design",
	DeptProduction: "Production",
	DeptInstall:    "Install",
	DeptClose:      "Close",
}

// Checkpoint is a single named unit of completable work belonging to exactly
// one department. HardStop checkpoints block downstream readiness until done.
type Checkpoint struct {
	ID         string
	Label      string
	Department Department
	HardStop   bool
}

// checkpoints is the master list. Order matters twice over: it is the
// iteration order for the active-checkpoint cursor, and each stage's
// waterfall set is a prefix of it (see waterfall.go).
var checkpoints = []Checkpoint{
	{ID: "lead_created", Label: "Lead Created", Department: DeptSales},
	{ID: "estimate_sent", Label: "Estimate Sent", Department: DeptSales},
	{ID: "proposal_accepted", Label: "Proposal Accepted", Department: DeptSales},
	{ID: "deposit_paid", Label: "Deposit Paid", Department: DeptSales},

	{ID: "contract_sent", Label: "Contract Sent", Department: DeptContract},
	{ID: "contract_signed", Label: "Contract Signed", Department: DeptContract, HardStop: true},

	{ID: "brief_received", Label: "Brief Received", Department: DeptDesign},
	{ID: "design_in_progress", Label: "In Progress", Department: DeptDesign},
	{ID: "proof_sent", Label: "Proof Sent", Department: DeptDesign},
	{ID: "design_approved", Label: "Approved", Department: DeptDesign},

	{ID: "print_queued", Label: "Print Queued", Department: DeptProduction},
	{ID: "printing", Label: "Printing", Department: DeptProduction},
	{ID: "print_complete", Label: "Print Complete", Department: DeptProduction},
	{ID: "laminated_ready", Label: "Lam & Ready", Department: DeptProduction},

	{ID: "install_scheduled", Label: "Scheduled", Department: DeptInstall},
	{ID: "contract_verified", Label: "Contract OK", Department: DeptInstall},
	{ID: "install_started", Label: "Started", Department: DeptInstall},
	{ID: "install_complete", Label: "Complete", Department: DeptInstall},
	{ID: "qc_passed", Label: "QC Passed", Department: DeptInstall},

	{ID: "invoice_sent", Label: "Invoice Sent", Department: DeptClose},
	{ID: "payment_received", Label: "Payment Rcvd", Department: DeptClose},
	{ID: "job_complete", Label: "Job Complete", Department: DeptClose},
}

var checkpointIndex = func() map[string]int {
	idx := make(map[string]int, len(checkpoints))
	for i, cp := range checkpoints {
		idx[cp.ID] = i
	}
	return idx
}()

// hardStopDependencies marks departments whose work cannot begin until an
// earlier hard-stop checkpoint is satisfied. Installers do not touch a
// vehicle before the contract is signed.
var hardStopDependencies = map[Department]string{
	DeptInstall: "contract_signed",
}

// Departments returns the fixed department order.
func Departments() []Department {
	cp := make([]Department, len(departmentOrder))
	copy(cp, departmentOrder)
	return cp
}

// DepartmentLabel returns the display name for a department.
func DepartmentLabel(dept Department) string {
	if label, ok := departmentLabels[dept]; ok {
		return label
	}
	return string(dept)
}

// Checkpoints returns the master checkpoint list in catalog order.
func Checkpoints() []Checkpoint {
	cp := make([]Checkpoint, len(checkpoints))
	copy(cp, checkpoints)
	return cp
}

// Count returns the total number of checkpoints in the catalog.
func Count() int {
	return len(checkpoints)
}

// Lookup resolves a checkpoint by id.
func Lookup(id string) (Checkpoint, bool) {
	idx, ok := checkpointIndex[id]
	if !ok {
		return Checkpoint{}, false
	}
	return checkpoints[idx], true
}

// ByDepartment returns the checkpoints belonging to a department, in catalog
// order.
func ByDepartment(dept Department) []Checkpoint {
	var out []Checkpoint
	for _, cp := range checkpoints {
		if cp.Department == dept {
			out = append(out, cp)
		}
	}
	return out
}

// HardStopDependency returns the hard-stop checkpoint a department waits on,
// if it has one.
func HardStopDependency(dept Department) (string, bool) {
	id, ok := hardStopDependencies[dept]
	return id, ok
}
