package gate

// QC result values recorded during the prod_review stage. The reprint
// results require a positive reprint cost before sign-off.
const (
	QCPassShip       = "Pass -- Ship"
	QCReprintFull    = "Reprint -- Full"
	QCReprintPartial = "Reprint -- Partial"
	QCFixTouchUp     = "Fix -- Touch Up"
)

// QCResults returns the closed set of QC result values.
func QCResults() []string {
	return []string{QCPassShip, QCReprintFull, QCReprintPartial, QCFixTouchUp}
}

// qcRequiresCost reports whether the QC result implies reprint spend that
// must be logged.
func qcRequiresCost(result string) bool {
	return result == QCReprintFull || result == QCReprintPartial
}

// Fields is the bag of supporting form values the gate predicates inspect.
// The values are owned by the host's forms; the gate only checks presence
// and positivity as declared per stage and is snapshotted onto the approval
// audit record on a successful transition.
type Fields struct {
	// Sales intake
	CustomerName string  `json:"customerName,omitempty"`
	SalePrice    float64 `json:"salePrice,omitempty"`

	// Production
	LinearFeetPrinted float64 `json:"linearFeetPrinted,omitempty"`
	MaterialWidthIn   float64 `json:"materialWidthIn,omitempty"`
	RollsUsed         float64 `json:"rollsUsed,omitempty"`
	MaterialType      string  `json:"materialType,omitempty"`

	// Install
	InstallHours       float64 `json:"installHours,omitempty"`
	InstallerSignature string  `json:"installerSignature,omitempty"`
	TimerSeconds       int64   `json:"timerSeconds,omitempty"`

	// QC review
	QCResult      string  `json:"qcResult,omitempty"`
	FinalLinearFt float64 `json:"finalLinearFt,omitempty"`
	ReprintCost   float64 `json:"reprintCost,omitempty"`

	// Sales close
	AdjProfit     float64 `json:"adjProfit,omitempty"`
	AdjGPM        float64 `json:"adjGpm,omitempty"`
	FinalApproved bool    `json:"finalApproved,omitempty"`
}
