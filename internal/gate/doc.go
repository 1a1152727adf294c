// Package gate decides whether a job may advance out of its current stage.
//
// Each transitional stage declares an ordered list of named predicates over
// the supporting form fields supplied by the host. Evaluation stops at the
// first failing predicate so every denial carries exactly one actionable
// reason. The package performs no mutation; denials are result values, not
// errors.
package gate
