// Package derive computes the effective checkpoint state for a job from two
// overlapping rule sources: explicit persisted overrides and the current
// stage's waterfall set.
//
// Derive is a pure function of (stage, overrides). It holds no cache and
// performs no I/O, so it can be unit-tested against arbitrary inputs and
// recomputed freely after every transition or manual edit.
package derive
