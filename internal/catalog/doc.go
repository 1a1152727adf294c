// Package catalog holds the static checkpoint reference data: the master
// checkpoint list, department grouping and order, hard-stop flags, and the
// per-stage waterfall sets that imply completion once a job has progressed
// far enough.
//
// Everything here is immutable at runtime. The master list is ordered so
// that each stage's waterfall set is a prefix of it; keep that property when
// adding checkpoints.
package catalog
