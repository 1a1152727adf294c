// Package job defines the pipeline job model and the ordered stage enum.
//
// A job moves forward through the five transitional stages one position at a
// time and terminates at StageDone. The stage order declared here is the
// single source of truth consumed by state derivation, gate validation, and
// the transition engine; never duplicate it elsewhere.
package job
