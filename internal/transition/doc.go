// Package transition moves jobs between pipeline stages. Forward movement is
// gated by stage sign-off predicates and recorded as approval audit entries;
// backward movement requires a declared send-back reason and is recorded as a
// send-back audit entry. All persistence happens before the in-memory job is
// mutated.
package transition
