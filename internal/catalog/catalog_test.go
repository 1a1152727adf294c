package catalog_test

import (
	"testing"

	"wraptrack/internal/catalog"
	"wraptrack/internal/job"
)

func TestCatalogShape(t *testing.T) {
	counts := map[catalog.Department]int{}
	for _, cp := range catalog.Checkpoints() {
		counts[cp.Department]++
	}
	want := map[catalog.Department]int{
		catalog.DeptSales:      4,
		catalog.DeptContract:   2,
		catalog.DeptDesign:     4,
		catalog.DeptProduction: 4,
		catalog.DeptInstall:    5,
		catalog.DeptClose:      3,
	}
	for dept, n := range want {
		if counts[dept] != n {
			t.Errorf("department %s has %d checkpoints, want %d", dept, counts[dept], n)
		}
	}
	if catalog.Count() != 22 {
		t.Errorf("Count() = %d, want 22", catalog.Count())
	}
}

func TestLookup(t *testing.T) {
	cp, ok := catalog.Lookup("contract_signed")
	if !ok {
		t.Fatal("contract_signed not found")
	}
	if !cp.HardStop || cp.Department != catalog.DeptContract {
		t.Fatalf("unexpected checkpoint: %#v", cp)
	}
	if _, ok := catalog.Lookup("nope"); ok {
		t.Fatal("Lookup should fail for unknown ids")
	}
}

func TestWaterfallSetsGrowMonotonically(t *testing.T) {
	stages := append(job.TransitionalStages(), job.StageDone)
	prev := map[string]struct{}{}
	for _, stage := range stages {
		set := catalog.WaterfallSet(stage)
		if len(set) < len(prev) {
			t.Fatalf("waterfall set shrank at stage %s: %d -> %d", stage, len(prev), len(set))
		}
		for id := range prev {
			if _, ok := set[id]; !ok {
				t.Fatalf("stage %s dropped %s from the waterfall set", stage, id)
			}
		}
		prev = set
	}
	if len(prev) != catalog.Count() {
		t.Fatalf("terminal waterfall set has %d ids, want the full catalog (%d)", len(prev), catalog.Count())
	}
}

func TestWaterfallContains(t *testing.T) {
	if !catalog.WaterfallContains(job.StageProduction, "contract_signed") {
		t.Fatal("contract_signed should be auto-done once production is reached")
	}
	if catalog.WaterfallContains(job.StageSalesIn, "contract_signed") {
		t.Fatal("contract_signed should not be auto-done at sales intake")
	}
	if catalog.WaterfallContains(job.StageDone, "unknown") {
		t.Fatal("unknown ids are never in a waterfall set")
	}
}

func TestHardStopDependency(t *testing.T) {
	id, ok := catalog.HardStopDependency(catalog.DeptInstall)
	if !ok || id != "contract_signed" {
		t.Fatalf("install dependency = %q, %v; want contract_signed", id, ok)
	}
	if _, ok := catalog.HardStopDependency(catalog.DeptSales); ok {
		t.Fatal("sales should have no hard-stop dependency")
	}
}
