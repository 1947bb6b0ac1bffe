package metrics

import "testing"

func TestReadMemory(t *testing.T) {
	t.Parallel()

	snap := ReadMemory()
	if snap.HeapAlloc == 0 || snap.HeapSys < snap.HeapAlloc {
		t.Errorf("implausible heap figures: %+v", snap)
	}
	if snap.Goroutines < 1 {
		t.Errorf("Goroutines = %d, want >= 1", snap.Goroutines)
	}
}
