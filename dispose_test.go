package phenomap

import "testing"

func TestDisposalBagReverseOrder(t *testing.T) {
	var bag DisposalBag
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		bag.AddFunc(func() { order = append(order, i) })
	}

	bag.Dispose()

	want := []int{3, 2, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDisposalBagIdempotent(t *testing.T) {
	var bag DisposalBag
	count := 0
	bag.AddFunc(func() { count++ })

	bag.Dispose()
	bag.Dispose()

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if !bag.IsDisposed() {
		t.Error("IsDisposed = false after Dispose")
	}
}

func TestDisposalBagMixedCapabilities(t *testing.T) {
	// Bags accept both bare closures and objects with a Dispose method.
	var bag DisposalBag
	s := NewSignal()
	bag.Add(s)
	closed := false
	bag.AddFunc(func() { closed = true })

	bag.Dispose()

	if s.Active() {
		t.Error("signal still active after bag dispose")
	}
	if !closed {
		t.Error("closure not released")
	}
}

func TestDisposalBagEmptyAndNil(t *testing.T) {
	var bag DisposalBag
	bag.Add(nil)
	bag.AddFunc(nil)
	bag.Dispose() // must not panic
}
