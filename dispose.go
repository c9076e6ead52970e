package phenomap

// Disposable is the single cleanup capability shared by everything that owns
// releasable state: signals, bindings, GPU buffers, and the Stage itself.
// Dispose must be idempotent.
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a bare cleanup closure to Disposable.
type DisposeFunc func()

// Dispose calls the wrapped closure. A nil DisposeFunc is a no-op.
func (f DisposeFunc) Dispose() {
	if f != nil {
		f()
	}
}

// DisposalBag collects Disposables and releases them in reverse registration
// order. Owners embed one and call Dispose exactly once from their own
// teardown; repeated calls are safe.
type DisposalBag struct {
	items    []Disposable
	disposed bool
}

// Add registers d for release. Nil values are ignored.
func (b *DisposalBag) Add(d Disposable) {
	if d == nil {
		return
	}
	b.items = append(b.items, d)
}

// AddFunc registers a bare closure for release.
func (b *DisposalBag) AddFunc(f func()) {
	if f != nil {
		b.items = append(b.items, DisposeFunc(f))
	}
}

// Dispose releases every registered item in reverse registration order.
// Safe to call on a partially built owner and idempotent.
func (b *DisposalBag) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	for i := len(b.items) - 1; i >= 0; i-- {
		b.items[i].Dispose()
	}
	b.items = nil
}

// IsDisposed reports whether Dispose has run.
func (b *DisposalBag) IsDisposed() bool {
	return b.disposed
}
