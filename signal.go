package phenomap

// Propagation is a listener's verdict on whether the current dispatch should
// continue to the remaining bindings.
type Propagation uint8

const (
	// Pass lets the dispatch continue to the next binding (the default).
	Pass Propagation = iota
	// Sink stops the current dispatch; no further bindings run.
	Sink
)

// Listener is a Signal callback. It receives the binding's bound params
// (if any) followed by the Fire arguments, and returns Pass or Sink.
type Listener func(args ...any) Propagation

// ConnectOptions configures a Binding created by Signal.Connect.
type ConnectOptions struct {
	// Once disconnects the binding automatically after its first execution.
	Once bool
	// Priority orders bindings within the signal. Bindings with a higher
	// numeric priority value execute first; see Signal.Fire.
	Priority int
	// Context is an opaque owner tag, retrievable via Binding.Context.
	// Signals never interpret it.
	Context any
	// Params are prepended to the Fire arguments on every invocation.
	Params []any
	// Replay requests an immediate replay of the last buffered dispatch
	// when connecting to a buffered signal that has already fired.
	Replay bool
}

// Binding ties one listener to a Signal. It is returned by Connect as a
// disposable handle; disposing it disconnects the listener.
type Binding struct {
	signal   *Signal
	listener Listener
	priority int
	once     bool
	enabled  bool
	context  any
	params   []any
	id       uint64 // generational id owned by the signal
}

// Context returns the opaque owner tag supplied at Connect time.
func (b *Binding) Context() any {
	return b.context
}

// Priority returns the binding's priority value.
func (b *Binding) Priority() int {
	return b.priority
}

// Enabled reports whether Fire currently invokes this binding.
func (b *Binding) Enabled() bool {
	return b.enabled
}

// SetEnabled toggles whether Fire invokes this binding without removing it
// from the signal's ordered collection.
func (b *Binding) SetEnabled(enabled bool) {
	b.enabled = enabled
}

// IsConnected reports whether the binding is still attached to its signal.
func (b *Binding) IsConnected() bool {
	return b.signal != nil
}

// Dispose disconnects the binding from its signal. Idempotent.
func (b *Binding) Dispose() {
	if b.signal == nil {
		return
	}
	b.signal.disconnect(b)
}

// invoke calls the listener with params ++ args.
func (b *Binding) invoke(args []any) Propagation {
	if len(b.params) == 0 {
		return b.listener(args...)
	}
	merged := make([]any, 0, len(b.params)+len(args))
	merged = append(merged, b.params...)
	merged = append(merged, args...)
	return b.listener(merged...)
}

// Signal is an ordered publish/subscribe primitive. Every runtime component
// communicates through signals rather than direct references.
//
// Bindings are kept sorted by ascending priority value and Fire walks the
// list from the highest stored index down to 0, so the binding with the
// highest numeric priority value executes first. This order is part of the
// contract and is pinned by tests.
type Signal struct {
	bindings []*Binding
	active   bool
	disposed bool

	// Buffered-dispatch state (NewBufferedSignal).
	memorize bool
	buffered []any
	fired    bool

	nextID uint64 // per-signal binding id source; no global counters
}

// NewSignal creates an active, unbuffered signal.
func NewSignal() *Signal {
	return &Signal{active: true}
}

// NewBufferedSignal creates a signal that records the argument list of its
// most recent dispatch. A binding connected afterwards with Replay set
// immediately receives that argument list; nothing is replayed before the
// first dispatch.
func NewBufferedSignal() *Signal {
	return &Signal{active: true, memorize: true}
}

// Connect inserts a binding for listener using binary insertion keyed by
// ascending priority value and returns it as a disposable handle.
// Connecting to a disposed signal returns a binding that is already
// disconnected and will never fire.
func (s *Signal) Connect(listener Listener, opts ConnectOptions) *Binding {
	b := &Binding{
		listener: listener,
		priority: opts.Priority,
		once:     opts.Once,
		enabled:  true,
		context:  opts.Context,
		params:   opts.Params,
	}
	if s.disposed || listener == nil {
		return b
	}
	s.nextID++
	b.id = s.nextID
	b.signal = s

	// Binary search for the upper bound: first index whose priority exceeds
	// the new binding's. Equal priorities keep insertion order among
	// themselves (later connections land at higher indices).
	lo, hi := 0, len(s.bindings)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.bindings[mid].priority <= b.priority {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	s.bindings = append(s.bindings, nil)
	copy(s.bindings[lo+1:], s.bindings[lo:])
	s.bindings[lo] = b

	if s.memorize && s.fired && opts.Replay {
		res := b.invoke(s.buffered)
		if b.once {
			s.disconnect(b)
		}
		_ = res // replay is a private dispatch; Sink has nothing to stop
	}
	return b
}

// ConnectFunc connects a plain callback with default options. The callback's
// return is implicitly Pass.
func (s *Signal) ConnectFunc(fn func(args ...any)) *Binding {
	return s.Connect(func(args ...any) Propagation {
		fn(args...)
		return Pass
	}, ConnectOptions{})
}

// Fire dispatches args to every enabled binding. No-op while the signal is
// inactive. Bindings run from the highest stored index down to 0; a Sink
// return stops the remainder of this dispatch. Once bindings are
// disconnected after execution, before their return value is evaluated.
func (s *Signal) Fire(args ...any) {
	if !s.active {
		return
	}
	if s.memorize {
		s.buffered = append(s.buffered[:0], args...)
		s.fired = true
	}
	if len(s.bindings) == 0 {
		return
	}
	// Dispatch over a snapshot: listeners may connect or disconnect bindings
	// mid-dispatch (Once, or disposing a sibling) without perturbing this
	// walk. Bindings disconnected mid-dispatch are skipped; bindings added
	// mid-dispatch first run on the next Fire.
	snapshot := append([]*Binding(nil), s.bindings...)
	for i := len(snapshot) - 1; i >= 0; i-- {
		b := snapshot[i]
		if b.signal != s || !b.enabled {
			continue
		}
		res := b.invoke(args)
		if b.once {
			s.disconnect(b)
		}
		if res == Sink {
			return
		}
	}
}

// SetActive enables or disables dispatching. A disabled signal still accepts
// connections; Fire is simply a no-op.
func (s *Signal) SetActive(active bool) {
	if !s.disposed {
		s.active = active
	}
}

// Active reports whether Fire currently dispatches.
func (s *Signal) Active() bool {
	return s.active
}

// NumBindings returns the number of connected bindings.
func (s *Signal) NumBindings() int {
	return len(s.bindings)
}

// DisconnectAll removes every binding without deactivating the signal.
func (s *Signal) DisconnectAll() {
	for i := len(s.bindings) - 1; i >= 0; i-- {
		s.bindings[i].signal = nil
	}
	s.bindings = s.bindings[:0]
}

// Dispose deactivates the signal, releases any buffered arguments, and
// disconnects every binding exactly once. Idempotent.
func (s *Signal) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.active = false
	s.buffered = nil
	s.fired = false
	s.DisconnectAll()
	s.bindings = nil
}

// disconnect removes b from the ordered collection. Idempotent: a binding
// already removed is left untouched.
func (s *Signal) disconnect(b *Binding) {
	if b.signal != s {
		return
	}
	b.signal = nil
	for i, cur := range s.bindings {
		if cur == b {
			copy(s.bindings[i:], s.bindings[i+1:])
			s.bindings[len(s.bindings)-1] = nil
			s.bindings = s.bindings[:len(s.bindings)-1]
			return
		}
	}
}
