package phenomap

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestStageStateString(t *testing.T) {
	cases := map[StageState]string{
		StageUninitialized: "uninitialized",
		StageInitializing:  "initializing",
		StageLoading:       "loading",
		StageRunning:       "running",
		StageDisposed:      "disposed",
		StageState(99):     "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}

func TestNewStageDefaults(t *testing.T) {
	s := NewStage(StageConfig{})
	if s.State() != StageUninitialized {
		t.Errorf("state = %v", s.State())
	}
	if s.cfg.Width != 1280 || s.cfg.Height != 800 {
		t.Errorf("default size = %dx%d", s.cfg.Width, s.cfg.Height)
	}
	if s.Selected() != NoNode || s.Hovered() != NoNode {
		t.Error("nothing should be selected before loading")
	}
	for name, sig := range map[string]*Signal{
		"Gestures": s.Gestures, "Resized": s.Resized,
		"LoadComplete": s.LoadComplete, "SelectionChanged": s.SelectionChanged,
		"HoverChanged": s.HoverChanged, "FilterChanged": s.FilterChanged,
		"SnapshotReady": s.SnapshotReady,
	} {
		if sig == nil {
			t.Errorf("%s signal not created", name)
		}
	}
}

func TestStageStepBeforeRunning(t *testing.T) {
	s := NewStage(StageConfig{})
	// Must be a silent no-op, not a nil dereference.
	s.Step(1.0 / 60)
	if s.State() != StageUninitialized {
		t.Errorf("state = %v", s.State())
	}
}

func TestStageDisposeIdempotent(t *testing.T) {
	s := NewStage(StageConfig{})
	s.Dispose()
	if s.State() != StageDisposed {
		t.Errorf("state = %v", s.State())
	}
	s.Dispose()
	s.Step(1.0 / 60)
	if s.State() != StageDisposed {
		t.Error("disposed is terminal")
	}
}

func TestStageInitAfterDispose(t *testing.T) {
	s := NewStage(StageConfig{})
	s.Dispose()
	if err := s.Init(testGraph()); err == nil {
		t.Error("Init from a disposed stage must fail")
	}
}

func TestStageInitDisablesScreenClear(t *testing.T) {
	ebiten.SetScreenClearedEveryFrame(true)
	s := NewStage(StageConfig{})
	if err := s.Init(testGraph()); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer s.Dispose()

	// Draw skips clean frames, so the stage must own this setting rather
	// than rely on every host remembering it.
	if ebiten.IsScreenClearedEveryFrame() {
		t.Error("Init should disable the per-frame screen clear")
	}
	if s.State() != StageRunning {
		t.Errorf("state = %v, want running", s.State())
	}
}

func TestStageFilterToggle(t *testing.T) {
	s := NewStage(StageConfig{})
	var fired []FilterVector
	s.FilterChanged.ConnectFunc(func(args ...any) {
		fired = append(fired, args[0].(FilterVector))
	})

	s.SetCategoryHidden(2, true)
	if len(fired) != 1 {
		t.Fatalf("fired = %d", len(fired))
	}
	if !s.Filter()[2] {
		t.Error("category 2 should be hidden")
	}
	// Redundant toggles are silent.
	s.SetCategoryHidden(2, true)
	if len(fired) != 1 {
		t.Error("no-op toggle should not notify")
	}
	s.SetCategoryHidden(2, false)
	if len(fired) != 2 || fired[1][2] {
		t.Errorf("unhide not notified: %v", fired)
	}

	// The notified vector is a copy, not the live one.
	fired[0][2] = false
	s.SetCategoryHidden(0, true)
	if len(fired) != 3 {
		t.Error("mutating a notified vector must not affect stage state")
	}
	s.SetCategoryHidden(-1, true) // ignored
}

func TestStageResizeNotifies(t *testing.T) {
	s := NewStage(StageConfig{Width: 640, Height: 480})
	var got []ResizeEvent
	s.Resized.ConnectFunc(func(args ...any) {
		got = append(got, args[0].(ResizeEvent))
	})

	s.Resize(800, 600)
	if len(got) != 1 || got[0].Width != 800 || got[0].Height != 600 {
		t.Errorf("resize events = %+v", got)
	}
	// Same size again is a no-op.
	s.Resize(800, 600)
	if len(got) != 1 {
		t.Error("unchanged size should not notify")
	}
}

func TestStageFocusNodeQueuesRetarget(t *testing.T) {
	s := NewStage(StageConfig{})
	s.FocusNode(7)
	pending := s.target.Drain()
	if !pending.Actions.Has(ActionRetarget) || pending.Node != 7 {
		t.Errorf("pending = %+v", pending)
	}
}

func TestStageRequestSnapshotQueuesBuild(t *testing.T) {
	s := NewStage(StageConfig{})
	s.RequestSnapshot()
	if !s.target.Drain().Actions.Has(ActionBuild) {
		t.Error("snapshot request should queue the build action")
	}
}
