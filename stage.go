package phenomap

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
)

// StageState is the runtime lifecycle. Disposed is terminal.
type StageState uint8

const (
	StageUninitialized StageState = iota
	StageInitializing
	StageLoading
	StageRunning
	StageDisposed
)

// String returns the state name.
func (s StageState) String() string {
	switch s {
	case StageUninitialized:
		return "uninitialized"
	case StageInitializing:
		return "initializing"
	case StageLoading:
		return "loading"
	case StageRunning:
		return "running"
	case StageDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// forcedPaintFrames guarantees an initial paint: the first frames draw
// unconditionally before dirty tracking takes over.
const forcedPaintFrames = 3

// retargetDuration is the camera recenter animation length in seconds.
const retargetDuration float32 = 0.4

// StageConfig sizes the runtime.
type StageConfig struct {
	Width, Height int
	Simulation    SimulationConfig
}

// frameUniforms is the shared parameter bag consumed by the frame's draw
// calls. It has exactly one writer (Step, once per frame) and same-frame
// readers only, so no locking is needed.
type frameUniforms struct {
	view        [6]float64
	zoom        float64
	temperature float64
	selected    NodeID
	nodeCount   int
	edgeCount   int
}

// Stage is the per-frame orchestrator: it advances the simulation, applies
// accumulated camera input, drains pending input actions, resolves picking,
// and issues the scene draw when anything changed. It implements
// [ebiten.Game].
type Stage struct {
	state StageState
	cfg   StageConfig

	ds  *GraphDataset // non-owning
	sim *ForceSimulation
	cam *Camera

	renderer *Renderer
	picker   *Picker
	poller   *DevicePoller
	input    *InputController
	target   InputTarget

	// Host-facing signals.
	Gestures         *Signal
	Resized          *Signal
	LoadComplete     *Signal // buffered: late subscribers replay
	SelectionChanged *Signal
	HoverChanged     *Signal
	FilterChanged    *Signal
	SnapshotReady    *Signal

	filter   FilterVector
	selected NodeID
	hovered  NodeID

	uniforms frameUniforms

	dirty bool
	frame int

	bag DisposalBag
}

// NewStage creates an uninitialized stage. GPU resources are not touched
// until Init.
func NewStage(cfg StageConfig) *Stage {
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 800
	}
	s := &Stage{
		cfg:              cfg,
		state:            StageUninitialized,
		selected:         NoNode,
		hovered:          NoNode,
		Gestures:         NewSignal(),
		Resized:          NewSignal(),
		LoadComplete:     NewBufferedSignal(),
		SelectionChanged: NewSignal(),
		HoverChanged:     NewSignal(),
		FilterChanged:    NewSignal(),
		SnapshotReady:    NewSignal(),
	}
	s.bag.Add(s.Gestures)
	s.bag.Add(s.Resized)
	s.bag.Add(s.LoadComplete)
	s.bag.Add(s.SelectionChanged)
	s.bag.Add(s.HoverChanged)
	s.bag.Add(s.FilterChanged)
	s.bag.Add(s.SnapshotReady)
	return s
}

// State returns the current lifecycle state.
func (s *Stage) State() StageState {
	return s.state
}

// Camera returns the stage's camera.
func (s *Stage) Camera() *Camera {
	return s.cam
}

// Dataset returns the loaded dataset, or nil before Init.
func (s *Stage) Dataset() *GraphDataset {
	return s.ds
}

// Simulation returns the force simulation, or nil before Init.
func (s *Stage) Simulation() *ForceSimulation {
	return s.sim
}

// Poller returns the device poller for input injection.
func (s *Stage) Poller() *DevicePoller {
	return s.poller
}

// Init allocates GPU resources and loads the dataset. Allocation failures
// are fatal: initialization aborts and the error propagates to the host.
// Init can only be called once from Uninitialized.
func (s *Stage) Init(ds *GraphDataset) (err error) {
	if s.state != StageUninitialized {
		return fmt.Errorf("phenomap: Init from state %s", s.state)
	}
	s.state = StageInitializing

	defer func() {
		if r := recover(); r != nil {
			s.Dispose()
			err = fmt.Errorf("phenomap: GPU allocation failed: %v", r)
		}
	}()

	// Draw skips clean frames, so the previous frame must stay on screen.
	ebiten.SetScreenClearedEveryFrame(false)

	s.renderer = NewRenderer()
	s.bag.Add(s.renderer)
	s.picker = NewPicker()
	s.bag.Add(s.picker)

	s.cam = NewCamera(Rect{Width: float64(s.cfg.Width), Height: float64(s.cfg.Height)})
	s.poller = NewDevicePoller(s.Gestures)
	s.input = NewInputController(s.cam, &s.target, s.Gestures)
	s.bag.Add(s.input)

	s.state = StageLoading
	s.attach(ds)
	return nil
}

// attach installs a dataset, builds the simulation, and enters Running.
func (s *Stage) attach(ds *GraphDataset) {
	s.ds = ds
	s.sim = NewForceSimulation(ds, s.cfg.Simulation)
	s.filter = make(FilterVector, ds.Classes.Category.Len())
	s.frame = 0
	s.dirty = true
	s.state = StageRunning
	s.LoadComplete.Fire(ds)
}

// --- Per-frame step ---

// Step runs one frame of the Running loop: poll input, advance simulation,
// update camera, drain pending actions, refresh the uniform bag. dt is the
// frame duration in seconds. Per-frame operations are best-effort and never
// return an error; a failed pick is simply no selection.
func (s *Stage) Step(dt float64) {
	if s.state != StageRunning {
		return
	}

	camX, camY, camZoom := s.cam.X, s.cam.Y, s.cam.Zoom()

	// Input handlers mutate the camera and the InputTarget mailbox.
	s.poller.Poll()

	// Advance simulation while the layout is still annealing.
	if s.sim.Step() {
		s.dirty = true
	}

	// Retarget tween.
	if s.cam.Update(float32(dt)) {
		s.dirty = true
	}
	if s.cam.X != camX || s.cam.Y != camY || s.cam.Zoom() != camZoom {
		s.dirty = true
	}

	s.drainActions()

	// One writer, once per frame; draw calls read this bag.
	s.uniforms = frameUniforms{
		view:        s.cam.ViewMatrix(),
		zoom:        s.cam.Zoom(),
		temperature: s.sim.Temperature(),
		selected:    s.selected,
		nodeCount:   s.ds.NodeCount(),
		edgeCount:   s.ds.EdgeCount(),
	}

	if s.frame < forcedPaintFrames {
		s.dirty = true
	}
	s.frame++
}

// drainActions consumes the InputTarget bitmask accumulated since the last
// frame.
func (s *Stage) drainActions() {
	pending := s.target.Drain()
	if pending.Actions == 0 {
		return
	}

	if pending.Actions.Has(ActionBuild) {
		// Full position read-back: snapshot the live layout for
		// persistence.
		s.sim.SyncToDataset()
		s.SnapshotReady.Fire(EncodeDataset(s.ds))
	}

	if pending.Actions.Has(ActionRetarget) && pending.Node != NoNode {
		if s.ds.Positions.InBounds(int(pending.Node)) {
			x, y, _, _ := s.sim.Positions().Texel(int(pending.Node))
			s.cam.ScrollTo(float64(x), float64(y), retargetDuration, ease.OutQuad)
		}
	}

	if pending.Actions.Has(ActionSelect) {
		id := s.pick(pending.Pointer)
		if id != s.selected {
			s.selected = id
			s.SelectionChanged.Fire(id)
			s.dirty = true
		}
	}

	if pending.Actions.Has(ActionTooltip) {
		id := s.pick(pending.Pointer)
		if id != s.hovered {
			s.hovered = id
			s.HoverChanged.Fire(id)
		}
	}
}

// pick runs the index-encoded picking pass for the pointer position.
func (s *Stage) pick(pointer Vec2) NodeID {
	if s.picker == nil {
		return NoNode
	}
	return s.picker.Pick(s.cam, s.renderer, s.sim.Positions(),
		s.ds.NodeCount(), s.filter, pointer)
}

// --- Host-facing operations ---

// Selected returns the currently selected node, or NoNode.
func (s *Stage) Selected() NodeID {
	return s.selected
}

// Hovered returns the node under the tooltip, or NoNode.
func (s *Stage) Hovered() NodeID {
	return s.hovered
}

// FocusNode recenters the camera on a node at the next frame.
func (s *Stage) FocusNode(id NodeID) {
	s.target.RequestRetarget(id)
}

// RequestSnapshot asks for a full layout read-back at the next frame. The
// resulting SaveDocument arrives on SnapshotReady.
func (s *Stage) RequestSnapshot() {
	s.target.Request(ActionBuild, DeviceKeyboard, s.target.Pointer)
}

// SetCategoryHidden toggles a category in the filter visibility vector and
// notifies FilterChanged with the current vector.
func (s *Stage) SetCategoryHidden(category int, hidden bool) {
	if category < 0 {
		return
	}
	for len(s.filter) <= category {
		s.filter = append(s.filter, false)
	}
	if s.filter[category] == hidden {
		return
	}
	s.filter[category] = hidden
	s.dirty = true
	vec := make(FilterVector, len(s.filter))
	copy(vec, s.filter)
	s.FilterChanged.Fire(vec)
}

// Filter returns the live visibility vector. The returned slice MUST NOT be
// mutated; use SetCategoryHidden.
func (s *Stage) Filter() FilterVector {
	return s.filter
}

// Resize updates the camera viewport for new canvas pixel dimensions and
// notifies Resized.
func (s *Stage) Resize(width, height int) {
	if width == s.cfg.Width && height == s.cfg.Height {
		return
	}
	s.cfg.Width = width
	s.cfg.Height = height
	if s.cam != nil {
		s.cam.SetViewport(Rect{Width: float64(width), Height: float64(height)})
	}
	s.dirty = true
	s.Resized.Fire(ResizeEvent{Width: width, Height: height})
}

// Dispose tears the stage down: deactivates every owned signal, releases
// GPU buffers, and enters the terminal Disposed state. Idempotent and safe
// to call from a partially initialized stage.
func (s *Stage) Dispose() {
	if s.state == StageDisposed {
		return
	}
	s.state = StageDisposed
	s.bag.Dispose()
	s.sim = nil
	s.ds = nil
}

// --- ebiten.Game ---

// Update implements ebiten.Game.
func (s *Stage) Update() error {
	s.Step(1.0 / float64(ebiten.TPS()))
	return nil
}

// Draw implements ebiten.Game. The full scene draw is issued only when a
// dirty condition fired this frame (simulation advance, camera motion,
// selection change, resize) or during the forced initial paint frames.
func (s *Stage) Draw(screen *ebiten.Image) {
	if s.state != StageRunning || !s.dirty {
		return
	}
	s.dirty = false
	screen.Clear()
	s.renderer.Draw(screen, s.uniforms.view,
		s.sim.Positions(), s.ds.EdgeLines,
		s.uniforms.nodeCount, s.uniforms.edgeCount, s.filter)
}

// Layout implements ebiten.Game.
func (s *Stage) Layout(outsideWidth, outsideHeight int) (int, int) {
	s.Resize(outsideWidth, outsideHeight)
	return s.cfg.Width, s.cfg.Height
}
