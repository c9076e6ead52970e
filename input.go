package phenomap

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// --- Gesture events ---

// GestureEvent is one discrete host input event. Drag deltas are cumulative
// since the gesture Began, matching the camera's pan-snapshot contract.
type GestureEvent struct {
	Type   GestureType
	State  GestureState
	Device PointerDevice

	// Pointer position in screen space.
	X, Y float64
	// Cumulative drag delta (Drag/LeftDrag) or wheel delta (Scrollwheel).
	DeltaX, DeltaY float64
	// Per-frame pinch scale: the ratio of the current finger spread to the
	// spread at the previous pinch event (1 = unchanged).
	Scale float64
	// Key name for KeyPress events.
	Key ebiten.Key
}

// ResizeEvent carries new canvas pixel dimensions.
type ResizeEvent struct {
	Width, Height int
}

// --- InputTarget ---

// InputTarget is the pending-action mailbox between input handlers and the
// Stage. Handlers set bits and payload; the Stage drains it once per frame.
type InputTarget struct {
	Actions ActionMask
	Device  PointerDevice
	Pointer Vec2
	Node    NodeID // retarget payload
}

// Request sets action bits with the originating device and pointer position.
func (t *InputTarget) Request(a ActionMask, device PointerDevice, pointer Vec2) {
	t.Actions |= a
	t.Device = device
	t.Pointer = pointer
}

// RequestRetarget asks the Stage to recenter the camera on a node.
func (t *InputTarget) RequestRetarget(id NodeID) {
	t.Actions |= ActionRetarget
	t.Node = id
}

// Drain returns the pending state and clears the bitmask. Pointer and node
// payloads survive until overwritten so the Stage can act on them.
func (t *InputTarget) Drain() InputTarget {
	pending := *t
	t.Actions = 0
	return pending
}

// --- Gesture reducer ---

const (
	defaultZoomSpeed = 5.0
	// pinchZoomScale converts a pinch scale offset into the wheel-delta
	// domain the zoom curve expects.
	pinchZoomScale = 100.0
)

// InputController reduces gesture events into camera pan/zoom operations and
// InputTarget action bits. It subscribes to a gesture Signal and never calls
// the Stage directly.
type InputController struct {
	cam    *Camera
	target *InputTarget

	// ZoomSpeed scales wheel/pinch delta magnitude in the zoom curve.
	ZoomSpeed float64

	// BuildKey triggers a layout snapshot (ActionBuild).
	BuildKey ebiten.Key

	bag DisposalBag
}

// NewInputController wires a controller to the given gesture signal.
func NewInputController(cam *Camera, target *InputTarget, gestures *Signal) *InputController {
	ic := &InputController{
		cam:       cam,
		target:    target,
		ZoomSpeed: defaultZoomSpeed,
		BuildKey:  ebiten.KeyB,
	}
	b := gestures.Connect(func(args ...any) Propagation {
		if ev, ok := args[0].(GestureEvent); ok {
			ic.Handle(ev)
		}
		return Pass
	}, ConnectOptions{Context: ic})
	ic.bag.Add(b)
	return ic
}

// Handle reduces one gesture event.
func (ic *InputController) Handle(ev GestureEvent) {
	switch ev.Type {
	case GestureDrag, GestureLeftDrag:
		switch ev.State {
		case GestureBegan:
			ic.cam.BeginPan()
		case GestureMoved:
			ic.cam.PanBy(ev.DeltaX, ev.DeltaY)
		case GestureEnded:
			ic.cam.EndPan()
		}

	case GestureScrollwheel:
		ic.cam.ZoomBy(ev.DeltaY, ic.ZoomSpeed, ev.X, ev.Y)

	case GesturePinch:
		if ev.State == GestureMoved && ev.Scale > 0 {
			// Spread (scale > 1) zooms in; negative delta in the wheel
			// domain means "in".
			delta := (1 - ev.Scale) * pinchZoomScale
			ic.cam.ZoomBy(delta, ic.ZoomSpeed, ev.X, ev.Y)
		}

	case GestureTap, GestureLeftClick:
		if ev.State == GestureEnded {
			ic.target.Request(ActionSelect, ev.Device, Vec2{X: ev.X, Y: ev.Y})
		}

	case GesturePress:
		if ev.State == GestureBegan {
			ic.target.Request(ActionTooltip, ev.Device, Vec2{X: ev.X, Y: ev.Y})
		}

	case GestureKeyPress:
		if ev.Key == ic.BuildKey {
			ic.target.Request(ActionBuild, DeviceKeyboard, ic.target.Pointer)
		}
	}
}

// Dispose disconnects the controller from its gesture signal. Idempotent.
func (ic *InputController) Dispose() {
	ic.bag.Dispose()
}

// --- Device polling ---

const (
	dragDeadZone    = 4.0 // pixels before a press becomes a drag
	pressFrames     = 30  // held frames before a press becomes a long press
	maxTouchTracked = 2
)

// DevicePoller reads ebiten mouse/wheel/touch state once per frame and
// publishes gesture events on a Signal. Synthetic events injected for tests
// and scripted demos are drained first; a frame consuming a synthetic event
// skips real device input to keep ordering deterministic.
type DevicePoller struct {
	gestures *Signal

	// Mouse state machine.
	mouseDown  bool
	dragActive bool
	startX     float64
	startY     float64
	heldFrames int
	pressFired bool

	// Pinch state.
	pinchActive bool
	pinchStart  float64

	touchIDs []ebiten.TouchID
	keys     []ebiten.Key

	inject []GestureEvent
}

// NewDevicePoller creates a poller that fires on the given signal.
func NewDevicePoller(gestures *Signal) *DevicePoller {
	return &DevicePoller{gestures: gestures}
}

// Inject queues a synthetic gesture event, consumed before real input on the
// next Poll.
func (p *DevicePoller) Inject(ev GestureEvent) {
	ev.Device = DeviceSynthetic
	p.inject = append(p.inject, ev)
}

// InjectTap queues a full synthetic tap at screen coordinates.
func (p *DevicePoller) InjectTap(x, y float64) {
	p.Inject(GestureEvent{Type: GestureTap, State: GestureBegan, X: x, Y: y})
	p.Inject(GestureEvent{Type: GestureTap, State: GestureEnded, X: x, Y: y})
}

// InjectDrag queues a synthetic drag from (fromX, fromY) by (dx, dy).
func (p *DevicePoller) InjectDrag(fromX, fromY, dx, dy float64) {
	p.Inject(GestureEvent{Type: GestureDrag, State: GestureBegan, X: fromX, Y: fromY})
	p.Inject(GestureEvent{Type: GestureDrag, State: GestureMoved,
		X: fromX + dx, Y: fromY + dy, DeltaX: dx, DeltaY: dy})
	p.Inject(GestureEvent{Type: GestureDrag, State: GestureEnded, X: fromX + dx, Y: fromY + dy})
}

// Poll reads device state for this frame and fires gesture events.
func (p *DevicePoller) Poll() {
	if len(p.inject) > 0 {
		ev := p.inject[0]
		copy(p.inject, p.inject[1:])
		p.inject = p.inject[:len(p.inject)-1]
		p.gestures.Fire(ev)
		return
	}
	p.pollWheel()
	p.pollMouse()
	p.pollTouch()
	p.pollKeys()
}

func (p *DevicePoller) pollWheel() {
	wx, wy := ebiten.Wheel()
	if wx == 0 && wy == 0 {
		return
	}
	mx, my := ebiten.CursorPosition()
	p.gestures.Fire(GestureEvent{
		Type: GestureScrollwheel, State: GestureMoved, Device: DeviceMouse,
		X: float64(mx), Y: float64(my), DeltaX: wx, DeltaY: -wy,
	})
}

func (p *DevicePoller) pollMouse() {
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	switch {
	case pressed && !p.mouseDown:
		p.mouseDown = true
		p.dragActive = false
		p.pressFired = false
		p.heldFrames = 0
		p.startX, p.startY = x, y

	case pressed && p.mouseDown:
		dx, dy := x-p.startX, y-p.startY
		if !p.dragActive && math.Hypot(dx, dy) > dragDeadZone {
			p.dragActive = true
			p.gestures.Fire(GestureEvent{
				Type: GestureLeftDrag, State: GestureBegan, Device: DeviceMouse,
				X: p.startX, Y: p.startY,
			})
		}
		if p.dragActive {
			p.gestures.Fire(GestureEvent{
				Type: GestureLeftDrag, State: GestureMoved, Device: DeviceMouse,
				X: x, Y: y, DeltaX: dx, DeltaY: dy,
			})
		} else {
			p.heldFrames++
			if p.heldFrames == pressFrames && !p.pressFired {
				p.pressFired = true
				p.gestures.Fire(GestureEvent{
					Type: GesturePress, State: GestureBegan, Device: DeviceMouse,
					X: x, Y: y,
				})
			}
		}

	case !pressed && p.mouseDown:
		p.mouseDown = false
		if p.dragActive {
			p.dragActive = false
			p.gestures.Fire(GestureEvent{
				Type: GestureLeftDrag, State: GestureEnded, Device: DeviceMouse,
				X: x, Y: y, DeltaX: x - p.startX, DeltaY: y - p.startY,
			})
		} else if !p.pressFired {
			p.gestures.Fire(GestureEvent{
				Type: GestureLeftClick, State: GestureEnded, Device: DeviceMouse,
				X: x, Y: y,
			})
		}
	}
}

func (p *DevicePoller) pollTouch() {
	p.touchIDs = ebiten.AppendTouchIDs(p.touchIDs[:0])
	if len(p.touchIDs) == 2 {
		x0, y0 := ebiten.TouchPosition(p.touchIDs[0])
		x1, y1 := ebiten.TouchPosition(p.touchIDs[1])
		dist := math.Hypot(float64(x1-x0), float64(y1-y0))
		cx := float64(x0+x1) / 2
		cy := float64(y0+y1) / 2
		if !p.pinchActive {
			p.pinchActive = true
			p.pinchStart = dist
			p.gestures.Fire(GestureEvent{
				Type: GesturePinch, State: GestureBegan, Device: DeviceTouch,
				X: cx, Y: cy, Scale: 1,
			})
		} else if p.pinchStart > 0 {
			p.gestures.Fire(GestureEvent{
				Type: GesturePinch, State: GestureMoved, Device: DeviceTouch,
				X: cx, Y: cy, Scale: dist / p.pinchStart,
			})
			p.pinchStart = dist
		}
		return
	}
	if p.pinchActive {
		p.pinchActive = false
		p.gestures.Fire(GestureEvent{
			Type: GesturePinch, State: GestureEnded, Device: DeviceTouch, Scale: 1,
		})
	}
	// Single-touch taps.
	for _, id := range inpututil.AppendJustReleasedTouchIDs(nil) {
		x, y := inpututil.TouchPositionInPreviousTick(id)
		if inpututil.TouchPressDuration(id) < 15 {
			p.gestures.Fire(GestureEvent{
				Type: GestureTap, State: GestureEnded, Device: DeviceTouch,
				X: float64(x), Y: float64(y),
			})
		}
	}
}

func (p *DevicePoller) pollKeys() {
	p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
	for _, k := range p.keys {
		p.gestures.Fire(GestureEvent{
			Type: GestureKeyPress, State: GestureBegan, Device: DeviceKeyboard, Key: k,
		})
	}
}
