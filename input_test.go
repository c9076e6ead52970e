package phenomap

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestActionMask(t *testing.T) {
	m := ActionSelect | ActionTooltip
	if !m.Has(ActionSelect) || !m.Has(ActionTooltip) {
		t.Error("set bits not reported")
	}
	if m.Has(ActionBuild) || m.Has(ActionRetarget) {
		t.Error("unset bits reported")
	}
}

func TestInputTargetDrain(t *testing.T) {
	var target InputTarget
	target.Request(ActionSelect, DeviceMouse, Vec2{X: 10, Y: 20})
	target.Request(ActionTooltip, DeviceMouse, Vec2{X: 11, Y: 21})
	target.RequestRetarget(5)

	pending := target.Drain()
	if !pending.Actions.Has(ActionSelect) || !pending.Actions.Has(ActionTooltip) || !pending.Actions.Has(ActionRetarget) {
		t.Errorf("actions = %b", pending.Actions)
	}
	if pending.Pointer.X != 11 || pending.Pointer.Y != 21 {
		t.Errorf("pointer = %+v, want the latest request", pending.Pointer)
	}
	if pending.Node != 5 {
		t.Errorf("node = %d", pending.Node)
	}

	if target.Drain().Actions != 0 {
		t.Error("drain must clear the bitmask")
	}
	// Payloads survive the drain for follow-up requests.
	if target.Pointer.X != 11 {
		t.Error("pointer payload should survive the drain")
	}
}

func controllerFixture() (*InputController, *Camera, *InputTarget, *Signal) {
	cam := testCamera()
	target := &InputTarget{}
	gestures := NewSignal()
	ic := NewInputController(cam, target, gestures)
	return ic, cam, target, gestures
}

func TestControllerDragPansCamera(t *testing.T) {
	ic, cam, _, _ := controllerFixture()
	defer ic.Dispose()

	ic.Handle(GestureEvent{Type: GestureLeftDrag, State: GestureBegan, X: 100, Y: 100})
	ic.Handle(GestureEvent{Type: GestureLeftDrag, State: GestureMoved, DeltaX: 50, DeltaY: -30})
	ic.Handle(GestureEvent{Type: GestureLeftDrag, State: GestureEnded})

	if !approxEqual(cam.X, -50, 1e-9) || !approxEqual(cam.Y, 30, 1e-9) {
		t.Errorf("camera = (%v, %v), want (-50, 30)", cam.X, cam.Y)
	}
}

func TestControllerScrollwheelZooms(t *testing.T) {
	ic, cam, _, _ := controllerFixture()
	defer ic.Dispose()

	ic.Handle(GestureEvent{Type: GestureScrollwheel, State: GestureMoved, X: 400, Y: 300, DeltaY: -3})
	if cam.Zoom() <= 1 {
		t.Errorf("negative wheel delta should zoom in, got %v", cam.Zoom())
	}
}

func TestControllerPinchZooms(t *testing.T) {
	ic, cam, _, _ := controllerFixture()
	defer ic.Dispose()

	// Spread: scale > 1 maps to a negative wheel-domain delta, zooming in.
	ic.Handle(GestureEvent{Type: GesturePinch, State: GestureMoved, X: 400, Y: 300, Scale: 1.2})
	if cam.Zoom() <= 1 {
		t.Errorf("pinch spread should zoom in, got %v", cam.Zoom())
	}

	// Scale is a per-frame ratio, so repeating the same ratio compounds.
	z := cam.Zoom()
	ic.Handle(GestureEvent{Type: GesturePinch, State: GestureMoved, X: 400, Y: 300, Scale: 1.2})
	if cam.Zoom() <= z {
		t.Errorf("repeated spread should keep zooming in, got %v", cam.Zoom())
	}

	z = cam.Zoom()
	ic.Handle(GestureEvent{Type: GesturePinch, State: GestureMoved, X: 400, Y: 300, Scale: 0.8})
	if cam.Zoom() >= z {
		t.Errorf("pinch squeeze should zoom out, got %v", cam.Zoom())
	}

	// Began/Ended and degenerate scales never zoom.
	z = cam.Zoom()
	ic.Handle(GestureEvent{Type: GesturePinch, State: GestureBegan, Scale: 1})
	ic.Handle(GestureEvent{Type: GesturePinch, State: GestureMoved, Scale: 0})
	if cam.Zoom() != z {
		t.Errorf("zoom changed to %v", cam.Zoom())
	}
}

func TestControllerTapRequestsSelect(t *testing.T) {
	ic, _, target, _ := controllerFixture()
	defer ic.Dispose()

	ic.Handle(GestureEvent{Type: GestureTap, State: GestureBegan, X: 5, Y: 6})
	if target.Actions != 0 {
		t.Error("tap began must not request an action")
	}
	ic.Handle(GestureEvent{Type: GestureTap, State: GestureEnded, Device: DeviceTouch, X: 5, Y: 6})
	pending := target.Drain()
	if !pending.Actions.Has(ActionSelect) {
		t.Error("tap ended should request selection")
	}
	if pending.Pointer.X != 5 || pending.Pointer.Y != 6 || pending.Device != DeviceTouch {
		t.Errorf("pending = %+v", pending)
	}
}

func TestControllerPressRequestsTooltip(t *testing.T) {
	ic, _, target, _ := controllerFixture()
	defer ic.Dispose()

	ic.Handle(GestureEvent{Type: GesturePress, State: GestureBegan, Device: DeviceMouse, X: 8, Y: 9})
	if !target.Drain().Actions.Has(ActionTooltip) {
		t.Error("press began should request the tooltip")
	}
}

func TestControllerBuildKey(t *testing.T) {
	ic, _, target, _ := controllerFixture()
	defer ic.Dispose()

	ic.Handle(GestureEvent{Type: GestureKeyPress, State: GestureBegan, Key: ebiten.KeyA})
	if target.Drain().Actions != 0 {
		t.Error("unbound key must not trigger the build action")
	}
	ic.Handle(GestureEvent{Type: GestureKeyPress, State: GestureBegan, Key: ebiten.KeyB})
	if !target.Drain().Actions.Has(ActionBuild) {
		t.Error("build key should request a snapshot")
	}
}

func TestControllerSubscribesToSignal(t *testing.T) {
	ic, cam, _, gestures := controllerFixture()

	gestures.Fire(GestureEvent{Type: GestureLeftDrag, State: GestureBegan})
	gestures.Fire(GestureEvent{Type: GestureLeftDrag, State: GestureMoved, DeltaX: 10})
	if cam.X == 0 {
		t.Error("events on the signal should reach the controller")
	}

	x := cam.X
	ic.Dispose()
	gestures.Fire(GestureEvent{Type: GestureLeftDrag, State: GestureMoved, DeltaX: 50})
	if cam.X != x {
		t.Error("disposed controller must not receive events")
	}
}

func TestPollerInjectOrdering(t *testing.T) {
	gestures := NewSignal()
	var got []GestureEvent
	gestures.ConnectFunc(func(args ...any) {
		got = append(got, args[0].(GestureEvent))
	})

	p := NewDevicePoller(gestures)
	p.InjectTap(50, 60)

	// One synthetic event per poll, real input skipped on those frames.
	p.Poll()
	p.Poll()
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[0].State != GestureBegan || got[1].State != GestureEnded {
		t.Errorf("states = %v, %v", got[0].State, got[1].State)
	}
	for _, ev := range got {
		if ev.Device != DeviceSynthetic {
			t.Errorf("device = %v, want synthetic", ev.Device)
		}
		if ev.X != 50 || ev.Y != 60 {
			t.Errorf("position = (%v, %v)", ev.X, ev.Y)
		}
	}
}

func TestPollerInjectDrag(t *testing.T) {
	gestures := NewSignal()
	var got []GestureEvent
	gestures.ConnectFunc(func(args ...any) {
		got = append(got, args[0].(GestureEvent))
	})

	p := NewDevicePoller(gestures)
	p.InjectDrag(10, 10, 30, -20)
	for i := 0; i < 3; i++ {
		p.Poll()
	}
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	if got[1].DeltaX != 30 || got[1].DeltaY != -20 {
		t.Errorf("moved delta = (%v, %v)", got[1].DeltaX, got[1].DeltaY)
	}
	if got[2].State != GestureEnded || got[2].X != 40 {
		t.Errorf("end event = %+v", got[2])
	}
}
