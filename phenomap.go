package phenomap

// Vec2 is a 2D vector used for positions, deltas, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Range is a general-purpose min/max range.
type Range struct {
	Min, Max float64
}

// Clamp returns v limited to the range.
func (rg Range) Clamp(v float64) float64 {
	if v < rg.Min {
		return rg.Min
	}
	if v > rg.Max {
		return rg.Max
	}
	return v
}

// NodeID identifies a node within a GraphDataset. IDs are dense indices into
// the dataset's node slice and double as texel indices in the simulation
// buffers.
type NodeID int32

// NoNode is the explicit "nothing selected / nothing under the pointer" value.
const NoNode NodeID = -1

// GestureType identifies a kind of host input gesture.
type GestureType uint8

const (
	GestureDrag        GestureType = iota // one-finger / right-button drag (pan)
	GestureLeftDrag                       // left-button drag
	GesturePinch                          // two-finger pinch (zoom)
	GestureScrollwheel                    // mouse wheel (zoom)
	GestureTap                            // quick touch tap (select)
	GesturePress                          // long press (tooltip)
	GestureLeftClick                      // left mouse click (select)
	GestureKeyPress                       // keyboard key
)

// GestureState is the phase flag carried by every gesture event.
type GestureState uint8

const (
	GestureBegan GestureState = iota
	GestureMoved
	GestureEnded
)

// PointerDevice identifies the device a gesture originated from.
type PointerDevice uint8

const (
	DeviceMouse PointerDevice = iota
	DeviceTouch
	DeviceKeyboard
	DeviceSynthetic // injected events (tests, scripted demos)
)

// ActionMask is the pending-action bitmask drained by the Stage once per
// frame. Handlers set bits; the Stage clears them after acting.
type ActionMask uint8

const (
	ActionBuild    ActionMask = 1 << iota // snapshot all node positions
	ActionSelect                          // run a pick pass, update selection
	ActionTooltip                         // run a pick pass, update hover
	ActionRetarget                        // recenter camera on a node
)

// Has reports whether all bits in flag are set.
func (m ActionMask) Has(flag ActionMask) bool {
	return m&flag == flag
}
