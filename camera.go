package phenomap

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// zoomCurveBase shapes the exponential decay curve mapping wheel/pinch delta
// magnitude to a multiplicative zoom factor: 0.95 ^ (speed · |delta| · 0.01).
const zoomCurveBase = 0.95

// DefaultZoomBounds are deliberately asymmetric: zooming out past 0.2× turns
// the layout into noise long before zooming in past 8× loses context.
var DefaultZoomBounds = Range{Min: 0.2, Max: 8}

// scrollAnim holds active retarget tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is the orthographic view into the simulation plane: a world-space
// position, a clamped zoom scale, and a cached inverse(projection × view)
// transform used for pan deltas, zoom-to-point, and picking.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	zoom       float64
	zoomBounds Range

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	// Transient picking window; nil means the normal full viewport.
	window *Rect

	// Pan gesture snapshot: camera position and inverse transform captured
	// at gesture start so accumulated deltas never drift from per-frame
	// inverse recomputation.
	panning   bool
	panOrigin Vec2
	panInv    [6]float64

	scrollTween *scrollAnim
}

// NewCamera creates a camera centered on the origin with zoom 1 and the
// default zoom bounds.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		Viewport:   viewport,
		zoom:       1,
		zoomBounds: DefaultZoomBounds,
		dirty:      true,
	}
}

// Zoom returns the current zoom scale.
func (c *Camera) Zoom() float64 {
	return c.zoom
}

// SetZoom sets the zoom scale, clamped to the bounds.
func (c *Camera) SetZoom(z float64) {
	c.zoom = c.zoomBounds.Clamp(z)
	c.dirty = true
}

// ZoomBounds returns the current [min, max] zoom range.
func (c *Camera) ZoomBounds() Range {
	return c.zoomBounds
}

// SetZoomBounds replaces the zoom range and re-clamps the current zoom.
func (c *Camera) SetZoomBounds(r Range) {
	c.zoomBounds = r
	c.SetZoom(c.zoom)
}

// SetViewport resizes the camera's screen rectangle (canvas resize).
func (c *Camera) SetViewport(viewport Rect) {
	c.Viewport = viewport
	c.dirty = true
}

// SetPosition moves the camera center.
func (c *Camera) SetPosition(x, y float64) {
	c.X = x
	c.Y = y
	c.dirty = true
}

// --- Pan ---

// BeginPan snapshots the camera position and the inverse transform. All
// subsequent PanBy deltas are applied relative to this snapshot.
func (c *Camera) BeginPan() {
	c.computeViewMatrix()
	c.panning = true
	c.panOrigin = Vec2{X: c.X, Y: c.Y}
	c.panInv = c.invViewMatrix
}

// PanBy applies the gesture's accumulated screen-space delta since BeginPan.
// The delta converts through the snapshotted inverse transform to world
// space, so repeated small deltas accumulate without drift.
func (c *Camera) PanBy(screenDX, screenDY float64) {
	if !c.panning {
		c.BeginPan()
	}
	wx, wy := transformVector(c.panInv, screenDX, screenDY)
	c.X = c.panOrigin.X - wx
	c.Y = c.panOrigin.Y - wy
	c.dirty = true
}

// EndPan releases the gesture snapshot.
func (c *Camera) EndPan() {
	c.panning = false
}

// --- Zoom ---

// ZoomBy maps delta through the exponential decay curve and applies the
// resulting factor multiplicatively (delta > 0, zoom out) or divisively
// (delta < 0, zoom in), clamped to the bounds. The world point under the
// screen-space target stays visually stationary: its world position is
// sampled in the old projection before the zoom and again in the new one
// afterwards, and the camera translates by the difference.
func (c *Camera) ZoomBy(delta, speed float64, targetX, targetY float64) {
	if delta == 0 {
		return
	}
	factor := math.Pow(zoomCurveBase, speed*math.Abs(delta)*0.01)

	beforeX, beforeY := c.ScreenToWorld(targetX, targetY)

	if delta < 0 {
		c.SetZoom(c.zoom / factor)
	} else {
		c.SetZoom(c.zoom * factor)
	}

	afterX, afterY := c.ScreenToWorld(targetX, targetY)
	c.X += beforeX - afterX
	c.Y += beforeY - afterY
	c.dirty = true
}

// --- Retarget ---

// ScrollTo animates the camera to the given world position over duration
// seconds. Used by the Retarget action to recenter on a node.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// Update advances the retarget tween. Returns true if the camera moved.
func (c *Camera) Update(dt float32) bool {
	if c.scrollTween == nil {
		return false
	}
	moved := false
	if !c.scrollTween.doneX {
		val, done := c.scrollTween.tweenX.Update(dt)
		c.X = float64(val)
		c.scrollTween.doneX = done
		moved = true
	}
	if !c.scrollTween.doneY {
		val, done := c.scrollTween.tweenY.Update(dt)
		c.Y = float64(val)
		c.scrollTween.doneY = done
		moved = true
	}
	if c.scrollTween.doneX && c.scrollTween.doneY {
		c.scrollTween = nil
	}
	if moved {
		c.dirty = true
	}
	return moved
}

// --- Picking window ---

// SetWindow narrows the camera's visible window to the given screen-space
// rectangle. While set, the view matrix maps world space into window-local
// coordinates: a 1×1 window centered on the pointer renders the pointer's
// pixel at (0, 0) of a 1×1 target.
func (c *Camera) SetWindow(w Rect) {
	r := w
	c.window = &r
	c.dirty = true
}

// ClearWindow restores the camera's normal full-viewport window.
func (c *Camera) ClearWindow() {
	c.window = nil
	c.dirty = true
}

// --- Transforms ---

// computeViewMatrix recomputes the cached view matrix if dirty.
//
//	view = Translate(viewport center) * Scale(zoom) * Translate(-X, -Y)
//
// then shifted into window-local coordinates when a picking window is set.
func (c *Camera) computeViewMatrix() [6]float64 {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	z := c.zoom

	m := [6]float64{z, 0, 0, z, cx - z*c.X, cy - z*c.Y}
	if c.window != nil {
		m[4] -= c.window.X
		m[5] -= c.window.Y
	}
	c.viewMatrix = m
	c.invViewMatrix = invertAffine(m)
	return c.viewMatrix
}

// ViewMatrix returns the current projection × view transform.
func (c *Camera) ViewMatrix() [6]float64 {
	return c.computeViewMatrix()
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	c.computeViewMatrix()
	return transformPoint(c.viewMatrix, wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates via the
// cached inverse transform.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.computeViewMatrix()
	return transformPoint(c.invViewMatrix, sx, sy)
}

// MarkDirty forces a recomputation of the view matrix.
func (c *Camera) MarkDirty() {
	c.dirty = true
}
