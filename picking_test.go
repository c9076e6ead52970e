package phenomap

import "testing"

func TestPickColorRoundTrip(t *testing.T) {
	for _, id := range []NodeID{0, 1, 255, 256, 65535, 65536, 1 << 23} {
		c := pickColor(id)
		// Quantize the way the render target does.
		px := [4]byte{
			byte(c.R*255 + 0.5),
			byte(c.G*255 + 0.5),
			byte(c.B*255 + 0.5),
			byte(c.A*255 + 0.5),
		}
		if got := decodePickPixel(px); got != id {
			t.Errorf("round trip %d -> %d", id, got)
		}
	}
}

func TestDecodePickPixelEmpty(t *testing.T) {
	// Zero alpha means no coverage regardless of the color channels.
	if got := decodePickPixel([4]byte{42, 7, 1, 0}); got != NoNode {
		t.Errorf("uncovered pixel = %d, want NoNode", got)
	}
	if got := decodePickPixel([4]byte{0, 0, 0, 255}); got != 0 {
		t.Errorf("covered black pixel = %d, want node 0", got)
	}
}

func TestPickColorChannels(t *testing.T) {
	c := pickColor(0x030201)
	if c.R != 1.0/255 || c.G != 2.0/255 || c.B != 3.0/255 {
		t.Errorf("little-endian channel split wrong: %v", c)
	}
	if c.A != 1 {
		t.Errorf("alpha = %v, want full coverage", c.A)
	}
}

func TestPickWindow(t *testing.T) {
	w := pickWindow(Vec2{X: 123, Y: 456})
	if w.X != 123 || w.Y != 456 || w.Width != 1 || w.Height != 1 {
		t.Errorf("window = %+v", w)
	}
}

func TestPickProjectionCoversPointer(t *testing.T) {
	cam := testCamera()
	cam.SetPosition(20, -10)
	cam.SetZoom(1.5)

	// Place a node at the world point under the pointer.
	pointer := Vec2{X: 300, Y: 250}
	wx, wy := cam.ScreenToWorld(pointer.X, pointer.Y)
	pos := NewTexelBuffer(2)
	pos.SetTexel(0, float32(wx), float32(wy), 0, 8)
	pos.SetTexel(1, 5000, 5000, 0, 8) // far away

	cam.SetWindow(pickWindow(pointer))
	defer cam.ClearWindow()
	verts, _ := BuildPointVertices(nil, nil, pos, 2, cam.ViewMatrix(), nil, true)

	// Under the windowed transform the node's quad must straddle the target's
	// single pixel at the window origin.
	q := verts[0:4]
	if !(q[0].DstX <= 0 && q[2].DstX >= 0 && q[0].DstY <= 0 && q[2].DstY >= 0) {
		t.Errorf("quad misses the pick pixel: (%v,%v)-(%v,%v)",
			q[0].DstX, q[0].DstY, q[2].DstX, q[2].DstY)
	}

	// The far node must not cover the pick pixel.
	f := verts[4:8]
	if f[0].DstX <= 0 && f[2].DstX >= 0 && f[0].DstY <= 0 && f[2].DstY >= 0 {
		t.Error("distant node should not cover the pick pixel")
	}
}
