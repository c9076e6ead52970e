package phenomap

import "github.com/hajimehoshi/ebiten/v2"

// Picking renders node geometry in an index-encode mode: the fragment color
// carries the node's index instead of its palette color, and reading back a
// single pixel under the pointer resolves it to a node id. Alpha 0 means no
// coverage: NoNode.

// pickColor encodes a node id into fragment color channels, 8 bits each in
// R, G, B (little-endian), with full alpha marking coverage.
func pickColor(id NodeID) Color {
	return Color{
		R: float32(id&0xff) / 255,
		G: float32((id>>8)&0xff) / 255,
		B: float32((id>>16)&0xff) / 255,
		A: 1,
	}
}

// decodePickPixel resolves a read-back RGBA pixel to a node id. The alpha
// channel indicates coverage; zero alpha is empty space.
func decodePickPixel(px [4]byte) NodeID {
	if px[3] == 0 {
		return NoNode
	}
	return NodeID(px[0]) | NodeID(px[1])<<8 | NodeID(px[2])<<16
}

// pickWindow is the 1-pixel visible window centered on the pointer.
func pickWindow(pointer Vec2) Rect {
	return Rect{X: pointer.X, Y: pointer.Y, Width: 1, Height: 1}
}

// Picker owns the 1×1 off-screen pick target.
type Picker struct {
	target *ebiten.Image
	verts  []ebiten.Vertex
	ixs    []uint16
	pixels [4]byte
	bag    DisposalBag
}

// NewPicker allocates the off-screen target. Allocation failure is fatal to
// Stage initialization.
func NewPicker() *Picker {
	target := ebiten.NewImage(1, 1)
	p := &Picker{target: target}
	p.bag.AddFunc(func() {
		target.Deallocate()
	})
	return p
}

// Pick resolves the node under the pointer, or NoNode. The camera's visible
// window is narrowed to the pointer's pixel for the duration of the pass and
// restored afterwards; filtered-out nodes are not pickable.
func (p *Picker) Pick(cam *Camera, renderer *Renderer, positions *TexelBuffer,
	nodeCount int, filter FilterVector, pointer Vec2) NodeID {
	cam.SetWindow(pickWindow(pointer))
	defer cam.ClearWindow()

	p.target.Clear()
	p.verts = p.verts[:0]
	p.ixs = p.ixs[:0]
	p.verts, p.ixs = BuildPointVertices(p.verts, p.ixs,
		positions, nodeCount, cam.ViewMatrix(), filter, true)
	if len(p.ixs) == 0 {
		return NoNode
	}
	// Opaque copy: index colors must land in the target bit-exact, without
	// alpha blending against earlier fragments.
	opts := &ebiten.DrawTrianglesOptions{Blend: ebiten.BlendCopy}
	p.target.DrawTriangles(p.verts, p.ixs, renderer.whitePixel, opts)

	p.target.ReadPixels(p.pixels[:])
	return decodePickPixel(p.pixels)
}

// Dispose releases the pick target. Idempotent.
func (p *Picker) Dispose() {
	p.bag.Dispose()
}
