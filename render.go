package phenomap

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// edgeColor is the uniform tint for relationship lines.
var edgeColor = Color{R: 0.45, G: 0.5, B: 0.58, A: 0.35}

// groupPalette cycles per classification group for node points.
var groupPalette = []Color{
	{R: 0.91, G: 0.30, B: 0.24, A: 1},
	{R: 0.18, G: 0.55, B: 0.34, A: 1},
	{R: 0.20, G: 0.47, B: 0.84, A: 1},
	{R: 0.94, G: 0.68, B: 0.13, A: 1},
	{R: 0.56, G: 0.27, B: 0.68, A: 1},
	{R: 0.10, G: 0.66, B: 0.62, A: 1},
	{R: 0.83, G: 0.33, B: 0.55, A: 1},
	{R: 0.55, G: 0.57, B: 0.17, A: 1},
}

// colorForGroup returns the palette color for a classification group.
// Unclassified (negative) groups render grey.
func colorForGroup(group int) Color {
	if group < 0 {
		return Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	}
	return groupPalette[group%len(groupPalette)]
}

// FilterVector is the per-category visibility vector. A nil vector or an
// index beyond its length means visible.
type FilterVector []bool

// Visible reports whether the given category id passes the filter.
func (f FilterVector) Visible(category int) bool {
	if f == nil || category < 0 || category >= len(f) {
		return true
	}
	return !f[category]
}

// --- Vertex building (pure; no GPU state) ---

// appendQuad appends a solid-color axis-aligned quad sampling the 1×1 white
// pixel. Returns the grown slices.
func appendQuad(verts []ebiten.Vertex, indices []uint16, x, y, half float32, c Color) ([]ebiten.Vertex, []uint16) {
	base := uint16(len(verts))
	for i := 0; i < 4; i++ {
		v := ebiten.Vertex{
			SrcX: 0.5, SrcY: 0.5,
			ColorR: c.R, ColorG: c.G, ColorB: c.B, ColorA: c.A,
		}
		switch i {
		case 0:
			v.DstX, v.DstY = x-half, y-half
		case 1:
			v.DstX, v.DstY = x+half, y-half
		case 2:
			v.DstX, v.DstY = x+half, y+half
		case 3:
			v.DstX, v.DstY = x-half, y+half
		}
		verts = append(verts, v)
	}
	indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	return verts, indices
}

// appendLine appends a screen-space line segment as a two-triangle ribbon.
func appendLine(verts []ebiten.Vertex, indices []uint16, x0, y0, x1, y1, width float32, c Color) ([]ebiten.Vertex, []uint16) {
	dx := x1 - x0
	dy := y1 - y0
	length := dx*dx + dy*dy
	if length == 0 {
		return verts, indices
	}
	inv := width / 2 / float32(math.Sqrt(float64(length)))
	nx := -dy * inv
	ny := dx * inv

	base := uint16(len(verts))
	for _, p := range [4][2]float32{
		{x0 + nx, y0 + ny}, {x1 + nx, y1 + ny}, {x1 - nx, y1 - ny}, {x0 - nx, y0 - ny},
	} {
		verts = append(verts, ebiten.Vertex{
			DstX: p[0], DstY: p[1],
			SrcX: 0.5, SrcY: 0.5,
			ColorR: c.R, ColorG: c.G, ColorB: c.B, ColorA: c.A,
		})
	}
	indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	return verts, indices
}

// BuildPointVertices projects every visible node through the view transform
// and appends one screen-space quad per node. colors selects standard
// palette colors or index-encoded picking colors.
func BuildPointVertices(verts []ebiten.Vertex, indices []uint16,
	positions *TexelBuffer, count int, view [6]float64, filter FilterVector,
	pick bool) ([]ebiten.Vertex, []uint16) {
	for i := 0; i < count; i++ {
		x, y, group, size := positions.Texel(i)
		if !filter.Visible(int(group)) {
			continue
		}
		sx, sy := transformPoint(view, float64(x), float64(y))
		var c Color
		if pick {
			c = pickColor(NodeID(i))
		} else {
			c = colorForGroup(int(group))
		}
		verts, indices = appendQuad(verts, indices, float32(sx), float32(sy), size/2, c)
	}
	return verts, indices
}

// BuildLineVertices appends one ribbon per edge, skipping edges with a
// filtered endpoint.
func BuildLineVertices(verts []ebiten.Vertex, indices []uint16,
	positions, edgeLines *TexelBuffer, edgeCount int, view [6]float64,
	filter FilterVector) ([]ebiten.Vertex, []uint16) {
	for i := 0; i < edgeCount; i++ {
		src, dst, _, _ := edgeLines.Texel(i)
		sx, sy, sg, _ := positions.Texel(int(src))
		tx, ty, tg, _ := positions.Texel(int(dst))
		if !filter.Visible(int(sg)) || !filter.Visible(int(tg)) {
			continue
		}
		x0, y0 := transformPoint(view, float64(sx), float64(sy))
		x1, y1 := transformPoint(view, float64(tx), float64(ty))
		verts, indices = appendLine(verts, indices,
			float32(x0), float32(y0), float32(x1), float32(y1), 1, edgeColor)
	}
	return verts, indices
}

// --- Draw submission ---

// Renderer issues the scene's two draw calls: edge lines, then node points.
// It owns the 1×1 white source image and reuses vertex scratch buffers.
type Renderer struct {
	whitePixel *ebiten.Image
	verts      []ebiten.Vertex
	indices    []uint16
	bag        DisposalBag
}

// NewRenderer allocates GPU-backed resources. An allocation failure here is
// fatal to Stage initialization.
func NewRenderer() *Renderer {
	white := ebiten.NewImage(1, 1)
	white.Fill(color.White)
	r := &Renderer{whitePixel: white}
	r.bag.AddFunc(func() {
		white.Deallocate()
	})
	return r
}

// Draw renders the scene: one DrawTriangles call for edges, one for points.
// The view transform comes from the stage's per-frame uniform bag, not the
// live camera, so every draw within a frame reads the same state.
func (r *Renderer) Draw(screen *ebiten.Image, view [6]float64, positions, edgeLines *TexelBuffer,
	nodeCount, edgeCount int, filter FilterVector) {
	r.verts = r.verts[:0]
	r.indices = r.indices[:0]
	r.verts, r.indices = BuildLineVertices(r.verts, r.indices,
		positions, edgeLines, edgeCount, view, filter)
	if len(r.indices) > 0 {
		screen.DrawTriangles(r.verts, r.indices, r.whitePixel, &ebiten.DrawTrianglesOptions{})
	}

	r.verts = r.verts[:0]
	r.indices = r.indices[:0]
	r.verts, r.indices = BuildPointVertices(r.verts, r.indices,
		positions, nodeCount, view, filter, false)
	if len(r.indices) > 0 {
		screen.DrawTriangles(r.verts, r.indices, r.whitePixel, &ebiten.DrawTrianglesOptions{})
	}
}

// Dispose releases the renderer's GPU resources. Idempotent.
func (r *Renderer) Dispose() {
	r.bag.Dispose()
}
