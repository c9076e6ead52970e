package phenomap

import "math"

// TexelBuffer is fixed-size numeric storage laid out as a square RGBA texture:
// side×side texels of four float32 channels. Element i lives at texel
// (i % side, i / side). The square is the minimal one accommodating the
// element count: side = ceil(sqrt(count)).
type TexelBuffer struct {
	side  int
	count int
	data  []float32
}

// SideFor returns the texture side length for the given element count.
func SideFor(count int) int {
	if count <= 0 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(count))))
}

// NewTexelBuffer allocates a zeroed buffer for count elements.
func NewTexelBuffer(count int) *TexelBuffer {
	side := SideFor(count)
	return &TexelBuffer{
		side:  side,
		count: count,
		data:  make([]float32, side*side*4),
	}
}

// Side returns the texture side length.
func (b *TexelBuffer) Side() int {
	return b.side
}

// Len returns the element count the buffer was sized for.
func (b *TexelBuffer) Len() int {
	return b.count
}

// Capacity returns the total texel count (side squared), including padding
// texels beyond Len.
func (b *TexelBuffer) Capacity() int {
	return b.side * b.side
}

// InBounds reports whether element index i resolves inside the buffer.
func (b *TexelBuffer) InBounds(i int) bool {
	return i >= 0 && i < b.side*b.side
}

// Texel returns the four channels of element i.
func (b *TexelBuffer) Texel(i int) (x, y, z, w float32) {
	o := i * 4
	return b.data[o], b.data[o+1], b.data[o+2], b.data[o+3]
}

// SetTexel stores the four channels of element i.
func (b *TexelBuffer) SetTexel(i int, x, y, z, w float32) {
	o := i * 4
	b.data[o] = x
	b.data[o+1] = y
	b.data[o+2] = z
	b.data[o+3] = w
}

// At returns channel c (0-3) of element i.
func (b *TexelBuffer) At(i, c int) float32 {
	return b.data[i*4+c]
}

// Set stores channel c (0-3) of element i.
func (b *TexelBuffer) Set(i, c int, v float32) {
	b.data[i*4+c] = v
}

// Data exposes the raw channel slice for serialization and GPU upload.
// The returned slice MUST NOT be resized.
func (b *TexelBuffer) Data() []float32 {
	return b.data
}

// CopyFrom copies src's channels into b. Both buffers must have the same
// capacity.
func (b *TexelBuffer) CopyFrom(src *TexelBuffer) {
	copy(b.data, src.data)
}

// Clone returns an independent copy.
func (b *TexelBuffer) Clone() *TexelBuffer {
	c := &TexelBuffer{side: b.side, count: b.count, data: make([]float32, len(b.data))}
	copy(c.data, b.data)
	return c
}

// DoubleBuffer is a pair of ping-ponged slots for one simulated quantity.
// A pass reads Current and writes Next; the runtime then swaps slot roles,
// so a pass never reads a slot being written in the same pass.
type DoubleBuffer struct {
	current *TexelBuffer
	next    *TexelBuffer
}

// NewDoubleBuffer allocates both slots for count elements.
func NewDoubleBuffer(count int) *DoubleBuffer {
	return &DoubleBuffer{
		current: NewTexelBuffer(count),
		next:    NewTexelBuffer(count),
	}
}

// Current returns the stable slot holding the previous frame's state.
func (d *DoubleBuffer) Current() *TexelBuffer {
	return d.current
}

// Next returns the write slot for the frame being computed.
func (d *DoubleBuffer) Next() *TexelBuffer {
	return d.next
}

// Swap exchanges slot roles after a completed pass pair.
func (d *DoubleBuffer) Swap() {
	d.current, d.next = d.next, d.current
}

// Seed writes the same initial state into both slots so the first pass reads
// valid data regardless of swap parity.
func (d *DoubleBuffer) Seed(src *TexelBuffer) {
	d.current.CopyFrom(src)
	d.next.CopyFrom(src)
}
