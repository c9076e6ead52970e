package phenomap

import "math"

// tempThreshold freezes the layout: once the annealing temperature falls
// below it, Step stops advancing.
const tempThreshold = 1e-2

// SimulationConfig tunes the force model. Zero values take the defaults.
type SimulationConfig struct {
	// Friction scales the gravity and centroid pulls.
	Friction float64
	// Gravity is the pull toward the world origin, proportional to distance.
	Gravity float64
	// Centroid is the pull toward the live centroid of all node positions.
	Centroid float64
	// Repulsion scales the pairwise 1/d² push.
	Repulsion float64
	// Stiffness scales spring attraction along edges.
	Stiffness float64
	// RestDistance is the spring rest length before per-node jitter.
	RestDistance float64
	// Decay multiplies the temperature every advanced frame.
	Decay float64
	// InitialTemperature is the annealing start value.
	InitialTemperature float64
	// BiasEpsilon floors the edge bias scalar.
	BiasEpsilon float64
}

// DefaultSimulationConfig returns the tuning used by the viewer.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Friction:           0.85,
		Gravity:            0.05,
		Centroid:           0.02,
		Repulsion:          800,
		Stiffness:          0.06,
		RestDistance:       30,
		Decay:              0.99,
		InitialTemperature: 1.0,
		BiasEpsilon:        1e-4,
	}
}

// fillDefaults replaces zero fields with defaults.
func (c SimulationConfig) fillDefaults() SimulationConfig {
	d := DefaultSimulationConfig()
	if c.Friction == 0 {
		c.Friction = d.Friction
	}
	if c.Gravity == 0 {
		c.Gravity = d.Gravity
	}
	if c.Centroid == 0 {
		c.Centroid = d.Centroid
	}
	if c.Repulsion == 0 {
		c.Repulsion = d.Repulsion
	}
	if c.Stiffness == 0 {
		c.Stiffness = d.Stiffness
	}
	if c.RestDistance == 0 {
		c.RestDistance = d.RestDistance
	}
	if c.Decay == 0 {
		c.Decay = d.Decay
	}
	if c.InitialTemperature == 0 {
		c.InitialTemperature = d.InitialTemperature
	}
	if c.BiasEpsilon == 0 {
		c.BiasEpsilon = d.BiasEpsilon
	}
	return c
}

// ForceSimulation advances the spring/repulsion layout over ping-ponged
// texel buffers. Each qualifying frame runs two passes: the velocity pass
// writes a new velocity sample per node from the force sum, then the
// position pass adds velocity to the prior position scaled by
// (1 − immovable). Each pass reads only "current" slots and writes only
// "next" slots, so per-node evaluation order never aliases state.
//
// Repulsion is O(n²) and spring attraction O(n·k) per advanced frame; full
// buffer sampling per node is the accepted cost that bounds practical node
// counts.
type ForceSimulation struct {
	ds  *GraphDataset
	cfg SimulationConfig

	positions  *DoubleBuffer
	velocities *DoubleBuffer

	temperature float64
	steps       int
}

// NewForceSimulation seeds the double buffers from the dataset's encoded
// state and sets the annealing temperature to its initial value.
func NewForceSimulation(ds *GraphDataset, cfg SimulationConfig) *ForceSimulation {
	cfg = cfg.fillDefaults()
	sim := &ForceSimulation{
		ds:          ds,
		cfg:         cfg,
		positions:   NewDoubleBuffer(ds.NodeCount()),
		velocities:  NewDoubleBuffer(ds.NodeCount()),
		temperature: cfg.InitialTemperature,
	}
	sim.positions.Seed(ds.Positions)
	sim.velocities.Seed(ds.Velocities)
	return sim
}

// Positions returns the stable position buffer for the frame that just
// completed. The renderer and picking pass sample it read-only.
func (s *ForceSimulation) Positions() *TexelBuffer {
	return s.positions.Current()
}

// Velocities returns the stable velocity buffer.
func (s *ForceSimulation) Velocities() *TexelBuffer {
	return s.velocities.Current()
}

// Temperature returns the current annealing temperature.
func (s *ForceSimulation) Temperature() float64 {
	return s.temperature
}

// Active reports whether the layout is still annealing. Below the threshold
// the layout is frozen and Step is a no-op.
func (s *ForceSimulation) Active() bool {
	return s.temperature >= tempThreshold
}

// Reheat restarts annealing at temperature t, un-freezing the layout.
func (s *ForceSimulation) Reheat(t float64) {
	s.temperature = t
}

// Steps returns how many qualifying frames have advanced.
func (s *ForceSimulation) Steps() int {
	return s.steps
}

// Step advances one qualifying frame: velocity pass, swap, position pass,
// swap, temperature decay. Returns false (and does nothing) once frozen.
func (s *ForceSimulation) Step() bool {
	if !s.Active() {
		return false
	}
	count := s.ds.NodeCount()
	if count == 0 {
		return false
	}

	pos := s.positions.Current()
	vel := s.velocities.Current()
	velNext := s.velocities.Next()

	// Centroid accumulated once per frame across all nodes.
	var cx, cy float64
	for i := 0; i < count; i++ {
		x, y, _, _ := pos.Texel(i)
		cx += float64(x)
		cy += float64(y)
	}
	cx /= float64(count)
	cy /= float64(count)

	temp := s.temperature

	// Velocity pass: new velocity sample per node from the force sum.
	for i := 0; i < count; i++ {
		px, py, _, _ := pos.Texel(i)
		x, y := float64(px), float64(py)
		_, _, _, immovable := vel.Texel(i)

		// Gravity to origin, proportional to distance.
		fx := -x * s.cfg.Gravity * s.cfg.Friction * temp
		fy := -y * s.cfg.Gravity * s.cfg.Friction * temp

		// Centroid attraction.
		fx += (cx - x) * s.cfg.Centroid * s.cfg.Friction * temp
		fy += (cy - y) * s.cfg.Centroid * s.cfg.Friction * temp

		// Pairwise repulsion, 1/d². Coinciding nodes substitute the
		// per-node jitter for the zero-distance vector.
		jitter := float64(s.ds.SourceRun(NodeID(i)).Jitter)
		for j := 0; j < count; j++ {
			if j == i {
				continue
			}
			ox, oy, _, _ := pos.Texel(j)
			dx := x - float64(ox)
			dy := y - float64(oy)
			d2 := dx*dx + dy*dy
			if d2 == 0 {
				dx = jitter
				dy = jitter
				d2 = 2 * jitter * jitter
			}
			scale := s.cfg.Repulsion * temp / d2
			inv := 1 / math.Sqrt(d2)
			fx += dx * inv * scale
			fy += dy * inv * scale
		}

		// Spring attraction over both adjacency roles.
		sfx, sfy := s.springForce(pos, NodeID(i), x, y, s.ds.SourceRun(NodeID(i)), temp)
		fx += sfx
		fy += sfy
		sfx, sfy = s.springForce(pos, NodeID(i), x, y, s.ds.TargetRun(NodeID(i)), temp)
		fx += sfx
		fy += sfy

		velNext.SetTexel(i, texelValue(fx), texelValue(fy), 0, immovable)
	}
	s.velocities.Swap()

	// Position pass: prior position + velocity × (1 − immovable). Immovable
	// nodes never move but still acted as force sources above. Sums are taken
	// in float64 and clamped on store so extreme edge scalars saturate
	// instead of overflowing to Inf.
	vel = s.velocities.Current()
	posNext := s.positions.Next()
	for i := 0; i < count; i++ {
		px, py, group, size := pos.Texel(i)
		vx, vy, _, immovable := vel.Texel(i)
		if immovable >= 1 {
			posNext.SetTexel(i, px, py, group, size)
			continue
		}
		posNext.SetTexel(i,
			texelValue(float64(px)+float64(vx)),
			texelValue(float64(py)+float64(vy)),
			group, size)
	}
	s.positions.Swap()

	s.temperature *= s.cfg.Decay
	s.steps++
	return true
}

// springForce sums the spring pull over one adjacency run. Displacement
// toward the far endpoint is reduced by a jittered rest distance and scaled
// by stiffness, temperature, edge strength, and floor-clamped bias.
func (s *ForceSimulation) springForce(pos *TexelBuffer, id NodeID, x, y float64, run AdjacencyEntry, temp float64) (fx, fy float64) {
	rest := s.cfg.RestDistance * float64(run.Jitter)
	for k := int32(0); k < run.Length; k++ {
		far, strength, bias, _ := s.ds.EdgeIndex.Texel(int(run.Offset + k))
		if bias < float32(s.cfg.BiasEpsilon) {
			bias = float32(s.cfg.BiasEpsilon)
		}
		ox, oy, _, _ := pos.Texel(int(far))
		dx := float64(ox) - x
		dy := float64(oy) - y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist == 0 {
			continue
		}
		displacement := dist - rest
		scale := displacement / dist * s.cfg.Stiffness * temp * float64(strength) * float64(bias)
		fx += dx * scale
		fy += dy * scale
	}
	return fx, fy
}

// SyncToDataset writes the live simulation state back into the dataset's
// owned buffers, so EncodeDataset captures the current layout.
func (s *ForceSimulation) SyncToDataset() {
	s.ds.Positions.CopyFrom(s.positions.Current())
	s.ds.Velocities.CopyFrom(s.velocities.Current())
}
