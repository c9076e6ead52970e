package phenomap

import (
	"math"
	"math/rand"
)

// Simulation row layout. Position rows are (x, y, group, pointSize); velocity
// rows are (x, y, reserved, immovable). An immovable flag >= 1 means the node
// never receives a position delta but still exerts forces on others.
const (
	posX = iota
	posY
	posGroup
	posSize
)

const (
	velX = iota
	velY
	velReserved
	velImmovable
)

// AdjacencyEntry locates one node's incident-edge run inside the shared
// edge-index buffer for one role (source or target). Jitter is a precomputed
// per-node random scalar substituted for degenerate zero-distance vectors.
type AdjacencyEntry struct {
	Offset int32
	Length int32
	Jitter float32
}

// Classifications bundles the six lookup tables a dataset owns.
type Classifications struct {
	Sex        *ClassTable
	Tag        *ClassTable
	Type       *ClassTable
	Organ      *ClassTable
	Category   *ClassTable
	Speciality *ClassTable
}

// NewClassifications creates six empty tables.
func NewClassifications() Classifications {
	return Classifications{
		Sex:        NewClassTable(),
		Tag:        NewClassTable(),
		Type:       NewClassTable(),
		Organ:      NewClassTable(),
		Category:   NewClassTable(),
		Speciality: NewClassTable(),
	}
}

// DatasetConfig controls texture encoding.
type DatasetConfig struct {
	// Seed drives initial positions and per-node jitter. Zero means seed 1,
	// keeping encoding deterministic by default.
	Seed int64
	// SpawnRadius is the radius of the initial random scatter around the
	// world origin. Zero means 300.
	SpawnRadius float64
}

// GraphDataset owns the node/edge records, classification tables, and every
// derived texture buffer the simulation and renderer sample. The runtime
// holds a non-owning reference.
type GraphDataset struct {
	Nodes   []*Node
	Edges   []*Edge
	Classes Classifications

	// Texel triplet, one element per node.
	Positions   *TexelBuffer
	Velocities  *TexelBuffer
	Descriptors *TexelBuffer

	// Per-node adjacency runs by role: (offset, length, jitter, 0).
	SourceAdjacency *TexelBuffer
	TargetAdjacency *TexelBuffer

	// Shared edge-index buffer: one element per (node, role, incident edge),
	// storing (far node id, strength, bias, 0).
	EdgeIndex *TexelBuffer

	// Edge-line endpoints: (source id, target id, weight, 0) per edge.
	EdgeLines *TexelBuffer

	cfg DatasetConfig
}

// NewGraphDataset encodes validated records into texture buffers with default
// configuration. Edges referencing unknown node ids are dropped, mirroring
// row-level ingestion recovery.
func NewGraphDataset(nodes []*Node, edges []*Edge) *GraphDataset {
	return NewGraphDatasetWith(nodes, edges, DatasetConfig{})
}

// NewGraphDatasetWith encodes with explicit configuration.
func NewGraphDatasetWith(nodes []*Node, edges []*Edge, cfg DatasetConfig) *GraphDataset {
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	if cfg.SpawnRadius == 0 {
		cfg.SpawnRadius = 300
	}

	ds := &GraphDataset{
		Nodes:   nodes,
		Edges:   filterEdges(nodes, edges),
		Classes: NewClassifications(),
		cfg:     cfg,
	}
	ds.encode()
	return ds
}

// filterEdges drops edges whose endpoints don't resolve to a node.
func filterEdges(nodes []*Node, edges []*Edge) []*Edge {
	n := NodeID(len(nodes))
	kept := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		if e.Source >= 0 && e.Source < n && e.Target >= 0 && e.Target < n {
			kept = append(kept, e)
		}
	}
	return kept
}

// encode builds every derived buffer. Called once at construction and again
// by DecodeDataset when a saved document carried no buffer for a quantity.
func (ds *GraphDataset) encode() {
	rng := rand.New(rand.NewSource(ds.cfg.Seed))
	nodeCount := len(ds.Nodes)
	edgeCount := len(ds.Edges)

	ds.Positions = NewTexelBuffer(nodeCount)
	ds.Velocities = NewTexelBuffer(nodeCount)
	ds.Descriptors = NewTexelBuffer(nodeCount)
	ds.SourceAdjacency = NewTexelBuffer(nodeCount)
	ds.TargetAdjacency = NewTexelBuffer(nodeCount)
	ds.EdgeIndex = NewTexelBuffer(edgeCount * 2)
	ds.EdgeLines = NewTexelBuffer(edgeCount)

	// Derive degrees once.
	for _, n := range ds.Nodes {
		n.OutDegree = 0
		n.InDegree = 0
	}
	for _, e := range ds.Edges {
		ds.Nodes[e.Source].OutDegree++
		ds.Nodes[e.Target].InDegree++
	}

	// Initial scatter: uniform polar spread around the origin. Immovable
	// nodes keep their flag in the velocity row's w channel.
	for i, n := range ds.Nodes {
		angle := rng.Float64() * 2 * math.Pi
		radius := math.Sqrt(rng.Float64()) * ds.cfg.SpawnRadius
		immovable := float32(0)
		if n.Immovable {
			immovable = 1
		}
		ds.Positions.SetTexel(i,
			texelValue(math.Cos(angle)*radius),
			texelValue(math.Sin(angle)*radius),
			float32(n.CategoryID),
			pointSizeFor(n))
		ds.Velocities.SetTexel(i, 0, 0, 0, immovable)
		ds.Descriptors.SetTexel(i,
			float32(n.OutDegree),
			float32(n.InDegree),
			float32(n.CategoryID),
			float32(n.SpecialityID))
	}

	// Adjacency runs: all source-role runs in node order, then all
	// target-role runs, packed into the shared edge-index buffer.
	srcOffset := make([]int32, nodeCount)
	tgtOffset := make([]int32, nodeCount)
	var cursor int32
	for i, n := range ds.Nodes {
		srcOffset[i] = cursor
		cursor += int32(n.OutDegree)
	}
	for i, n := range ds.Nodes {
		tgtOffset[i] = cursor
		cursor += int32(n.InDegree)
	}

	for i, n := range ds.Nodes {
		jitter := float32(0.5 + rng.Float64())
		ds.SourceAdjacency.SetTexel(i, float32(srcOffset[i]), float32(n.OutDegree), jitter, 0)
		ds.TargetAdjacency.SetTexel(i, float32(tgtOffset[i]), float32(n.InDegree), jitter, 0)
	}

	srcFill := make([]int32, nodeCount)
	tgtFill := make([]int32, nodeCount)
	for i, e := range ds.Edges {
		strength := texelValue(e.Weight)
		bias := texelValue(e.PrevRatio)

		s := srcOffset[e.Source] + srcFill[e.Source]
		ds.EdgeIndex.SetTexel(int(s), float32(e.Target), strength, bias, 0)
		srcFill[e.Source]++

		tg := tgtOffset[e.Target] + tgtFill[e.Target]
		ds.EdgeIndex.SetTexel(int(tg), float32(e.Source), strength, bias, 0)
		tgtFill[e.Target]++

		ds.EdgeLines.SetTexel(i, float32(e.Source), float32(e.Target), texelValue(e.Weight), 0)
	}

	// Register classification ids so lookup tables cover every value seen,
	// even when the host never supplies display labels.
	for _, n := range ds.Nodes {
		registerClass(ds.Classes.Sex, n.SexID)
		registerClass(ds.Classes.Tag, n.TagID)
		registerClass(ds.Classes.Type, n.TypeID)
		registerClass(ds.Classes.Organ, n.OrganID)
		registerClass(ds.Classes.Category, n.CategoryID)
		registerClass(ds.Classes.Speciality, n.SpecialityID)
	}
}

// texelValue coerces a float64 scalar for float32 texel storage: finite
// values clamp to the float32 range, non-finite values store as zero.
// Ingestion already rejects NaN/Inf rows, so the zero branch only covers
// values produced internally.
func texelValue(v float64) float32 {
	safe, ok := SafeNumber(v, KindFloat32, -1)
	if !ok {
		return 0
	}
	return float32(safe)
}

// registerClass ensures id has a table entry. -1 (unclassified) is skipped.
func registerClass(t *ClassTable, id int) {
	if id < 0 {
		return
	}
	if _, ok := t.Get(int32(id)); !ok {
		t.Set(int32(id), "")
	}
}

// pointSizeFor derives a draw size from connectivity: well-connected nodes
// render larger.
func pointSizeFor(n *Node) float32 {
	deg := float64(n.OutDegree + n.InDegree)
	return float32(4 + 2*math.Log2(1+deg))
}

// NodeCount returns the number of nodes.
func (ds *GraphDataset) NodeCount() int {
	return len(ds.Nodes)
}

// EdgeCount returns the number of kept edges.
func (ds *GraphDataset) EdgeCount() int {
	return len(ds.Edges)
}

// NodeSide returns the side length of the node-indexed textures.
func (ds *GraphDataset) NodeSide() int {
	return ds.Positions.Side()
}

// EdgeSide returns the side length of the edge-line texture.
func (ds *GraphDataset) EdgeSide() int {
	return ds.EdgeLines.Side()
}

// EdgeIndexSide returns the side length of the shared edge-index texture.
func (ds *GraphDataset) EdgeIndexSide() int {
	return ds.EdgeIndex.Side()
}

// SourceRun returns node id's adjacency run in the source role.
func (ds *GraphDataset) SourceRun(id NodeID) AdjacencyEntry {
	o, l, j, _ := ds.SourceAdjacency.Texel(int(id))
	return AdjacencyEntry{Offset: int32(o), Length: int32(l), Jitter: j}
}

// TargetRun returns node id's adjacency run in the target role.
func (ds *GraphDataset) TargetRun(id NodeID) AdjacencyEntry {
	o, l, j, _ := ds.TargetAdjacency.Texel(int(id))
	return AdjacencyEntry{Offset: int32(o), Length: int32(l), Jitter: j}
}

// Validate checks the adjacency invariant: every stored run must resolve
// within the bounds of the edge-index buffer.
func (ds *GraphDataset) Validate() bool {
	check := func(e AdjacencyEntry) bool {
		if e.Length == 0 {
			return true
		}
		return ds.EdgeIndex.InBounds(int(e.Offset)) &&
			ds.EdgeIndex.InBounds(int(e.Offset+e.Length-1))
	}
	for i := range ds.Nodes {
		if !check(ds.SourceRun(NodeID(i))) || !check(ds.TargetRun(NodeID(i))) {
			return false
		}
	}
	return true
}

// NodeBySlug resolves a slug to a node id, or NoNode.
func (ds *GraphDataset) NodeBySlug(slug string) NodeID {
	for _, n := range ds.Nodes {
		if n.Slug == slug {
			return n.ID
		}
	}
	return NoNode
}
