package phenomap

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
)

// --- Tagged numeric buffers ---

// TaggedBuffer is the wire form of one typed numeric buffer: raw
// little-endian bytes, base64-encoded, plus the element-type tag that tells
// the decoder which buffer type to reconstruct.
type TaggedBuffer struct {
	Value    string `json:"value"`
	DataType string `json:"dataType"`
}

// NumericBuffer is a decoded typed buffer: the element kind and its raw
// little-endian bytes. The byte slice round-trips bit-identically.
type NumericBuffer struct {
	Kind  NumericKind
	Bytes []byte
}

// EncodeBuffer serializes a NumericBuffer to its tagged wire form.
func EncodeBuffer(b NumericBuffer) TaggedBuffer {
	return TaggedBuffer{
		Value:    base64.StdEncoding.EncodeToString(b.Bytes),
		DataType: b.Kind.String(),
	}
}

// DecodeBuffer reconstructs a NumericBuffer from its wire form. The tag is
// inspected to recover the exact element kind. Malformed input (unknown tag,
// bad base64) yields an empty float32 buffer rather than an error; callers
// zero-fill to the expected size.
func DecodeBuffer(tb TaggedBuffer) NumericBuffer {
	kind, ok := kindFromName(tb.DataType)
	if !ok {
		return NumericBuffer{Kind: KindFloat32}
	}
	raw, err := base64.StdEncoding.DecodeString(tb.Value)
	if err != nil {
		return NumericBuffer{Kind: kind}
	}
	return NumericBuffer{Kind: kind, Bytes: raw}
}

// Float32Buffer packs a float32 slice into a NumericBuffer.
func Float32Buffer(vals []float32) NumericBuffer {
	raw := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return NumericBuffer{Kind: KindFloat32, Bytes: raw}
}

// Float32s unpacks the buffer into a float32 slice of exactly count
// elements. Short or wrong-kind buffers zero-fill the remainder: the safe
// default for malformed saved state.
func (b NumericBuffer) Float32s(count int) []float32 {
	out := make([]float32, count)
	if b.Kind != KindFloat32 {
		return out
	}
	n := len(b.Bytes) / 4
	if n > count {
		n = count
	}
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.Bytes[i*4:]))
	}
	return out
}

// Int32Buffer packs an int32 slice into a NumericBuffer.
func Int32Buffer(vals []int32) NumericBuffer {
	raw := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(v))
	}
	return NumericBuffer{Kind: KindInt32, Bytes: raw}
}

// Int32s unpacks the buffer into an int32 slice of exactly count elements,
// zero-filling on mismatch.
func (b NumericBuffer) Int32s(count int) []int32 {
	out := make([]int32, count)
	if b.Kind != KindInt32 {
		return out
	}
	n := len(b.Bytes) / 4
	if n > count {
		n = count
	}
	for i := 0; i < n; i++ {
		out[i] = int32(binary.LittleEndian.Uint32(b.Bytes[i*4:]))
	}
	return out
}

// --- Ordered map codec ---

// classMapType tags serialized ClassTables so the decoder reconstructs the
// associative structure (and its entry order) rather than a plain object.
const classMapType = "classTable"

type classEntry struct {
	Key   int32  `json:"key"`
	Value string `json:"value"`
}

type classTableWire struct {
	MapType string       `json:"mapType"`
	Entries []classEntry `json:"entries"`
}

// MarshalJSON encodes the table as ordered key/value pairs with a map-type
// tag. Entry order is insertion order and is part of the contract.
func (t *ClassTable) MarshalJSON() ([]byte, error) {
	wire := classTableWire{MapType: classMapType, Entries: make([]classEntry, 0, len(t.keys))}
	for i, k := range t.keys {
		wire.Entries = append(wire.Entries, classEntry{Key: k, Value: t.values[i]})
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reconstructs the table, preserving entry order. A wrong
// map-type tag or malformed body leaves the table empty (safe default).
func (t *ClassTable) UnmarshalJSON(data []byte) error {
	t.keys = nil
	t.values = nil
	t.index = make(map[int32]int)
	var wire classTableWire
	if err := json.Unmarshal(data, &wire); err != nil || wire.MapType != classMapType {
		return nil
	}
	for _, e := range wire.Entries {
		t.Set(e.Key, e.Value)
	}
	return nil
}

// --- Save document ---

// Buffer names inside SaveDocument.DataBuffers.
const (
	bufPositions       = "positions"
	bufVelocities      = "velocities"
	bufDescriptors     = "descriptors"
	bufSourceAdjacency = "sourceAdjacency"
	bufTargetAdjacency = "targetAdjacency"
	bufEdgeIndex       = "edgeIndex"
	bufEdgeLines       = "edgeLines"
)

// nodeWire and edgeWire are the record wire forms.
type nodeWire struct {
	ID           NodeID `json:"id"`
	Immovable    bool   `json:"immovable,omitempty"`
	OutDegree    int    `json:"outDegree"`
	InDegree     int    `json:"inDegree"`
	SexID        int    `json:"sexId"`
	TagID        int    `json:"tagId"`
	TypeID       int    `json:"typeId"`
	OrganID      int    `json:"organId"`
	CategoryID   int    `json:"categoryId"`
	SpecialityID int    `json:"specialityId"`
	Label        string `json:"phenotype"`
	Slug         string `json:"slug,omitempty"`
	Code         string `json:"code,omitempty"`
}

type edgeWire struct {
	ID         int32   `json:"id"`
	Source     NodeID  `json:"sourceId"`
	Target     NodeID  `json:"targetId"`
	Weight     float64 `json:"weight"`
	Prevalence float64 `json:"prevalence"`
	PrevRatio  float64 `json:"prevRatio"`
}

// SaveDocument is the persisted form of a GraphDataset: records,
// classification tables, named data buffers, and the derived texture side
// lengths. Round-tripping a document reproduces bit-identical buffers and
// identical (ordered) map contents.
type SaveDocument struct {
	Nodes []nodeWire `json:"nodes"`
	Edges []edgeWire `json:"edges"`

	Sex        *ClassTable `json:"sex"`
	Tag        *ClassTable `json:"tag"`
	Type       *ClassTable `json:"type"`
	Organ      *ClassTable `json:"organ"`
	Category   *ClassTable `json:"category"`
	Speciality *ClassTable `json:"speciality"`

	DataBuffers map[string]TaggedBuffer `json:"dataBuffers"`

	NodeSide      int `json:"nodeSide"`
	EdgeSide      int `json:"edgeSide"`
	EdgeIndexSide int `json:"edgeIndexSide"`
}

// EncodeDataset serializes a dataset, including live simulation state, so a
// computed layout can be restored exactly.
func EncodeDataset(ds *GraphDataset) *SaveDocument {
	doc := &SaveDocument{
		Nodes:         make([]nodeWire, len(ds.Nodes)),
		Edges:         make([]edgeWire, len(ds.Edges)),
		Sex:           ds.Classes.Sex,
		Tag:           ds.Classes.Tag,
		Type:          ds.Classes.Type,
		Organ:         ds.Classes.Organ,
		Category:      ds.Classes.Category,
		Speciality:    ds.Classes.Speciality,
		DataBuffers:   make(map[string]TaggedBuffer, 7),
		NodeSide:      ds.NodeSide(),
		EdgeSide:      ds.EdgeSide(),
		EdgeIndexSide: ds.EdgeIndexSide(),
	}
	for i, n := range ds.Nodes {
		doc.Nodes[i] = nodeWire{
			ID: n.ID, Immovable: n.Immovable,
			OutDegree: n.OutDegree, InDegree: n.InDegree,
			SexID: n.SexID, TagID: n.TagID, TypeID: n.TypeID,
			OrganID: n.OrganID, CategoryID: n.CategoryID, SpecialityID: n.SpecialityID,
			Label: n.Label, Slug: n.Slug, Code: n.Code,
		}
	}
	for i, e := range ds.Edges {
		doc.Edges[i] = edgeWire{
			ID: e.ID, Source: e.Source, Target: e.Target,
			Weight: e.Weight, Prevalence: e.Prevalence, PrevRatio: e.PrevRatio,
		}
	}
	put := func(name string, b *TexelBuffer) {
		doc.DataBuffers[name] = EncodeBuffer(Float32Buffer(b.Data()))
	}
	put(bufPositions, ds.Positions)
	put(bufVelocities, ds.Velocities)
	put(bufDescriptors, ds.Descriptors)
	put(bufSourceAdjacency, ds.SourceAdjacency)
	put(bufTargetAdjacency, ds.TargetAdjacency)
	put(bufEdgeIndex, ds.EdgeIndex)
	put(bufEdgeLines, ds.EdgeLines)
	return doc
}

// DecodeDataset reconstructs a dataset from a saved document. Buffers come
// from the document verbatim; a missing or malformed buffer falls back to a
// zeroed buffer of the declared size instead of aborting the load.
func DecodeDataset(doc *SaveDocument) *GraphDataset {
	nodes := make([]*Node, len(doc.Nodes))
	for i, w := range doc.Nodes {
		nodes[i] = &Node{
			ID: w.ID, Immovable: w.Immovable,
			OutDegree: w.OutDegree, InDegree: w.InDegree,
			SexID: w.SexID, TagID: w.TagID, TypeID: w.TypeID,
			OrganID: w.OrganID, CategoryID: w.CategoryID, SpecialityID: w.SpecialityID,
			Label: w.Label, Slug: w.Slug, Code: w.Code,
		}
	}
	edges := make([]*Edge, len(doc.Edges))
	for i, w := range doc.Edges {
		edges[i] = &Edge{
			ID: w.ID, Source: w.Source, Target: w.Target,
			Weight: w.Weight, Prevalence: w.Prevalence, PrevRatio: w.PrevRatio,
		}
	}

	ds := &GraphDataset{
		Nodes:   nodes,
		Edges:   filterEdges(nodes, edges),
		Classes: NewClassifications(),
		cfg:     DatasetConfig{Seed: 1, SpawnRadius: 300},
	}
	if doc.Sex != nil {
		ds.Classes.Sex = doc.Sex
	}
	if doc.Tag != nil {
		ds.Classes.Tag = doc.Tag
	}
	if doc.Type != nil {
		ds.Classes.Type = doc.Type
	}
	if doc.Organ != nil {
		ds.Classes.Organ = doc.Organ
	}
	if doc.Category != nil {
		ds.Classes.Category = doc.Category
	}
	if doc.Speciality != nil {
		ds.Classes.Speciality = doc.Speciality
	}

	restore := func(name string, count int) *TexelBuffer {
		buf := NewTexelBuffer(count)
		tb, ok := doc.DataBuffers[name]
		if !ok {
			return buf
		}
		vals := DecodeBuffer(tb).Float32s(buf.Capacity() * 4)
		copy(buf.Data(), vals)
		return buf
	}
	nodeCount := len(nodes)
	edgeCount := len(ds.Edges)
	ds.Positions = restore(bufPositions, nodeCount)
	ds.Velocities = restore(bufVelocities, nodeCount)
	ds.Descriptors = restore(bufDescriptors, nodeCount)
	ds.SourceAdjacency = restore(bufSourceAdjacency, nodeCount)
	ds.TargetAdjacency = restore(bufTargetAdjacency, nodeCount)
	ds.EdgeIndex = restore(bufEdgeIndex, edgeCount*2)
	ds.EdgeLines = restore(bufEdgeLines, edgeCount)
	return ds
}

// MarshalDataset renders a dataset to its JSON document bytes.
func MarshalDataset(ds *GraphDataset) ([]byte, error) {
	return json.Marshal(EncodeDataset(ds))
}

// UnmarshalDataset parses JSON document bytes and reconstructs the dataset.
func UnmarshalDataset(data []byte) (*GraphDataset, error) {
	var doc SaveDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return DecodeDataset(&doc), nil
}
