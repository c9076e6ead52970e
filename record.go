package phenomap

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
)

// --- Numeric safety ---

// NumericKind declares the representable range a coerced value must fit.
// The kind doubles as the element-type tag in serialized buffers.
type NumericKind uint8

const (
	KindFloat32 NumericKind = iota
	KindFloat64
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
)

// numericKindNames maps kinds to their serialized tags and back.
var numericKindNames = [...]string{
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindInt8:    "int8",
	KindUint8:   "uint8",
	KindInt16:   "int16",
	KindUint16:  "uint16",
	KindInt32:   "int32",
	KindUint32:  "uint32",
}

// String returns the kind's serialized tag.
func (k NumericKind) String() string {
	if int(k) < len(numericKindNames) {
		return numericKindNames[k]
	}
	return "unknown"
}

// kindFromName resolves a serialized tag back to its kind.
func kindFromName(name string) (NumericKind, bool) {
	for k, n := range numericKindNames {
		if n == name {
			return NumericKind(k), true
		}
	}
	return 0, false
}

// bounds returns the representable [min, max] range for integer kinds and
// the float32 range for KindFloat32. KindFloat64 is unbounded.
func (k NumericKind) bounds() (min, max float64) {
	switch k {
	case KindInt8:
		return math.MinInt8, math.MaxInt8
	case KindUint8:
		return 0, math.MaxUint8
	case KindInt16:
		return math.MinInt16, math.MaxInt16
	case KindUint16:
		return 0, math.MaxUint16
	case KindInt32:
		return math.MinInt32, math.MaxInt32
	case KindUint32:
		return 0, math.MaxUint32
	case KindFloat32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return math.Inf(-1), math.Inf(1)
	}
}

// SafeNumber validates and coerces v for the declared kind: NaN and ±Inf are
// rejected, out-of-range values clamp to the representable range, and a
// non-negative precision rounds to that many decimal places. The second
// return is false only for unrepresentable (non-finite) input.
func SafeNumber(v float64, kind NumericKind, precision int) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	min, max := kind.bounds()
	if v < min {
		v = min
	} else if v > max {
		v = max
	}
	if precision >= 0 {
		scale := math.Pow(10, float64(precision))
		v = math.Round(v*scale) / scale
	}
	return v, true
}

// --- Records ---

// Node is one phenotype in the graph. Immutable after creation except the
// degree counters, which the dataset derives once while building adjacency.
type Node struct {
	ID        NodeID
	Immovable bool

	// Derived during adjacency construction.
	OutDegree int
	InDegree  int

	// Classification ids; -1 means unclassified.
	SexID        int
	TagID        int
	TypeID       int
	OrganID      int
	CategoryID   int
	SpecialityID int

	Label string
	Slug  string
	Code  string
}

// Edge is one weighted relationship between two phenotypes. Immutable after
// creation.
type Edge struct {
	ID        int32
	Source    NodeID
	Target    NodeID
	Weight    float64
	Prevalence float64
	PrevRatio  float64
}

// ClassTable is an insertion-ordered id → label lookup table for one
// classification axis (sex, tag, type, organ, category, speciality).
// Order is part of the serialized contract.
type ClassTable struct {
	keys   []int32
	values []string
	index  map[int32]int
}

// NewClassTable creates an empty table.
func NewClassTable() *ClassTable {
	return &ClassTable{index: make(map[int32]int)}
}

// Set inserts or updates an entry. New keys append in insertion order.
func (t *ClassTable) Set(id int32, label string) {
	if i, ok := t.index[id]; ok {
		t.values[i] = label
		return
	}
	t.index[id] = len(t.keys)
	t.keys = append(t.keys, id)
	t.values = append(t.values, label)
}

// Get returns the label for id and whether it exists.
func (t *ClassTable) Get(id int32) (string, bool) {
	i, ok := t.index[id]
	if !ok {
		return "", false
	}
	return t.values[i], true
}

// Len returns the number of entries.
func (t *ClassTable) Len() int {
	return len(t.keys)
}

// Each calls fn for every entry in insertion order.
func (t *ClassTable) Each(fn func(id int32, label string)) {
	for i, k := range t.keys {
		fn(k, t.values[i])
	}
}

// --- Row parsing ---

// Row is one tabular record keyed by column name.
type Row map[string]string

// classificationColumns are the node columns that default to -1 when absent
// or unparseable.
var classificationColumns = [...]string{
	"sexId", "tagId", "typeId", "organId", "categoryId", "specialityId",
}

// intField parses a classification column, defaulting to -1 on failure.
func intField(row Row, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(row[name]))
	if err != nil {
		return -1
	}
	return v
}

// floatField parses a required float column. The second return is false when
// the value is missing, unparseable, or non-finite.
func floatField(row Row, name string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(row[name]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseNodeRow converts one tabular record into a Node with the given id.
// Returns nil when the required phenotype label is blank; malformed
// classification columns default to -1. A nil return is a dropped row, not
// an error.
func ParseNodeRow(row Row, id NodeID) *Node {
	label := strings.TrimSpace(row["phenotype"])
	if label == "" {
		return nil
	}
	slug := strings.TrimSpace(row["slug"])
	if slug == "" {
		slug = slugify(label)
	}
	n := &Node{
		ID:    id,
		Label: label,
		Slug:  slug,
		Code:  strings.TrimSpace(row["code"]),
	}
	n.SexID = intField(row, "sexId")
	n.TagID = intField(row, "tagId")
	n.TypeID = intField(row, "typeId")
	n.OrganID = intField(row, "organId")
	n.CategoryID = intField(row, "categoryId")
	n.SpecialityID = intField(row, "specialityId")
	return n
}

// ParseEdgeRow converts one tabular record into an Edge with the given id.
// Returns nil when sourceId/targetId or any of the required numeric columns
// (weight, prevRatio, prevalence) fail to parse.
func ParseEdgeRow(row Row, id int32) *Edge {
	src, err := strconv.Atoi(strings.TrimSpace(row["sourceId"]))
	if err != nil {
		return nil
	}
	dst, err := strconv.Atoi(strings.TrimSpace(row["targetId"]))
	if err != nil {
		return nil
	}
	weight, ok := floatField(row, "weight")
	if !ok {
		return nil
	}
	prevRatio, ok := floatField(row, "prevRatio")
	if !ok {
		return nil
	}
	prevalence, ok := floatField(row, "prevalence")
	if !ok {
		return nil
	}
	return &Edge{
		ID:         id,
		Source:     NodeID(src),
		Target:     NodeID(dst),
		Weight:     weight,
		Prevalence: prevalence,
		PrevRatio:  prevRatio,
	}
}

// slugify lowercases a label and collapses non-alphanumeric runs to single
// hyphens.
func slugify(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// --- CSV ingestion ---

// readRows decodes header-indexed CSV records into Rows. Short records are
// padded; the header row names the columns.
func readRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows; row parsers drop bad ones
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadNodeRows ingests node records from CSV. Rows failing required-field
// validation are dropped; ingestion never aborts for a single bad row.
// Node ids are assigned densely in surviving-row order.
func ReadNodeRows(r io.Reader) ([]*Node, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(rows))
	for _, row := range rows {
		if n := ParseNodeRow(row, NodeID(len(nodes))); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// ReadEdgeRows ingests edge records from CSV with the same drop-don't-abort
// policy as ReadNodeRows.
func ReadEdgeRows(r io.Reader) ([]*Edge, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	edges := make([]*Edge, 0, len(rows))
	for _, row := range rows {
		if e := ParseEdgeRow(row, int32(len(edges))); e != nil {
			edges = append(edges, e)
		}
	}
	return edges, nil
}
