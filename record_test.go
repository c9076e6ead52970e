package phenomap

import (
	"math"
	"strings"
	"testing"
)

func TestSafeNumberRejectsNonFinite(t *testing.T) {
	if _, ok := SafeNumber(math.NaN(), KindFloat32, -1); ok {
		t.Error("NaN should be rejected")
	}
	if _, ok := SafeNumber(math.Inf(1), KindFloat64, -1); ok {
		t.Error("+Inf should be rejected")
	}
	if _, ok := SafeNumber(math.Inf(-1), KindInt32, -1); ok {
		t.Error("-Inf should be rejected")
	}
}

func TestSafeNumberClampsToKind(t *testing.T) {
	v, ok := SafeNumber(300, KindUint8, -1)
	if !ok || v != 255 {
		t.Errorf("expected clamp to 255, got %v ok=%v", v, ok)
	}
	v, ok = SafeNumber(-5, KindUint8, -1)
	if !ok || v != 0 {
		t.Errorf("expected clamp to 0, got %v ok=%v", v, ok)
	}
	v, ok = SafeNumber(1e10, KindInt16, -1)
	if !ok || v != math.MaxInt16 {
		t.Errorf("expected clamp to MaxInt16, got %v ok=%v", v, ok)
	}
}

func TestSafeNumberRounding(t *testing.T) {
	v, ok := SafeNumber(1.23456, KindFloat64, 2)
	if !ok || v != 1.23 {
		t.Errorf("expected 1.23, got %v ok=%v", v, ok)
	}
	v, _ = SafeNumber(1.23456, KindFloat64, -1)
	if v != 1.23456 {
		t.Errorf("negative precision should not round, got %v", v)
	}
}

func TestParseNodeRowRequiresPhenotype(t *testing.T) {
	if n := ParseNodeRow(Row{"phenotype": "  "}, 0); n != nil {
		t.Error("blank phenotype should drop the row")
	}
	if n := ParseNodeRow(Row{"slug": "orphan"}, 0); n != nil {
		t.Error("missing phenotype should drop the row")
	}
}

func TestParseNodeRowDefaults(t *testing.T) {
	n := ParseNodeRow(Row{"phenotype": "Type 2 Diabetes"}, 7)
	if n == nil {
		t.Fatal("expected a node")
	}
	if n.ID != 7 {
		t.Errorf("id = %d, want 7", n.ID)
	}
	if n.Slug != "type-2-diabetes" {
		t.Errorf("slug = %q, want slugified label", n.Slug)
	}
	for _, got := range []int{n.SexID, n.TagID, n.TypeID, n.OrganID, n.CategoryID, n.SpecialityID} {
		if got != -1 {
			t.Errorf("missing classification should default to -1, got %d", got)
		}
	}
}

func TestParseNodeRowClassifications(t *testing.T) {
	n := ParseNodeRow(Row{
		"phenotype": "Asthma", "slug": "asthma", "code": "J45",
		"sexId": "0", "tagId": "3", "typeId": "bogus",
		"organId": "12", "categoryId": "4", "specialityId": "9",
	}, 0)
	if n == nil {
		t.Fatal("expected a node")
	}
	if n.SexID != 0 || n.TagID != 3 || n.OrganID != 12 || n.CategoryID != 4 || n.SpecialityID != 9 {
		t.Errorf("classification ids wrong: %+v", n)
	}
	if n.TypeID != -1 {
		t.Errorf("unparseable typeId should be -1, got %d", n.TypeID)
	}
	if n.Code != "J45" {
		t.Errorf("code = %q", n.Code)
	}
}

func TestParseEdgeRowRequiredFields(t *testing.T) {
	base := Row{
		"sourceId": "0", "targetId": "1",
		"weight": "2.5", "prevRatio": "0.4", "prevalence": "0.01",
	}
	if e := ParseEdgeRow(base, 0); e == nil {
		t.Fatal("well-formed row should parse")
	}
	for _, col := range []string{"sourceId", "targetId", "weight", "prevRatio", "prevalence"} {
		row := Row{}
		for k, v := range base {
			row[k] = v
		}
		row[col] = "not-a-number"
		if e := ParseEdgeRow(row, 0); e != nil {
			t.Errorf("bad %s should drop the row", col)
		}
	}
}

func TestParseEdgeRowValues(t *testing.T) {
	e := ParseEdgeRow(Row{
		"sourceId": "3", "targetId": "8",
		"weight": "1.5", "prevRatio": "0.25", "prevalence": "0.002",
	}, 42)
	if e == nil {
		t.Fatal("expected an edge")
	}
	if e.ID != 42 || e.Source != 3 || e.Target != 8 {
		t.Errorf("ids wrong: %+v", e)
	}
	if e.Weight != 1.5 || e.PrevRatio != 0.25 || e.Prevalence != 0.002 {
		t.Errorf("values wrong: %+v", e)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Type 2 Diabetes":     "type-2-diabetes",
		"  Crohn's Disease  ": "crohn-s-disease",
		"ALREADY-OK":          "already-ok",
		"---":                 "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassTableOrder(t *testing.T) {
	tab := NewClassTable()
	tab.Set(5, "five")
	tab.Set(1, "one")
	tab.Set(3, "three")
	tab.Set(5, "FIVE") // update keeps position

	var keys []int32
	tab.Each(func(id int32, label string) {
		keys = append(keys, id)
	})
	want := []int32{5, 1, 3}
	if len(keys) != len(want) {
		t.Fatalf("len = %d, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key[%d] = %d, want %d", i, keys[i], want[i])
		}
	}
	if v, _ := tab.Get(5); v != "FIVE" {
		t.Errorf("Get(5) = %q after update", v)
	}
}

func TestReadNodeRowsDropsBadRows(t *testing.T) {
	csvData := "phenotype,slug,categoryId\n" +
		"Asthma,asthma,2\n" +
		",missing-label,1\n" +
		"Gout,,3\n"
	nodes, err := ReadNodeRows(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len = %d, want 2", len(nodes))
	}
	// Ids assigned densely over surviving rows.
	if nodes[0].ID != 0 || nodes[1].ID != 1 {
		t.Errorf("ids = %d, %d", nodes[0].ID, nodes[1].ID)
	}
	if nodes[1].Slug != "gout" {
		t.Errorf("blank slug should fall back to slugified label, got %q", nodes[1].Slug)
	}
}

func TestReadEdgeRowsDropsBadRows(t *testing.T) {
	csvData := "sourceId,targetId,weight,prevRatio,prevalence\n" +
		"0,1,2.0,0.5,0.01\n" +
		"0,x,2.0,0.5,0.01\n" +
		"1,0,1.0,0.25,0.02\n"
	edges, err := ReadEdgeRows(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("len = %d, want 2", len(edges))
	}
	if edges[1].ID != 1 {
		t.Errorf("edge ids assigned over surviving rows, got %d", edges[1].ID)
	}
}

func TestReadRowsRaggedRecords(t *testing.T) {
	csvData := "phenotype,slug\nAsthma\n"
	nodes, err := ReadNodeRows(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ragged rows should not abort: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Slug != "asthma" {
		t.Errorf("short record should pad missing columns: %+v", nodes)
	}
}
