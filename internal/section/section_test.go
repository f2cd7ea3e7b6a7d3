package section

import (
	"testing"

	"github.com/dgallion1/syllabest/internal/doctree"
)

var testDefs = []Def{
	MustDef("Evaluation finale", `Evaluation\s+finale`),
	MustDef("Pré-requis", `Pré[-\s]?requis`),
	MustDef("Objectifs pédagogiques", `Objectifs\s+pédagogiques`),
}

func TestLocate_TwoPagesScenario(t *testing.T) {
	pages := []doctree.PageText{
		{Number: 1, Text: "Objectifs pédagogiques\nApprendre X\nApprendre Y"},
		{Number: 2, Text: "Pré-requis\nAucun"},
	}
	res := Locate(pages, testDefs)

	if got := res.Flat("Objectifs pédagogiques"); got != "Apprendre X Apprendre Y" {
		t.Errorf("objectifs = %q", got)
	}
	if got := res.Page("Objectifs pédagogiques", 0); got != 1 {
		t.Errorf("objectifs page = %d, want 1", got)
	}
	if got := res.Flat("Pré-requis"); got != "Aucun" {
		t.Errorf("pré-requis = %q", got)
	}
	if got := res.Page("Pré-requis", 0); got != 2 {
		t.Errorf("pré-requis page = %d, want 2", got)
	}
	if res.Has("Evaluation finale") {
		t.Error("absent section reported as found")
	}
	if got := res.Page("Evaluation finale", 7); got != 7 {
		t.Errorf("fallback page = %d, want 7", got)
	}
}

func TestLocate_OrdersByOffsetNotDeclaration(t *testing.T) {
	// Declared Evaluation first, but it appears last in the text.
	pages := []doctree.PageText{
		{Number: 1, Text: "Objectifs pédagogiques\nA\nPrérequis\nB"},
		{Number: 2, Text: "Evaluation finale\nC"},
	}
	res := Locate(pages, testDefs)

	if len(res.Found) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(res.Found))
	}
	want := []string{"Objectifs pédagogiques", "Pré-requis", "Evaluation finale"}
	for i, name := range want {
		if res.Found[i].Name != name {
			t.Errorf("span[%d] = %q, want %q", i, res.Found[i].Name, name)
		}
	}
	if res.Block("Objectifs pédagogiques") != "A" {
		t.Errorf("objectifs block = %q", res.Block("Objectifs pédagogiques"))
	}
	if res.Block("Pré-requis") != "B" {
		t.Errorf("pré-requis block = %q", res.Block("Pré-requis"))
	}
	if res.Page("Evaluation finale", 0) != 2 {
		t.Errorf("evaluation page = %d", res.Page("Evaluation finale", 0))
	}
}

func TestLocate_PartitionCoversTail(t *testing.T) {
	pages := []doctree.PageText{
		{Number: 1, Text: "en-tête\nObjectifs pédagogiques\nA"},
		{Number: 2, Text: "Evaluation finale\nB\nPré-requis\nC"},
		{Number: 3, Text: "suite de C"},
	}
	res := Locate(pages, testDefs)

	if len(res.Found) == 0 {
		t.Fatal("no spans")
	}
	for i := 1; i < len(res.Found); i++ {
		if res.Found[i-1].End != res.Found[i].Start {
			t.Errorf("gap or overlap between %q and %q", res.Found[i-1].Name, res.Found[i].Name)
		}
	}
	if last := res.Found[len(res.Found)-1]; last.End != len(res.Text) {
		t.Errorf("last span ends at %d, text length %d", last.End, len(res.Text))
	}
	if got := res.Flat("Pré-requis"); got != "C suite de C" {
		t.Errorf("last block should run to end of document, got %q", got)
	}
}

func TestLocate_TieGoesToLaterDeclared(t *testing.T) {
	defs := []Def{
		MustDef("A", `Programme`),
		MustDef("B", `Programme\s+détaillé`),
	}
	pages := []doctree.PageText{{Number: 1, Text: "Programme détaillé\nséance 1"}}
	res := Locate(pages, defs)

	if res.Block("A") != "" {
		t.Errorf("earlier-declared tie should be empty, got %q", res.Block("A"))
	}
	if res.Block("B") != "séance 1" {
		t.Errorf("later-declared tie should own the slice, got %q", res.Block("B"))
	}
}

func TestLocate_EmptyDocument(t *testing.T) {
	res := Locate(nil, testDefs)
	if len(res.Found) != 0 || res.Block("Pré-requis") != "" {
		t.Errorf("expected nothing found in empty document")
	}
}

func TestPageAt_SeparatorBelongsToNextPage(t *testing.T) {
	pages := []doctree.PageText{{Number: 1, Text: "abc"}, {Number: 2, Text: "de"}}
	_, starts := Join(pages)
	tests := []struct {
		offset int
		want   int
	}{
		{0, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 2},
	}
	for _, tt := range tests {
		if got := PageAt(pages, starts, tt.offset); got != tt.want {
			t.Errorf("PageAt(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}
