package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/document"
)

func subjectDoc() doctree.Document {
	doc := doctree.Document{Type: doctree.TypeSubject, Source: "algo.pdf"}
	doc.Sections.Set(document.SectionDetails, doctree.Group{
		{Name: "Matière", Node: doctree.FieldValue{Value: "Module X", Page: 1}},
		{Name: "Code", Node: doctree.FieldValue{Value: "", Page: 1}},
		{Name: document.ControlKey, Node: doctree.FieldValue{Checks: map[string]bool{"QCM": true, "Examen": false}, Page: 2}},
	})
	doc.Sections.Set(document.SectionObjectives, doctree.FieldValue{Value: "Apprendre X", Page: 1})
	doc.Sections.Set(document.SectionSessions, doctree.List{
		doctree.Group{
			{Name: "Séances", Node: doctree.FieldValue{Value: "1", Page: 2}},
			{Name: "Thèmes", Node: doctree.FieldValue{Value: "Introduction", Page: 2}},
		},
	})
	doc.Sections.Set("Méthodologie utilisée", doctree.FieldValue{})
	return doc
}

func TestProject_SubjectDocument(t *testing.T) {
	chunks := Project(subjectDoc(), LabelSubject, Options{})

	want := []struct {
		content string
		section string
		page    int
	}{
		{"Matière: Module X", document.SectionDetails, 1},
		{`Contrôle de connaissances: {"Examen":false,"QCM":true}`, document.SectionDetails, 2},
		{"Objectifs pédagogiques: Apprendre X", document.SectionObjectives, 1},
		{"Séances: 1", document.SectionSessions, 2},
		{"Thèmes: Introduction", document.SectionSessions, 2},
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		c := chunks[i]
		if c.Content != w.content {
			t.Errorf("chunk %d content = %q, want %q", i, c.Content, w.content)
		}
		if c.Metadata.TitreSection != w.section {
			t.Errorf("chunk %d section = %q, want %q", i, c.Metadata.TitreSection, w.section)
		}
		if c.Metadata.NumeroPage == nil || *c.Metadata.NumeroPage != w.page {
			t.Errorf("chunk %d page = %v, want %d", i, c.Metadata.NumeroPage, w.page)
		}
		if c.Metadata.TitreDocument != LabelSubject || c.Metadata.Matiere != "Module X" || c.Metadata.DocumentPath != "algo.pdf" {
			t.Errorf("chunk %d metadata = %+v", i, c.Metadata)
		}
	}
}

func TestProject_EmptyFieldYieldsNoChunk(t *testing.T) {
	doc := doctree.Document{Type: doctree.TypeSubject}
	doc.Sections.Set(document.SectionDetails, doctree.Group{
		{Name: "Matière", Node: doctree.FieldValue{Value: "", Page: 1}},
	})
	if chunks := Project(doc, LabelSubject, Options{}); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %+v", chunks)
	}

	doc.Sections.Set(document.SectionDetails, doctree.Group{
		{Name: "Matière", Node: doctree.FieldValue{Value: "Module X", Page: 1}},
	})
	chunks := Project(doc, LabelSubject, Options{})
	if len(chunks) != 1 || chunks[0].Content != "Matière: Module X" {
		t.Errorf("chunks = %+v", chunks)
	}
}

func TestProject_ListLeavesAndNullPage(t *testing.T) {
	doc := doctree.Document{Type: doctree.TypeProject, Source: "p.pdf"}
	doc.Sections.Set(document.SectionGroups, doctree.Group{
		{Name: document.SubjectKey, Node: doctree.FieldValue{Value: "Compilation", Page: 1}},
	})
	doc.Sections.Set(document.SectionDeliverables, doctree.List{
		doctree.FieldValue{Value: "Étape 1: Rapport", Page: 3},
		doctree.FieldValue{Value: ""},
	})
	doc.Sections.Set(document.SectionDefense, doctree.Group{
		{Name: "Audience", Node: doctree.FieldValue{Value: "Jury"}},
	})

	chunks := Project(doc, LabelProject, Options{DocumentPath: "data/p.pdf"})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1].Content != "Étape 1: Rapport" || chunks[1].Metadata.TitreSection != document.SectionDeliverables {
		t.Errorf("deliverable chunk = %+v", chunks[1])
	}
	if chunks[2].Metadata.NumeroPage != nil {
		t.Errorf("expected null page, got %d", *chunks[2].Metadata.NumeroPage)
	}
	for _, c := range chunks {
		if c.Metadata.Matiere != "Compilation" || c.Metadata.DocumentPath != "data/p.pdf" {
			t.Errorf("metadata = %+v", c.Metadata)
		}
	}
}

func TestProject_NestedGroupUsesChildLabel(t *testing.T) {
	doc := doctree.Document{Type: doctree.TypeSubject}
	doc.Sections.Set("Outer", doctree.Group{
		{Name: "Inner", Node: doctree.Group{
			{Name: "Champ", Node: doctree.FieldValue{Value: "v", Page: 4}},
		}},
	})
	chunks := Project(doc, LabelSubject, Options{Matiere: "Forcée"})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata.TitreSection != "Inner" || chunks[0].Content != "Champ: v" || chunks[0].Metadata.Matiere != "Forcée" {
		t.Errorf("chunk = %+v", chunks[0])
	}
}

func TestProjectCourse_OneChunkPerPage(t *testing.T) {
	course := doctree.CourseDocument{
		Meta: doctree.CourseMeta{Source: "cours.pdf", PageCount: 3},
		Pages: []doctree.PageText{
			{Number: 1, Text: "Première page"},
			{Number: 2, Text: "   "},
			{Number: 3, Text: "Troisième page"},
		},
	}
	chunks := ProjectCourse(course, Config{}, Options{})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if *chunks[1].Metadata.NumeroPage != 3 || chunks[1].Metadata.TitreSection != "" || chunks[1].Metadata.TitreDocument != LabelCourse {
		t.Errorf("metadata = %+v", chunks[1].Metadata)
	}
	if chunks[0].Metadata.DocumentPath != "cours.pdf" {
		t.Errorf("document path = %q", chunks[0].Metadata.DocumentPath)
	}
}

func TestProjectCourse_SplitsLongPages(t *testing.T) {
	long := strings.Repeat("Le renard brun saute par-dessus le chien. ", 300)
	course := doctree.CourseDocument{
		Meta:  doctree.CourseMeta{Source: "long.pdf", PageCount: 1},
		Pages: []doctree.PageText{{Number: 1, Text: long}},
	}
	cfg := Config{ChunkSize: 500, ChunkOverlap: 50}
	chunks := ProjectCourse(course, cfg, Options{})
	if len(chunks) < 2 {
		t.Fatalf("expected the page to be split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if tokens := EstimateTokens(c.Content); tokens > cfg.ChunkSize*2 {
			t.Errorf("chunk %d: %d tokens exceeds 2x target", i, tokens)
		}
		if *c.Metadata.NumeroPage != 1 {
			t.Errorf("chunk %d page = %d", i, *c.Metadata.NumeroPage)
		}
	}
}

func TestSplitText_SentenceBoundariesWithOverlap(t *testing.T) {
	var sb strings.Builder
	for i := range 8 {
		fmt.Fprintf(&sb, "Phrase numéro %d avec quelques mots. ", i)
	}
	parts := splitText(sb.String(), 20, 4)
	if len(parts) < 2 {
		t.Fatalf("expected several parts, got %q", parts)
	}
	for i, p := range parts {
		if !strings.HasSuffix(p, ".") {
			t.Errorf("part %d does not end on a sentence: %q", i, p)
		}
		if i == 0 {
			continue
		}
		prev := strings.Fields(parts[i-1])
		tail := strings.Join(prev[len(prev)-3:], " ")
		if !strings.HasPrefix(p, tail) {
			t.Errorf("part %d = %q, want it to start with %q", i, p, tail)
		}
	}
}

func TestSplitSentences_Accents(t *testing.T) {
	got := splitSentences("Déjà vu. Où est-il ? Là… Fin")
	want := []string{"Déjà vu.", "Où est-il ?", "Là…", "Fin"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"mot", 1},
		{"trois mots ici", 3},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	if Label(doctree.TypeCourse) != LabelCourse || Label(doctree.TypeProject) != LabelProject || Label(doctree.TypeSubject) != LabelSubject {
		t.Error("unexpected label mapping")
	}
}
