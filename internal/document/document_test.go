package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/syllabest/internal/doctree"
)

func TestSubject_TwoPageScenario(t *testing.T) {
	src := &doctree.Source{
		Name:      "algo.pdf",
		PageCount: 2,
		Pages: []doctree.PageText{
			{Number: 1, Text: "Objectifs pédagogiques\nApprendre X\nApprendre Y"},
			{Number: 2, Text: "Pré-requis\nAucun"},
		},
	}
	doc := Subject(src)

	n, ok := doc.Section(SectionObjectives)
	if !ok {
		t.Fatal("objectives section missing")
	}
	obj := n.(doctree.FieldValue)
	if obj.Value != "Apprendre X Apprendre Y" || obj.Page != 1 {
		t.Errorf("objectives = %+v", obj)
	}

	n, _ = doc.Section(SectionEvaluation)
	prereq := n.(doctree.Group).Field(SectionPrereq)
	if prereq.Value != "Aucun" || prereq.Page != 2 {
		t.Errorf("prerequisites = %+v", prereq)
	}
	if err := Validate(doc); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestSubject_FullDocument(t *testing.T) {
	src := &doctree.Source{
		Name: "reseaux.pdf",
		Pages: []doctree.PageText{
			{Number: 1, Text: "Syllabus / Plan de cours\n  Réseaux avancés  \n" +
				"Détails du syllabus\nMatière : Réseaux\nCode : RES-4\n" +
				"Charge de travail de l'étudiant : environ 60 h de travail\n" +
				"12/05/25 Page 1/3 Syllabus Réseaux"},
			{Number: 2, Text: "Evaluation finale\nType d'examen : Écrit\nDurée : 2h\n" +
				"Méthodologie utilisée\nCours et TP\n" +
				"Contenu détaillé des séances\nSéance 1 : introduction\n- Séance 1 : introduction"},
			{Number: 3, Text: "Compétences professionnelles à développer ou à acquérir\n" +
				"Titre Compétence\nRNCP35584BC01 Concevoir RNCP35584BC01C1 Analyser un besoin"},
		},
		Tables: []doctree.Table{{
			Page: 1,
			Rows: [][]string{
				{"", "Cas Pratique", "Contrôle Continu", "Dossier", "Dossier Individuel", "Examen", "Projet", "QCM"},
				{"Contrôle de connaissances", "", "X", "", "", "", "", ""},
			},
		}},
	}
	doc := Subject(src)

	n, _ := doc.Section(SectionDetails)
	details := n.(doctree.Group)
	tests := []struct {
		name string
		want string
		page int
	}{
		{"Matière", "Réseaux", 1},
		{"Code", "RES-4", 1},
		{WorkloadKey, "60 h", 1},
		{TitleKey, "Réseaux avancés", 1},
		{"Volume", "", 1},
	}
	for _, tt := range tests {
		got := details.Field(tt.name)
		if got.Value != tt.want || got.Page != tt.page {
			t.Errorf("%s = %+v, want %q on page %d", tt.name, got, tt.want, tt.page)
		}
	}
	control := details.Field(ControlKey)
	if !control.Checks["Contrôle Continu"] || control.Checks["QCM"] || control.Page != 1 {
		t.Errorf("control = %+v", control)
	}

	n, _ = doc.Section(SectionSessions)
	sessions := n.(doctree.List)
	if len(sessions) != 1 {
		t.Fatalf("expected fallback session record, got %d", len(sessions))
	}
	theme := sessions[0].(doctree.Group).Field("Thèmes")
	if theme.Value != "Séance 1 : introduction" || theme.Page != 2 {
		t.Errorf("fallback theme = %+v", theme)
	}

	n, _ = doc.Section(SectionSkills)
	skills := n.(doctree.List)
	if len(skills) != 1 {
		t.Fatalf("expected 1 competence, got %d", len(skills))
	}
	rec := skills[0].(doctree.Group)
	if rec.Field("Titre").Value != "RNCP35584BC01 Concevoir" || rec.Field("Compétence").Value != "RNCP35584BC01C1 Analyser un besoin" {
		t.Errorf("competence = %+v", rec)
	}
	if rec.Field("Titre").Page != 3 {
		t.Errorf("competence page = %d", rec.Field("Titre").Page)
	}

	n, _ = doc.Section("Méthodologie utilisée")
	if m := n.(doctree.FieldValue); m.Value != "Cours et TP" || m.Page != 2 {
		t.Errorf("methodology = %+v", m)
	}
	if strings.Contains(details.Field("Charge de travail de l'étudiant").Value, "Page") {
		t.Error("page footer leaked into a field")
	}
}

func TestSubject_PrerequisitesWithoutSection(t *testing.T) {
	doc := Subject(&doctree.Source{
		Name:  "algo.pdf",
		Pages: []doctree.PageText{{Number: 1}, {Number: 2, Text: "Evaluation finale\nType d'examen : Écrit"}},
	})
	n, _ := doc.Section(SectionEvaluation)
	eval := n.(doctree.Group)
	if got := eval.Field(SectionPrereq); got.Value != "" || got.Page != 2 {
		t.Errorf("prerequisites = %+v, want empty on the evaluation page", got)
	}
	if got := eval.Field("Type d'examen"); got.Value != "Écrit" {
		t.Errorf("exam type = %+v", got)
	}
}

func TestSchemaCompleteness_EmptySource(t *testing.T) {
	for _, docType := range []string{doctree.TypeSubject, doctree.TypeProject} {
		t.Run(docType, func(t *testing.T) {
			src := &doctree.Source{Name: "vide.pdf"}
			var doc doctree.Document
			if docType == doctree.TypeSubject {
				doc = Subject(src)
			} else {
				doc = Project(src)
			}
			for _, f := range Schema(docType) {
				n, ok := doc.Section(f.Section)
				if !ok {
					t.Errorf("section %q missing", f.Section)
					continue
				}
				if g, isGroup := n.(doctree.Group); isGroup {
					for _, name := range f.Fields {
						if _, ok := g.Get(name); !ok {
							t.Errorf("%s: field %q missing", f.Section, name)
						}
					}
				}
			}
			if err := Validate(doc); err != nil {
				t.Errorf("validate: %v", err)
			}
		})
	}
}

func TestValidate_RejectsMissingSection(t *testing.T) {
	doc := Subject(&doctree.Source{Name: "x.pdf"})
	doc.Sections = doc.Sections[1:]
	if err := Validate(doc); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete, got %v", err)
	}
}

func projectSource() *doctree.Source {
	return &doctree.Source{
		Name: "projet.pdf",
		Tables: []doctree.Table{
			{Page: 1, Text: "1 Matières, formations et groupes\nMatière liée au projet : Algorithmique\n" +
				"Formations : M1 Info\nNombre d'étudiant 3 à 4 par groupe\n" +
				"Règles de constitution des groupes : libre par groupe :\n" +
				"Charge de travail 40 h estimée par étudiant"},
			{Page: 2, Text: "2 Sujet(s) du projet\nType de sujet : Libre"},
			{Page: 2, Index: 1, Text: "3 Détails du projet\n" +
				"Objectif du projet (à la fin du projet les étudiants sauront réaliser un...) : un compilateur\n" +
				"Descriptif détaillé : Écrire un compilateur"},
			{Page: 3, Text: "3 Détails du projet\nOuvrages de référence (livres, articles, revues, sites web...) : Dragon book\n" +
				"Outils informatiques à installer : Go"},
			{Page: 3, Index: 1,
				Rows: [][]string{
					{"4 Livrables et étapes de suivi", "", "", ""},
					{"1", "Rapport", "Remis en PDF", "lundi 12/05/2025 23h59"},
				},
				Text: "4 Livrables et étapes de suivi\n1 Rapport Remis en PDF lundi 12/05/2025 23h59"},
		},
	}
}

func TestProject_Fields(t *testing.T) {
	doc := Project(projectSource())

	field := func(sec, name string) doctree.FieldValue {
		n, ok := doc.Section(sec)
		if !ok {
			t.Fatalf("section %q missing", sec)
		}
		return n.(doctree.Group).Field(name)
	}
	tests := []struct {
		section, name, want string
		page                int
	}{
		{SectionGroups, SubjectKey, "Algorithmique", 1},
		{SectionGroups, "Formations", "M1 Info", 1},
		{SectionGroups, "Nombre d'étudiant par groupe", "3 à 4", 1},
		{SectionGroups, "Règles de constitution des groupes", "libre", 1},
		{SectionGroups, "Charge de travail estimée par étudiant", "40 h", 1},
		{SectionSubject, "Type de sujet", "Libre", 2},
		{SectionDetailsProj, ObjectiveKey, "un compilateur", 2},
		{SectionDetailsProj, BooksKey, "Dragon book", 2},
		{SectionDetailsProj, ToolsKey, "Go", 2},
		{SectionDefense, "Audience", "", 0},
	}
	for _, tt := range tests {
		got := field(tt.section, tt.name)
		if got.Value != tt.want || got.Page != tt.page {
			t.Errorf("%s / %s = %+v, want %q on page %d", tt.section, tt.name, got, tt.want, tt.page)
		}
	}

	n, _ := doc.Section(SectionDeliverables)
	items := n.(doctree.List)
	if len(items) != 1 {
		t.Fatalf("expected 1 deliverable, got %d", len(items))
	}
	if v := items[0].(doctree.FieldValue); v.Value != "Étape 1: Rapport - Remis en PDF - Date de rendu: lundi 12/05/2025 23h59" || v.Page != 3 {
		t.Errorf("deliverable = %+v", v)
	}

	names := doc.Sections.Names()
	want := []string{SectionGroups, SectionSubject, SectionDetailsProj, SectionDeliverables, SectionDefense}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("section[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if err := Validate(doc); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestCourse_KeepsEmptyPages(t *testing.T) {
	src := &doctree.Source{
		Name:      "cours.pdf",
		PageCount: 3,
		Pages: []doctree.PageText{
			{Number: 1, Text: "Intro\n\nduction"},
			{Number: 3, Text: "Fin ﬁnale"},
		},
	}
	doc := Course(src)
	if doc.Meta.PageCount != 3 || len(doc.Pages) != 3 {
		t.Fatalf("meta=%+v pages=%d", doc.Meta, len(doc.Pages))
	}
	if doc.Pages[0].Text != "Intro duction" || doc.Pages[1].Text != "" || doc.Pages[2].Text != "Fin finale" {
		t.Errorf("pages = %+v", doc.Pages)
	}
}
