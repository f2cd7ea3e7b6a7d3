package document

import (
	"regexp"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/normalize"
	"github.com/dgallion1/syllabest/internal/table"
)

// Project syllabus section names.
const (
	SectionGroups       = "1 Matières, formations et groupes"
	SectionSubject      = "2 Sujet(s) du projet"
	SectionDetailsProj  = "3 Détails du projet"
	SectionDeliverables = table.DeliverablesHeading
	SectionDefense      = "5 Soutenance"
)

// Project field names that other packages refer to.
const (
	SubjectKey     = "Matière liée au projet"
	ObjectiveKey   = "Objectif du projet (à la fin du projet les étudiants sauront réaliser un...)"
	DescriptionKey = "Descriptif détaillé"
	BooksKey       = "Ouvrages de référence (livres, articles, revues, sites web...)"
	ToolsKey       = "Outils informatiques à installer"
	RemarksKey     = "Précisions"
)

// projectField extracts one field from the text of its section table.
type projectField struct {
	name string
	re   *regexp.Regexp
	trim *regexp.Regexp // removed from the match when set
}

type projectSection struct {
	name    string
	heading *regexp.Regexp
	fields  []projectField
	// appended sections collect every matching table; others keep the last.
	appended bool
}

var trailingPerGroup = regexp.MustCompile(`(?i)\s*par groupe\s*:?$`)

// The project sections in schema order, without the deliverables.
var projectSections = []projectSection{
	{
		name:    SectionGroups,
		heading: regexp.MustCompile(`1\s+Matières, formations et groupes`),
		fields: []projectField{
			{name: SubjectKey, re: regexp.MustCompile(`(?is)Matière liée au projet\s*:\s*(.*?)Formations\s*:`)},
			{name: "Formations", re: regexp.MustCompile(`(?is)Formations\s*:\s*(.*?)Nombre d'étudiant`)},
			{name: "Nombre d'étudiant par groupe", re: regexp.MustCompile(`(?is)Nombre d'étudiant[\s\S]*?([\d\sà-]+)[\s\S]*?par groupe`)},
			{name: "Règles de constitution des groupes", re: regexp.MustCompile(`(?is)Règles de constitution des groupes\s*:\s*(.*?)Charge de travail`), trim: trailingPerGroup},
			{name: "Charge de travail estimée par étudiant", re: regexp.MustCompile(`(?is)Charge de travail[\s\S]*?([\d,]+\s*h)[\s\S]*?estimée par étudiant`)},
		},
	},
	{
		name:    SectionSubject,
		heading: regexp.MustCompile(`2\s+Sujet\(s\) du projet`),
		fields: []projectField{
			{name: "Type de sujet", re: regexp.MustCompile(`(?is)Type de sujet\s*:\s*(.*)`)},
		},
	},
	{
		name:     SectionDetailsProj,
		heading:  regexp.MustCompile(`3\s+Détails du projet`),
		fields:   sequentialFields(ObjectiveKey, DescriptionKey, BooksKey, ToolsKey),
		appended: true,
	},
	{
		name:    SectionDefense,
		heading: regexp.MustCompile(`5\s+Soutenance`),
		fields: []projectField{
			{name: "Durée de présentation par groupe", re: regexp.MustCompile(`(?is)Durée de présentation[\s\S]*?(\d+\s*min)[\s\S]*?par groupe`)},
			{name: "Audience", re: regexp.MustCompile(`(?is)Audience\s*:\s*(.*?)Type de présentation`), trim: trailingPerGroup},
			{name: "Type de présentation", re: regexp.MustCompile(`(?is)Type de présentation\s*:\s*(.*?)Précisions`)},
			{name: RemarksKey, re: regexp.MustCompile(`(?is)Précisions\s*:\s*(.*)`)},
		},
	},
}

// sequentialFields builds patterns where each key's value runs up to the
// next key, the last one to the end of the text.
func sequentialFields(keys ...string) []projectField {
	out := make([]projectField, len(keys))
	for i, k := range keys {
		next := `$`
		if i+1 < len(keys) {
			next = regexp.QuoteMeta(keys[i+1])
		}
		out[i] = projectField{
			name: k,
			re:   regexp.MustCompile(`(?is)` + regexp.QuoteMeta(k) + `\s*:?\s*(.*?)` + next),
		}
	}
	return out
}

// Project assembles a project syllabus from its tables. Each section is
// recognised by the heading found in a table's text; its fields carry that
// table's page, or no page when the section is absent.
func Project(src *doctree.Source) doctree.Document {
	texts := make(map[string]string)
	pages := make(map[string]int)

	for _, t := range src.Tables {
		text := normalize.Repair(t.Text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, s := range projectSections {
			if !s.heading.MatchString(text) {
				continue
			}
			if prev, seen := texts[s.name]; seen && s.appended {
				texts[s.name] = prev + "\n" + text
			} else {
				texts[s.name] = text
				pages[s.name] = t.Page
			}
			break
		}
	}

	doc := doctree.Document{Type: doctree.TypeProject, Source: src.Name}
	for _, s := range projectSections {
		page := pages[s.name]
		g := make(doctree.Group, 0, len(s.fields))
		for _, f := range s.fields {
			g = append(g, doctree.Entry{Name: f.name, Node: doctree.FieldValue{
				Value: f.extract(texts[s.name]),
				Page:  page,
			}})
		}
		doc.Sections.Set(s.name, g)
		if s.name == SectionDetailsProj {
			doc.Sections.Set(SectionDeliverables, table.Deliverables(src.Tables))
		}
	}
	return doc
}

func (f projectField) extract(text string) string {
	if text == "" {
		return ""
	}
	m := f.re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := strings.TrimSpace(m[1])
	if f.trim != nil {
		v = f.trim.ReplaceAllString(v, "")
	}
	return normalize.Collapse(v)
}
