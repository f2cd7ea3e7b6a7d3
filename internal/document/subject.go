package document

import (
	"regexp"
	"slices"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/field"
	"github.com/dgallion1/syllabest/internal/normalize"
	"github.com/dgallion1/syllabest/internal/section"
	"github.com/dgallion1/syllabest/internal/table"
)

// Subject syllabus section names.
const (
	SectionDetails    = "Détails du syllabus"
	SectionEvaluation = "Evaluation finale"
	SectionPrereq     = "Pré-requis"
	SectionObjectives = "Objectifs pédagogiques"
	SectionSessions   = "Contenu détaillé des séances"
	SectionSkills     = "Compétences professionnelles à développer ou à acquérir"
)

// Keys added to the details group.
const (
	ControlKey  = "Contrôle de connaissances"
	TitleKey    = "Intitulé"
	WorkloadKey = "Charge de travail de l'étudiant"
)

// SubjectSections are the headings of a subject syllabus, in document order.
var SubjectSections = []section.Def{
	section.MustDef(SectionDetails, `Détails\s+du\s+syllabus`),
	section.MustDef(SectionEvaluation, `Evaluation\s+finale`),
	section.MustDef(SectionPrereq, `Pré[-\s]?requis`),
	section.MustDef(SectionObjectives, `Objectifs\s+pédagogiques`),
	section.MustDef("Méthodologie utilisée", `Méthodologie\s+utilisée`),
	section.MustDef("Références Crossknowledge", `Références\s+Crossknowledge`),
	section.MustDef("Ouvrages de référence", `Ouvrages\s+de\s+référence`),
	section.MustDef("Références Cyberlibris", `Références\s+Cyberlibris`),
	section.MustDef("Autres références", `Autres\s+références`),
	section.MustDef("Outils informatiques", `Outils\s+informatiques`),
	section.MustDef("Programme détaillé", `Programme\s+détaillé`),
	section.MustDef(SectionSessions, `Contenu\s+détaillé\s+des\s+séances`),
	section.MustDef(SectionSkills, `Compétences\s+professionnelles.+développer.+acquérir`),
}

var (
	DetailKeys = []string{
		"Matière", "Code", "Cursus", "Semestre",
		"Responsable du cours", "Mail du responsable du cours",
		"Responsable pédagogique", "Professeur associé",
		WorkloadKey, "Ects", "Coef", "Volume",
	}
	EvalKeys = []string{
		"Type d'examen", "Durée",
		"Documents autorisés", "Critères d'évaluation", SectionPrereq,
	}
	ControlCols = []string{
		"Cas Pratique", "Contrôle Continu", "Dossier",
		"Dossier Individuel", "Examen", "Projet", "QCM",
	}
	SessionHeaders = []string{"Séances", "Thèmes", "Travail à domicile", "Références", "Evaluation"}
	sessionAnchors = []string{"Séances", "Thèmes"}

	detailLabel = field.LabelPattern(DetailKeys)
	evalLabel   = field.LabelPattern(EvalKeys)

	footerRe = regexp.MustCompile(`(?i)\d{2}/\d{2}/\d{2}\s+Page\s+\d+/\d+\s+Syllabus[^\n]*`)
	titleRe  = regexp.MustCompile(`(?i)Syllabus\s*/\s*Plan\s+de\s+cours`)
	rncpRe   = regexp.MustCompile(`RNCP\w+`)
	bulletRe = regexp.MustCompile(`^[\s\-•]+`)
)

// Default pages used when a section is absent.
const (
	defaultPage         = 1
	defaultSessionsPage = 2
	defaultSkillsPage   = 3
)

// Subject assembles a subject syllabus. Every section and field of the
// schema is present in the result, matched or not.
func Subject(src *doctree.Source) doctree.Document {
	pages := cleanPages(src.Pages)
	loc := section.Locate(pages, SubjectSections)

	doc := doctree.Document{Type: doctree.TypeSubject, Source: src.Name}

	// Details, assessment grid and title.
	detailsPage := loc.Page(SectionDetails, defaultPage)
	details := field.Group(loc.Block(SectionDetails), DetailKeys, detailLabel, detailsPage)
	if w := details.Field(WorkloadKey); w.Value != "" {
		w.Value = field.Hours(w.Value)
		details.Set(WorkloadKey, w)
	}
	checks, controlPage := table.Control(src.Tables, ControlCols, ControlKey)
	details.Set(ControlKey, doctree.FieldValue{Checks: checks, Page: controlPage})
	if title, page := findTitle(pages); title != "" {
		details.Set(TitleKey, doctree.FieldValue{Value: title, Page: page})
	}
	doc.Sections.Set(SectionDetails, details)

	// Final evaluation, with the free-standing prerequisites folded in.
	evalPage := loc.Page(SectionEvaluation, defaultPage)
	eval := field.Group(loc.Block(SectionEvaluation), EvalKeys, evalLabel, evalPage)
	if loc.Has(SectionPrereq) {
		eval.Set(SectionPrereq, doctree.FieldValue{
			Value: concatInline(loc.Block(SectionPrereq)),
			Page:  loc.Page(SectionPrereq, evalPage),
		})
	}
	doc.Sections.Set(SectionEvaluation, eval)

	doc.Sections.Set(SectionObjectives, doctree.FieldValue{
		Value: concatInline(loc.Block(SectionObjectives)),
		Page:  loc.Page(SectionObjectives, defaultPage),
	})

	sessions, _, ok := table.Sessions(src.Tables, SessionHeaders, sessionAnchors)
	if !ok {
		sessions = sessionFallback(loc)
	}
	doc.Sections.Set(SectionSessions, sessions)

	doc.Sections.Set(SectionSkills, competences(loc.Block(SectionSkills), loc.Page(SectionSkills, defaultSkillsPage)))

	// Every other section is kept as prose.
	for _, d := range SubjectSections {
		if d.Name == SectionPrereq {
			continue
		}
		if _, done := doc.Sections.Get(d.Name); done {
			continue
		}
		doc.Sections.Set(d.Name, doctree.FieldValue{
			Value: loc.Flat(d.Name),
			Page:  loc.Page(d.Name, defaultPage),
		})
	}
	return doc
}

// cleanPages repairs page text and drops the printed page footer.
func cleanPages(pages []doctree.PageText) []doctree.PageText {
	out := make([]doctree.PageText, len(pages))
	for i, p := range pages {
		out[i] = doctree.PageText{Number: p.Number, Text: footerRe.ReplaceAllString(normalize.Repair(p.Text), "")}
	}
	return out
}

// findTitle returns the first non-empty line after the "Syllabus / Plan de
// cours" line and the page of that line.
func findTitle(pages []doctree.PageText) (string, int) {
	text, starts := section.Join(pages)
	lines := strings.Split(text, "\n")
	offset := 0
	for i, ln := range lines {
		if titleRe.MatchString(ln) {
			page := section.PageAt(pages, starts, offset)
			for _, next := range lines[i+1:] {
				if t := normalize.Collapse(next); t != "" {
					return t, page
				}
			}
			return "", page
		}
		offset += len(ln) + 1
	}
	return "", 0
}

// concatInline joins the lines of a block into one line, bullets stripped
// and repeated lines kept once.
func concatInline(block string) string {
	var out []string
	for _, ln := range strings.Split(block, "\n") {
		ln = normalize.Collapse(bulletRe.ReplaceAllString(ln, ""))
		if ln != "" && !slices.Contains(out, ln) {
			out = append(out, ln)
		}
	}
	return strings.Join(out, " ")
}

// sessionFallback is the single record used when no session table exists:
// the section prose goes to Thèmes.
func sessionFallback(loc section.Result) doctree.List {
	page := loc.Page(SectionSessions, defaultSessionsPage)
	rec := make(doctree.Group, 0, len(SessionHeaders))
	for _, h := range SessionHeaders {
		v := doctree.FieldValue{Page: page}
		if h == "Thèmes" {
			v.Value = concatInline(loc.Block(SectionSessions))
		}
		rec = append(rec, doctree.Entry{Name: h, Node: v})
	}
	return doctree.List{rec}
}

// competences splits each line holding at least two RNCP codes at the
// second code: the part before is the title, the rest the skill.
func competences(block string, page int) doctree.List {
	rows := doctree.List{}
	for _, ln := range strings.Split(block, "\n") {
		ln = normalize.Collapse(ln)
		if ln == "" || strings.HasPrefix(strings.ToLower(ln), "titre") {
			continue
		}
		codes := rncpRe.FindAllStringIndex(ln, 2)
		if len(codes) < 2 {
			continue
		}
		cut := codes[1][0]
		rows = append(rows, doctree.Group{
			{Name: "Titre", Node: doctree.FieldValue{Value: strings.TrimSpace(ln[:cut]), Page: page}},
			{Name: "Compétence", Node: doctree.FieldValue{Value: strings.TrimSpace(ln[cut:]), Page: page}},
		})
	}
	return rows
}
