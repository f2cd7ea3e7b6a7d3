package enrich

import (
	"regexp"
	"strings"

	"github.com/dgallion1/syllabest/internal/document"
)

// Rule recovers a value from dump text. Re captures the first line of the
// value in group 1. With Multi set, the following non-empty lines are
// appended until one starts with a Stops prefix.
type Rule struct {
	Re    *regexp.Regexp
	Multi bool
	Stops []string
}

func rule(pattern string, multi bool, stops ...string) Rule {
	return Rule{Re: regexp.MustCompile(`(?im)` + pattern), Multi: multi, Stops: stops}
}

// Rules lists, per field, the rules tried in order.
var Rules = map[string][]Rule{
	document.SubjectKey: {
		rule(`Matières?\s*(?:liées?\s*au\s*projet)?\s*:\s*([^\n]+)`, false),
		rule(`Module\s*:\s*([^\n]+)`, false),
		rule(`Cours\s*:\s*([^\n]+)`, false),
		// Course code of the page header, e.g. 2025-5A-IABD-DRL.
		rule(`(\d{4}-\d+[A-Z]-[A-Z]+-[A-Z]+)`, false),
	},
	document.BooksKey: {
		rule(`Ouvrages?\s*de\s*référence[^\n]*:\s*\n([^\n]+)`, true, "Outils", "Imprimé"),
		rule(`Ouvrages?\s*de\s*référence[^\n]*:\s*([^\n]+)`, false),
		rule(`Références?\s*:\s*([^\n]+)`, false),
		rule(`Bibliographie\s*:\s*([^\n]+)`, false),
	},
	document.ToolsKey: {
		rule(`Outils?\s*informatiques?\s*à\s*installer\s*:\s*\n([^\n]+)`, true, "Imprimé"),
		rule(`Outils?\s*informatiques?\s*à\s*installer\s*:\s*([^\n]+)`, false),
		rule(`Outils?\s*:\s*([^\n]+)`, false),
		rule(`Logiciels?\s*:\s*([^\n]+)`, false),
		rule(`Installations?\s*:\s*([^\n]+)`, false),
	},
	document.DescriptionKey: {
		rule(`Descriptif\s*détaillé\s*\n([^\n]+)`, true, "Imprimé", "Ouvrages"),
		rule(`Descriptif\s*détaillé\s*:\s*([^\n]+)`, true, "Imprimé", "Ouvrages"),
		rule(`Description\s*:\s*([^\n]+)`, true, "Imprimé"),
		rule(`Détails?\s*:\s*([^\n]+)`, true, "Imprimé"),
	},
	document.ObjectiveKey: {
		rule(`Objectifs?\s*du\s*projet[^\n]*:\s*([^\n]+)`, true, "Descriptif", "Ouvrages", "Outils", "Imprimé"),
		rule(`Objectifs?\s*:\s*([^\n]+)`, false),
		rule(`Buts?\s*du\s*projet\s*:\s*([^\n]+)`, false),
	},
	document.RemarksKey: {
		rule(`Précisions?\s*:\s*([^\n]+)`, true, "Imprimé"),
		rule(`Remarques?\s*:\s*([^\n]+)`, false),
		rule(`Notes?\s*:\s*([^\n]+)`, false),
	},
}

// Match returns the raw value the rule finds in text.
func (r Rule) Match(text string) (string, bool) {
	m := r.Re.FindStringSubmatchIndex(text)
	if m == nil || m[2] < 0 {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString(text[m[2]:m[3]])
	if r.Multi {
		rest := text[m[3]:]
		for strings.HasPrefix(rest, "\n") {
			rest = rest[1:]
			line := rest
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				line = rest[:i]
			}
			if line == "" || r.stopsAt(line) {
				break
			}
			sb.WriteString("\n")
			sb.WriteString(line)
			rest = rest[len(line):]
		}
	}
	return sb.String(), true
}

func (r Rule) stopsAt(line string) bool {
	lower := strings.ToLower(line)
	for _, s := range r.Stops {
		if strings.HasPrefix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
