package parser

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	// rowTolerance is the baseline distance (pt) under which glyphs share a line.
	rowTolerance = 3.0
	// wordGap is the horizontal gap, as a fraction of font size, that
	// separates two words.
	wordGap = 0.3
	// ruleThickness is the largest extent (pt) of a rectangle drawn as a rule.
	ruleThickness = 2.0
	// edgeSnap merges grid edges closer than this (pt).
	edgeSnap = 2.0
)

// word is a run of glyphs on one line.
type word struct {
	x0, x1 float64
	y      float64
	size   float64
	text   string
}

// line is a row of words sorted left to right.
type line struct {
	y     float64
	words []word
}

func (l line) String() string {
	return joinWords(l.words)
}

func joinWords(ws []word) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.text
	}
	return strings.Join(parts, " ")
}

// box is an axis-aligned rectangle in PDF user space (y grows upward).
type box struct {
	x0, y0, x1, y1 float64
}

func boxOf(r pdflib.Rect) box {
	return box{
		x0: math.Min(r.Min.X, r.Max.X),
		y0: math.Min(r.Min.Y, r.Max.Y),
		x1: math.Max(r.Min.X, r.Max.X),
		y1: math.Max(r.Min.Y, r.Max.Y),
	}
}

func (b box) intersects(o box, tol float64) bool {
	return b.x0 <= o.x1+tol && o.x0 <= b.x1+tol && b.y0 <= o.y1+tol && o.y0 <= b.y1+tol
}

func (b box) union(o box) box {
	return box{math.Min(b.x0, o.x0), math.Min(b.y0, o.y0), math.Max(b.x1, o.x1), math.Max(b.y1, o.y1)}
}

func (b box) contains(x, y float64) bool {
	return x >= b.x0 && x <= b.x1 && y >= b.y0 && y <= b.y1
}

// layout groups positioned glyphs into lines, top of page first.
func layout(texts []pdflib.Text) []line {
	glyphs := make([]pdflib.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" && t.S != "\n" {
			glyphs = append(glyphs, t)
		}
	}
	if len(glyphs) == 0 {
		return nil
	}
	slices.SortStableFunc(glyphs, func(a, b pdflib.Text) int {
		return cmp.Compare(b.Y, a.Y)
	})

	var rows [][]pdflib.Text
	for _, g := range glyphs {
		if n := len(rows); n > 0 && math.Abs(rows[n-1][0].Y-g.Y) <= rowTolerance {
			rows[n-1] = append(rows[n-1], g)
			continue
		}
		rows = append(rows, []pdflib.Text{g})
	}

	lines := make([]line, 0, len(rows))
	for _, row := range rows {
		slices.SortStableFunc(row, func(a, b pdflib.Text) int { return cmp.Compare(a.X, b.X) })
		if ws := words(row); len(ws) > 0 {
			lines = append(lines, line{y: row[0].Y, words: ws})
		}
	}
	return lines
}

// words merges the glyphs of one row, breaking on explicit spaces and on
// gaps wider than wordGap times the font size.
func words(row []pdflib.Text) []word {
	var out []word
	var cur *word
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.text) != "" {
			cur.text = strings.TrimSpace(cur.text)
			out = append(out, *cur)
		}
		cur = nil
	}
	for _, g := range row {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		w := g.W
		if w <= 0 {
			w = g.FontSize * 0.5
		}
		if cur != nil && g.X-cur.x1 > wordGap*math.Max(g.FontSize, 1) {
			flush()
		}
		if cur == nil {
			cur = &word{x0: g.X, x1: g.X + w, y: g.Y, size: g.FontSize}
		}
		cur.text += g.S
		cur.x1 = math.Max(cur.x1, g.X+w)
	}
	flush()
	return out
}

func linesText(lines []line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}

// build accumulates the cells of one region while words are assigned.
type build struct {
	xs, ys []float64
	cells  [][]strings.Builder
	last   [][]int
	inside []line
}

// region is a cluster of touching rectangles that forms one table.
type region struct {
	bounds box
	rects  []box
}

// regions clusters the page rectangles into table regions, top of page
// first. Rectangles too small to be a rule or a cell are ignored.
func regions(rects []pdflib.Rect) []region {
	var out []region
	for _, r := range rects {
		b := boxOf(r)
		if b.x1-b.x0 < ruleThickness && b.y1-b.y0 < ruleThickness {
			continue
		}
		merged := region{bounds: b, rects: []box{b}}
		keep := out[:0]
		for _, reg := range out {
			if reg.bounds.intersects(merged.bounds, edgeSnap) {
				merged.bounds = merged.bounds.union(reg.bounds)
				merged.rects = append(merged.rects, reg.rects...)
				continue
			}
			keep = append(keep, reg)
		}
		out = append(keep, merged)
	}
	slices.SortStableFunc(out, func(a, b region) int {
		if c := cmp.Compare(b.bounds.y1, a.bounds.y1); c != 0 {
			return c
		}
		return cmp.Compare(a.bounds.x0, b.bounds.x0)
	})
	return out
}

// grid returns the column edges (left to right) and row edges (top to
// bottom) drawn by the region's rectangles.
func (reg region) grid() (xs, ys []float64) {
	for _, b := range reg.rects {
		switch {
		case b.y1-b.y0 < ruleThickness:
			xs = append(xs, b.x0, b.x1)
			ys = append(ys, (b.y0+b.y1)/2)
		case b.x1-b.x0 < ruleThickness:
			xs = append(xs, (b.x0+b.x1)/2)
			ys = append(ys, b.y0, b.y1)
		default:
			xs = append(xs, b.x0, b.x1)
			ys = append(ys, b.y0, b.y1)
		}
	}
	xs = snap(xs)
	ys = snap(ys)
	slices.Reverse(ys)
	return xs, ys
}

// snap sorts values and merges those closer than edgeSnap.
func snap(vs []float64) []float64 {
	slices.Sort(vs)
	var out []float64
	for _, v := range vs {
		if n := len(out); n > 0 && v-out[n-1] < edgeSnap {
			continue
		}
		out = append(out, v)
	}
	return out
}

// cellIndex finds i with edges[i] <= v < edges[i+1] (ascending edges).
func cellIndex(edges []float64, v float64) int {
	for i := 0; i+1 < len(edges); i++ {
		if v >= edges[i] && v < edges[i+1] {
			return i
		}
	}
	return -1
}

// rowIndex is cellIndex for descending edges.
func rowIndex(edges []float64, v float64) int {
	for i := 0; i+1 < len(edges); i++ {
		if v <= edges[i] && v > edges[i+1] {
			return i
		}
	}
	return -1
}

// pageTables splits the lines of a page into tables and outside text.
// Words are assigned to the region holding their center; a region without
// any word is not a table. Outside text excludes every word lying in the
// vertical band of a table, beside it included.
func pageTables(page int, lines []line, rects []pdflib.Rect) ([]doctree.Table, string) {
	regs := regions(rects)
	if len(regs) == 0 {
		return nil, linesText(lines)
	}

	builds := make([]*build, len(regs))
	for i, reg := range regs {
		xs, ys := reg.grid()
		if len(xs) < 2 || len(ys) < 2 {
			continue
		}
		b := &build{xs: xs, ys: ys}
		b.cells = make([][]strings.Builder, len(ys)-1)
		b.last = make([][]int, len(ys)-1)
		for r := range b.cells {
			b.cells[r] = make([]strings.Builder, len(xs)-1)
			b.last[r] = make([]int, len(xs)-1)
			for c := range b.last[r] {
				b.last[r][c] = -1
			}
		}
		builds[i] = b
	}

	var outside []line
	for li, l := range lines {
		var free []word
		inside := make(map[int][]word)
		for _, w := range l.words {
			cx := (w.x0 + w.x1) / 2
			cy := w.y + w.size*0.3
			hit := -1
			for i, reg := range regs {
				if builds[i] != nil && reg.bounds.contains(cx, cy) {
					hit = i
					break
				}
			}
			if hit < 0 {
				if !inBand(regs, builds, cy) {
					free = append(free, w)
				}
				continue
			}
			inside[hit] = append(inside[hit], w)

			b := builds[hit]
			r, c := rowIndex(b.ys, cy), cellIndex(b.xs, cx)
			if r < 0 || c < 0 {
				continue
			}
			sb := &b.cells[r][c]
			switch {
			case sb.Len() == 0:
			case b.last[r][c] == li:
				sb.WriteByte(' ')
			default:
				sb.WriteByte('\n')
			}
			sb.WriteString(w.text)
			b.last[r][c] = li
		}
		if len(free) > 0 {
			outside = append(outside, line{y: l.y, words: free})
		}
		for i, ws := range inside {
			builds[i].inside = append(builds[i].inside, line{y: l.y, words: ws})
		}
	}

	var tables []doctree.Table
	for _, b := range builds {
		if b == nil || len(b.inside) == 0 {
			continue
		}
		var rows [][]string
		for r := range b.cells {
			row := make([]string, len(b.cells[r]))
			empty := true
			for c := range b.cells[r] {
				row[c] = b.cells[r][c].String()
				if row[c] != "" {
					empty = false
				}
			}
			if !empty {
				rows = append(rows, row)
			}
		}
		tables = append(tables, doctree.Table{
			Page:  page,
			Index: len(tables),
			Rows:  rows,
			Text:  linesText(b.inside),
		})
	}
	return tables, linesText(outside)
}

func inBand(regs []region, builds []*build, y float64) bool {
	for i, reg := range regs {
		if builds[i] != nil && y >= reg.bounds.y0 && y <= reg.bounds.y1 {
			return true
		}
	}
	return false
}
