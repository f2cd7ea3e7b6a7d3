package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfMagic = []byte("%PDF-")

// PDFParser handles PDF files. Page count comes from pdfcpu; text and
// table geometry come from ledongthuc/pdf. When the library cannot open
// the file and FallbackPdftotext is set, pdftotext supplies plain page text
// without tables.
type PDFParser struct {
	FallbackPdftotext bool
	Log               *slog.Logger
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return nil, ErrNotPDF
	}
	log := p.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("file", filename)

	pageCount, err := preflight(data)
	if err != nil {
		// pdfcpu is stricter than the text reader; keep going.
		log.Debug("pdf preflight failed", "error", err)
	}

	src, err := readPDF(data, log)
	if err != nil && p.FallbackPdftotext {
		log.Warn("pdf library failed, using pdftotext", "error", err)
		src, err = readPdftotext(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	if pageCount > 0 {
		src.PageCount = pageCount
	}
	return src, nil
}

// preflight validates the file in relaxed mode and returns its page count.
func preflight(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("read pdf context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("ensure page count: %w", err)
	}
	return ctx.PageCount, nil
}

func readPDF(data []byte, log *slog.Logger) (*doctree.Source, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	src := &doctree.Source{PageCount: reader.NumPage()}
	for i := 1; i <= src.PageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, tables, outside := readPage(page, i, log)
		if strings.TrimSpace(text) == "" {
			continue
		}
		src.Pages = append(src.Pages, doctree.PageText{Number: i, Text: text})
		src.Tables = append(src.Tables, tables...)
		if strings.TrimSpace(outside) != "" {
			src.Outside = append(src.Outside, doctree.PageText{Number: i, Text: outside})
		}
	}
	return src, nil
}

// readPage lays out the positioned glyphs of a page and splits them into
// tables and outside text. A panic from the content stream decoder degrades
// to the library's plain text with no tables.
func readPage(page pdflib.Page, num int, log *slog.Logger) (text string, tables []doctree.Table, outside string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("page geometry unreadable", "page", num, "panic", fmt.Sprint(r))
			text = plainText(page)
			tables, outside = nil, text
		}
	}()

	content := page.Content()
	lines := layout(content.Text)
	if len(lines) == 0 {
		text = plainText(page)
		return text, nil, text
	}
	tables, outside = pageTables(num, lines, content.Rect)
	return linesText(lines), tables, outside
}

func plainText(page pdflib.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	t, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return t
}

func readPdftotext(data []byte) (*doctree.Source, error) {
	tmp, err := os.CreateTemp("", "syllabest-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-layout", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	src := &doctree.Source{}
	for i, page := range splitPages(string(out)) {
		if strings.TrimSpace(page) == "" {
			continue
		}
		pt := doctree.PageText{Number: i + 1, Text: page}
		src.Pages = append(src.Pages, pt)
		src.Outside = append(src.Outside, pt)
		src.PageCount = i + 1
	}
	return src, nil
}

func splitPages(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\f"), "\f")
}
