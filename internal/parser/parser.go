// Package parser loads input files into a doctree.Source: per-page text,
// detected tables and the text lying outside those tables.
package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/syllabest/internal/doctree"
)

var (
	// ErrUnsupported is returned for a file extension no parser handles.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrNotPDF is returned when a .pdf file lacks the PDF header.
	ErrNotPDF = errors.New("not a PDF file")
)

// Parser converts raw document bytes into a Source.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Source, error)
}

// Options tune the parsers built by ForFile.
type Options struct {
	// Pdftotext enables the pdftotext command as a fallback when the PDF
	// library cannot open a file.
	Pdftotext bool
	Log       *slog.Logger
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.Pdftotext, Log: opts.Log}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Load parses r with the parser matching filename.
func Load(r io.Reader, filename string, opts Options) (*doctree.Source, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	src, err := p.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	src.Name = filepath.Base(filename)
	return src, nil
}

// LoadFile opens path and parses it.
func LoadFile(path string, opts Options) (*doctree.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return Load(f, path, opts)
}

// Stem returns the base name of filename without its extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
