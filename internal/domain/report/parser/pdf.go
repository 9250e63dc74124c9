// Package parser extracts product rows from Curva ABC (Lince) PDF reports.
// pdf.go turns positioned PDF text fragments into plain text lines; lince.go
// recognizes the report's product rows inside those lines.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF indicates the uploaded bytes are not a PDF document.
var ErrNotPDF = errors.New("file is not a PDF document")

// Extraction holds the text lines recovered from a PDF document.
type Extraction struct {
	Lines     []string // Visual text lines in page order, top to bottom
	PageCount int
}

// IsPDF checks the %PDF- magic bytes.
func IsPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// ExtractLines reads a PDF from memory and reconstructs its visual text lines.
// Fragments are grouped into lines by Y coordinate and ordered by X, since the
// report's columns arrive as separate positioned fragments. Pages that fail to
// decode are skipped rather than failing the whole document.
func ExtractLines(data []byte) (extraction *Extraction, err error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}

	// The pdf library panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			extraction = nil
			err = fmt.Errorf("failed to decode PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	result := &Extraction{PageCount: reader.NumPage()}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		texts := pageTexts(page)
		result.Lines = append(result.Lines, groupIntoLines(texts)...)
	}

	return result, nil
}

// pageTexts reads the positioned fragments of one page, recovering from
// panics the pdf library raises on malformed content streams.
func pageTexts(page pdf.Page) (texts []pdf.Text) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
		}
	}()
	return page.Content().Text
}

type textLine struct {
	y         float64
	fragments []pdf.Text
}

// groupIntoLines clusters fragments whose Y coordinates fall within a small
// tolerance, then joins each cluster left to right.
func groupIntoLines(texts []pdf.Text) []string {
	const tolerance = 2.0

	var lines []textLine
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}

		placed := false
		for i := range lines {
			if abs(lines[i].y-t.Y) < tolerance {
				lines[i].fragments = append(lines[i].fragments, t)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, textLine{y: t.Y, fragments: []pdf.Text{t}})
		}
	}

	// PDF origin is bottom-left: larger Y means higher on the page.
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].y > lines[j].y
	})

	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		sort.SliceStable(ln.fragments, func(i, j int) bool {
			return ln.fragments[i].X < ln.fragments[j].X
		})

		var b strings.Builder
		prevEnd := -1.0
		for _, frag := range ln.fragments {
			// Fragments of a single word can arrive split; only insert a
			// space when there is a real horizontal gap.
			if b.Len() > 0 && (prevEnd < 0 || frag.X-prevEnd > 1.0) {
				b.WriteByte(' ')
			}
			b.WriteString(frag.S)
			prevEnd = frag.X + frag.W
		}
		out = append(out, b.String())
	}

	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
