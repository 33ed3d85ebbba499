package pagelines

import (
	"fmt"
	"os"
	"sync"

	pdflib "github.com/ledongthuc/pdf"
)

// usLetterHeight is the fallback page height in points when no MediaBox
// can be located in the page tree.
const usLetterHeight = 792.0

// PDFExtractor reads positioned text fragments from a rendered PDF.
// Fragment intervals are converted to the top-origin coordinate system the
// synchronization tool reports in: [height-(y+fontSize), height-y].
type PDFExtractor struct {
	mu     sync.Mutex
	file   *os.File
	reader *pdflib.Reader
	path   string
}

// OpenPDF opens a rendered document for fragment extraction.
func OpenPDF(path string) (*PDFExtractor, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	return &PDFExtractor{file: f, reader: r, path: path}, nil
}

// Close releases the underlying file.
func (e *PDFExtractor) Close() error {
	return e.file.Close()
}

// NumPages returns the document's page count.
func (e *PDFExtractor) NumPages() int {
	return e.reader.NumPage()
}

// FragmentsForPage extracts the page's text fragments with top-origin
// vertical intervals. Returns ErrNoFragments for out-of-range pages,
// null pages, and pages without extractable text.
func (e *PDFExtractor) FragmentsForPage(pageNum int) ([]Fragment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pageNum < 1 || pageNum > e.reader.NumPage() {
		return nil, fmt.Errorf("page %d of %s: %w", pageNum, e.path, ErrNoFragments)
	}
	page := e.reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d of %s: %w", pageNum, e.path, ErrNoFragments)
	}

	height := pageHeight(page)

	var frags []Fragment
	func() {
		// The underlying content-stream parser panics on some malformed
		// PDFs; treat that the same as missing fragment data.
		defer func() { _ = recover() }()
		content := page.Content()
		for _, t := range content.Text {
			if t.S == "" {
				continue
			}
			top := height - (t.Y + t.FontSize)
			bottom := height - t.Y
			if bottom <= top {
				bottom = top + 1
			}
			frags = append(frags, Fragment{Top: top, Bottom: bottom, Text: t.S})
		}
	}()

	if len(frags) == 0 {
		return nil, fmt.Errorf("page %d of %s: %w", pageNum, e.path, ErrNoFragments)
	}
	return frags, nil
}

// pageHeight reads the page's MediaBox height, walking up the page tree
// for inherited boxes. Falls back to US Letter when absent.
func pageHeight(page pdflib.Page) float64 {
	v := page.V
	for !v.IsNull() {
		box := v.Key("MediaBox")
		if !box.IsNull() && box.Len() == 4 {
			y0 := box.Index(1).Float64()
			y1 := box.Index(3).Float64()
			if h := y1 - y0; h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return usLetterHeight
}
