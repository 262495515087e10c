package pageops

import (
	"fmt"
	"io"

	"github.com/lvillar/pdfmerge"
)

// ExtractPages copies specific pages of a PDF into a new document written
// to w. Page numbers are 1-based and may repeat.
func ExtractPages(w io.Writer, data []byte, pages ...int) error {
	if len(pages) == 0 {
		return fmt.Errorf("pageops: no pages specified")
	}

	indexes := make([]int, len(pages))
	for i, p := range pages {
		indexes[i] = p - 1
	}

	b := newBuilder(pdfmerge.CompressionMedium, nil)
	if err := b.addPDF("input", data, indexes); err != nil {
		return err
	}
	return writeTo(b, w)
}

// ExtractPageRange extracts a range of pages (inclusive, 1-based).
func ExtractPageRange(w io.Writer, data []byte, start, end int) error {
	if start < 1 || end < start {
		return fmt.Errorf("pageops: invalid page range [%d, %d]", start, end)
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return ExtractPages(w, data, pages...)
}
