// Package pageops assembles output documents from pages of existing PDFs
// and from images.
//
// Input PDFs are loaded with pdfcpu to validate them and count their pages.
// The pages are then imported as templates into a new gofpdf document with
// the gofpdi contrib package. Images are re-encoded according to the
// selected compression preset and placed on their own page.
package pageops

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/internal/pdfconf"
)

// A4 page dimensions in points, used when a page has no usable MediaBox
// and as the canvas for image pages.
const (
	a4Width  = 595.28
	a4Height = 841.89
)

// builder accumulates pages into a single output document.
type builder struct {
	pdf    *gofpdf.Fpdf
	imp    *gofpdi.Importer
	level  pdfmerge.CompressionLevel
	log    *slog.Logger
	pages  int
	images int

	// sources holds every imported ReadSeeker until the document is
	// written. gofpdi keys parsed sources by pointer address, so a freed
	// pointer whose address is reused would resolve to an earlier file.
	sources []*io.ReadSeeker
}

func newBuilder(level pdfmerge.CompressionLevel, log *slog.Logger) *builder {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	pdf.SetCreator("pdfmerge", true)
	if log == nil {
		log = slog.Default()
	}
	return &builder{
		pdf:   pdf,
		imp:   gofpdi.NewImporter(),
		level: level,
		log:   log,
	}
}

// addPDF copies the given zero-based pages of data, in the order listed.
func (b *builder) addPDF(name string, data []byte, pages []int) error {
	count, err := pageCount(data)
	if err != nil {
		return pdfmerge.NewMergeError("load", name, err)
	}
	for _, p := range pages {
		if p < 0 || p >= count {
			return pdfmerge.NewMergeError("copy", name,
				fmt.Errorf("%w: index %d, document has %d pages", pdfmerge.ErrPageOutOfRange, p, count))
		}
	}
	if len(pages) == 0 {
		return nil
	}

	rs := new(io.ReadSeeker)
	*rs = bytes.NewReader(data)
	b.sources = append(b.sources, rs)
	for _, p := range pages {
		tplID, w, h, err := b.importPage(rs, p+1)
		if err != nil {
			return pdfmerge.NewMergeError("copy", name, err)
		}
		b.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		b.imp.UseImportedTemplate(b.pdf, tplID, 0, 0, w, h)
		b.pages++
	}
	if b.pdf.Err() {
		return pdfmerge.NewMergeError("copy", name, b.pdf.Error())
	}
	b.log.Debug("pages copied", "file", name, "pages", len(pages))
	return nil
}

// importPage imports a single 1-based page from rs into the output.
// Returns the template ID and page dimensions. The importer panics on
// malformed input; that is turned into an error here.
func (b *builder) importPage(rs *io.ReadSeeker, pageNum int) (tplID int, w, h float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pageops: importing page %d: %v", pageNum, r)
		}
	}()

	tplID = b.imp.ImportPageFromStream(b.pdf, rs, pageNum, "/MediaBox")
	if dims, ok := b.imp.GetPageSizes()[pageNum]; ok {
		if mb, ok := dims["/MediaBox"]; ok {
			w = mb["w"]
			h = mb["h"]
		}
	}
	if w == 0 || h == 0 {
		w, h = a4Width, a4Height
	}
	return tplID, w, h, nil
}

// output serializes the document, optionally passing it through the
// optimizer.
func (b *builder) output(optimize bool) ([]byte, error) {
	if b.pages == 0 {
		return nil, pdfmerge.ErrEmptyDocument
	}
	var buf bytes.Buffer
	if err := b.pdf.Output(&buf); err != nil {
		return nil, pdfmerge.NewMergeError("save", "", err)
	}
	if !optimize {
		return buf.Bytes(), nil
	}
	out, err := optimizePDF(buf.Bytes())
	if err != nil {
		return nil, pdfmerge.NewMergeError("optimize", "", err)
	}
	return out, nil
}

// pageCount loads a PDF and returns its number of pages.
func pageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), pdfconf.New())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", pdfmerge.ErrCorrupted, err)
	}
	return n, nil
}

// optimizePDF runs pdfcpu's optimizer, which drops duplicate fonts, images
// and content streams left over from importing many pages.
func optimizePDF(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, pdfconf.New()); err != nil {
		return nil, fmt.Errorf("pageops: optimizing: %w", err)
	}
	return out.Bytes(), nil
}
