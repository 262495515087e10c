package pageops

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/source"
)

// Part is one input of an assembly run: a PDF or image together with the
// zero-based pages to take from it, in output order. Images have a single
// page, index 0.
type Part struct {
	Name  string
	Kind  source.Kind
	Data  []byte
	Pages []int
}

// Progress reports how far an assembly run has come.
type Progress struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Status  string `json:"status"`
}

// ProgressFunc receives progress updates. It is called synchronously from
// the assembling goroutine and must not block for long.
type ProgressFunc func(Progress)

// Status messages reported while assembling.
const (
	StatusStarting    = "Merging PDFs..."
	StatusCompressing = "Compressing PDF..."
	StatusSucceeded   = "PDF created successfully!"
	StatusFailed      = "Error merging PDFs"
)

// ProcessingStatus returns the status reported after part k of n.
func ProcessingStatus(k, n int) string {
	return fmt.Sprintf("Processing file %d of %d...", k, n)
}

// Percent returns round(k/n*100).
func Percent(k, n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Round(float64(k) / float64(n) * 100))
}

// AssembleOptions controls an assembly run.
type AssembleOptions struct {
	Compression pdfmerge.CompressionLevel
	Optimize    bool
	Progress    ProgressFunc
	Logger      *slog.Logger
}

// Assemble builds one PDF from parts. Pages are emitted part by part in
// the order given, and within a part in the order of its Pages slice.
// A part with no pages contributes nothing but still counts towards
// progress.
//
// At least two parts are required. Any failure aborts the whole run and
// no bytes are returned.
func Assemble(parts []Part, opts AssembleOptions) ([]byte, error) {
	if len(parts) < 2 {
		return nil, pdfmerge.ErrTooFewFiles
	}
	level := opts.Compression
	if !level.Valid() {
		level = pdfmerge.CompressionMedium
	}
	report := opts.Progress
	if report == nil {
		report = func(Progress) {}
	}

	b := newBuilder(level, opts.Logger)
	n := len(parts)
	for i, p := range parts {
		var err error
		switch {
		case p.Kind == source.KindPDF:
			err = b.addPDF(p.Name, p.Data, p.Pages)
		case p.Kind.IsImage():
			err = b.addImagePart(p)
		default:
			err = pdfmerge.NewMergeError("load", p.Name, pdfmerge.ErrUnsupportedType)
		}
		if err != nil {
			b.log.Error("assembly failed", "file", p.Name, "err", err)
			return nil, err
		}
		report(Progress{Done: i + 1, Total: n, Percent: Percent(i+1, n), Status: ProcessingStatus(i+1, n)})
	}

	report(Progress{Done: n, Total: n, Percent: 100, Status: StatusCompressing})
	out, err := b.output(opts.Optimize)
	if err != nil {
		b.log.Error("assembly failed", "err", err)
		return nil, err
	}
	b.log.Info("document assembled", "files", n, "pages", b.pages, "images", b.images,
		"compression", level, "bytes", len(out))
	return out, nil
}

func (b *builder) addImagePart(p Part) error {
	for _, idx := range p.Pages {
		if idx != 0 {
			return pdfmerge.NewMergeError("copy", p.Name,
				fmt.Errorf("%w: index %d, image has 1 page", pdfmerge.ErrPageOutOfRange, idx))
		}
	}
	if len(p.Pages) == 0 {
		return nil
	}
	for range p.Pages {
		if err := b.addImage(p.Name, p.Data); err != nil {
			return err
		}
	}
	return nil
}
