// Package preview renders first-page thumbnails for the files of a merge.
package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/source"
)

// Preview is the thumbnail of a file's first page.
type Preview struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`
	Width     int    `json:"width"`  // thumbnail width in pixels
	Height    int    `json:"height"` // thumbnail height in pixels
	Thumbnail []byte `json:"-"`      // PNG
}

// DataURL returns the thumbnail as a data URI string.
func (p Preview) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(p.Thumbnail)
}

// Renderer rasterizes the first page of a PDF.
type Renderer interface {
	// FirstPage returns the rendered first page and the document's page count.
	FirstPage(data []byte, dpi float64) (image.Image, int, error)
}

// Generator produces previews for a list of files.
type Generator struct {
	renderer Renderer
	dpi      float64
	width    uint
	workers  int
	log      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithRenderer replaces the PDF renderer.
func WithRenderer(r Renderer) Option {
	return func(g *Generator) { g.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// NewGenerator creates a Generator using the preview settings of cfg.
func NewGenerator(cfg pdfmerge.Config, opts ...Option) *Generator {
	g := &Generator{
		renderer: FitzRenderer{},
		dpi:      cfg.PreviewDPI,
		width:    cfg.ThumbnailWidth,
		workers:  cfg.PreviewWorkers,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.workers < 1 {
		g.workers = 1
	}
	return g
}

// Generate renders one preview per file, concurrently, and returns them in
// the order of files. The first failure cancels the remaining work and no
// previews are returned.
func (g *Generator) Generate(ctx context.Context, files []source.File) ([]Preview, error) {
	out := make([]Preview, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i, f := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := g.one(f)
			if err != nil {
				return pdfmerge.NewMergeError("preview", f.Name, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.log.Error("preview generation failed", "err", err)
		return nil, err
	}
	g.log.Debug("previews generated", "files", len(files))
	return out, nil
}

func (g *Generator) one(f source.File) (Preview, error) {
	var (
		img   image.Image
		pages int
		err   error
	)
	switch {
	case f.Kind == source.KindPDF:
		img, pages, err = g.renderer.FirstPage(f.Data, g.dpi)
	case f.Kind.IsImage():
		img, _, err = image.Decode(bytes.NewReader(f.Data))
		pages = 1
	default:
		err = pdfmerge.ErrUnsupportedType
	}
	if err != nil {
		return Preview{}, err
	}

	thumb := resize.Thumbnail(g.width, g.width*3/2, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return Preview{}, fmt.Errorf("encoding thumbnail: %w", err)
	}
	b := thumb.Bounds()
	return Preview{
		ID:        f.ID,
		Name:      f.Name,
		PageCount: pages,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Thumbnail: buf.Bytes(),
	}, nil
}
