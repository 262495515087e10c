package source

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/heic"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/internal/pdfconf"
)

// HEICTranscoder decodes HEIC/HEIF photos and re-encodes them as JPEG.
type HEICTranscoder struct {
	Quality int // JPEG quality, 1-100
}

// Transcode implements Transcoder.
func (t HEICTranscoder) Transcode(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("source: decoding heic: %w", err)
	}
	q := t.Quality
	if q <= 0 || q > 100 {
		q = 90
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("source: encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFPageCounter counts pages with pdfcpu.
type PDFPageCounter struct{}

// PageCount implements PageCounter.
func (PDFPageCounter) PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), pdfconf.New())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", pdfmerge.ErrCorrupted, err)
	}
	return n, nil
}
