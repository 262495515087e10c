package preview

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/lvillar/pdfmerge"
)

// FitzRenderer renders PDF pages with MuPDF.
type FitzRenderer struct{}

// FirstPage implements Renderer.
func (FitzRenderer) FirstPage(data []byte, dpi float64) (image.Image, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", pdfmerge.ErrCorrupted, err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, 0, pdfmerge.ErrEmptyDocument
	}
	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return nil, 0, fmt.Errorf("rendering page 1: %w", err)
	}
	return img, n, nil
}
