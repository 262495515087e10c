// Package testutil builds in-memory PDF and image fixtures for tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/lvillar/pdfmerge/internal/pdfconf"
)

// Size is a page size in points.
type Size = gofpdf.SizeType

// PDF generates a document with one page per size. Each page carries a
// "Page n" label so documents are not empty.
func PDF(t testing.TB, sizes ...Size) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 14)
	for i, s := range sizes {
		pdf.AddPageFormat("P", s)
		pdf.Text(20, 30, fmt.Sprintf("Page %d of %d", i+1, len(sizes)))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("creating test PDF: %v", err)
	}
	return buf.Bytes()
}

// PDFPages generates an A4 document with n pages.
func PDFPages(t testing.TB, n int) []byte {
	t.Helper()
	sizes := make([]Size, n)
	for i := range sizes {
		sizes[i] = Size{Wd: 595.28, Ht: 841.89}
	}
	return PDF(t, sizes...)
}

// DistinctSizes returns n portrait page sizes whose widths differ, so pages
// can be told apart after merging. Width of page i is base+10*i.
func DistinctSizes(base float64, n int) []Size {
	sizes := make([]Size, n)
	for i := range sizes {
		sizes[i] = Size{Wd: base + 10*float64(i), Ht: 800}
	}
	return sizes
}

// PageDims returns the MediaBox dimensions of every page in data.
func PageDims(t testing.TB, data []byte) []types.Dim {
	t.Helper()
	dims, err := api.PageDims(bytes.NewReader(data), pdfconf.New())
	if err != nil {
		t.Fatalf("reading page dimensions: %v", err)
	}
	return dims
}

// PageCount returns the number of pages in data.
func PageCount(t testing.TB, data []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(data), pdfconf.New())
	if err != nil {
		t.Fatalf("reading page count: %v", err)
	}
	return n
}

func gradient(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

// PNG returns a w×h PNG image.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// JPEG returns a w×h JPEG image.
func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}
