package pageops

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/draw"

	"github.com/lvillar/pdfmerge"
)

// recompress decodes an image, scales it down so neither side exceeds the
// level's maximum dimension, flattens transparency onto white and encodes
// it as JPEG at the level's quality.
func recompress(data []byte, level pdfmerge.CompressionLevel) ([]byte, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding image: %w", err)
	}

	sb := src.Bounds()
	w, h := fitWithin(sb.Dx(), sb.Dy(), level.MaxImageDimension())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)

	var buf bytes.Buffer
	q := int(level.Quality() * 100)
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: q}); err != nil {
		return nil, 0, 0, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// fitWithin scales w×h down, keeping the aspect ratio, so neither side is
// larger than limit. Sizes already within the limit are returned as is.
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		return limit, max(nh, 1)
	}
	nw := w * limit / h
	return max(nw, 1), limit
}

// addImage places an image on a new A4 page, portrait or landscape to
// match the image, scaled to fit and centered.
func (b *builder) addImage(name string, data []byte) error {
	jpg, w, h, err := recompress(data, b.level)
	if err != nil {
		return pdfmerge.NewMergeError("image", name, err)
	}

	pageW, pageH := a4Width, a4Height
	orientation := "P"
	if w > h {
		pageW, pageH = a4Height, a4Width
		orientation = "L"
	}
	scale := min(pageW/float64(w), pageH/float64(h))
	drawW, drawH := float64(w)*scale, float64(h)*scale

	imgName := "img-" + uuid.NewString()
	b.pdf.RegisterImageOptionsReader(imgName, gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(jpg))
	b.pdf.AddPageFormat(orientation, gofpdf.SizeType{Wd: a4Width, Ht: a4Height})
	b.pdf.ImageOptions(imgName, (pageW-drawW)/2, (pageH-drawH)/2, drawW, drawH, false,
		gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	if b.pdf.Err() {
		return pdfmerge.NewMergeError("image", name, b.pdf.Error())
	}
	b.pages++
	b.images++
	return nil
}
