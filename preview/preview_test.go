package preview_test

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/internal/testutil"
	"github.com/lvillar/pdfmerge/preview"
	"github.com/lvillar/pdfmerge/source"
)

// fakeRenderer returns a blank page for every document. Documents whose
// content is "fail" produce an error.
type fakeRenderer struct {
	pages int
	calls atomic.Int32
}

func (r *fakeRenderer) FirstPage(data []byte, _ float64) (image.Image, int, error) {
	r.calls.Add(1)
	if string(data) == "fail" {
		return nil, 0, errors.New("cannot render")
	}
	img := image.NewRGBA(image.Rect(0, 0, 600, 800))
	for y := 0; y < 800; y++ {
		for x := 0; x < 600; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img, r.pages, nil
}

func newGenerator(r preview.Renderer) *preview.Generator {
	return preview.NewGenerator(pdfmerge.NewConfig(pdfmerge.WithThumbnailWidth(100)), preview.WithRenderer(r))
}

func TestGenerateKeepsOrder(t *testing.T) {
	r := &fakeRenderer{pages: 7}
	g := newGenerator(r)

	files := []source.File{
		{ID: "1", Name: "a.pdf", Kind: source.KindPDF, Data: []byte("pdf")},
		{ID: "2", Name: "b.png", Kind: source.KindPNG, Data: testutil.PNG(t, 400, 200)},
		{ID: "3", Name: "c.pdf", Kind: source.KindPDF, Data: []byte("pdf")},
		{ID: "4", Name: "d.jpg", Kind: source.KindJPEG, Data: testutil.JPEG(t, 50, 50)},
	}
	got, err := g.Generate(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, got, 4)

	for i, p := range got {
		assert.Equal(t, files[i].ID, p.ID)
		assert.Equal(t, files[i].Name, p.Name)
		assert.NotEmpty(t, p.Thumbnail)
		assert.LessOrEqual(t, p.Width, 100)
	}
	assert.Equal(t, 7, got[0].PageCount)
	assert.Equal(t, 1, got[1].PageCount)
	assert.Equal(t, 100, got[1].Width)
	assert.Equal(t, 50, got[1].Height)
	assert.Equal(t, 50, got[3].Width, "small images are not enlarged")
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestGenerateFailureReturnsNothing(t *testing.T) {
	g := newGenerator(&fakeRenderer{pages: 1})
	got, err := g.Generate(context.Background(), []source.File{
		{ID: "1", Name: "ok.pdf", Kind: source.KindPDF, Data: []byte("pdf")},
		{ID: "2", Name: "bad.pdf", Kind: source.KindPDF, Data: []byte("fail")},
	})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "bad.pdf")
}

func TestGenerateUnsupportedKind(t *testing.T) {
	g := newGenerator(&fakeRenderer{})
	_, err := g.Generate(context.Background(), []source.File{{ID: "1", Name: "x", Kind: source.KindUnknown}})
	assert.ErrorIs(t, err, pdfmerge.ErrUnsupportedType)
}

func TestGenerateEmpty(t *testing.T) {
	got, err := newGenerator(&fakeRenderer{}).Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDataURL(t *testing.T) {
	p := preview.Preview{Thumbnail: []byte{0x89, 'P', 'N', 'G'}}
	url := p.DataURL()
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, p.Thumbnail, raw)
}
