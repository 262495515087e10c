package pageops

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/internal/pdfconf"
)

// PageSize is a page's MediaBox size in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentInfo describes a PDF.
type DocumentInfo struct {
	PageCount int        `json:"page_count"`
	Pages     []PageSize `json:"pages"`
	Size      int64      `json:"size"`
}

// Info reads the page count and page sizes of a PDF.
func Info(data []byte) (*DocumentInfo, error) {
	dims, err := api.PageDims(bytes.NewReader(data), pdfconf.New())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pdfmerge.ErrCorrupted, err)
	}
	info := &DocumentInfo{
		PageCount: len(dims),
		Pages:     make([]PageSize, len(dims)),
		Size:      int64(len(data)),
	}
	for i, d := range dims {
		info.Pages[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return info, nil
}
