package pageops

import (
	"fmt"
	"io"
	"os"

	"github.com/lvillar/pdfmerge"
)

// Merge combines whole PDF documents and writes the result to w.
// Pages are added in order: all pages from the first document, then all
// from the second, etc.
func Merge(w io.Writer, inputs ...[]byte) error {
	if len(inputs) == 0 {
		return fmt.Errorf("pageops: no input documents provided")
	}

	b := newBuilder(pdfmerge.CompressionMedium, nil)
	for i, data := range inputs {
		if err := appendAll(b, fmt.Sprintf("document %d", i+1), data); err != nil {
			return err
		}
	}
	return writeTo(b, w)
}

// MergeFiles combines multiple PDF files into a single output file.
func MergeFiles(outputPath string, inputPaths ...string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("pageops: no input files provided")
	}

	b := newBuilder(pdfmerge.CompressionMedium, nil)
	for _, path := range inputPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("pageops: reading %s: %w", path, err)
		}
		if err := appendAll(b, path, data); err != nil {
			return err
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("pageops: creating %s: %w", outputPath, err)
	}
	if err := writeTo(b, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// appendAll imports every page of a document.
func appendAll(b *builder, name string, data []byte) error {
	n, err := pageCount(data)
	if err != nil {
		return pdfmerge.NewMergeError("load", name, err)
	}
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i
	}
	return b.addPDF(name, data, pages)
}

func writeTo(b *builder, w io.Writer) error {
	data, err := b.output(false)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
