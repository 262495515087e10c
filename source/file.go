// Package source turns raw uploads into files the merge workspace can use.
//
// Every upload is classified (PDF, PNG, JPEG or HEIC). HEIC photos are
// transcoded to JPEG, and the page count is determined: one for images,
// the document's page count for PDFs. Uploads that cannot be used are
// reported as rejections naming the file and never enter the workspace.
package source

import "fmt"

// Upload is a file as received from the user, before validation.
type Upload struct {
	Name        string
	ContentType string // declared MIME type, may be empty
	Data        []byte
}

// File is an accepted upload. ID is generated on acceptance and is the
// only stable identity; names may repeat.
type File struct {
	ID            string
	Name          string
	Kind          Kind // kind of Data; JPEG for converted HEIC photos
	ConvertedFrom Kind // original kind when the file was transcoded
	Data          []byte
	PageCount     int
	Width         int // pixel width for images
	Height        int // pixel height for images
}

// Size returns the byte length of the file content.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count for display, e.g. "1.5 KB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := 0
	v := float64(n)
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	s := fmt.Sprintf("%.2f", v)
	// trim trailing zeros: "1.50" -> "1.5", "2.00" -> "2"
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s + " " + sizeUnits[i]
}
