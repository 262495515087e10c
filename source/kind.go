package source

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

// Kind is the declared content kind of an uploaded file.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindPNG
	KindJPEG
	KindHEIC
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindPNG:
		return "png"
	case KindJPEG:
		return "jpeg"
	case KindHEIC:
		return "heic"
	default:
		return "unknown"
	}
}

// MIMEType returns the canonical MIME type for the kind.
func (k Kind) MIMEType() string {
	switch k {
	case KindPDF:
		return "application/pdf"
	case KindPNG:
		return "image/png"
	case KindJPEG:
		return "image/jpeg"
	case KindHEIC:
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}

// IsImage reports whether the kind is embedded as a single image page.
func (k Kind) IsImage() bool {
	return k == KindPNG || k == KindJPEG || k == KindHEIC
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name. Unrecognized names yield KindUnknown.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = KindUnknown
	for _, c := range []Kind{KindPDF, KindPNG, KindJPEG, KindHEIC} {
		if c.String() == string(text) {
			*k = c
		}
	}
	return nil
}

var mimeKinds = map[string]Kind{
	"application/pdf":     KindPDF,
	"application/x-pdf":   KindPDF,
	"image/png":           KindPNG,
	"image/jpeg":          KindJPEG,
	"image/jpg":           KindJPEG,
	"image/pjpeg":         KindJPEG,
	"image/heic":          KindHEIC,
	"image/heif":          KindHEIC,
	"image/heic-sequence": KindHEIC,
}

var extKinds = map[string]Kind{
	".pdf":  KindPDF,
	".png":  KindPNG,
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".heic": KindHEIC,
	".heif": KindHEIC,
}

// DetectKind resolves the kind of an upload. The declared MIME type wins,
// then the file extension, then content sniffing.
func DetectKind(name, declared string, data []byte) Kind {
	if declared != "" {
		mt := strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
		if k, ok := mimeKinds[mt]; ok {
			return k
		}
	}
	if k, ok := extKinds[strings.ToLower(filepath.Ext(name))]; ok {
		return k
	}
	return sniff(data)
}

func sniff(data []byte) Kind {
	if isHEIC(data) {
		return KindHEIC
	}
	if k, ok := mimeKinds[http.DetectContentType(data)]; ok {
		return k
	}
	return KindUnknown
}

// isHEIC checks for an ISO-BMFF ftyp box with a HEIF brand.
func isHEIC(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1":
		return true
	}
	return false
}
