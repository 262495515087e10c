package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG for DecodeConfig
	_ "image/png"  // register PNG for DecodeConfig
	"log/slog"

	"github.com/google/uuid"

	"github.com/lvillar/pdfmerge"
)

// Transcoder converts a photo that cannot be embedded directly into JPEG.
type Transcoder interface {
	Transcode(ctx context.Context, data []byte) ([]byte, error)
}

// PageCounter reports how many pages a PDF document has.
type PageCounter interface {
	PageCount(data []byte) (int, error)
}

// Rejection describes an upload that was excluded from the workspace.
type Rejection struct {
	Name string
	Err  error
}

// Message is the user-facing notification for the rejection. It always
// names the file.
func (r Rejection) Message() string {
	switch {
	case errors.Is(r.Err, pdfmerge.ErrConversion):
		return fmt.Sprintf("%s could not be converted and was not added.", r.Name)
	case errors.Is(r.Err, pdfmerge.ErrUnsupportedType):
		return fmt.Sprintf("%s is not a PDF, PNG, JPEG or HEIC file and was not added.", r.Name)
	default:
		return fmt.Sprintf("%s could not be read and was not added.", r.Name)
	}
}

func (r Rejection) Error() string {
	return fmt.Sprintf("source: %s: %v", r.Name, r.Err)
}

func (r Rejection) Unwrap() error {
	return r.Err
}

// Intake validates and normalizes uploads.
type Intake struct {
	transcoder Transcoder
	counter    PageCounter
	log        *slog.Logger
}

// IntakeOption configures an Intake.
type IntakeOption func(*Intake)

// WithTranscoder replaces the HEIC transcoder.
func WithTranscoder(t Transcoder) IntakeOption {
	return func(in *Intake) {
		in.transcoder = t
	}
}

// WithPageCounter replaces the PDF page counter.
func WithPageCounter(c PageCounter) IntakeOption {
	return func(in *Intake) {
		in.counter = c
	}
}

// WithLogger sets the logger used to report rejected uploads.
func WithLogger(l *slog.Logger) IntakeOption {
	return func(in *Intake) {
		in.log = l
	}
}

// NewIntake creates an Intake backed by the HEIC decoder and pdfcpu unless
// overridden by options.
func NewIntake(opts ...IntakeOption) *Intake {
	in := &Intake{
		transcoder: HEICTranscoder{Quality: 90},
		counter:    PDFPageCounter{},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Accept processes uploads in order. Accepted files keep the submission
// order; every other upload yields exactly one Rejection.
func (in *Intake) Accept(ctx context.Context, uploads []Upload) ([]File, []Rejection) {
	var (
		files    []File
		rejected []Rejection
	)
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			rejected = append(rejected, Rejection{Name: u.Name, Err: err})
			continue
		}
		f, err := in.accept(ctx, u)
		if err != nil {
			in.log.Warn("upload rejected", "file", u.Name, "error", err)
			rejected = append(rejected, Rejection{Name: u.Name, Err: err})
			continue
		}
		in.log.Debug("upload accepted", "file", f.Name, "id", f.ID, "kind", f.Kind, "pages", f.PageCount)
		files = append(files, f)
	}
	return files, rejected
}

func (in *Intake) accept(ctx context.Context, u Upload) (File, error) {
	f := File{
		ID:   uuid.NewString(),
		Name: u.Name,
		Kind: DetectKind(u.Name, u.ContentType, u.Data),
		Data: u.Data,
	}

	switch f.Kind {
	case KindPDF:
		n, err := in.counter.PageCount(f.Data)
		if err != nil {
			return File{}, pdfmerge.NewMergeError("load", f.Name, err)
		}
		f.PageCount = n
		return f, nil

	case KindHEIC:
		converted, err := in.transcoder.Transcode(ctx, f.Data)
		if err != nil {
			return File{}, fmt.Errorf("%w: %v", pdfmerge.ErrConversion, err)
		}
		f.ConvertedFrom = KindHEIC
		f.Kind = KindJPEG
		f.Data = converted
		fallthrough

	case KindPNG, KindJPEG:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
		if err != nil {
			if f.ConvertedFrom == KindHEIC {
				return File{}, fmt.Errorf("%w: %v", pdfmerge.ErrConversion, err)
			}
			return File{}, pdfmerge.NewMergeError("decode", f.Name, err)
		}
		f.Width, f.Height = cfg.Width, cfg.Height
		f.PageCount = 1
		return f, nil
	}

	return File{}, pdfmerge.ErrUnsupportedType
}
