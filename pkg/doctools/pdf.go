package doctools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// Endpoint paths, relative to the client base URL.
const (
	PathImages    = "/pdf/images"
	PathThumbnail = "/pdf/thumbnail"
	PathOCR       = "/pdf/ocr"

	pdfMIMEMarker = "@file/pdf"
	pdfMIMEType   = "application/pdf"

	// DefaultImagesResolution applies to both image conversion variants.
	DefaultImagesResolution = 300
	// DefaultThumbnailPathResolution applies when the thumbnail source is a file path.
	DefaultThumbnailPathResolution = 300
	// DefaultThumbnailBytesResolution applies when the thumbnail source is raw bytes.
	DefaultThumbnailBytesResolution = 25
	// DefaultOutput is the image format used when ImageOptions.Output is empty.
	DefaultOutput = "png"
)

var (
	// ErrFileNotFound is returned when a path does not name a readable file.
	ErrFileNotFound = errors.New("file not found")
	// ErrNotPDF is returned when a file's sniffed content type is not application/pdf.
	ErrNotPDF = errors.New("file is not pdf")
)

// Requester is the transport surface PDFTools needs; *Client satisfies it.
type Requester interface {
	Request(ctx context.Context, path, method string, headers map[string]string, payload []byte) (*Response, error)
}

// ImageOptions controls rasterization. Zero fields take the operation's defaults.
type ImageOptions struct {
	Resolution int
	Output     string
}

func (o ImageOptions) withDefaults(resolution int) ImageOptions {
	if o.Resolution <= 0 {
		o.Resolution = resolution
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	return o
}

type fileRef struct {
	Data string `json:"data"`
	Mime string `json:"mime"`
}

type envelope struct {
	File       fileRef `json:"file"`
	Resolution int     `json:"resolution,omitempty"`
	Output     string  `json:"output,omitempty"`
}

func newEnvelope(data []byte) envelope {
	return envelope{File: fileRef{
		Data: base64.StdEncoding.EncodeToString(data),
		Mime: pdfMIMEMarker,
	}}
}

// PDFTools exposes the PDF endpoints of the document tools API.
type PDFTools struct {
	client Requester
}

// NewPDFTools wraps a transport client.
func NewPDFTools(client Requester) *PDFTools {
	return &PDFTools{client: client}
}

// ImagesFromPath rasterizes every page of the PDF at path.
func (p *PDFTools) ImagesFromPath(ctx context.Context, path string, opts ImageOptions) (*Response, error) {
	data, err := readPDF(path)
	if err != nil {
		return nil, err
	}
	return p.ImagesFromBytes(ctx, data, opts.withDefaults(DefaultImagesResolution))
}

// ImagesFromBytes rasterizes every page of the in-memory PDF.
func (p *PDFTools) ImagesFromBytes(ctx context.Context, data []byte, opts ImageOptions) (*Response, error) {
	opts = opts.withDefaults(DefaultImagesResolution)
	env := newEnvelope(data)
	env.Resolution = opts.Resolution
	env.Output = opts.Output
	return p.post(ctx, PathImages, env)
}

// ThumbnailFromPath renders a thumbnail of the PDF at path, 300 dpi by default.
func (p *PDFTools) ThumbnailFromPath(ctx context.Context, path string, opts ImageOptions) (*Response, error) {
	data, err := readPDF(path)
	if err != nil {
		return nil, err
	}
	return p.ThumbnailFromBytes(ctx, data, opts.withDefaults(DefaultThumbnailPathResolution))
}

// ThumbnailFromBytes renders a thumbnail of the in-memory PDF, 25 dpi by default.
func (p *PDFTools) ThumbnailFromBytes(ctx context.Context, data []byte, opts ImageOptions) (*Response, error) {
	opts = opts.withDefaults(DefaultThumbnailBytesResolution)
	env := newEnvelope(data)
	env.Resolution = opts.Resolution
	env.Output = opts.Output
	return p.post(ctx, PathThumbnail, env)
}

// OCRFromPath extracts text from the PDF at path.
func (p *PDFTools) OCRFromPath(ctx context.Context, path string) (*Response, error) {
	data, err := readPDF(path)
	if err != nil {
		return nil, err
	}
	return p.OCRFromBytes(ctx, data)
}

// OCRFromBytes extracts text from the in-memory PDF.
func (p *PDFTools) OCRFromBytes(ctx context.Context, data []byte) (*Response, error) {
	return p.post(ctx, PathOCR, newEnvelope(data))
}

func (p *PDFTools) post(ctx context.Context, path string, env envelope) (*Response, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", path, err)
	}
	return p.client.Request(ctx, path, http.MethodPost, nil, body)
}

// readPDF reads path once and sniffs the content it read.
func readPDF(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w in path: %s", ErrFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w in path: %s", ErrFileNotFound, path)
	}

	if mime := mimetype.Detect(data); !mime.Is(pdfMIMEType) {
		return nil, fmt.Errorf("%w: %s (detected %s)", ErrNotPDF, path, mime.String())
	}
	return data, nil
}
