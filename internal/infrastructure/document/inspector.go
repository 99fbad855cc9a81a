package document

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/garyjia/freelance-billing/internal/application/port"
)

const previewDPI = 96

// Inspector opens PDFs from memory with MuPDF
type Inspector struct{}

func NewInspector() Inspector { return Inspector{} }

func (Inspector) PageCount(pdf []byte) (int, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return n, nil
}

func (Inspector) PreviewPNG(pdf []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(0, previewDPI)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterise first page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

var _ port.DocumentInspector = Inspector{}
