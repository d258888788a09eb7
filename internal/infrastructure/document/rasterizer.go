package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/domain/entity"
)

// ErrNotPDF is returned when the document is not a PDF
var ErrNotPDF = errors.New("document is not a PDF")

// ErrNoPages is returned when no page could be rendered
var ErrNoPages = errors.New("no pages rendered from PDF")

// Rasterizer renders PDF pages to JPEG with mupdf
type Rasterizer struct {
	quality int
	dpi     float64
	logger  *zap.Logger
}

// NewRasterizer creates a rasterizer. quality is the JPEG quality (1-100), dpi the render resolution.
func NewRasterizer(quality int, dpi float64, logger *zap.Logger) *Rasterizer {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if dpi <= 0 {
		dpi = 150
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rasterizer{quality: quality, dpi: dpi, logger: logger}
}

// Rasterize renders up to maxPages pages of doc. Pages that fail to render are skipped.
func (r *Rasterizer) Rasterize(ctx context.Context, doc *entity.Document, maxPages int) ([][]byte, error) {
	if doc == nil || !doc.IsPDF() {
		return nil, ErrNotPDF
	}

	pdf, err := fitz.NewFromMemory(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", doc.Name, err)
	}
	defer pdf.Close()

	total := pdf.NumPage()
	limit := pageLimit(total, maxPages)

	r.logger.Debug("Rasterizing PDF",
		zap.String("name", doc.Name),
		zap.Int("total_pages", total),
		zap.Int("rendered_pages", limit))

	pages := make([][]byte, 0, limit)
	for n := 0; n < limit; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := pdf.ImageDPI(n, r.dpi)
		if err != nil {
			r.logger.Warn("Failed to render page", zap.Int("page", n), zap.Error(err))
			continue
		}

		data, err := r.encodeJPEG(img)
		if err != nil {
			r.logger.Warn("Failed to encode page to JPEG", zap.Int("page", n), zap.Error(err))
			continue
		}
		pages = append(pages, data)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, doc.Name)
	}
	return pages, nil
}

func (r *Rasterizer) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pageLimit caps the page count; maxPages <= 0 renders every page
func pageLimit(total, maxPages int) int {
	if maxPages <= 0 || maxPages > total {
		return total
	}
	return maxPages
}
