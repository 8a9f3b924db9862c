package service

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"pdf-extract-viewer/internal/domain"
	apperrors "pdf-extract-viewer/pkg/errors"

	"github.com/gen2brain/go-fitz"
)

const baseDPI = 72

// FitzRasterizer renders PDF pages to PNG buffers with go-fitz. A scale of
// 2.0 renders at 144 DPI, enough for legible zoomed previews.
type FitzRasterizer struct {
	scale  float64
	logger domain.Logger
}

func NewFitzRasterizer(scale float64, logger domain.Logger) *FitzRasterizer {
	if scale < 2.0 {
		scale = 2.0
	}
	return &FitzRasterizer{
		scale:  scale,
		logger: logger,
	}
}

// RasterizePDF converts each page of the PDF into a PNG buffer, in page
// order. A corrupt or unreadable PDF returns a conversion error; callers
// degrade to a preview-less document rather than aborting the upload.
func (r *FitzRasterizer) RasterizePDF(ctx context.Context, pdf []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, apperrors.NewConversionError("failed to open PDF", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	if numPages == 0 {
		return nil, apperrors.NewConversionError("PDF has no pages", nil)
	}

	dpi := baseDPI * r.scale
	pages := make([][]byte, 0, numPages)

	for pageNum := 0; pageNum < numPages; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		r.logger.Debug("Rasterizing page", "page", pageNum+1, "total", numPages)

		img, err := doc.ImageDPI(pageNum, dpi)
		if err != nil {
			return nil, apperrors.NewConversionError(
				fmt.Sprintf("failed to render page %d", pageNum+1), err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, apperrors.NewConversionError(
				fmt.Sprintf("failed to encode page %d", pageNum+1), err)
		}
		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}

// PageCount opens the PDF in memory and counts pages without rendering
// anything. Used for pre-flight validation before any network call.
func (r *FitzRasterizer) PageCount(pdf []byte) (int, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return 0, apperrors.NewConversionError("failed to open PDF", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}
