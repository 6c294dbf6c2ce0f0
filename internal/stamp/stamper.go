// Package stamp composites signature images onto PDF pages with pdfcpu.
package stamp

import (
	"bytes"
	"context"
	"fmt"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"kpp-siprima/internal/model"
	"math"
)

func init() {
	api.DisableConfigDir()
}

// Stamper draws the signature image inside the placement box, scaled to fit
// and centered, with the aspect ratio of the image preserved.
type Stamper struct {
	opacity float64
}

func NewStamper(opacity float64) *Stamper {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return &Stamper{opacity: opacity}
}

func (s *Stamper) configuration() *pdfmodel.Configuration {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return conf
}

// PageCount : number of pages, a broken file is a ValidationError
func (s *Stamper) PageCount(ctx context.Context, source []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := api.PageCount(bytes.NewReader(source), s.configuration())
	if err != nil {
		return 0, model.NewValidationError("document is not a readable PDF", err)
	}
	if count < 1 {
		return 0, model.NewValidationError("document has no pages", nil)
	}
	return count, nil
}

// PageSize : visible width and height of a 1-based page in points. The
// visible area is the CropBox (MediaBox when absent) with /Rotate applied.
func (s *Stamper) PageSize(ctx context.Context, source []byte, page int) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	pdfCtx, err := api.ReadAndValidate(bytes.NewReader(source), s.configuration())
	if err != nil {
		return 0, 0, model.NewValidationError("document is not a readable PDF", err)
	}
	boundaries, err := pdfCtx.PageBoundaries(nil)
	if err != nil {
		return 0, 0, model.NewValidationError("document page boxes are unreadable", err)
	}
	if page < 1 || page > len(boundaries) {
		return 0, 0, model.NewValidationError(fmt.Sprintf("page %d is out of range 1..%d", page, len(boundaries)), nil)
	}

	box := boundaries[page-1].CropBox()
	if box == nil || box.Width() <= 0 || box.Height() <= 0 {
		return 0, 0, model.NewValidationError(fmt.Sprintf("page %d has no page box", page), nil)
	}
	width, height := box.Width(), box.Height()
	if boundaries[page-1].Rot%180 != 0 {
		width, height = height, width
	}
	return width, height, nil
}

// Stamp returns a copy of source with the image drawn on placement.Page.
// The placement is measured from the top-left corner of the visible page.
// pdfcpu bakes /Rotate into the page content before the stamp is drawn.
func (s *Stamper) Stamp(ctx context.Context, source []byte, signature []byte, placement model.Placement) ([]byte, error) {
	if err := placement.Validate(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(signature))
	if err != nil {
		return nil, model.NewValidationError("signature image is not a readable image", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, model.NewValidationError("signature image is empty", nil)
	}

	if _, _, err := s.PageSize(ctx, source, placement.Page); err != nil {
		return nil, err
	}

	description := watermarkDescription(placement, cfg.Width, cfg.Height, s.opacity)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(signature), description, true, false, types.POINTS)
	if err != nil {
		return nil, model.NewProcessingError("failed to prepare signature stamp", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	pages := []string{fmt.Sprintf("%d", placement.Page)}
	if err := api.AddWatermarks(bytes.NewReader(source), &out, pages, wm, s.configuration()); err != nil {
		return nil, model.NewProcessingError("failed to stamp signature onto the document", err)
	}

	return out.Bytes(), nil
}

// watermarkDescription : pdfcpu stamp parameters fitting an imageWidth x
// imageHeight image inside the placement box, centered. The offset of a
// top-left anchored stamp grows upward, hence the negative y.
func watermarkDescription(placement model.Placement, imageWidth, imageHeight int, opacity float64) string {
	scale := math.Min(placement.Width/float64(imageWidth), placement.Height/float64(imageHeight))
	drawnWidth := float64(imageWidth) * scale
	drawnHeight := float64(imageHeight) * scale

	left := placement.X + (placement.Width-drawnWidth)/2
	top := placement.Y + (placement.Height-drawnHeight)/2

	return fmt.Sprintf("position:tl, offset:%.4f %.4f, scalefactor:%.6f abs, rotation:0, opacity:%.2f",
		left, -top, scale, opacity)
}
