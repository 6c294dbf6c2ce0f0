package render

import (
	"bytes"
	"context"
	"fmt"
	"github.com/digitorus/pdf"
	"image"
	"image/color"
	"image/draw"
)

// maxTreeDepth guards the Parent walk against cyclic page trees.
const maxTreeDepth = 32

// parsePages reads every page's visible box. The pdf reader panics on some
// malformed inputs, which are reported as errors.
func parsePages(source []byte) (pages []PageBox, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return nil, err
	}

	count := reader.NumPage()
	pages = make([]PageBox, 0, count)
	for n := 1; n <= count; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			return nil, fmt.Errorf("page %d is missing from the page tree", n)
		}
		box, err := pageBox(page.V)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		pages = append(pages, box)
	}
	return pages, nil
}

// pageBox : CropBox (or MediaBox) size with /Rotate applied
func pageBox(page pdf.Value) (PageBox, error) {
	rect := inherited(page, "CropBox")
	if rect.Kind() != pdf.Array || rect.Len() != 4 {
		rect = inherited(page, "MediaBox")
	}
	if rect.Kind() != pdf.Array || rect.Len() != 4 {
		return PageBox{}, fmt.Errorf("no MediaBox")
	}

	width := abs(rect.Index(2).Float64() - rect.Index(0).Float64())
	height := abs(rect.Index(3).Float64() - rect.Index(1).Float64())
	if width <= 0 || height <= 0 {
		return PageBox{}, fmt.Errorf("empty page box")
	}

	rotate := inherited(page, "Rotate").Int64() % 360
	if rotate < 0 {
		rotate += 360
	}
	if rotate == 90 || rotate == 270 {
		width, height = height, width
	}
	return PageBox{Width: width, Height: height}, nil
}

func inherited(node pdf.Value, key string) pdf.Value {
	for depth := 0; depth < maxTreeDepth && !node.IsNull(); depth++ {
		if v := node.Key(key); !v.IsNull() {
			return v
		}
		node = node.Key("Parent")
	}
	return pdf.Value{}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// BlankRasterizer paints an opaque white page. Page content rasterization
// needs a native renderer and is plugged in through WithRasterizer.
type BlankRasterizer struct{}

func (BlankRasterizer) Rasterize(ctx context.Context, _ int, _ PageBox, backingWidth, backingHeight int) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, backingWidth, backingHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img, nil
}
