// Package pdftest builds small, well-formed PDF documents and signature images for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// A4 page size in points.
const (
	A4Width  = 595.0
	A4Height = 842.0
)

// PageSize : MediaBox width and height of one page, with an optional
// CropBox (llx lly urx ury, all zero for none) and /Rotate
type PageSize struct {
	Width   float64
	Height  float64
	CropBox [4]float64
	Rotate  int
}

// Build returns a PDF with one page per size. The first page inherits its
// MediaBox from the page tree when inheritFirst is true.
func Build(inheritFirst bool, sizes ...PageSize) []byte {
	if len(sizes) == 0 {
		sizes = []PageSize{{Width: A4Width, Height: A4Height}}
	}

	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := range sizes {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %g %g] >>",
		kids, len(sizes), sizes[0].Width, sizes[0].Height))

	for i, size := range sizes {
		contentRef := 4 + 2*i
		boxes := fmt.Sprintf(" /MediaBox [0 0 %g %g]", size.Width, size.Height)
		if i == 0 && inheritFirst {
			boxes = ""
		}
		if size.CropBox != [4]float64{} {
			boxes += fmt.Sprintf(" /CropBox [%g %g %g %g]", size.CropBox[0], size.CropBox[1], size.CropBox[2], size.CropBox[3])
		}
		if size.Rotate != 0 {
			boxes += fmt.Sprintf(" /Rotate %d", size.Rotate)
		}
		objects = append(objects, fmt.Sprintf("<< /Type /Page /Parent 2 0 R%s /Resources << >> /Contents %d 0 R >>",
			boxes, contentRef))

		content := fmt.Sprintf("q 0 0 0 RG 10 10 %g %g re S Q", size.Width-20, size.Height-20)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// A4 : n A4 pages
func A4(n int) []byte {
	sizes := make([]PageSize, n)
	for i := range sizes {
		sizes[i] = PageSize{Width: A4Width, Height: A4Height}
	}
	return Build(false, sizes...)
}

// SignaturePNG returns a width x height PNG with a dark stroke on a transparent background.
func SignaturePNG(width, height int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	ink := color.NRGBA{R: 10, G: 20, B: 90, A: 255}
	for x := 0; x < width; x++ {
		y := height / 2
		img.Set(x, y, ink)
		if y+1 < height {
			img.Set(x, y+1, ink)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
