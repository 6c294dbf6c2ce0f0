// Package render loads a PDF document and renders single pages onto a bitmap
// surface at a zoom scale, reporting the logical size of the rendered page.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"kpp-siprima/internal/model"
	"math"
	"sync"
	"time"
)

const (
	DefaultLoadTimeout = 15 * time.Second
	// maxBackingPixels bounds a single page bitmap (about 160MB of RGBA).
	maxBackingPixels = 40_000_000
)

// ErrStaleRender is returned by RenderPage when a newer render request was
// issued before this one finished; its result was discarded.
var ErrStaleRender = errors.New("render superseded by a newer request")

// PageBox : page size in points (scale 1.0), rotation applied
type PageBox struct {
	Width  float64
	Height float64
}

// Frame : result of rendering one page. Width and Height are logical
// (CSS-pixel) dimensions; the backing bitmap is pixel-ratio times larger.
type Frame struct {
	Page          int
	Scale         float64
	Width         float64
	Height        float64
	BackingWidth  int
	BackingHeight int
	Image         *image.RGBA
}

// Rasterizer draws page content into a bitmap of the backing size.
type Rasterizer interface {
	Rasterize(ctx context.Context, page int, box PageBox, backingWidth, backingHeight int) (*image.RGBA, error)
}

type Option func(*Surface)

// WithPixelRatio : device pixel ratio of the backing bitmap, values <= 0 are ignored
func WithPixelRatio(ratio float64) Option {
	return func(s *Surface) {
		if ratio > 0 {
			s.pixelRatio = ratio
		}
	}
}

func WithLoadTimeout(timeout time.Duration) Option {
	return func(s *Surface) {
		if timeout > 0 {
			s.loadTimeout = timeout
		}
	}
}

func WithRasterizer(r Rasterizer) Option {
	return func(s *Surface) {
		if r != nil {
			s.rasterizer = r
		}
	}
}

type Surface struct {
	mu          sync.Mutex
	pixelRatio  float64
	loadTimeout time.Duration
	rasterizer  Rasterizer
	parse       func([]byte) ([]PageBox, error)

	pages      []PageBox
	loadGen    uint64
	cancelLoad context.CancelFunc
	renderGen  uint64
	current    *Frame
}

func NewSurface(opts ...Option) *Surface {
	s := &Surface{
		pixelRatio:  1,
		loadTimeout: DefaultLoadTimeout,
		rasterizer:  BlankRasterizer{},
		parse:       parsePages,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type parseResult struct {
	pages []PageBox
	err   error
}

// Load parses the document and returns its page count. A newer Load
// supersedes one still in flight; a failed Load leaves no document loaded.
func (s *Surface) Load(ctx context.Context, source []byte) (int, error) {
	s.mu.Lock()
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.loadGen++
	gen := s.loadGen
	loadCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	s.cancelLoad = cancel
	s.pages = nil
	s.current = nil
	s.renderGen++
	parse := s.parse
	s.mu.Unlock()
	defer cancel()

	if len(source) == 0 {
		return 0, model.NewError(model.KindLoad, "document source is empty", nil)
	}

	done := make(chan parseResult, 1)
	go func() {
		pages, err := parse(source)
		done <- parseResult{pages: pages, err: err}
	}()

	var res parseResult
	select {
	case res = <-done:
	case <-loadCtx.Done():
		if errors.Is(loadCtx.Err(), context.DeadlineExceeded) {
			return 0, model.NewError(model.KindLoad, fmt.Sprintf("document load timed out after %s", s.loadTimeout), loadCtx.Err())
		}
		return 0, model.NewError(model.KindLoad, "document load cancelled", loadCtx.Err())
	}

	if res.err != nil {
		return 0, model.NewError(model.KindLoad, "document could not be parsed", res.err)
	}
	if len(res.pages) == 0 {
		return 0, model.NewError(model.KindLoad, "document has no pages", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		return 0, model.NewError(model.KindLoad, "document load superseded", nil)
	}
	s.pages = res.pages
	return len(res.pages), nil
}

// RenderPage renders page (1-based) at scale and makes it the visible frame.
// Only the most recently requested render is applied; earlier ones return
// ErrStaleRender when they finish.
func (s *Surface) RenderPage(ctx context.Context, page int, scale float64) (Frame, error) {
	s.mu.Lock()
	if s.pages == nil {
		s.mu.Unlock()
		return Frame{}, model.NewError(model.KindLoad, "no document loaded", nil)
	}
	if page < 1 || page > len(s.pages) {
		s.mu.Unlock()
		return Frame{}, model.NewError(model.KindRender, fmt.Sprintf("page %d is out of range 1..%d", page, len(s.pages)), nil)
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		s.mu.Unlock()
		return Frame{}, model.NewError(model.KindRender, "scale must be a positive number", nil)
	}
	s.renderGen++
	gen := s.renderGen
	loadGen := s.loadGen
	box := s.pages[page-1]
	ratio := s.pixelRatio
	rasterizer := s.rasterizer
	s.mu.Unlock()

	frame := Frame{
		Page:   page,
		Scale:  scale,
		Width:  box.Width * scale,
		Height: box.Height * scale,
	}
	frame.BackingWidth = int(math.Ceil(frame.Width * ratio))
	frame.BackingHeight = int(math.Ceil(frame.Height * ratio))
	if frame.BackingWidth*frame.BackingHeight > maxBackingPixels {
		return Frame{}, model.NewError(model.KindRender, fmt.Sprintf("page %d is too large to render at scale %.2f", page, scale), nil)
	}

	img, err := rasterizer.Rasterize(ctx, page, box, frame.BackingWidth, frame.BackingHeight)
	if err != nil {
		return Frame{}, model.NewError(model.KindRender, fmt.Sprintf("page %d could not be rendered", page), err)
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, model.NewError(model.KindRender, fmt.Sprintf("rendering page %d cancelled", page), err)
	}
	frame.Image = img

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.renderGen || loadGen != s.loadGen {
		return Frame{}, ErrStaleRender
	}
	s.current = &frame
	return frame, nil
}

// Current : the visible frame, false before the first successful render
func (s *Surface) Current() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Frame{}, false
	}
	return *s.current, true
}

// PageCount : 0 when no document is loaded
func (s *Surface) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// PageBox : size in points of page (1-based)
func (s *Surface) PageBox(page int) (PageBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 || page > len(s.pages) {
		return PageBox{}, false
	}
	return s.pages[page-1], true
}
