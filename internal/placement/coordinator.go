// Package placement combines the current page, zoom scale and overlay
// geometry into a scale-independent placement record.
//
// Records are stored in scale-1.0 units: overlay pixels divided by the render
// scale active when they were captured. At scale 1.0 one surface pixel is one
// PDF point, so the server stamps a record directly in page points.
package placement

import (
	"context"
	"errors"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/overlay"
	"kpp-siprima/internal/render"
	"math"
	"sync"
)

const (
	MinScale     = 0.5
	MaxScale     = 3.0
	DefaultScale = 1.0
)

// ErrNotReady is returned for overlay interaction while the page is rendering.
var ErrNotReady = errors.New("page is still rendering")

// Normalize converts surface pixels captured at scale into scale-1.0 units.
func Normalize(page int, g overlay.Geometry, scale float64) model.Placement {
	return model.Placement{
		Page:   page,
		X:      g.X / scale,
		Y:      g.Y / scale,
		Width:  g.Width / scale,
		Height: g.Height / scale,
	}
}

// ToGeometry converts a record back into surface pixels at scale.
func ToGeometry(p model.Placement, scale float64) overlay.Geometry {
	return overlay.Geometry{
		X:      p.X * scale,
		Y:      p.Y * scale,
		Width:  p.Width * scale,
		Height: p.Height * scale,
	}
}

// ClampScale : zoom controls keep the scale within [MinScale, MaxScale]
func ClampScale(scale float64) float64 {
	if math.IsNaN(scale) || scale <= 0 {
		return DefaultScale
	}
	return math.Min(math.Max(scale, MinScale), MaxScale)
}

// Coordinator is owned by one signing session and discarded with it.
type Coordinator struct {
	mu        sync.Mutex
	surface   *render.Surface
	overlay   *overlay.Overlay
	page      int
	scale     float64
	pageCount int
	ready     bool
	gen       uint64
	record    model.Placement
	hasRecord bool

	listeners []func(model.Placement)
}

func NewCoordinator(surface *render.Surface) *Coordinator {
	c := &Coordinator{
		surface: surface,
		overlay: overlay.New(overlay.Bounds{}),
		page:    1,
		scale:   DefaultScale,
	}
	c.overlay.Subscribe(c.OnGeometryChange)
	return c
}

// Open loads source, renders the first page and seeds the overlay. When
// resume is non-nil the overlay starts from that record.
func (c *Coordinator) Open(ctx context.Context, source []byte, resume *model.Placement) (int, error) {
	pageCount, err := c.surface.Load(ctx, source)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.pageCount = pageCount
	c.page = 1
	c.hasRecord = false
	if resume != nil && resume.Validate() == nil && resume.Page <= pageCount {
		c.record = *resume
		c.page = resume.Page
		c.hasRecord = true
	}
	page, scale := c.page, c.scale
	c.mu.Unlock()

	return pageCount, c.show(ctx, page, scale)
}

// OnPageChange moves the session to page (clamped into the document). The
// record's page changes immediately; its geometry is kept.
func (c *Coordinator) OnPageChange(ctx context.Context, page int) error {
	c.mu.Lock()
	if c.pageCount == 0 {
		c.mu.Unlock()
		return model.NewError(model.KindLoad, "no document loaded", nil)
	}
	if page < 1 {
		page = 1
	}
	if page > c.pageCount {
		page = c.pageCount
	}
	c.page = page
	if c.hasRecord {
		c.record.Page = page
	}
	scale := c.scale
	c.mu.Unlock()

	return c.show(ctx, page, scale)
}

// OnScaleChange re-renders at scale (clamped into the zoom range); the
// overlay follows the record and is clamped into the new surface.
func (c *Coordinator) OnScaleChange(ctx context.Context, scale float64) error {
	scale = ClampScale(scale)

	c.mu.Lock()
	if c.pageCount == 0 {
		c.mu.Unlock()
		return model.NewError(model.KindLoad, "no document loaded", nil)
	}
	c.scale = scale
	page := c.page
	c.mu.Unlock()

	return c.show(ctx, page, scale)
}

// show renders page at scale. Results of superseded requests are dropped.
func (c *Coordinator) show(ctx context.Context, page int, scale float64) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.ready = false
	c.mu.Unlock()

	frame, err := c.surface.RenderPage(ctx, page, scale)

	c.mu.Lock()
	if gen != c.gen || errors.Is(err, render.ErrStaleRender) {
		c.mu.Unlock()
		return render.ErrStaleRender
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.overlay.SetBounds(overlay.Bounds{Width: frame.Width, Height: frame.Height})
	if c.hasRecord {
		g := ToGeometry(c.record, scale)
		c.overlay.Initialize(g.X, g.Y, g.Width, g.Height)
	} else {
		c.overlay.Initialize(overlay.DefaultX, overlay.DefaultY, overlay.DefaultWidth, overlay.DefaultHeight)
	}
	c.record = Normalize(page, c.overlay.Geometry(), scale)
	c.hasRecord = true
	c.ready = true
	record := c.record
	listeners := append([]func(model.Placement){}, c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(record)
	}
	return nil
}

// Drag forwards a completed drag to the overlay.
func (c *Coordinator) Drag(x, y float64) error {
	if !c.Ready() {
		return ErrNotReady
	}
	c.overlay.OnDragEnd(x, y)
	return nil
}

// Resize forwards a completed resize to the overlay.
func (c *Coordinator) Resize(x, y, width, height float64) error {
	if !c.Ready() {
		return ErrNotReady
	}
	c.overlay.OnResizeEnd(x, y, width, height)
	return nil
}

// OnGeometryChange rebuilds the record from overlay pixels and notifies
// subscribers. Events arriving while a page is rendering are ignored.
func (c *Coordinator) OnGeometryChange(g overlay.Geometry) {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return
	}
	c.record = Normalize(c.page, g, c.scale)
	c.hasRecord = true
	record := c.record
	listeners := append([]func(model.Placement){}, c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(record)
	}
}

// CurrentPlacement : latest record, false before the first page is shown
func (c *Coordinator) CurrentPlacement() (model.Placement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record, c.hasRecord
}

// Subscribe : l receives every rebuilt record
func (c *Coordinator) Subscribe(l func(model.Placement)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Coordinator) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Coordinator) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

func (c *Coordinator) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCount
}

// Overlay : geometry in current surface pixels
func (c *Coordinator) Overlay() overlay.Geometry {
	return c.overlay.Geometry()
}
