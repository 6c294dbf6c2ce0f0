// Package overlay keeps the geometry of the movable, resizable signature
// rectangle drawn over a rendered page. Geometry is in surface pixels and is
// always clamped into the surface bounds; nothing here returns an error.
package overlay

import (
	"math"
	"sync"
)

const (
	DefaultX      = 50
	DefaultY      = 50
	DefaultWidth  = 150
	DefaultHeight = 50

	MinWidth  = 50
	MinHeight = 20
)

type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds : logical size of the rendered page surface
type Bounds struct {
	Width  float64
	Height float64
}

// Listener receives the geometry after every completed drag or resize.
type Listener func(Geometry)

type Overlay struct {
	mu        sync.Mutex
	geometry  Geometry
	bounds    Bounds
	listeners map[int]Listener
	nextID    int
}

// New : overlay at the default geometry, clamped into bounds
func New(bounds Bounds) *Overlay {
	o := &Overlay{listeners: make(map[int]Listener)}
	o.bounds = sanitizeBounds(bounds)
	o.geometry = o.clamp(Geometry{X: DefaultX, Y: DefaultY, Width: DefaultWidth, Height: DefaultHeight})
	return o
}

// Initialize seeds the starting geometry, e.g. from a resumed placement.
func (o *Overlay) Initialize(x, y, width, height float64) Geometry {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.geometry = o.clamp(Geometry{X: x, Y: y, Width: width, Height: height})
	return o.geometry
}

// OnDragEnd moves the rectangle; its size is unchanged.
func (o *Overlay) OnDragEnd(x, y float64) Geometry {
	o.mu.Lock()
	next := o.clamp(Geometry{X: x, Y: y, Width: o.geometry.Width, Height: o.geometry.Height})
	o.geometry = next
	listeners := o.snapshotListeners()
	o.mu.Unlock()

	notify(listeners, next)
	return next
}

// OnResizeEnd sets all four values; sizes below the minimum are raised to it.
func (o *Overlay) OnResizeEnd(x, y, width, height float64) Geometry {
	o.mu.Lock()
	next := o.clamp(Geometry{X: x, Y: y, Width: width, Height: height})
	o.geometry = next
	listeners := o.snapshotListeners()
	o.mu.Unlock()

	notify(listeners, next)
	return next
}

// SetBounds changes the surface size (page or zoom change) and re-clamps the
// current geometry into it.
func (o *Overlay) SetBounds(bounds Bounds) Geometry {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bounds = sanitizeBounds(bounds)
	o.geometry = o.clamp(o.geometry)
	return o.geometry
}

func (o *Overlay) Geometry() Geometry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.geometry
}

func (o *Overlay) Bounds() Bounds {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bounds
}

// Subscribe registers l for geometry-changed events and returns a function
// that removes it.
func (o *Overlay) Subscribe(l Listener) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = l
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.listeners, id)
	}
}

func (o *Overlay) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(o.listeners))
	for id := 0; id < o.nextID; id++ {
		if l, ok := o.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func notify(listeners []Listener, g Geometry) {
	for _, l := range listeners {
		l(g)
	}
}

// clamp enforces the minimum size first and the bounds second. When the
// surface is smaller than the minimum size the rectangle is pinned at 0.
func (o *Overlay) clamp(g Geometry) Geometry {
	g.X, g.Y = finite(g.X), finite(g.Y)
	g.Width = math.Max(finite(g.Width), MinWidth)
	g.Height = math.Max(finite(g.Height), MinHeight)

	if o.bounds.Width >= MinWidth {
		g.Width = math.Min(g.Width, o.bounds.Width)
	}
	if o.bounds.Height >= MinHeight {
		g.Height = math.Min(g.Height, o.bounds.Height)
	}

	g.X = clampRange(g.X, 0, o.bounds.Width-g.Width)
	g.Y = clampRange(g.Y, 0, o.bounds.Height-g.Height)
	return g
}

func clampRange(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sanitizeBounds(b Bounds) Bounds {
	return Bounds{Width: math.Max(finite(b.Width), 0), Height: math.Max(finite(b.Height), 0)}
}
