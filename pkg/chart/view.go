package chart

import (
	"sync"
)

// EventKind identifies an input event delivered to a View.
type EventKind int

const (
	PointerMove EventKind = iota
	PointerLeave
	ResizeEvent
	DataEvent
)

// Event carries the payload for an EventKind. X is set for PointerMove,
// Viewport for ResizeEvent and Series for DataEvent.
type Event struct {
	Kind     EventKind
	X        float64
	Viewport Viewport
	Series   []Series
}

// EventSource delivers events to subscribed listeners.
type EventSource interface {
	Subscribe(kind EventKind, fn func(Event)) (unsubscribe func())
}

// Bus is a synchronous in-process EventSource.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[EventKind]map[int]func(Event)
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[EventKind]map[int]func(Event))}
}

// Subscribe registers fn for kind. The returned func removes it and may be called more than once.
func (b *Bus) Subscribe(kind EventKind, fn func(Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.listeners[kind] == nil {
		b.listeners[kind] = make(map[int]func(Event))
	}
	b.listeners[kind][id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners[kind], id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every listener of ev.Kind on the caller's goroutine.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.listeners[ev.Kind]))
	for _, fn := range b.listeners[ev.Kind] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Listeners reports how many listeners are registered for kind.
func (b *Bus) Listeners(kind EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}

// FrameFunc receives the outcome of each redraw.
type FrameFunc func(state *HoverState, err error)

// View keeps a chart's data and pointer state and redraws on every event.
type View struct {
	mu       sync.Mutex
	renderer *Renderer
	kind     ChartType
	series   []Series
	hoverX   *float64
	onFrame  FrameFunc
}

// NewView creates a view over renderer. onFrame may be nil.
func NewView(renderer *Renderer, kind ChartType, series []Series, onFrame FrameFunc) *View {
	return &View{renderer: renderer, kind: kind, series: series, onFrame: onFrame}
}

// Mount subscribes the view to src and draws the initial frame. The
// returned release func unsubscribes every listener and is idempotent.
func (v *View) Mount(src EventSource) (release func()) {
	unsubs := []func(){
		src.Subscribe(PointerMove, func(ev Event) {
			x := ev.X
			v.update(func() { v.hoverX = &x })
		}),
		src.Subscribe(PointerLeave, func(Event) {
			v.update(func() { v.hoverX = nil })
		}),
		src.Subscribe(ResizeEvent, func(ev Event) {
			v.mu.Lock()
			err := v.renderer.Resize(ev.Viewport)
			v.hoverX = nil
			v.mu.Unlock()
			if err != nil {
				v.emit(nil, err)
				return
			}
			v.update(func() {})
		}),
		src.Subscribe(DataEvent, func(ev Event) {
			v.update(func() { v.series = ev.Series })
		}),
	}
	v.Redraw()

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, unsub := range unsubs {
				unsub()
			}
		})
	}
}

// Redraw repaints the current state.
func (v *View) Redraw() {
	v.update(func() {})
}

func (v *View) update(mutate func()) {
	v.mu.Lock()
	mutate()
	state, err := v.renderer.Draw(v.series, v.kind, v.hoverX)
	v.mu.Unlock()
	v.emit(state, err)
}

func (v *View) emit(state *HoverState, err error) {
	if v.onFrame != nil {
		v.onFrame(state, err)
	}
}
