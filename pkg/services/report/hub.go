package report

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/de-tools/line-report/pkg/models/domain"
)

const subscriberBuffer = 64

// Hub fans section events out to subscribers of a collection.
type Hub struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]chan domain.SectionEvent
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan domain.SectionEvent)}
}

// Subscribe returns the event stream of a collection and a func that ends the subscription.
func (h *Hub) Subscribe(collectionID string) (<-chan domain.SectionEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan domain.SectionEvent, subscriberBuffer)
	if h.subs[collectionID] == nil {
		h.subs[collectionID] = make(map[int]chan domain.SectionEvent)
	}
	h.subs[collectionID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[collectionID], id)
			if len(h.subs[collectionID]) == 0 {
				delete(h.subs, collectionID)
			}
			close(ch)
		})
	}
}

// SectionReady never blocks; a subscriber with a full buffer misses the event.
func (h *Hub) SectionReady(ctx context.Context, ev domain.SectionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[ev.CollectionID] {
		select {
		case ch <- ev:
		default:
			zerolog.Ctx(ctx).Debug().
				Str("collection", ev.CollectionID).
				Str("process", ev.Process).
				Msg("dropping section event for slow subscriber")
		}
	}
}

// Fanout forwards events to several listeners in order.
type Fanout []SectionListener

func (f Fanout) SectionReady(ctx context.Context, ev domain.SectionEvent) {
	for _, l := range f {
		if l != nil {
			l.SectionReady(ctx, ev)
		}
	}
}

// SectionLogger writes every section event to the logger carried by ctx.
type SectionLogger struct{}

func (SectionLogger) SectionReady(ctx context.Context, ev domain.SectionEvent) {
	logger := zerolog.Ctx(ctx)
	e := logger.Debug()
	msg := "section ready"
	if ev.Err != nil {
		e = e.Err(ev.Err)
		msg = "section failed"
	}
	e.Str("collection", ev.CollectionID).
		Uint64("generation", ev.Generation).
		Str("process", ev.Process).
		Str("section", string(ev.Section)).
		Msg(msg)
}
