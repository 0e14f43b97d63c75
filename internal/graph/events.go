package graph

import "github.com/starford/ansuz/internal/model"

// Update carries the before/after pair of a note mutation. Old and New
// always share the same identifier.
type Update struct {
	Old *model.Note
	New *model.Note
}

// Subscription is a handle to an installed event handler. Dispose detaches
// the handler and is safe to call more than once.
type Subscription struct {
	dispose func()
}

// Dispose detaches the subscription's handler.
func (s Subscription) Dispose() {
	if s.dispose != nil {
		s.dispose()
	}
}

// emitter is an ordered, synchronous callback list. Handlers run inline
// within the mutating call, so a handler may itself trigger further
// mutations; emit iterates over a snapshot so re-entrant subscribe and
// dispose calls do not perturb an in-flight delivery.
type emitter[T any] struct {
	nextID   int
	handlers []handlerEntry[T]
}

type handlerEntry[T any] struct {
	id int
	fn func(T)
}

func (e *emitter[T]) subscribe(fn func(T)) Subscription {
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, handlerEntry[T]{id: id, fn: fn})
	return Subscription{dispose: func() {
		for i, h := range e.handlers {
			if h.id == id {
				e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
				return
			}
		}
	}}
}

func (e *emitter[T]) emit(v T) {
	snapshot := make([]handlerEntry[T], len(e.handlers))
	copy(snapshot, e.handlers)
	for _, h := range snapshot {
		h.fn(v)
	}
}
