package goudcore

import "reflect"

// MaxEventTypes defines the maximum number of unique event types that can be
// registered in the EventBus. This value is fixed at 256.
const MaxEventTypes = 256

// Subscription identifies one handler registered on an EventBus.
type Subscription struct {
	typeID uint8
	seq    uint32
}

type eventHandler struct {
	fn  any
	seq uint32
}

// EventBus is a synchronous, typed publish/subscribe channel. Systems publish
// gameplay and collision events on it without knowing who listens.
//
// Publish does not allocate. Handlers run on the publisher's goroutine in the
// order they subscribed.
type EventBus struct {
	eventTypeMap    map[reflect.Type]uint8
	handlers        [MaxEventTypes][]eventHandler
	nextEventTypeID uint16
	nextSeq         uint32
}

// Subscribe registers a handler function to be called when an event of type `T`
// is published. The returned Subscription can be passed to Unsubscribe.
//
// Parameters:
//   - bus: The EventBus instance to subscribe to.
//   - handler: A function that takes a single argument of type `T`.
func Subscribe[T any](bus *EventBus, handler func(T)) Subscription {
	id := bus.getEventTypeID(reflect.TypeFor[T]())
	if cap(bus.handlers[id]) == 0 {
		bus.handlers[id] = make([]eventHandler, 0, 4)
	}
	bus.nextSeq++
	bus.handlers[id] = append(bus.handlers[id], eventHandler{fn: handler, seq: bus.nextSeq})
	return Subscription{typeID: id, seq: bus.nextSeq}
}

// Unsubscribe removes a handler. It reports false if s was already removed.
func (bus *EventBus) Unsubscribe(s Subscription) bool {
	hs := bus.handlers[s.typeID]
	for i, h := range hs {
		if h.seq == s.seq {
			copy(hs[i:], hs[i+1:])
			hs[len(hs)-1] = eventHandler{}
			bus.handlers[s.typeID] = hs[:len(hs)-1]
			return true
		}
	}
	return false
}

// Publish broadcasts an event of type `T` to all registered handlers for that
// type.
//
// Parameters:
//   - bus: The EventBus instance to publish to.
//   - event: The event data of type `T` to be sent to handlers.
func Publish[T any](bus *EventBus, event T) {
	if id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]; ok {
		for _, h := range bus.handlers[id] {
			h.fn.(func(T))(event)
		}
	}
}

// HasSubscribers reports whether any handler listens for T. Publishers use it
// to skip building events nobody reads.
func HasSubscribers[T any](bus *EventBus) bool {
	id, ok := bus.eventTypeMap[reflect.TypeFor[T]()]
	return ok && len(bus.handlers[id]) > 0
}

// getEventTypeID retrieves or assigns an ID for the event type.
func (bus *EventBus) getEventTypeID(t reflect.Type) uint8 {
	if bus.eventTypeMap == nil {
		bus.eventTypeMap = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.eventTypeMap[t]; ok {
		return id
	}
	if bus.nextEventTypeID >= MaxEventTypes {
		panic("ecs: too many event types")
	}
	id := uint8(bus.nextEventTypeID)
	bus.nextEventTypeID++
	bus.eventTypeMap[t] = id
	return id
}
