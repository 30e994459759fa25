package events

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// Handler receives a published event. A returned error is logged and
// does not affect delivery to other handlers.
type Handler func(Event) error

// Subscription identifies a registered handler
type Subscription struct {
	kind Kind
	id   uint64
}

// Kind returns the event kind the subscription listens to
func (s Subscription) Kind() Kind {
	return s.kind
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Notifier is a synchronous publish/subscribe registry keyed by event kind.
// Handlers run on the publishing goroutine in subscription order.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]subscriber
	log    logr.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(log logr.Logger) *Notifier {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Notifier{
		subs: make(map[Kind][]subscriber),
		log:  log.WithName("notifier"),
	}
}

// Subscribe registers h for every event of the given kind
func (n *Notifier) Subscribe(kind Kind, h Handler) Subscription {
	return n.add(kind, func(Subscription) Handler { return h })
}

// SubscribeOnce registers h for the next event of the given kind only.
// The subscription is removed before h runs, so h may resubscribe.
func (n *Notifier) SubscribeOnce(kind Kind, h Handler) Subscription {
	return n.add(kind, func(sub Subscription) Handler {
		return func(ev Event) error {
			if !n.Unsubscribe(sub) {
				return nil
			}
			return h(ev)
		}
	})
}

func (n *Notifier) add(kind Kind, build func(Subscription) Handler) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	sub := Subscription{kind: kind, id: n.nextID}
	n.subs[kind] = append(n.subs[kind], subscriber{id: sub.id, handler: build(sub)})
	return sub
}

// Unsubscribe removes a subscription. It reports whether it was registered.
func (n *Notifier) Unsubscribe(sub Subscription) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	list := n.subs[sub.kind]
	for i, s := range list {
		if s.id == sub.id {
			// copy so that snapshots held by in-flight publishes are not mutated
			next := make([]subscriber, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(n.subs, sub.kind)
			} else {
				n.subs[sub.kind] = next
			}
			return true
		}
	}
	return false
}

// Clear removes every subscription for the given kinds, or for all kinds
// when none are given.
func (n *Notifier) Clear(kinds ...Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(kinds) == 0 {
		n.subs = make(map[Kind][]subscriber)
		return
	}
	for _, k := range kinds {
		delete(n.subs, k)
	}
}

// Len returns the number of subscriptions for kind
func (n *Notifier) Len(kind Kind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[kind])
}

// Publish delivers ev to the handlers subscribed to its kind and reports
// whether there were any. Handlers added or removed during delivery do not
// affect the delivery in progress.
func (n *Notifier) Publish(ev Event) bool {
	n.mu.Lock()
	list := n.subs[ev.Kind()]
	snapshot := list[:len(list):len(list)]
	n.mu.Unlock()

	if len(snapshot) == 0 {
		return false
	}

	for _, s := range snapshot {
		if err := n.invoke(s.handler, ev); err != nil {
			n.log.Error(err, "event handler failed", "event", ev.Kind().String())
		}
	}
	return true
}

func (n *Notifier) invoke(h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ev)
}

// On subscribes a typed handler. The kind is taken from E.
func On[E Event](n *Notifier, fn func(E)) Subscription {
	var zero E
	return n.Subscribe(zero.Kind(), func(ev Event) error {
		if e, ok := ev.(E); ok {
			fn(e)
		}
		return nil
	})
}
