// Package push fans externally delivered records (the push transport itself
// lives outside this module) into the notification and conversation stores.
package push

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
	"github.com/renvo/client-core/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// EventKind identifies what a pushed event carries.
type EventKind string

const (
	KindNotification EventKind = "notification"
	KindMessage      EventKind = "message"
)

// Event is one pushed record handed over by the platform transport.
type Event struct {
	Kind         EventKind
	Notification *domain.Notification
	PartnerID    string
	Message      *domain.Message
}

// Sink receives events in per-key order.
type Sink interface {
	ApplyNotification(n domain.Notification)
	ApplyMessage(partnerID string, m domain.Message)
}

// Dispatcher routes pushed events to a fixed set of workers using consistent
// hashing on the event key, guaranteeing per-conversation and
// notification-feed ordering.
type Dispatcher struct {
	workers []chan Event
	sink    Sink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink Sink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Event, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an event to the worker responsible for its key. The call is
// non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(event Event) {
	idx := d.shardIndex(eventKey(event))
	d.workers[idx] <- event
	metrics.PushQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// eventKey maps messages to their conversation and notifications to a single
// feed key, so each stream stays ordered.
func eventKey(event Event) string {
	if event.Kind == KindMessage {
		return "msg:" + event.PartnerID
	}
	return "notifications"
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.PushQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			d.apply(event)
		}
	}
}

func (d *Dispatcher) apply(event Event) {
	switch event.Kind {
	case KindNotification:
		if event.Notification == nil {
			metrics.PushEventsTotal.WithLabelValues(string(event.Kind), "error").Inc()
			d.log.Error().Msg("notification event without payload")
			return
		}
		d.sink.ApplyNotification(*event.Notification)
	case KindMessage:
		if event.Message == nil || event.PartnerID == "" {
			metrics.PushEventsTotal.WithLabelValues(string(event.Kind), "error").Inc()
			d.log.Error().Str("partner_id", event.PartnerID).Msg("message event without payload")
			return
		}
		d.sink.ApplyMessage(event.PartnerID, *event.Message)
	default:
		metrics.PushEventsTotal.WithLabelValues(string(event.Kind), "error").Inc()
		d.log.Error().Str("kind", string(event.Kind)).Msg("unknown push event kind")
		return
	}
	metrics.PushEventsTotal.WithLabelValues(string(event.Kind), "applied").Inc()
}

// StoreSink adapts the stores to the Sink interface.
type StoreSink struct {
	Notifications ports.NotificationStore
	Conversations ports.ConversationStore
}

func (s StoreSink) ApplyNotification(n domain.Notification) {
	s.Notifications.Add(n)
}

func (s StoreSink) ApplyMessage(partnerID string, m domain.Message) {
	s.Conversations.Receive(partnerID, m)
}
