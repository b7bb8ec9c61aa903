package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventPublisher delivers each event to every subscriber on its own
// goroutine. A panicking observer is logged and does not affect the others.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	log       *logrus.Logger
}

// NewEventPublisher creates a publisher with no subscribers
func NewEventPublisher(log *logrus.Logger) *EventPublisher {
	return &EventPublisher{log: log}
}

// Subscribe adds observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	p.observers = append(p.observers, observer)
	p.mu.Unlock()
}

// Unsubscribe removes the first observer with the same name
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := observer.GetObserverName()
	for i, obs := range p.observers {
		if obs.GetObserverName() == name {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			return
		}
	}
}

// NotifyObservers stamps event and hands it to each subscriber. The run's
// cancellation does not reach observers.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	ctx = context.WithoutCancel(ctx)

	p.mu.RLock()
	observers := append([]Observer(nil), p.observers...)
	p.mu.RUnlock()

	for _, obs := range observers {
		go p.deliver(ctx, obs, event)
	}
}

func (p *EventPublisher) deliver(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithFields(logrus.Fields{
				"observer":   obs.GetObserverName(),
				"event_type": event.EventType,
				"run_id":     event.RunID,
				"panic":      r,
			}).Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
