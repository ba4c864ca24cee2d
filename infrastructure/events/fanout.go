package events

import (
	"context"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/metrics"
)

const defaultSinkTimeout = 5 * time.Second

type namedSink struct {
	name string
	sink repository.IAccountEventSink
}

// Fanout delivers each account event to every registered sink. A failing sink is
// logged and counted but never stops delivery to the others.
type Fanout struct {
	sinks   []namedSink
	timeout time.Duration
}

func NewFanout() *Fanout {
	return &Fanout{timeout: defaultSinkTimeout}
}

// Add registers a sink; nil sinks are ignored so optional backends can be passed unconditionally.
func (f *Fanout) Add(name string, sink repository.IAccountEventSink) *Fanout {
	if sink == nil {
		return f
	}
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	return f
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) Publish(ctx context.Context, event model.AccountEvent) error {
	for _, s := range f.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, f.timeout)
		err := s.sink.Publish(sinkCtx, event)
		cancel()
		if err != nil {
			metrics.EventsPublished.WithLabelValues(s.name, metrics.OutcomeFailure).Inc()
			logger.GetLogger().
				WithField("error", err).
				WithField("sink", s.name).
				WithField("type", event.Type).
				Warn("Account event not delivered")
			continue
		}
		metrics.EventsPublished.WithLabelValues(s.name, metrics.OutcomeSuccess).Inc()
	}
	return nil
}
