package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Publisher is the subset of *nats.Conn used to ship events
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSObserver publishes every event as JSON on <subject>.<event_type>
type NATSObserver struct {
	publisher Publisher
	subject   string
	logger    *logrus.Logger
}

// NewNATSObserver creates an observer that forwards events to collaborators over NATS
func NewNATSObserver(publisher Publisher, subject string, logger *logrus.Logger) *NATSObserver {
	return &NATSObserver{
		publisher: publisher,
		subject:   subject,
		logger:    logger,
	}
}

// Connect dials NATS with reconnects enabled
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("photo-suitability"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// OnEvent marshals and publishes the event; failures are logged, never propagated
func (o *NATSObserver) OnEvent(ctx context.Context, event AssessmentEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		o.logger.WithError(err).WithField("event_type", event.EventType).Error("Failed to marshal event")
		return
	}

	subject := fmt.Sprintf("%s.%s", o.subject, event.EventType)
	if err := o.publisher.Publish(subject, payload); err != nil {
		o.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.EventType,
			"subject":    subject,
		}).Warn("Failed to publish event")
	}
}

// GetObserverName returns the observer name
func (o *NATSObserver) GetObserverName() string {
	return "nats_observer"
}
