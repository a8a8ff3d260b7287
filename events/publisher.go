// Package events publishes session transitions onto a watermill topic.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-booklet-session/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	Topic = "session.events"

	MetadataType   = "type"
	MetadataReason = "reason"
)

var _ session.Listener = (*Publisher)(nil)

// Publisher implements session.Listener by publishing each event as JSON
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    zerolog.Logger
}

type PublisherOption func(*Publisher)

func WithTopic(topic string) PublisherOption {
	return func(p *Publisher) {
		p.topic = topic
	}
}

func WithLogger(logger zerolog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(publisher message.Publisher, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		publisher: publisher,
		topic:     Topic,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnSessionEvent publishes e. A publish failure is logged; it never affects the session.
func (p *Publisher) OnSessionEvent(e session.Event) {
	if err := p.Publish(e); err != nil {
		p.logger.Error().Err(err).Str("type", string(e.Type)).Msg("[events OnSessionEvent] failed to publish session event")
	}
}

func (p *Publisher) Publish(e session.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(MetadataType, string(e.Type))
	if e.Reason != "" {
		msg.Metadata.Set(MetadataReason, e.Reason)
	}

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Decode reads a session event back out of a published message
func Decode(msg *message.Message) (session.Event, error) {
	var e session.Event
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return session.Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return e, nil
}
