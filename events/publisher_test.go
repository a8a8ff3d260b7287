package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jrsteele09/go-booklet-session/credential"
	"github.com/jrsteele09/go-booklet-session/events"
	"github.com/jrsteele09/go-booklet-session/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublisher_PublishesEventsAsJSON(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	messages, err := pubSub.Subscribe(ctx, events.Topic)
	require.NoError(t, err)

	p := events.NewPublisher(pubSub, events.WithLogger(zerolog.Nop()))
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.OnSessionEvent(session.Event{Type: session.EventSignedOut, Reason: session.ReasonRefreshRejected, Generation: 4, At: at})

	msg := receive(t, messages)
	require.NotEmpty(t, msg.UUID)
	require.Equal(t, "signed_out", msg.Metadata.Get(events.MetadataType))
	require.Equal(t, "refresh_rejected", msg.Metadata.Get(events.MetadataReason))
	require.NotContains(t, string(msg.Payload), "token")

	e, err := events.Decode(msg)
	require.NoError(t, err)
	require.Equal(t, session.Event{Type: session.EventSignedOut, Reason: session.ReasonRefreshRejected, Generation: 4, At: at}, e)
}

func TestPublisher_ManagerTransitions(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	messages, err := pubSub.Subscribe(ctx, "custom.topic")
	require.NoError(t, err)

	p := events.NewPublisher(pubSub, events.WithTopic("custom.topic"), events.WithLogger(zerolog.Nop()))
	m, err := session.NewManager(noRefresher{}, session.WithListener(p), session.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	m.Login(context.Background(), "AT1", "RT1", time.Hour)
	m.Logout(context.Background())

	first, err := events.Decode(receive(t, messages))
	require.NoError(t, err)
	second, err := events.Decode(receive(t, messages))
	require.NoError(t, err)

	types := map[session.EventType]bool{first.Type: true, second.Type: true}
	require.True(t, types[session.EventSignedIn])
	require.True(t, types[session.EventSignedOut])
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                               { return nil }

func TestPublisher_PublishError(t *testing.T) {
	p := events.NewPublisher(failingPublisher{}, events.WithLogger(zerolog.Nop()))
	err := p.Publish(session.Event{Type: session.EventSignedIn})
	require.ErrorContains(t, err, "broker down")

	require.NotPanics(t, func() { p.OnSessionEvent(session.Event{Type: session.EventSignedIn}) })
}

type noRefresher struct{}

func (noRefresher) Refresh(context.Context, string) (credential.Grant, error) {
	return credential.Grant{}, errors.New("unused")
}
