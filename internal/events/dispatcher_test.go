package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/events"
)

func TestDispatcher_PublishInvokesSubscribers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	var seen []events.EventType
	dispatcher.Subscribe(events.EventUserCreated, func(_ context.Context, event events.Event) error {
		seen = append(seen, event.Type)
		return nil
	})
	dispatcher.Subscribe(events.EventUserDeleted, func(_ context.Context, event events.Event) error {
		seen = append(seen, event.Type)
		return nil
	})

	err := dispatcher.Publish(context.Background(), events.Event{ID: "e1", Type: events.EventUserCreated})
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.EventUserCreated}, seen)
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	invoked := 0
	dispatcher.Subscribe(events.EventUserUpdated, func(context.Context, events.Event) error {
		invoked++
		return errors.New("boom")
	})
	dispatcher.Subscribe(events.EventUserUpdated, func(context.Context, events.Event) error {
		invoked++
		return nil
	})

	err := dispatcher.Publish(context.Background(), events.Event{ID: "e2", Type: events.EventUserUpdated})
	require.NoError(t, err)
	assert.Equal(t, 2, invoked)
}
