package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerFanOut(t *testing.T) {
	broker := NewChangeBroker()
	defer broker.Close()

	ch1, cancel1 := broker.Subscribe()
	ch2, cancel2 := broker.Subscribe()
	defer cancel1()
	defer cancel2()

	broker.Publish(Change{Table: TableLiveMatches, Action: ActionUpdate, MatchID: "m1"})

	for _, ch := range []<-chan Change{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, "m1", got.MatchID)
			assert.Equal(t, TableLiveMatches, got.Table)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive change")
		}
	}
}

func TestBrokerCancelStopsDelivery(t *testing.T) {
	broker := NewChangeBroker()
	defer broker.Close()

	ch, cancel := broker.Subscribe()
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	assert.Equal(t, 0, broker.SubscriberCount())

	// Channel is closed once cancelled.
	_, ok := <-ch
	assert.False(t, ok)

	// Cancelling twice is harmless.
	cancel()
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	broker := NewChangeBroker()
	defer broker.Close()

	_, cancel := broker.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Well past the buffer size; extra signals drop instead of blocking.
		for i := 0; i < 100; i++ {
			broker.Publish(Change{Table: TableMatchEvents, Action: ActionInsert})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBrokerPublishAfterClose(t *testing.T) {
	broker := NewChangeBroker()
	_, cancel := broker.Subscribe()
	defer cancel()

	broker.Close()
	// Must not panic on a closed broker.
	broker.Publish(Change{Table: TableLiveMatches, Action: ActionUpdate})
}
