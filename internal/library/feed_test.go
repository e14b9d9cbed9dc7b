package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelog/cinelog/internal/models"
)

func TestSubscribeReceivesPublishedSnapshot(t *testing.T) {
	feed := NewFeed()
	ch := feed.Subscribe(1)
	defer feed.Unsubscribe(1, ch)

	feed.Publish(1, []models.MovieRecord{{Title: "Bacurau"}})

	select {
	case snap := <-ch:
		require.Len(t, snap.Records, 1)
		assert.Equal(t, "Bacurau", snap.Records[0].Title)
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}
}

func TestPublishIsScopedToUser(t *testing.T) {
	feed := NewFeed()
	mine := feed.Subscribe(1)
	theirs := feed.Subscribe(2)
	defer feed.Unsubscribe(1, mine)
	defer feed.Unsubscribe(2, theirs)

	feed.Publish(1, nil)

	select {
	case <-mine:
	case <-time.After(time.Second):
		t.Fatal("owner did not receive snapshot")
	}
	select {
	case <-theirs:
		t.Fatal("snapshot leaked to another user")
	default:
	}
}

func TestUnsubscribeClosesChannelAndStopsDelivery(t *testing.T) {
	feed := NewFeed()
	ch := feed.Subscribe(1)
	feed.Unsubscribe(1, ch)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, feed.SubscriberCount(1))

	// Publishing after detach must not panic on the closed channel.
	feed.Publish(1, nil)
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	feed := NewFeed()
	ch := feed.Subscribe(1)
	feed.Unsubscribe(1, ch)
	feed.Unsubscribe(1, ch)
}

func TestSlowSubscriberDropsSnapshotsInsteadOfBlocking(t *testing.T) {
	feed := NewFeed()
	ch := feed.Subscribe(1)
	defer feed.Unsubscribe(1, ch)

	for i := 0; i < subscriberBuffer+5; i++ {
		feed.Publish(1, nil)
	}
	// The buffer holds at most subscriberBuffer snapshots; extra publishes
	// returned without blocking, which is the assertion.
	assert.Equal(t, subscriberBuffer, len(ch))
}
