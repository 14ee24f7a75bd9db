package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func requireEmpty(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %s", e.Type)
	default:
	}
}

func TestBusFiltersByType(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	logins, unsubscribe := bus.Subscribe(TypeLogin)
	defer unsubscribe()
	all, unsubscribeAll := bus.Subscribe()
	defer unsubscribeAll()

	bus.Publish(New(TypeCollected, CollectPayload{ArticleID: 7, Collected: true}))
	bus.Publish(New(TypeLogin, LoginPayload{LoggedIn: true, Username: "alice"}))

	e := receive(t, logins)
	require.Equal(t, TypeLogin, e.Type)
	require.Equal(t, LoginPayload{LoggedIn: true, Username: "alice"}, e.Payload)
	requireEmpty(t, logins)

	require.Equal(t, TypeCollected, receive(t, all).Type)
	require.Equal(t, TypeLogin, receive(t, all).Type)
}

func TestBusStickyReplay(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	bus.Publish(New(TypeCollected, CollectPayload{ArticleID: 1}))
	bus.PublishSticky(New(TypeLogin, LoginPayload{LoggedIn: true, Username: "first"}))
	bus.PublishSticky(New(TypeLogin, LoginPayload{LoggedIn: true, Username: "second"}))

	late, unsubscribe := bus.SubscribeSticky(TypeLogin)
	defer unsubscribe()

	e := receive(t, late)
	require.Equal(t, "second", e.Payload.(LoginPayload).Username)
	requireEmpty(t, late)

	plain, unsubscribePlain := bus.Subscribe(TypeLogin)
	defer unsubscribePlain()
	requireEmpty(t, plain)

	collected, unsubscribeCollected := bus.SubscribeSticky(TypeCollected)
	defer unsubscribeCollected()
	requireEmpty(t, collected)

	bus.Publish(New(TypeLogin, LoginPayload{LoggedIn: true, Username: "live"}))
	require.Equal(t, "live", receive(t, late).Payload.(LoginPayload).Username)
	require.Equal(t, "live", receive(t, plain).Payload.(LoginPayload).Username)

	bus.RemoveSticky(TypeLogin)
	_, ok := bus.Sticky(TypeLogin)
	require.False(t, ok)
}

func TestBusDropsOldestWhenFull(t *testing.T) {
	t.Parallel()

	bus := NewBusWithBuffer(3)
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 1; i <= 5; i++ {
		bus.Publish(New(TypeCollected, CollectPayload{ArticleID: i}))
	}

	var got []int
	for i := 0; i < 3; i++ {
		got = append(got, receive(t, ch).Payload.(CollectPayload).ArticleID)
	}
	require.Equal(t, []int{3, 4, 5}, got)
	require.Equal(t, uint64(2), bus.Dropped())
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	require.False(t, ok)

	bus.Publish(New(TypeLogout, LoginPayload{}))
}

func TestBusConcurrentPublishers(t *testing.T) {
	t.Parallel()

	bus := NewBusWithBuffer(1000)
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				bus.Publish(New(TypeCollected, CollectPayload{ArticleID: i}))
			}
		}()
	}
	wg.Wait()

	require.Len(t, ch, 500)
	require.Zero(t, bus.Dropped())
}
