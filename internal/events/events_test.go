package events

import (
	"testing"
	"time"

	"cloudsave/internal/models"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventListingChanged)

	bus.Publish(NewListingChanged("source", "-11", []models.DirectoryEntry{
		models.Folder("a", "Season 1"),
	}))

	select {
	case received := <-ch:
		listing, ok := received.(*ListingChangedEvent)
		if !ok {
			t.Fatal("Expected ListingChangedEvent")
		}
		if listing.Scope != "source" {
			t.Errorf("Expected scope 'source', got '%s'", listing.Scope)
		}
		if len(listing.Entries) != 1 || listing.Entries[0].ID != "a" {
			t.Errorf("Unexpected entries: %v", listing.Entries)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventListingLoading)
	ch2 := bus.Subscribe(EventListingLoading)

	bus.Publish(NewListingLoading("destination", "-11", true))

	received1 := false
	received2 := false

	select {
	case <-ch1:
		received1 = true
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case <-ch2:
		received2 = true
	case <-time.After(100 * time.Millisecond):
	}

	if !received1 || !received2 {
		t.Error("Not all subscribers received the event")
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	listingCh := bus.Subscribe(EventListingChanged)
	selectionCh := bus.Subscribe(EventSelectionChanged)

	bus.Publish(NewListingChanged("source", "dir1", nil))

	select {
	case <-listingCh:
		// Expected
	case <-time.After(100 * time.Millisecond):
		t.Error("Listing subscriber didn't receive event")
	}

	select {
	case <-selectionCh:
		t.Error("Selection subscriber received wrong event type")
	case <-time.After(50 * time.Millisecond):
		// Expected - timeout means no event
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	all := bus.SubscribeAll()

	bus.Publish(NewWorkflowStep("browsing_destination"))
	bus.Publish(NewTransferCommit("-11", 3, nil))

	for i := 0; i < 2; i++ {
		select {
		case <-all:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("All-events subscriber missed event %d", i)
		}
	}
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventMutationApplied)
	bus.Close()

	// Must not panic
	bus.Publish(NewMutationApplied("destination", "create", "dir1", "New Folder"))

	if _, open := <-ch; open {
		t.Error("Channel should be closed after bus Close")
	}
}

func TestEventBus_DropOnFullBuffer(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	bus.Subscribe(EventListingLoading)

	bus.Publish(NewListingLoading("source", "d", true))
	bus.Publish(NewListingLoading("source", "d", false))

	if got := bus.GetDroppedEventCount(); got != 1 {
		t.Errorf("Dropped count = %d, want 1", got)
	}
}
