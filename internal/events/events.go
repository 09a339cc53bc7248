// Package events provides the pub/sub bus cloudsave frontends observe.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"cloudsave/internal/constants"
	"cloudsave/internal/models"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventListingChanged   EventType = "listing_changed"   // Browser replaced its listing snapshot
	EventListingLoading   EventType = "listing_loading"   // Browser busy flag toggled
	EventListingError     EventType = "listing_error"     // Remote listing call failed
	EventSelectionChanged EventType = "selection_changed" // Staged selection changed
	EventMutationApplied  EventType = "mutation_applied"  // Create/rename/delete succeeded
	EventWorkflowStep     EventType = "workflow_step"     // Transfer workflow changed step
	EventTransferCommit   EventType = "transfer_commit"   // Commit-copy call completed
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// ListingChangedEvent is published when a browser replaces its snapshot.
type ListingChangedEvent struct {
	BaseEvent
	Scope       string // "source" or "destination"
	DirectoryID string
	Entries     []models.DirectoryEntry
}

// ListingLoadingEvent is published when a browser's busy flag toggles.
type ListingLoadingEvent struct {
	BaseEvent
	Scope       string
	DirectoryID string
	Loading     bool
}

// ListingErrorEvent is published when a remote listing call fails.
type ListingErrorEvent struct {
	BaseEvent
	Scope       string
	DirectoryID string
	Err         error
}

// SelectionChangedEvent is published when the staged selection changes.
type SelectionChangedEvent struct {
	BaseEvent
	Scope       string
	SelectedIDs []string
}

// MutationAppliedEvent is published after a successful create/rename/delete.
type MutationAppliedEvent struct {
	BaseEvent
	Scope       string
	Op          string // "create", "rename", "delete"
	DirectoryID string
	EntryName   string
}

// WorkflowStepEvent is published on transfer workflow step transitions.
type WorkflowStepEvent struct {
	BaseEvent
	Step string
}

// TransferCommitEvent is published when a commit-copy call completes.
type TransferCommitEvent struct {
	BaseEvent
	DestinationID string
	FileCount     int
	Err           error
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers (non-blocking; full buffers drop)
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}

// NewListingChanged builds a ListingChangedEvent.
func NewListingChanged(scope, directoryID string, entries []models.DirectoryEntry) *ListingChangedEvent {
	return &ListingChangedEvent{
		BaseEvent:   BaseEvent{EventType: EventListingChanged, Time: time.Now()},
		Scope:       scope,
		DirectoryID: directoryID,
		Entries:     entries,
	}
}

// NewListingLoading builds a ListingLoadingEvent.
func NewListingLoading(scope, directoryID string, loading bool) *ListingLoadingEvent {
	return &ListingLoadingEvent{
		BaseEvent:   BaseEvent{EventType: EventListingLoading, Time: time.Now()},
		Scope:       scope,
		DirectoryID: directoryID,
		Loading:     loading,
	}
}

// NewListingError builds a ListingErrorEvent.
func NewListingError(scope, directoryID string, err error) *ListingErrorEvent {
	return &ListingErrorEvent{
		BaseEvent:   BaseEvent{EventType: EventListingError, Time: time.Now()},
		Scope:       scope,
		DirectoryID: directoryID,
		Err:         err,
	}
}

// NewSelectionChanged builds a SelectionChangedEvent.
func NewSelectionChanged(scope string, ids []string) *SelectionChangedEvent {
	return &SelectionChangedEvent{
		BaseEvent:   BaseEvent{EventType: EventSelectionChanged, Time: time.Now()},
		Scope:       scope,
		SelectedIDs: ids,
	}
}

// NewMutationApplied builds a MutationAppliedEvent.
func NewMutationApplied(scope, op, directoryID, entryName string) *MutationAppliedEvent {
	return &MutationAppliedEvent{
		BaseEvent:   BaseEvent{EventType: EventMutationApplied, Time: time.Now()},
		Scope:       scope,
		Op:          op,
		DirectoryID: directoryID,
		EntryName:   entryName,
	}
}

// NewWorkflowStep builds a WorkflowStepEvent.
func NewWorkflowStep(step string) *WorkflowStepEvent {
	return &WorkflowStepEvent{
		BaseEvent: BaseEvent{EventType: EventWorkflowStep, Time: time.Now()},
		Step:      step,
	}
}

// NewTransferCommit builds a TransferCommitEvent.
func NewTransferCommit(destinationID string, fileCount int, err error) *TransferCommitEvent {
	return &TransferCommitEvent{
		BaseEvent:     BaseEvent{EventType: EventTransferCommit, Time: time.Now()},
		DestinationID: destinationID,
		FileCount:     fileCount,
		Err:           err,
	}
}
