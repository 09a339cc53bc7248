// Package transfer implements the two-step save workflow: pick entries while
// browsing the source share, pick a destination folder in the owned tree,
// then commit a server-side copy.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloudsave/internal/api"
	"cloudsave/internal/browse"
	"cloudsave/internal/events"
	"cloudsave/internal/logging"
	"cloudsave/internal/models"
)

// Step is the workflow's current phase.
type Step string

const (
	StepBrowsingSource      Step = "browsing_source"
	StepBrowsingDestination Step = "browsing_destination"
	StepDone                Step = "done"
)

var (
	// ErrWrongStep is returned when an operation is not valid in the
	// current step, e.g. Commit while still browsing the source.
	ErrWrongStep = errors.New("operation not valid in current workflow step")

	// ErrWorkflowDone is returned once a workflow has committed
	// successfully; a finished workflow cannot be reused.
	ErrWorkflowDone = errors.New("workflow already committed")
)

// Workflow drives one staged save from a share into the owned tree. The
// source browser's staged selection is resolved at commit time; the
// destination browser's position names the target directory.
//
// A failed commit keeps the workflow at the destination step so it can be
// retried; a successful commit is terminal.
type Workflow struct {
	mu       sync.Mutex
	step     Step
	source   *browse.DirectoryBrowser
	dest     *browse.DirectoryBrowser
	provider api.Provider
	share    *models.ShareRef

	bus *events.EventBus
	log *logging.Logger
}

// NewWorkflow builds a workflow over a source browser (usually a share
// browser) and a destination browser over the owned tree.
func NewWorkflow(provider api.Provider, share *models.ShareRef, source, dest *browse.DirectoryBrowser, bus *events.EventBus) *Workflow {
	return &Workflow{
		step:     StepBrowsingSource,
		source:   source,
		dest:     dest,
		provider: provider,
		share:    share,
		bus:      bus,
		log:      logging.NewLogger("transfer"),
	}
}

// Step returns the current phase.
func (w *Workflow) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Source returns the source browser.
func (w *Workflow) Source() *browse.DirectoryBrowser { return w.source }

// Dest returns the destination browser.
func (w *Workflow) Dest() *browse.DirectoryBrowser { return w.dest }

// Activate opens the source browser at its root and enters the source step.
// The destination browser is only cleared, not opened - its root listing is
// loaded lazily on the first Advance, so an abandoned flow never lists it.
func (w *Workflow) Activate(ctx context.Context) error {
	w.mu.Lock()
	if w.step == StepDone {
		w.mu.Unlock()
		return ErrWorkflowDone
	}
	w.mu.Unlock()

	w.dest.Reset()

	if err := w.source.Open(ctx); err != nil {
		return err
	}

	w.setStep(StepBrowsingSource)
	return nil
}

// Advance moves from the source step to the destination step; it is only
// valid while browsing the source. The destination root is loaded lazily,
// on the first Advance only; returning later via Back and Advance finds the
// destination where it was left.
func (w *Workflow) Advance(ctx context.Context) error {
	w.mu.Lock()
	switch w.step {
	case StepDone:
		w.mu.Unlock()
		return ErrWorkflowDone
	case StepBrowsingDestination:
		w.mu.Unlock()
		return ErrWrongStep
	}
	w.mu.Unlock()

	if !w.dest.Opened() {
		if err := w.dest.Open(ctx); err != nil {
			return fmt.Errorf("failed to open destination: %w", err)
		}
	}

	w.setStep(StepBrowsingDestination)
	return nil
}

// Back returns to the source step without touching either browser's
// position or the staged selection.
func (w *Workflow) Back() error {
	w.mu.Lock()
	step := w.step
	w.mu.Unlock()

	switch step {
	case StepDone:
		return ErrWorkflowDone
	case StepBrowsingSource:
		return ErrWrongStep
	}

	w.setStep(StepBrowsingSource)
	return nil
}

// Commit performs the server-side copy of the source's effective selection
// into the destination's current directory. Only valid at the destination
// step. Success is terminal; failure keeps the workflow retryable.
func (w *Workflow) Commit(ctx context.Context) error {
	w.mu.Lock()
	switch w.step {
	case StepDone:
		w.mu.Unlock()
		return ErrWorkflowDone
	case StepBrowsingSource:
		w.mu.Unlock()
		return ErrWrongStep
	}
	w.mu.Unlock()

	entries := w.source.EffectiveSelection()
	if len(entries) == 0 {
		return api.NewValidationError("selection", "source directory has nothing to save")
	}
	refs := models.Refs(entries)
	destID := w.dest.CurrentID()

	err := w.provider.SaveShareFiles(ctx, w.share, destID, refs)
	w.publish(events.NewTransferCommit(destID, len(refs), err))

	if err != nil {
		w.log.Error().Str("dest", destID).Int("count", len(refs)).Err(err).Msg("commit failed")
		return fmt.Errorf("failed to save: %w", err)
	}

	w.log.Info().Str("dest", destID).Int("count", len(refs)).Msg("save committed")
	w.setStep(StepDone)
	return nil
}

func (w *Workflow) setStep(step Step) {
	w.mu.Lock()
	w.step = step
	w.mu.Unlock()
	w.publish(events.NewWorkflowStep(string(step)))
}

func (w *Workflow) publish(ev events.Event) {
	if w.bus != nil {
		w.bus.Publish(ev)
	}
}
