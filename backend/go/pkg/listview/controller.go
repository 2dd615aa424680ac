package listview

import (
	"context"
	"sync"

	"pdf-collab/backend/go/internal/models"
	"pdf-collab/backend/go/pkg/logger"
)

// Fetcher retrieves the base snapshot for a folder. The server applies owner
// scoping from the request's credentials, so the folder is the only client
// side parameter. Records come back ordered by created_at descending.
type Fetcher interface {
	FetchFiles(ctx context.Context, folder string) ([]FileRecord, error)
}

// Renderer turns a View into whatever the surrounding program displays. It is
// invoked with the controller lock held and must not call back into the
// controller.
type Renderer interface {
	Render(v View)
}

// Controller reconciles the most recent snapshot with the view state and
// drives the renderer. It fires on exactly the trigger set the listing UI
// needs: initial load, folder change, completed upload or delete, a change
// cue from the server, search input and sort change. The first four refetch
// the snapshot; the last two only recompute.
//
// Concurrent fetches are resolved by tagging each with a sequence number
// taken under the lock: a response belonging to anything but the latest
// issued fetch is discarded, so a slow stale response can never overwrite a
// newer snapshot. Cue-driven refreshes additionally collapse through a
// single-flight guard with a pending bit, so a burst of change events costs
// at most one extra fetch.
type Controller struct {
	mu       sync.Mutex
	fetcher  Fetcher
	renderer Renderer
	log      *logger.Logger

	state    ViewState
	snapshot []FileRecord
	phase    Phase
	lastErr  error

	seq        uint64 // id of the most recently issued fetch
	refreshing bool   // a cue-driven refresh is in flight
	pendingCue bool   // another cue arrived while refreshing
}

// NewController builds a controller in the default view state. The logger may
// be nil.
func NewController(f Fetcher, r Renderer, log *logger.Logger) *Controller {
	return &Controller{
		fetcher:  f,
		renderer: r,
		log:      log,
		state:    DefaultViewState(),
		phase:    PhaseLoading,
	}
}

// Start performs the initial fetch and render.
func (c *Controller) Start(ctx context.Context) {
	c.refresh(ctx)
}

// SelectFolder switches the active folder. Folder scoping is applied server
// side as a query filter, so the old snapshot is invalid and a refetch is
// mandatory even if the folder name looks unchanged to the caller.
func (c *Controller) SelectFolder(ctx context.Context, folder string) {
	c.mu.Lock()
	c.state.ActiveFolder = folder
	c.mu.Unlock()
	c.refresh(ctx)
}

// Refresh refetches the snapshot. Call it after a completed upload or delete.
func (c *Controller) Refresh(ctx context.Context) {
	c.refresh(ctx)
}

// SetSearchTerm updates the filter and recomputes the rendered list. The
// server scope is unchanged, so no refetch happens.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchTerm = term
	c.renderLocked()
}

// SetSortOrder updates the ordering and recomputes the rendered list without
// a refetch.
func (c *Controller) SetSortOrder(order SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Sort = order
	c.renderLocked()
}

// NotifyChanged handles a change cue from the server. The cue carries no
// usable payload, so it is treated purely as a signal to refetch. Overlapping
// cues are collapsed: while one refresh is in flight further cues only set a
// pending bit, and at most one follow-up fetch runs once it completes.
func (c *Controller) NotifyChanged(ctx context.Context) {
	c.mu.Lock()
	if c.refreshing {
		c.pendingCue = true
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.mu.Unlock()

	for {
		c.refresh(ctx)

		c.mu.Lock()
		if !c.pendingCue {
			c.refreshing = false
			c.mu.Unlock()
			return
		}
		c.pendingCue = false
		c.mu.Unlock()
	}
}

// State returns a copy of the current view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentView recomputes and returns the view for the current state and
// snapshot without touching the renderer.
func (c *Controller) CurrentView() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// refresh issues a fetch for the active folder and, unless a newer fetch was
// issued meanwhile, installs the result as the new snapshot. A fetch failure
// replaces the display with the failed phase: stale data is never shown as if
// it were fresh. Failures are logged, not retried; the next trigger attempts
// again.
func (c *Controller) refresh(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	folder := c.state.ActiveFolder
	c.phase = PhaseLoading
	c.renderLocked()
	c.mu.Unlock()

	files, err := c.fetcher.FetchFiles(ctx, folder)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		// A newer fetch owns the display now; drop this response silently.
		return
	}
	if err != nil {
		c.snapshot = nil
		c.lastErr = err
		c.phase = PhaseFailed
		if c.log != nil {
			c.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "fetch_error"}).Error("failed to fetch file list")
		}
	} else {
		c.snapshot = files
		c.lastErr = nil
		c.phase = PhaseLoaded
	}
	c.renderLocked()
}

// viewLocked derives the View for the current phase. Caller holds the lock.
func (c *Controller) viewLocked() View {
	switch c.phase {
	case PhaseLoading:
		return View{Phase: PhaseLoading}
	case PhaseFailed:
		return View{Phase: PhaseFailed, Err: c.lastErr}
	}
	files := Project(c.snapshot, c.state)
	if len(files) == 0 {
		return View{Phase: PhaseEmpty}
	}
	return View{Phase: PhaseLoaded, Files: files}
}

func (c *Controller) renderLocked() {
	if c.renderer != nil {
		c.renderer.Render(c.viewLocked())
	}
}
