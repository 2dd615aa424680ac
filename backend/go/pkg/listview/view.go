package listview

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOrder selects the comparator applied to the filtered snapshot.
type SortOrder string

const (
	SortDateDesc SortOrder = "date-desc"
	SortDateAsc  SortOrder = "date-asc"
	SortNameAsc  SortOrder = "name-asc"
	SortNameDesc SortOrder = "name-desc"
)

// DefaultFolder is the folder selected before the user picks one.
const DefaultFolder = "current"

// ViewState is the transient, client-local state reconciled with the
// snapshot. Nothing in it outlives the session.
type ViewState struct {
	ActiveFolder string
	SearchTerm   string
	Sort         SortOrder
}

// DefaultViewState returns the initial state: default folder, no search,
// newest first.
func DefaultViewState() ViewState {
	return ViewState{ActiveFolder: DefaultFolder, Sort: SortDateDesc}
}

// Phase is the rendered state of the list. The four values are distinct on
// purpose: an empty result must never look like a list that is still loading
// or one that failed to load.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseEmpty
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseEmpty:
		return "empty"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is what a Renderer consumes: a phase plus, when loaded, the exact
// ordered list to display.
type View struct {
	Phase Phase
	Files []FileRecord
	Err   error
}

// Project derives the list to display from a snapshot and the view state.
// It is a pure function: no I/O, input slice left untouched, identical inputs
// yield identical output.
//
// Filtering keeps records whose filename contains the search term
// case-insensitively; an empty term keeps everything. Sorting is stable, so
// records tying on the sort key keep their relative snapshot order across
// recomputations.
func Project(snapshot []FileRecord, state ViewState) []FileRecord {
	filtered := make([]FileRecord, 0, len(snapshot))
	term := strings.ToLower(state.SearchTerm)
	for _, rec := range snapshot {
		if term == "" || strings.Contains(strings.ToLower(rec.Filename), term) {
			filtered = append(filtered, rec)
		}
	}

	switch state.Sort {
	case SortDateAsc:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
		})
	case SortNameAsc:
		cl := newNameCollator()
		sort.SliceStable(filtered, func(i, j int) bool {
			return cl.CompareString(filtered[i].Filename, filtered[j].Filename) < 0
		})
	case SortNameDesc:
		cl := newNameCollator()
		sort.SliceStable(filtered, func(i, j int) bool {
			return cl.CompareString(filtered[i].Filename, filtered[j].Filename) > 0
		})
	default: // SortDateDesc
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}

	return filtered
}

// newNameCollator returns a collator for filename ordering. Collators are not
// safe for concurrent use, so each projection builds its own.
func newNameCollator() *collate.Collator {
	return collate.New(language.Und, collate.Loose)
}
