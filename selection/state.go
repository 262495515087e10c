// Package selection tracks which files take part in a merge, in what order,
// and which pages of each file are included.
//
// Selections are keyed by the file's generated ID, never by its name, so
// two uploads that happen to share a name keep independent selections.
// State is not safe for concurrent use; the session package serializes
// access to it.
package selection

import (
	"fmt"
	"slices"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/source"
)

// State holds the file order and the per-file page selections.
//
// Invariant: every file in the order has exactly one selection entry and
// every selection entry belongs to a file in the order.
type State struct {
	order    []source.File
	selected map[string][]int
}

// New creates an empty State.
func New() *State {
	return &State{selected: make(map[string][]int)}
}

// Add appends files to the end of the order. Each file starts with all of
// its pages selected in ascending order. Files whose ID is already present
// are skipped.
func (s *State) Add(files ...source.File) {
	for _, f := range files {
		if _, dup := s.selected[f.ID]; dup {
			continue
		}
		pages := make([]int, f.PageCount)
		for i := range pages {
			pages[i] = i
		}
		s.order = append(s.order, f)
		s.selected[f.ID] = pages
	}
}

// Remove deletes the file at index together with its selection.
// It reports false and does nothing if index is out of range.
func (s *State) Remove(index int) (source.File, bool) {
	if index < 0 || index >= len(s.order) {
		return source.File{}, false
	}
	f := s.order[index]
	s.order = slices.Delete(s.order, index, index+1)
	delete(s.selected, f.ID)
	return f, true
}

// Reorder moves the file at from to position to. Selections are untouched.
// It reports false and does nothing if either index is out of range.
func (s *State) Reorder(from, to int) bool {
	n := len(s.order)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	f := s.order[from]
	s.order = slices.Delete(s.order, from, from+1)
	s.order = slices.Insert(s.order, to, f)
	return true
}

// SetSelectedPages replaces the selection of file id. Indexes are zero-based
// and are not checked against the page count here; an index past the end
// of the document fails the next assembly run.
func (s *State) SetSelectedPages(id string, pages []int) error {
	if _, ok := s.selected[id]; !ok {
		return fmt.Errorf("selection: %w: %s", pdfmerge.ErrUnknownFile, id)
	}
	s.selected[id] = slices.Clone(pages)
	if s.selected[id] == nil {
		s.selected[id] = []int{}
	}
	return nil
}

// SetSelectedPagesByName replaces the selection of the file named name.
// It fails with ErrAmbiguousName when several files share the name.
func (s *State) SetSelectedPagesByName(name string, pages []int) error {
	f, err := s.uniqueByName(name)
	if err != nil {
		return err
	}
	return s.SetSelectedPages(f.ID, pages)
}

// Toggle adds or removes a single page index from the selection of file id
// and returns the new selection, sorted ascending.
func (s *State) Toggle(id string, page int, selected bool) ([]int, error) {
	cur, ok := s.selected[id]
	if !ok {
		return nil, fmt.Errorf("selection: %w: %s", pdfmerge.ErrUnknownFile, id)
	}
	next := make([]int, 0, len(cur)+1)
	for _, p := range cur {
		if p != page {
			next = append(next, p)
		}
	}
	if selected {
		next = append(next, page)
	}
	slices.Sort(next)
	next = slices.Compact(next)
	if err := s.SetSelectedPages(id, next); err != nil {
		return nil, err
	}
	return slices.Clone(next), nil
}

// Selected returns a copy of the selection of file id.
func (s *State) Selected(id string) ([]int, bool) {
	pages, ok := s.selected[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(pages), true
}

// Files returns the files in order.
func (s *State) Files() []source.File {
	return slices.Clone(s.order)
}

// Len returns the number of files.
func (s *State) Len() int {
	return len(s.order)
}

// File returns the file with the given id and its position in the order.
func (s *State) File(id string) (source.File, int, bool) {
	for i, f := range s.order {
		if f.ID == id {
			return f, i, true
		}
	}
	return source.File{}, -1, false
}

// Lookup returns the first file in order with the given name.
func (s *State) Lookup(name string) (source.File, bool) {
	for _, f := range s.order {
		if f.Name == name {
			return f, true
		}
	}
	return source.File{}, false
}

func (s *State) uniqueByName(name string) (source.File, error) {
	var (
		found source.File
		n     int
	)
	for _, f := range s.order {
		if f.Name == name {
			found = f
			n++
		}
	}
	switch n {
	case 0:
		return source.File{}, fmt.Errorf("selection: %w: %s", pdfmerge.ErrUnknownFile, name)
	case 1:
		return found, nil
	default:
		return source.File{}, fmt.Errorf("selection: %w: %s (%d files)", pdfmerge.ErrAmbiguousName, name, n)
	}
}

// Item is one file of a plan with the pages selected from it.
type Item struct {
	File  source.File
	Pages []int
}

// Plan returns a snapshot of the order and selections. The snapshot does
// not change when the State is mutated afterwards.
func (s *State) Plan() []Item {
	plan := make([]Item, len(s.order))
	for i, f := range s.order {
		plan[i] = Item{File: f, Pages: slices.Clone(s.selected[f.ID])}
	}
	return plan
}
