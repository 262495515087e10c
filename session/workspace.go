// Package session binds files, selections, previews and merge runs into a
// workspace that several callers can share.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lvillar/pdfmerge"
	"github.com/lvillar/pdfmerge/pageops"
	"github.com/lvillar/pdfmerge/preview"
	"github.com/lvillar/pdfmerge/selection"
	"github.com/lvillar/pdfmerge/source"
)

// Phase is the state of the most recent merge run.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// Progress is the observable state of a merge run.
type Progress struct {
	Phase   Phase  `json:"phase"`
	Percent int    `json:"percent"`
	Status  string `json:"status"`
}

// Artifact is the output of a successful run.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// FileInfo describes a file in the workspace for display.
type FileInfo struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Kind          source.Kind `json:"kind"`
	ConvertedFrom source.Kind `json:"converted_from,omitempty"`
	Size          int64       `json:"size"`
	HumanSize     string      `json:"human_size"`
	PageCount     int         `json:"page_count"`
	Selected      []int       `json:"selected"`
}

// Workspace is one user's set of files and merge state. It is safe for
// concurrent use.
type Workspace struct {
	cfg      pdfmerge.Config
	intake   *source.Intake
	previews *preview.Generator
	log      *slog.Logger

	runMu sync.Mutex // serializes merge runs

	mu       sync.Mutex
	state    *selection.State
	version  uint64 // bumped whenever the file set changes
	cache    []preview.Preview
	cacheVer uint64
	progress Progress
	runID    uint64
	artifact *Artifact
	subs     map[int]chan Progress
	nextSub  int
	lastUsed time.Time
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithIntake replaces the upload intake.
func WithIntake(in *source.Intake) Option {
	return func(w *Workspace) { w.intake = in }
}

// WithPreviewGenerator replaces the preview generator.
func WithPreviewGenerator(g *preview.Generator) Option {
	return func(w *Workspace) { w.previews = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(cfg pdfmerge.Config, opts ...Option) *Workspace {
	w := &Workspace{
		cfg:      cfg,
		log:      slog.Default(),
		state:    selection.New(),
		progress: Progress{Phase: PhaseIdle},
		subs:     make(map[int]chan Progress),
		lastUsed: time.Now(),
	}
	for _, o := range opts {
		o(w)
	}
	if w.intake == nil {
		w.intake = source.NewIntake(source.WithLogger(w.log))
	}
	if w.previews == nil {
		w.previews = preview.NewGenerator(cfg, preview.WithLogger(w.log))
	}
	return w
}

// AddFiles validates uploads and appends the accepted ones. Rejected
// uploads are returned and never enter the workspace.
func (w *Workspace) AddFiles(ctx context.Context, uploads []source.Upload) ([]source.File, []source.Rejection) {
	files, rejected := w.intake.Accept(ctx, uploads)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	if len(files) > 0 {
		w.state.Add(files...)
		w.version++
	}
	return files, rejected
}

// RemoveFile removes the file at index.
func (w *Workspace) RemoveFile(index int) (source.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	f, ok := w.state.Remove(index)
	if !ok {
		return source.File{}, fmt.Errorf("session: %w: index %d", pdfmerge.ErrUnknownFile, index)
	}
	w.version++
	return f, nil
}

// Reorder moves the file at from to position to.
func (w *Workspace) Reorder(from, to int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	if !w.state.Reorder(from, to) {
		return fmt.Errorf("session: %w: cannot move %d to %d", pdfmerge.ErrUnknownFile, from, to)
	}
	w.version++
	return nil
}

// SetSelectedPages replaces the page selection of file id.
func (w *Workspace) SetSelectedPages(id string, pages []int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.state.SetSelectedPages(id, pages)
}

// SetSelectedPagesByName replaces the page selection of the file named name.
func (w *Workspace) SetSelectedPagesByName(name string, pages []int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.state.SetSelectedPagesByName(name, pages)
}

// TogglePage selects or deselects one page of file id.
func (w *Workspace) TogglePage(id string, page int, selected bool) ([]int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.state.Toggle(id, page, selected)
}

// Len returns the number of files.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Len()
}

// Files lists the files in order with their selections.
func (w *Workspace) Files() []FileInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	plan := w.state.Plan()
	out := make([]FileInfo, len(plan))
	for i, it := range plan {
		f := it.File
		out[i] = FileInfo{
			ID:            f.ID,
			Name:          f.Name,
			Kind:          f.Kind,
			ConvertedFrom: f.ConvertedFrom,
			Size:          f.Size(),
			HumanSize:     source.FormatSize(f.Size()),
			PageCount:     f.PageCount,
			Selected:      it.Pages,
		}
	}
	return out
}

// Previews returns one preview per file in order. Results are cached until
// the file set changes.
func (w *Workspace) Previews(ctx context.Context) ([]preview.Preview, error) {
	w.mu.Lock()
	w.touch()
	if w.cache != nil && w.cacheVer == w.version {
		out := w.cache
		w.mu.Unlock()
		return out, nil
	}
	files := w.state.Files()
	ver := w.version
	w.mu.Unlock()

	out, err := w.previews.Generate(ctx, files)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.version == ver {
		w.cache = out
		w.cacheVer = ver
	}
	w.mu.Unlock()
	return out, nil
}

// Compression resolves a preset name. An empty name selects the
// workspace's default preset.
func (w *Workspace) Compression(name string) (pdfmerge.CompressionLevel, error) {
	return w.cfg.ResolveCompression(name)
}

// Merge assembles the current selection into a PDF. An empty level selects
// the workspace's default preset. Runs are serialized; a call made while
// another run is active waits for it. The plan is taken when the run
// starts, so edits made during the run apply to the next one.
//
// ctx is only checked before the run starts. A started run always
// completes.
func (w *Workspace) Merge(ctx context.Context, level pdfmerge.CompressionLevel) (*Artifact, error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if level == "" {
		level = w.cfg.Compression
	}

	w.mu.Lock()
	w.touch()
	plan := w.state.Plan()
	w.runID++
	run := w.runID
	w.artifact = nil
	w.setProgress(Progress{Phase: PhaseRunning, Percent: 0, Status: pageops.StatusStarting})
	w.mu.Unlock()

	parts := make([]pageops.Part, len(plan))
	for i, it := range plan {
		parts[i] = pageops.Part{Name: it.File.Name, Kind: it.File.Kind, Data: it.File.Data, Pages: it.Pages}
	}

	w.log.Info("merge started", "files", len(parts), "compression", level)
	data, err := pageops.Assemble(parts, pageops.AssembleOptions{
		Compression: level,
		Optimize:    w.cfg.Optimize,
		Logger:      w.log,
		Progress: func(p pageops.Progress) {
			w.mu.Lock()
			defer w.mu.Unlock()
			if p.Percent < w.progress.Percent {
				return
			}
			w.setProgress(Progress{Phase: PhaseRunning, Percent: p.Percent, Status: p.Status})
		},
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.artifact = nil
		w.setProgress(Progress{Phase: PhaseFailed, Percent: 0, Status: pageops.StatusFailed})
		w.log.Error("merge failed", "err", err)
		return nil, err
	}

	a := &Artifact{
		Name:        w.cfg.OutputName,
		ContentType: pdfmerge.ContentType,
		Data:        data,
		CreatedAt:   time.Now(),
	}
	w.artifact = a
	w.setProgress(Progress{Phase: PhaseSuccess, Percent: 100, Status: pageops.StatusSucceeded})
	w.log.Info("merge finished", "bytes", len(data))

	time.AfterFunc(w.cfg.SuccessHold, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.runID == run && w.progress.Phase == PhaseSuccess {
			w.setProgress(Progress{Phase: PhaseIdle})
		}
	})
	return a, nil
}

// Progress returns the state of the latest run.
func (w *Workspace) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.progress
}

// Artifact returns the output of the last successful run. It is cleared
// when a new run starts.
func (w *Workspace) Artifact() (*Artifact, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	if w.artifact == nil {
		return nil, pdfmerge.ErrNoArtifact
	}
	return w.artifact, nil
}

// Subscribe returns a channel receiving every progress change, starting
// with the current state. Slow subscribers miss updates rather than block
// the run. Call cancel to unsubscribe; it closes the channel.
func (w *Workspace) Subscribe() (<-chan Progress, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	ch := make(chan Progress, 16)
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	ch <- w.progress

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if _, ok := w.subs[id]; ok {
				delete(w.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Close unsubscribes all listeners.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
}

// LastUsed returns when the workspace was last accessed.
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// Watched reports whether any progress subscriber is attached.
func (w *Workspace) Watched() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs) > 0
}

// setProgress must be called with mu held.
func (w *Workspace) setProgress(p Progress) {
	w.progress = p
	for _, ch := range w.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

// touch must be called with mu held.
func (w *Workspace) touch() {
	w.lastUsed = time.Now()
}
