package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/lvillar/pdfmerge"
)

// Manager keeps one workspace per client session.
type Manager struct {
	cfg      pdfmerge.Config
	maxAge   time.Duration
	interval time.Duration
	opts     []Option
	log      *slog.Logger

	mu         sync.RWMutex
	workspaces map[string]*Workspace
	scheduler  *gocron.Scheduler
}

// NewManager creates a Manager. Workspaces idle for longer than maxAge are
// removed by the sweep that Start schedules every interval. opts are
// applied to every workspace the Manager creates.
func NewManager(cfg pdfmerge.Config, maxAge, interval time.Duration, log *slog.Logger, opts ...Option) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:        cfg,
		maxAge:     maxAge,
		interval:   interval,
		opts:       append([]Option{WithLogger(log)}, opts...),
		log:        log,
		workspaces: make(map[string]*Workspace),
	}
}

// Create starts a new workspace and returns its id.
func (m *Manager) Create() (string, *Workspace) {
	id := uuid.NewString()
	w := NewWorkspace(m.cfg, m.opts...)

	m.mu.Lock()
	m.workspaces[id] = w
	m.mu.Unlock()

	m.log.Info("session created", "session", id)
	return id, w
}

// Get returns the workspace with the given id.
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workspaces[id]
	return w, ok
}

// Delete removes a workspace. It reports whether the workspace existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	w, ok := m.workspaces[id]
	delete(m.workspaces, id)
	m.mu.Unlock()

	if ok {
		w.Close()
		m.log.Info("session deleted", "session", id)
	}
	return ok
}

// Len returns the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workspaces)
}

// Sweep removes workspaces last used before now minus maxAge and returns
// how many were removed. Watched workspaces are kept.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.maxAge)

	m.mu.Lock()
	var stale []*Workspace
	for id, w := range m.workspaces {
		if !w.Watched() && w.LastUsed().Before(cutoff) {
			stale = append(stale, w)
			delete(m.workspaces, id)
		}
	}
	m.mu.Unlock()

	for _, w := range stale {
		w.Close()
	}
	if len(stale) > 0 {
		m.log.Info("idle sessions removed", "count", len(stale))
	}
	return len(stale)
}

// Start schedules the idle sweep. A zero interval disables it.
func (m *Manager) Start() error {
	if m.interval <= 0 {
		m.log.Info("session sweep disabled")
		return nil
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(m.interval).Do(func() { m.Sweep(time.Now()) }); err != nil {
		return err
	}
	s.StartAsync()
	m.scheduler = s
	m.log.Info("session sweep scheduled", "interval", m.interval, "max_age", m.maxAge)
	return nil
}

// Stop stops the sweep and drops every workspace.
func (m *Manager) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
	m.mu.Lock()
	all := m.workspaces
	m.workspaces = make(map[string]*Workspace)
	m.mu.Unlock()
	for _, w := range all {
		w.Close()
	}
}
