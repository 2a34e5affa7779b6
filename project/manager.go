package project

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/lexandro/coderegistry-mcp/apperr"
)

// MaxRecent caps the most-recently-created list.
const MaxRecent = 10

// Manager owns the open projects. Create one per process and pass it around.
type Manager struct {
	options Options

	mu       sync.RWMutex
	projects map[uuid.UUID]*Project

	recentMu sync.Mutex
	recent   []uuid.UUID // most recent first
}

// NewManager creates an empty manager whose projects share options.
func NewManager(options Options) *Manager {
	return &Manager{
		options:  options.withDefaults(),
		projects: make(map[uuid.UUID]*Project),
	}
}

// Create opens root as a new project with a fresh identifier.
func (m *Manager) Create(name, description, root string) (*Project, error) {
	return m.Adopt(uuid.New(), name, description, root)
}

// Adopt opens root as a project with the given identifier. An existing project
// with that identifier is removed first, so re-creation behaves as
// remove-then-insert, including its place in the recent list.
func (m *Manager) Adopt(id uuid.UUID, name, description, root string) (*Project, error) {
	p, err := Open(id, name, description, root, m.options)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	previous := m.projects[id]
	m.projects[id] = p
	m.mu.Unlock()

	if previous != nil {
		m.forget(id)
		if err := previous.Close(); err != nil {
			m.options.Logger.Warn("closing replaced project", "id", id, "error", err)
		}
	}
	m.touch(id)

	m.options.Logger.Info("created project", "name", name, "id", id, "root", p.Root)
	return p, nil
}

// Get returns the project with the given identifier.
func (m *Manager) Get(id uuid.UUID) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, apperr.NotFound("get project", id.String())
	}
	return p, nil
}

// List returns all projects ordered by creation time.
func (m *Manager) List() []*Project {
	m.mu.RLock()
	projects := make([]*Project, 0, len(m.projects))
	for _, p := range m.projects {
		projects = append(projects, p)
	}
	m.mu.RUnlock()

	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID.String() < projects[j].ID.String()
		}
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects
}

// Remove closes and forgets a project.
func (m *Manager) Remove(id uuid.UUID) error {
	m.mu.Lock()
	p, ok := m.projects[id]
	delete(m.projects, id)
	m.mu.Unlock()
	if !ok {
		return apperr.NotFound("remove project", id.String())
	}

	m.forget(id)
	m.options.Logger.Info("removed project", "name", p.Name, "id", id)
	return p.Close()
}

// Recent returns up to limit projects, most recently created first.
func (m *Manager) Recent(limit int) []*Project {
	m.recentMu.Lock()
	ids := append([]uuid.UUID(nil), m.recent...)
	m.recentMu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	var projects []*Project
	for _, id := range ids {
		if len(projects) >= limit {
			break
		}
		if p, ok := m.projects[id]; ok {
			projects = append(projects, p)
		}
	}
	return projects
}

// Close closes every project.
func (m *Manager) Close() error {
	m.mu.Lock()
	projects := m.projects
	m.projects = make(map[uuid.UUID]*Project)
	m.mu.Unlock()

	m.recentMu.Lock()
	m.recent = nil
	m.recentMu.Unlock()

	var errs []error
	for _, p := range projects {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

func (m *Manager) touch(id uuid.UUID) {
	m.recentMu.Lock()
	defer m.recentMu.Unlock()
	m.recent = append([]uuid.UUID{id}, without(m.recent, id)...)
	if len(m.recent) > MaxRecent {
		m.recent = m.recent[:MaxRecent]
	}
}

func (m *Manager) forget(id uuid.UUID) {
	m.recentMu.Lock()
	defer m.recentMu.Unlock()
	m.recent = without(m.recent, id)
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	kept := make([]uuid.UUID, 0, len(ids))
	for _, other := range ids {
		if other != id {
			kept = append(kept, other)
		}
	}
	return kept
}
