// Package resources implements the process-wide resource manager: a
// singleton owning the embedding provider, the stopword set, and an
// optional approximate-nearest-neighbor index handle, opened and closed
// with reference-counted nesting and served to concurrent callers through
// Get.
package resources

import (
	"sync"

	"github.com/wannadb/matchengine/internal/distance"
	"github.com/wannadb/matchengine/internal/errors"
)

// ANNIndex is an optional approximate-nearest-neighbor index handle. No
// implementation ships with the core matching engine (see SPEC_FULL.md
// Non-goals); it exists so a caller can register one without the manager
// needing to know about any particular ANN library.
type ANNIndex interface {
	Search(vector []float32, k int) ([]int, error)
}

// Config supplies the concrete resources a Manager should hold once
// opened.
type Config struct {
	Embedder distance.Embedder
	ANN      ANNIndex
}

// Manager is the process-wide singleton. Open/Close are the caller's
// responsibility to serialize; Get is safe for concurrent use once the
// manager is open.
type Manager struct {
	mu        sync.RWMutex
	refCount  int
	embedder  distance.Embedder
	stopwords *Stopwords
	ann       ANNIndex
}

var (
	singleton     = &Manager{}
	singletonLock sync.Mutex
)

// Instance returns the process-wide Manager.
func Instance() *Manager { return singleton }

// Open acquires the manager, installing cfg's resources if this is the
// outermost Open, and returns a release function that must be called
// exactly once. Nested Open calls (refCount > 0) reuse the resources
// already installed and ignore cfg.
func (m *Manager) Open(cfg Config) (release func(), err error) {
	singletonLock.Lock()
	defer singletonLock.Unlock()

	m.mu.Lock()
	if m.refCount == 0 {
		m.embedder = cfg.Embedder
		m.stopwords = NewStopwords()
		m.ann = cfg.ANN
	}
	m.refCount++
	m.mu.Unlock()

	return m.close, nil
}

func (m *Manager) close() {
	singletonLock.Lock()
	defer singletonLock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refCount == 0 {
		return
	}
	m.refCount--
	if m.refCount == 0 {
		m.embedder = nil
		m.stopwords = nil
		m.ann = nil
	}
}

// Embedder returns the embedding provider, or a ResourceUnavailable error
// if the manager has not been opened or no embedder was configured.
func (m *Manager) Embedder() (distance.Embedder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.refCount == 0 || m.embedder == nil {
		return nil, &errors.ResourceUnavailable{ResourceID: "embedder"}
	}
	return m.embedder, nil
}

// StopwordSet returns the stopword set, or a ResourceUnavailable error if
// the manager has not been opened.
func (m *Manager) StopwordSet() (*Stopwords, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.refCount == 0 {
		return nil, &errors.ResourceUnavailable{ResourceID: "stopwords"}
	}
	return m.stopwords, nil
}

// ANN returns the registered ANN index, or a ResourceUnavailable error if
// none was configured.
func (m *Manager) ANN() (ANNIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.refCount == 0 || m.ann == nil {
		return nil, &errors.ResourceUnavailable{ResourceID: "ann-index"}
	}
	return m.ann, nil
}
