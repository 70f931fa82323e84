package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
	"github.com/tenderlens/tenderlens-cli/internal/logger"
)

// CumulativeNamespaceID is the shared namespace used by cumulative mode.
// It is never cleared, so chunks from prior documents stay queryable.
const CumulativeNamespaceID = "cumulative"

// IsolatedNamespaceID is the shared namespace used by isolated mode. The
// ID is stable across sessions and processes so that clearing it on
// acquire reclaims whatever the previous session left behind, including
// rows persisted by the sqlite backend in earlier runs.
const IsolatedNamespaceID = "isolated"

// NamespaceManager owns the lifecycle of retrieval namespaces: creation,
// clearing for isolated sessions, and release.
type NamespaceManager struct {
	store driven.VectorStore

	// mu serialises acquisition so an isolated clear can never race a
	// concurrent acquire on the same namespace.
	mu sync.Mutex
}

// NewNamespaceManager creates a namespace manager over the vector store.
func NewNamespaceManager(store driven.VectorStore) *NamespaceManager {
	return &NamespaceManager{store: store}
}

// Acquire returns a namespace handle for the session.
//
// In isolated mode the shared isolated namespace is cleared synchronously
// before returning, reclaiming the previous session's chunks; no indexing
// or retrieval may begin until the clear completes. In cumulative mode
// the shared cumulative namespace is returned untouched.
//
// If the store is unreachable, acquisition fails with
// domain.ErrStoreUnavailable; this is fatal to the whole pipeline.
func (m *NamespaceManager) Acquire(ctx context.Context, sessionID string, mode domain.IsolationMode) (domain.Namespace, error) {
	if m.store == nil {
		return domain.Namespace{}, fmt.Errorf("acquire namespace: %w", domain.ErrStoreUnavailable)
	}
	if !mode.Valid() {
		return domain.Namespace{}, fmt.Errorf("%w: isolation mode %q", domain.ErrInvalidInput, mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Ping(ctx); err != nil {
		return domain.Namespace{}, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	if mode == domain.IsolationCumulative {
		logger.Debug("Acquired cumulative namespace %q for session %s", CumulativeNamespaceID, sessionID)
		return domain.Namespace{ID: CumulativeNamespaceID, Session: sessionID, Mode: mode}, nil
	}

	ns := domain.Namespace{ID: IsolatedNamespaceID, Session: sessionID, Mode: mode}
	if err := m.store.Clear(ctx, ns.ID); err != nil {
		return domain.Namespace{}, fmt.Errorf("%w: clear namespace %s: %w", domain.ErrStoreUnavailable, ns.ID, err)
	}

	logger.Debug("Acquired isolated namespace %q for session %s (previous chunks cleared)", ns.ID, sessionID)
	return ns, nil
}

// Release returns the namespace. Cumulative namespaces need nothing;
// isolated namespaces keep their chunks until the next Acquire clears
// them, so a crashed session never blocks the next one.
func (m *NamespaceManager) Release(ns domain.Namespace) {
	logger.Debug("Released namespace %q (session %s)", ns.ID, ns.Session)
}
