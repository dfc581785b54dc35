package corpus

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// SnapshotLoader produces a fresh Snapshot.
type SnapshotLoader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Manager holds the current snapshot and loads it lazily.
// Concurrent callers share one load; readers always see a complete snapshot.
type Manager struct {
	loader  SnapshotLoader
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
}

// NewManager creates a manager around loader. Nothing is loaded until the
// first call to Snapshot or Reload.
func NewManager(loader SnapshotLoader, logger *slog.Logger) (*Manager, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		loader: loader,
		logger: logger.With("component", "corpus-manager"),
	}, nil
}

// Snapshot returns the current snapshot, loading it if there is none.
func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := m.current.Load(); s != nil {
		return s, nil
	}
	return m.load(ctx, false)
}

// Reload loads a new snapshot and swaps it in.
// The previous snapshot stays visible until the new one is ready.
func (m *Manager) Reload(ctx context.Context) (*Snapshot, error) {
	return m.load(ctx, true)
}

// Invalidate drops the current snapshot; the next Snapshot call reloads.
// A load already in flight is not installed.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.generation++
	m.mu.Unlock()
	m.current.Store(nil)
	m.logger.Info("corpus snapshot invalidated")
}

// Current returns the loaded snapshot without triggering a load. May be nil.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

func (m *Manager) load(ctx context.Context, force bool) (*Snapshot, error) {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	key := "load:" + strconv.FormatUint(gen, 10)
	if force {
		key = "reload:" + strconv.FormatUint(gen, 10)
	}

	// The shared load must not die with whichever caller started it
	loadCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		if !force {
			if s := m.current.Load(); s != nil {
				return s, nil
			}
		}
		s, err := m.loader.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if m.generation == gen {
			m.current.Store(s)
		}
		m.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}
