package web

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/petasbytes/olier/internal/provider"
)

// modelLookupTimeout bounds one shared model lookup.
const modelLookupTimeout = 30 * time.Second

// modelCache resolves the served model id on first use and keeps it for
// the life of the process. Failures are not cached. Concurrent callers share
// one lookup, and each returns as soon as its own context is done.
type modelCache struct {
	p     provider.Provider
	group singleflight.Group

	mu sync.RWMutex
	id string
}

func (m *modelCache) cached() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id
}

func (m *modelCache) get(ctx context.Context) (string, error) {
	if id := m.cached(); id != "" {
		return id, nil
	}
	ch := m.group.DoChan("model", func() (any, error) {
		// The lookup outlives any single request that started it.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), modelLookupTimeout)
		defer cancel()
		id, err := provider.FirstModel(lctx, m.p)
		if err != nil {
			return "", err
		}
		m.mu.Lock()
		m.id = id
		m.mu.Unlock()
		return id, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
