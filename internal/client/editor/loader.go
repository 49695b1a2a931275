package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophview/internal/common"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a single shared Engine.Load attempt.
const DefaultLoadTimeout = 30 * time.Second

// Loader memoizes Engine.Load. Concurrent callers share one in-flight
// attempt; a successful load is remembered for the life of the process,
// a failed one is not, so a later preview can retry.
type Loader struct {
	engine  Engine
	timeout time.Duration
	group   singleflight.Group

	mu     sync.Mutex
	loaded bool
}

var (
	loadersMu sync.Mutex
	loaders   = make(map[Engine]*Loader)
)

// LoaderFor returns the process-wide Loader for engine, creating it on first
// use. engine must be comparable (typically a pointer).
func LoaderFor(engine Engine) *Loader {
	loadersMu.Lock()
	defer loadersMu.Unlock()

	l, ok := loaders[engine]
	if !ok {
		l = &Loader{engine: engine, timeout: DefaultLoadTimeout}
		loaders[engine] = l
	}
	return l
}

// ResetLoaders forgets every memoized loader. The vendor runtime itself is
// never unloaded; this only exists so tests start from a clean process state.
func ResetLoaders() {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	loaders = make(map[Engine]*Loader)
}

// Loaded reports whether the engine finished loading successfully.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Ensure returns once the engine is loaded. The shared attempt is detached
// from ctx so one caller giving up does not fail the others; ctx only
// bounds how long this caller waits.
func (l *Loader) Ensure(ctx context.Context) error {
	if l.Loaded() {
		return nil
	}

	ch := l.group.DoChan("load", func() (any, error) {
		if l.Loaded() {
			return nil, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		if err := l.engine.Load(loadCtx); err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.loaded = true
		l.mu.Unlock()
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return fmt.Errorf("%w: %v", common.ErrEngineLoad, res.Err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
