package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dmitrijs2005/gophview/internal/client/surface"
)

// Outcome is how a readiness race settled.
type Outcome struct {
	Ready     bool
	ByTimeout bool
	Err       error
}

// FirstSettled runs ops concurrently and returns the first outcome. The
// remaining ops are cancelled and FirstSettled waits for them to return, so
// by the time it returns no op holds observers or timers.
func FirstSettled(ctx context.Context, ops ...func(context.Context) Outcome) Outcome {
	if len(ops) == 0 {
		return Outcome{Err: context.Canceled}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Outcome, len(ops))
	var wg sync.WaitGroup
	for _, op := range ops {
		wg.Add(1)
		go func(op func(context.Context) Outcome) {
			defer wg.Done()
			results <- op(ctx)
		}(op)
	}

	first := <-results
	cancel()
	wg.Wait()
	return first
}

// AwaitTimeout resolves ready-by-timeout after d unless ctx ends first.
func AwaitTimeout(ctx context.Context, d time.Duration) Outcome {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return Outcome{Ready: true, ByTimeout: true}
	case <-ctx.Done():
		return Outcome{Err: ctx.Err()}
	}
}

// AwaitStructuralReadiness watches mount and resolves ready once children
// have been present for minConfirmations consecutive mutations and every
// embedded frame shows it has started loading. A mutation that empties the
// mount resets the streak.
func AwaitStructuralReadiness(ctx context.Context, mount surface.Mount, minConfirmations int) Outcome {
	w := WatchStructure(mount, minConfirmations)
	defer w.Stop()
	return w.Wait(ctx)
}

// StructureWatch counts mount mutations from the moment it is created, so
// content rendered before anyone waits still counts toward readiness.
type StructureWatch struct {
	mount      surface.Mount
	min        int
	disconnect func()

	mu     sync.Mutex
	streak int
	once   sync.Once
	ready  chan struct{}
}

// WatchStructure starts observing mount. Stop must be called to disconnect.
func WatchStructure(mount surface.Mount, minConfirmations int) *StructureWatch {
	if minConfirmations < 1 {
		minConfirmations = 1
	}
	w := &StructureWatch{mount: mount, min: minConfirmations, ready: make(chan struct{})}
	w.disconnect = mount.Observe(w.observe)
	return w
}

func (w *StructureWatch) observe(m surface.Mutation) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if m.Size == 0 {
		w.streak = 0
		return
	}
	w.streak++
	if w.streak >= w.min && FramesLoading(w.mount.Children()) {
		w.once.Do(func() { close(w.ready) })
	}
}

// Wait blocks until the watch has seen a ready structure or ctx ends.
func (w *StructureWatch) Wait(ctx context.Context) Outcome {
	select {
	case <-w.ready:
		return Outcome{Ready: true}
	case <-ctx.Done():
		return Outcome{Err: ctx.Err()}
	}
}

// Stop disconnects the observer. It is safe to call more than once.
func (w *StructureWatch) Stop() {
	w.disconnect()
}

// FramesLoading reports whether every frame among els has begun loading:
// a frame counts once it has a real src or carries a data-state of
// "loading" or "loaded". Markup with no frames passes trivially.
func FramesLoading(els []surface.Element) bool {
	for _, el := range els {
		switch el.Kind {
		case surface.KindFrame:
			if !frameSrcLoading(el.Src) {
				return false
			}
		case surface.KindFragment, surface.KindMarkup:
			if !fragmentFramesLoading(el.HTML) {
				return false
			}
		}
	}
	return true
}

func fragmentFramesLoading(html string) bool {
	if !strings.Contains(strings.ToLower(html), "frame") {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	ok := true
	doc.Find("iframe, frame").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		state := strings.ToLower(s.AttrOr("data-state", ""))
		if state == "loading" || state == "loaded" {
			return true
		}
		if frameSrcLoading(s.AttrOr("src", "")) {
			return true
		}
		ok = false
		return false
	})
	return ok
}

func frameSrcLoading(src string) bool {
	src = strings.TrimSpace(src)
	return src != "" && !strings.EqualFold(src, "about:blank")
}
