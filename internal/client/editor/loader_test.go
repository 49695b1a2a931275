package editor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophview/internal/client/editor"
	"github.com/dmitrijs2005/gophview/internal/client/editor/editortest"
	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_ConcurrentCallersShareOneLoad(t *testing.T) {
	t.Cleanup(editor.ResetLoaders)

	gate := make(chan struct{})
	eng := &editortest.Engine{LoadGate: gate}
	loader := editor.LoaderFor(eng)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = loader.Ensure(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, eng.Loads())
	assert.True(t, loader.Loaded())

	require.NoError(t, loader.Ensure(context.Background()))
	assert.Equal(t, 1, eng.Loads(), "success is remembered")
}

func TestLoader_FailureIsNotCached(t *testing.T) {
	t.Cleanup(editor.ResetLoaders)

	eng := &editortest.Engine{LoadErr: errors.New("cdn unreachable")}
	loader := editor.LoaderFor(eng)

	err := loader.Ensure(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEngineLoad)
	assert.False(t, loader.Loaded())

	require.NoError(t, loader.Ensure(context.Background()))
	assert.Equal(t, 2, eng.Loads())
}

func TestLoader_SamePerEngine(t *testing.T) {
	t.Cleanup(editor.ResetLoaders)

	a, b := &editortest.Engine{}, &editortest.Engine{}
	assert.Same(t, editor.LoaderFor(a), editor.LoaderFor(a))
	assert.NotSame(t, editor.LoaderFor(a), editor.LoaderFor(b))

	first := editor.LoaderFor(a)
	editor.ResetLoaders()
	assert.NotSame(t, first, editor.LoaderFor(a))
}

func TestLoader_CallerCancellationDoesNotFailOthers(t *testing.T) {
	t.Cleanup(editor.ResetLoaders)

	gate := make(chan struct{})
	eng := &editortest.Engine{LoadGate: gate}
	loader := editor.LoaderFor(eng)

	ctx, cancel := context.WithCancel(context.Background())
	impatient := make(chan error, 1)
	go func() { impatient <- loader.Ensure(ctx) }()

	patient := make(chan error, 1)
	go func() { patient <- loader.Ensure(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-impatient, context.Canceled)

	close(gate)
	require.NoError(t, <-patient)
	assert.True(t, loader.Loaded())
}
