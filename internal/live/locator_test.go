// internal/live/locator_test.go
package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ascendingCatalog(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

func descendingCatalog(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(n - i)
	}
	return ids
}

func TestLocator_ProbeOnlyWhenVisible(t *testing.T) {
	// Any window that already contains the target must resolve in the
	// probe phase alone, with no scrolling.
	cases := []struct {
		name    string
		catalog []int64
		window  int
		target  int64
	}{
		{"ascending first", ascendingCatalog(5), 5, 1},
		{"ascending last", ascendingCatalog(5), 5, 5},
		{"ascending middle", ascendingCatalog(9), 9, 4},
		{"descending middle", descendingCatalog(9), 9, 4},
		{"single item window", []int64{7}, 1, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			panel := newFakePanel(tc.catalog, tc.window)
			loc := NewLocator(panel, fastScan(), zap.NewNop())

			h, err := loc.Locate(context.Background(), tc.target)
			require.NoError(t, err)

			id, err := panel.IdentifierOf(context.Background(), h)
			require.NoError(t, err)
			assert.Equal(t, tc.target, id, "returned handle must carry the requested identifier")
			assert.Zero(t, panel.scrollCalls, "visible target must not trigger scrolling")
		})
	}
}

func TestLocator_FirstMatchWinsWithoutAwaitingLosers(t *testing.T) {
	// Every non-matching identifier read blocks until the probe context is
	// cancelled. Locate can only return promptly if the winning read short
	// circuits the race and the losers are abandoned.
	catalog := ascendingCatalog(8)
	panel := newFakePanel(catalog, 8)
	panel.blockAllExcept = 5
	loc := NewLocator(panel, fastScan(), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := loc.Locate(ctx, 5)
	require.NoError(t, err)
	id, err := panel.IdentifierOf(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestLocator_ScrollsTowardTarget(t *testing.T) {
	cases := []struct {
		name    string
		catalog []int64
		target  int64
	}{
		// Window starts at the top of the list in every case.
		{"ascending target below window", ascendingCatalog(20), 17},
		{"descending target below window", descendingCatalog(20), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			panel := newFakePanel(tc.catalog, 4)
			loc := NewLocator(panel, fastScan(), zap.NewNop())

			h, err := loc.Locate(context.Background(), tc.target)
			require.NoError(t, err)

			id, err := panel.IdentifierOf(context.Background(), h)
			require.NoError(t, err)
			assert.Equal(t, tc.target, id)
			assert.Positive(t, panel.scrollCalls, "off-window target requires scrolling")
		})
	}
}

func TestLocator_ScrollsUpWhenTargetPrecedesWindow(t *testing.T) {
	panel := newFakePanel(ascendingCatalog(20), 4)
	panel.winStart = 14 // window shows ids 15..18
	loc := NewLocator(panel, fastScan(), zap.NewNop())

	h, err := loc.Locate(context.Background(), 2)
	require.NoError(t, err)

	id, err := panel.IdentifierOf(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	assert.Less(t, panel.winStart, 14, "window must have moved up")
}

func TestLocator_NotFoundAfterExhaustion(t *testing.T) {
	t.Run("target beyond loadable range", func(t *testing.T) {
		panel := newFakePanel(ascendingCatalog(10), 3)
		loc := NewLocator(panel, fastScan(), zap.NewNop())

		_, err := loc.Locate(context.Background(), 99)
		require.ErrorIs(t, err, ErrNotFound)

		// The scan is bounded by the number of stagnation-free scroll
		// steps: (10-3)/2 steps plus the final stagnant attempt.
		assert.LessOrEqual(t, panel.scrollCalls, 6, "scan must stop once the range is exhausted")
	})

	t.Run("gap inside the range", func(t *testing.T) {
		panel := newFakePanel([]int64{1, 2, 3, 4, 6, 7, 8, 9}, 3)
		loc := NewLocator(panel, fastScan(), zap.NewNop())

		_, err := loc.Locate(context.Background(), 5)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty catalog", func(t *testing.T) {
		panel := newFakePanel(nil, 3)
		loc := NewLocator(panel, fastScan(), zap.NewNop())

		_, err := loc.Locate(context.Background(), 1)
		require.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, panel.scrollCalls)
	})

	t.Run("single item window stagnates after one attempt", func(t *testing.T) {
		panel := newFakePanel([]int64{7}, 1)
		loc := NewLocator(panel, fastScan(), zap.NewNop())

		_, err := loc.Locate(context.Background(), 3)
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 1, panel.scrollCalls)
	})
}

func TestLocator_AbortDuringSettle(t *testing.T) {
	panel := newFakePanel(ascendingCatalog(30), 3)
	cfg := LocatorConfig{SettleDelay: 5 * time.Second, StagnationTolerance: 10}
	loc := NewLocator(panel, cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := loc.Locate(ctx, 29)
		done <- err
	}()

	// Give the scan time to reach the settle wait of the first round, then
	// cancel mid-wait.
	time.Sleep(100 * time.Millisecond)
	scrollsBefore := panel.scrolls()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrAborted)
		assert.NotErrorIs(t, err, ErrNotFound, "cancellation must be distinguishable from failure")
		assert.Equal(t, scrollsBefore, panel.scrolls(), "no scroll may be issued after cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("locator did not abort promptly")
	}
}

func TestLocator_AbortBeforeStart(t *testing.T) {
	panel := newFakePanel(ascendingCatalog(5), 5)
	loc := NewLocator(panel, fastScan(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loc.Locate(ctx, 3)
	require.ErrorIs(t, err, ErrAborted)
}

func TestCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{ErrNotFound, ErrCodeNotFound},
		{ErrNoInputSurface, ErrCodeNoInputSurface},
		{ErrNotSubmittable, ErrCodeNotSubmittable},
		{ErrNoPopupTrigger, ErrCodeNoPopupTrigger},
		{ErrPopupConfirmationTimeout, ErrCodeConfirmationTimeout},
		{ErrAborted, ErrCodeAborted},
		{errors.New("boom"), ErrCodeExecutionFailure},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, CodeFor(tc.err))
	}
}
