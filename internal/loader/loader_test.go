package loader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"catalog/storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAbsentKeyStaysIdle(t *testing.T) {
	var calls atomic.Int32
	l := New("thing", 0, func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		return key, nil
	})
	defer l.Close()

	l.Load("")

	state := l.State()
	assert.False(t, state.Loading)
	assert.False(t, state.Ready)
	assert.NoError(t, state.Err)
	assert.Zero(t, calls.Load())
}

func TestLoadSucceeds(t *testing.T) {
	l := New("thing", 0, func(ctx context.Context, key string) (string, error) {
		return "value-" + key, nil
	})
	defer l.Close()

	l.Load("a")

	state, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, state.Ready)
	assert.False(t, state.Loading)
	assert.Equal(t, "value-a", state.Value)
	assert.Empty(t, state.Message())
}

func TestLoadFailureClearsLoading(t *testing.T) {
	l := New("thing", 0, func(ctx context.Context, key string) (string, error) {
		return "", &domain.FetchError{Status: 500, Message: "Failed to fetch categories"}
	})
	defer l.Close()

	l.Load("a")

	state, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.False(t, state.Loading)
	assert.False(t, state.Ready)
	assert.Equal(t, "Failed to fetch categories", state.Message())
}

func TestStaleResultIsDiscarded(t *testing.T) {
	releaseFirst := make(chan struct{})
	released := make(chan string, 2)

	l := New("thing", 0, func(ctx context.Context, key string) (string, error) {
		if key == "k1" {
			<-releaseFirst
		}
		return "value-" + key, nil
	}).WithRelease(func(v string) {
		released <- v
	})
	defer l.Close()

	l.Load("k1")
	l.Load("k2")

	state, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "value-k2", state.Value)

	close(releaseFirst)

	select {
	case v := <-released:
		assert.Equal(t, "value-k1", v)
	case <-time.After(time.Second):
		t.Fatal("stale result was not released")
	}

	assert.Equal(t, "value-k2", l.State().Value)
	assert.Equal(t, "k2", l.Key())
}

func TestSameKeyDoesNotRefetch(t *testing.T) {
	var calls atomic.Int32
	l := New("thing", 0, func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		return key, nil
	})
	defer l.Close()

	l.Load("a")
	_, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	l.Load("a")

	assert.Equal(t, int32(1), calls.Load())
}

func TestKeyChangeReleasesPreviousValue(t *testing.T) {
	releasedCh := make(chan string, 4)
	l := New("thing", 0, func(ctx context.Context, key string) (string, error) {
		return "value-" + key, nil
	}).WithRelease(func(v string) { releasedCh <- v })

	l.Load("a")
	_, err := l.Wait(waitCtx(t))
	require.NoError(t, err)

	l.Load("b")
	assert.Equal(t, "value-a", <-releasedCh)

	_, err = l.Wait(waitCtx(t))
	require.NoError(t, err)

	l.Close()
	assert.Equal(t, "value-b", <-releasedCh)
}

func TestTimeoutBecomesTimeoutError(t *testing.T) {
	l := New("thing", 20*time.Millisecond, func(ctx context.Context, key string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	defer l.Close()

	l.Load("slow")

	state, err := l.Wait(waitCtx(t))
	require.NoError(t, err)

	var timeoutErr *domain.TimeoutError
	assert.True(t, errors.As(state.Err, &timeoutErr))
	assert.False(t, state.Loading)
}

func TestStateForUnissuedKeyIsPending(t *testing.T) {
	l := New("thing", 0, func(ctx context.Context, key int) (int, error) {
		return key * 2, nil
	})
	defer l.Close()

	assert.True(t, l.StateFor(4).Loading)
	assert.False(t, l.StateFor(0).Loading)

	l.Load(4)
	state, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 8, state.Value)
	assert.Equal(t, state, l.StateFor(4))
}

func TestOnChangeFiresAndUnsubscribes(t *testing.T) {
	var changes atomic.Int32
	l := New("thing", 0, func(ctx context.Context, key string) (string, error) {
		return key, nil
	})
	defer l.Close()

	unsubscribe := l.OnChange(func() { changes.Add(1) })

	l.Load("a")
	_, err := l.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return changes.Load() == 2 }, time.Second, 5*time.Millisecond)

	unsubscribe()
	l.Load("b")
	_, err = l.Wait(waitCtx(t))
	require.NoError(t, err)

	assert.Equal(t, int32(2), changes.Load())
}

func TestCloseDropsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	l := New("thing", 0, func(ctx context.Context, key string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})

	l.Load("a")
	<-started
	l.Close()

	state := l.State()
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)

	l.Load("b")
	assert.Equal(t, "", l.Key())
}
