package graft

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func counting(n *atomic.Int64, v any) Supplier {
	return func() (any, error) {
		n.Add(1)
		return v, nil
	}
}

func TestAdaptive_SwapsOnce(t *testing.T) {
	var generic, specialized, swaps atomic.Int64

	s := newAdaptive(counting(&generic, "v"), counting(&specialized, "v"), 3, func() { swaps.Add(1) })

	for range 5 {
		v, err := s()
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}

	assert.Equal(t, int64(3), generic.Load())
	assert.Equal(t, int64(2), specialized.Load())
	assert.Equal(t, int64(1), swaps.Load())
}

func TestAdaptive_Concurrent(t *testing.T) {
	var generic, specialized, swaps atomic.Int64

	s := newAdaptive(counting(&generic, 1), counting(&specialized, 1), 3, func() { swaps.Add(1) })

	var g errgroup.Group
	for range 100 {
		g.Go(func() error {
			_, err := s()
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), swaps.Load())
	assert.Equal(t, int64(100), generic.Load()+specialized.Load())
	assert.GreaterOrEqual(t, generic.Load(), int64(3))
}

func TestAdaptive_Disabled(t *testing.T) {
	var generic, specialized atomic.Int64

	s := newAdaptive(counting(&generic, 1), counting(&specialized, 1), 0, nil)
	for range 10 {
		_, _ = s()
	}

	assert.Equal(t, int64(10), generic.Load())
	assert.Zero(t, specialized.Load())
}

func TestLazySingleton(t *testing.T) {
	var calls atomic.Int64

	s := newLazySingleton(func() (any, error) {
		return calls.Add(1), nil
	})

	var g errgroup.Group
	for range 50 {
		g.Go(func() error {
			v, err := s()
			if err != nil {
				return err
			}
			if v.(int64) != 1 {
				return errors.New("observed a second instance")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), calls.Load())
}

func TestLazySingleton_FailureNotCached(t *testing.T) {
	var calls atomic.Int64
	boom := errors.New("boom")

	s := newLazySingleton(func() (any, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return "ok", nil
	})

	_, err := s()
	require.ErrorIs(t, err, boom)

	v, err := s()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	_, _ = s()
	assert.Equal(t, int64(2), calls.Load())
}

func TestAdaptive_StopsCountingAfterSwap(t *testing.T) {
	var generic, specialized atomic.Int64

	g := counting(&generic, "v")
	a := &adaptive{specialized: counting(&specialized, "v"), threshold: 3}
	a.current.Store(&g)

	for range 10 {
		_, err := a.get()
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), a.calls.Load())
	assert.Equal(t, int64(3), generic.Load())
	assert.Equal(t, int64(7), specialized.Load())
}

func TestWithPostConstruct(t *testing.T) {
	key := KeyOf[string]()

	s := withPostConstruct(constant("v"), func(any) error { return errors.New("hook") }, key)
	_, err := s()
	require.ErrorIs(t, err, ErrLifecycleHook)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, key, gerr.Key)

	v, err := withPostConstruct(constant("v"), nil, key)()
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestConstruct_ParameterOrder(t *testing.T) {
	var order []int
	param := func(i int) Supplier {
		return func() (any, error) {
			order = append(order, i)
			return i, nil
		}
	}

	s := construct(func(args []any) (any, error) {
		return args, nil
	}, []Supplier{param(0), param(1), param(2)})

	v, err := s()
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1, 2}, v)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestDeferred_ResolvesOnFirstUse(t *testing.T) {
	var resolves atomic.Int64

	s := deferred(func() (Supplier, error) {
		resolves.Add(1)
		return constant("late"), nil
	})
	assert.Zero(t, resolves.Load())

	for range 3 {
		v, err := s()
		require.NoError(t, err)
		assert.Equal(t, "late", v)
	}
	assert.Equal(t, int64(1), resolves.Load())
}

func TestDeferred_RetriesFailedResolution(t *testing.T) {
	var resolves atomic.Int64

	s := deferred(func() (Supplier, error) {
		if resolves.Add(1) == 1 {
			return nil, errors.New("not yet")
		}
		return constant(1), nil
	})

	_, err := s()
	require.Error(t, err)

	v, err := s()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
