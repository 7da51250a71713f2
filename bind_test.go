package graft_test

import (
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/overdevelop/graft"
)

func TestBindInstance(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())
	svc := &Service{Name: "bound"}

	require.NoError(t, inj.BindInstance(graft.KeyOf[*Service](), svc, true))

	got, err := graft.Get[*Service](inj)
	require.NoError(t, err)
	assert.Same(t, svc, got)
}

func TestBind_FirstWins(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())
	key := graft.KeyOf[*Service]()
	first := &Service{Name: "first"}

	require.NoError(t, inj.BindInstance(key, first, true))
	require.NoError(t, inj.BindInstance(key, &Service{Name: "second"}, false))

	err := inj.BindInstance(key, &Service{Name: "third"}, true)
	require.ErrorIs(t, err, graft.ErrDuplicateBinding)

	got, err := graft.Get[*Service](inj)
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestBind_AfterImplicitResolution(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())

	_, err := graft.Get[*Service](inj)
	require.NoError(t, err)

	err = graft.BindValue(inj, &Service{}, true)
	assert.ErrorIs(t, err, graft.ErrDuplicateBinding)
}

func TestBind_ConcurrentThrowIfExists(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())
	key := graft.KeyOf[*Service]()

	var ok, dup atomic.Int64
	var g errgroup.Group
	for range 20 {
		g.Go(func() error {
			err := inj.BindInstance(key, &Service{}, true)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, graft.ErrDuplicateBinding):
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), ok.Load())
	assert.Equal(t, int64(19), dup.Load())
}

func TestBind_InvalidArguments(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())

	tests := []struct {
		name string
		bind func() error
	}{
		{"zero key", func() error { return inj.BindInstance(graft.Key{}, &Service{}, false) }},
		{"provider key", func() error {
			return inj.BindInstance(graft.KeyOf[graft.Provider[*Service]](), &Service{}, false)
		}},
		{"nil instance", func() error { return inj.BindInstance(graft.KeyOf[*Service](), nil, false) }},
		{"nil supplier", func() error { return inj.BindSupplier(graft.KeyOf[*Service](), nil, false) }},
		{"nil type", func() error { return inj.BindType(graft.KeyOf[*Service](), nil, false) }},
		{"nil target", func() error { return inj.Bind(graft.KeyOf[*Service](), nil, false) }},
		{"unassignable instance", func() error { return inj.BindInstance(graft.KeyOf[*Service](), &Database{}, false) }},
		{"unassignable type", func() error {
			return inj.BindType(graft.KeyOf[Greeter](), reflect.TypeFor[*Service](), false)
		}},
		{"unassignable singleton", func() error {
			return inj.BindSingleton(graft.KeyOf[Greeter](), reflect.TypeFor[*Service](), false, false)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.bind(), graft.ErrInvalidArguments)
		})
	}
}

func TestBindType(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())

	require.NoError(t, inj.BindType(graft.KeyOf[Greeter](), reflect.TypeFor[*englishGreeter](), true))

	g, err := graft.Get[Greeter](inj)
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greet())
}

func TestBindType_Self(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())

	require.NoError(t, inj.Bind(graft.KeyOf[*Service](), reflect.TypeFor[*Service](), true))

	_, err := graft.Get[*Service](inj)
	require.NoError(t, err)
	assert.Len(t, inj.Bindings(), 3)
}

func TestBindTo_Qualified(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())

	require.NoError(t, graft.BindTo[Greeter, *englishGreeter](inj, true, graft.Named("en")))

	_, err := graft.Get[Greeter](inj)
	assert.ErrorIs(t, err, graft.ErrUnresolvableKey)

	g, err := graft.Get[Greeter](inj, graft.Named("en"))
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greet())
}

func TestBindSupplier(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())

	var calls atomic.Int64
	require.NoError(t, inj.BindSupplier(graft.KeyOf[*counted](), func() (any, error) {
		return &counted{id: calls.Add(1)}, nil
	}, true))

	require.NoError(t, inj.Bind(graft.KeyOf[*Service](), func() (any, error) {
		return &Service{Name: "from func"}, nil
	}, true))

	for i := int64(1); i <= 3; i++ {
		c, err := graft.Get[*counted](inj)
		require.NoError(t, err)
		assert.Equal(t, i, c.id)
	}

	svc, err := graft.Get[*Service](inj)
	require.NoError(t, err)
	assert.Equal(t, "from func", svc.Name)
}

func TestBindSingleton(t *testing.T) {
	tests := []struct {
		name      string
		eager     bool
		afterBind int64
	}{
		{"lazy", false, 0},
		{"eager", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64

			reg := graft.NewRegistry()
			require.NoError(t, graft.Register[*counted](reg,
				graft.Constructor(func() *counted { return &counted{id: calls.Add(1)} }),
			))

			inj := newInjector(t, reg)
			key := graft.KeyOf[*counted](graft.Named("one"))

			require.NoError(t, inj.BindSingleton(key, reflect.TypeFor[*counted](), tt.eager, true))
			assert.Equal(t, tt.afterBind, calls.Load())

			first, err := inj.Get(key)
			require.NoError(t, err)
			second, err := inj.Get(key)
			require.NoError(t, err)

			assert.Same(t, first, second)
			assert.Equal(t, int64(1), calls.Load())

			var found bool
			for _, b := range inj.Bindings() {
				if b.Key.Equal(key) {
					found = true
					assert.True(t, b.Singleton)
					assert.Equal(t, tt.eager, b.Eager)
				}
			}
			assert.True(t, found)
		})
	}
}

func TestBindSingletonTo(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())

	require.NoError(t, graft.BindSingletonTo[Greeter, *englishGreeter](inj, false, true))

	a, err := graft.Get[Greeter](inj)
	require.NoError(t, err)
	b, err := graft.Get[Greeter](inj)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestBindSingleton_AbstractImplementation(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())

	err := inj.BindSingleton(graft.KeyOf[Greeter](), reflect.TypeFor[Greeter](), false, true)
	assert.ErrorIs(t, err, graft.ErrUnresolvableKey)
}

func TestBindSingleton_EagerFailure(t *testing.T) {
	boom := errors.New("boom")

	reg := graft.NewRegistry()
	require.NoError(t, graft.Register[*Service](reg, graft.Constructor(func() (*Service, error) { return nil, boom })))

	inj := newInjector(t, reg)

	err := inj.BindSingleton(graft.KeyOf[*Service](), reflect.TypeFor[*Service](), true, true)
	require.ErrorIs(t, err, boom)

	_, err = graft.Get[*Service](inj)
	assert.ErrorIs(t, err, boom, "construction is retried, not cached")
}

func TestBindSingleton_EagerConcurrent(t *testing.T) {
	var calls atomic.Int64

	reg := graft.NewRegistry()
	require.NoError(t, graft.Register[*counted](reg,
		graft.Constructor(func() *counted { return &counted{id: calls.Add(1)} }),
	))

	inj := newInjector(t, reg)
	typ := reflect.TypeFor[*counted]()

	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			return inj.BindSingleton(graft.KeyOf[*counted](), typ, true, false)
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), calls.Load())
}

func TestBindings_Snapshot(t *testing.T) {
	inj := newInjector(t, graft.NewRegistry())
	require.NoError(t, graft.BindValue(inj, &Service{}, true))

	_, err := graft.Get[*Repository](inj)
	require.NoError(t, err)

	bindings := inj.Bindings()
	for i := 1; i < len(bindings); i++ {
		assert.Less(t, bindings[i-1].Key.String(), bindings[i].Key.String())
	}

	byKey := make(map[string]graft.Binding)
	for _, b := range bindings {
		byKey[b.Key.String()] = b
	}

	svc := byKey[graft.KeyOf[*Service]().String()]
	assert.True(t, svc.Resolved)

	repo := byKey[graft.KeyOf[*Repository]().String()]
	assert.False(t, repo.Resolved)
	assert.False(t, repo.Singleton)
}
