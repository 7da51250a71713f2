package graft

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// constant always returns v.
func constant(v any) Supplier {
	return func() (any, error) {
		return v, nil
	}
}

// construct evaluates the parameter producers in declared order and passes the
// values to invoke.
func construct(invoke Invoker, params []Supplier) Supplier {
	return func() (any, error) {
		args := make([]any, len(params))
		for i, p := range params {
			v, err := p()
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return invoke(args)
	}
}

// adaptive routes calls through generic until threshold calls were made and
// then swaps to specialized for good.
type adaptive struct {
	current     atomic.Pointer[Supplier]
	specialized Supplier
	calls       atomic.Int64
	threshold   int64
	onSwap      func()
}

func newAdaptive(generic, specialized Supplier, threshold int, onSwap func()) Supplier {
	if specialized == nil || threshold <= 0 {
		return generic
	}

	a := &adaptive{
		specialized: specialized,
		threshold:   int64(threshold),
		onSwap:      onSwap,
	}
	a.current.Store(&generic)

	return a.get
}

func (a *adaptive) get() (any, error) {
	p := a.current.Load()
	if p == &a.specialized {
		return a.specialized()
	}
	s := *p

	// Exactly one caller observes the threshold.
	if a.calls.Add(1) == a.threshold {
		a.current.Store(&a.specialized)
		if a.onSwap != nil {
			a.onSwap()
		}
	}

	return s()
}

// withPostConstruct runs hook on every freshly constructed instance. A failing
// hook discards the instance.
func withPostConstruct(base Supplier, hook func(any) error, key Key) Supplier {
	if hook == nil {
		return base
	}

	return func() (any, error) {
		instance, err := base()
		if err != nil {
			return nil, err
		}

		if err := safeHook(hook, instance); err != nil {
			return nil, &Error{Kind: ErrLifecycleHook, Key: key, Msg: "post-construct", Err: err}
		}
		return instance, nil
	}
}

func safeHook(hook func(any) error, instance any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return hook(instance)
}

// lazySingleton memoizes the first successful result. Construction runs at
// most once; failures are not cached so a later call may retry.
type lazySingleton struct {
	base  Supplier
	value any
	done  atomic.Bool
	mu    sync.Mutex
}

func newLazySingleton(base Supplier) Supplier {
	s := &lazySingleton{base: base}
	return s.get
}

func (s *lazySingleton) get() (any, error) {
	if s.done.Load() {
		return s.value, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done.Load() {
		return s.value, nil
	}

	v, err := s.base()
	if err != nil {
		return nil, err
	}

	s.value = v
	s.done.Store(true)
	return v, nil
}

// deferred resolves the supplier for key on first use and reuses it afterwards.
// Nothing is resolved when the thunk is created.
func deferred(resolve func() (Supplier, error)) Supplier {
	var (
		mu       sync.Mutex
		resolved atomic.Pointer[Supplier]
	)

	return func() (any, error) {
		if s := resolved.Load(); s != nil {
			return (*s)()
		}

		mu.Lock()
		s := resolved.Load()
		if s == nil {
			r, err := resolve()
			if err != nil {
				mu.Unlock()
				return nil, err
			}
			s = &r
			resolved.Store(s)
		}
		mu.Unlock()

		return (*s)()
	}
}
