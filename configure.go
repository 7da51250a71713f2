package graft

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

var moduleType = reflect.TypeFor[Module]()

type configState struct {
	done atomic.Bool
	mu   sync.Mutex
}

// Configure applies configuration types: their supplies methods become
// bindings and, when they implement Module, their Configure callback runs
// against the injector. Each configuration type is applied at most once.
func (inj *Injector) Configure(configTypes ...reflect.Type) error {
	for i, t := range configTypes {
		if t == nil {
			return invalidArguments(fmt.Sprintf("configure: nil configuration type at position %d", i))
		}
	}

	for _, t := range configTypes {
		if err := inj.applyConfiguration(t, newTrail()); err != nil {
			return err
		}
	}
	return nil
}

func (inj *Injector) applyConfiguration(t reflect.Type, tr *trail) error {
	// Re-entered from within its own application, e.g. a module binding a
	// type that is configured by the same module.
	if _, ok := tr.configuring[t]; ok {
		return nil
	}

	v, _ := inj.configured.LoadOrStore(t, &configState{})
	st := v.(*configState)
	if st.done.Load() {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.done.Load() {
		return nil
	}

	tr.configuring[t] = struct{}{}
	defer delete(tr.configuring, t)

	d, err := inj.describe(t)
	if err != nil {
		return &Error{Kind: ErrUnresolvableKey, Key: KeyFor(t), Msg: "configuration type", Err: err}
	}

	instance, err := inj.supplier(KeyFor(t), tr)
	if err != nil {
		return fmt.Errorf("configuration %s: %w", t, err)
	}

	for _, m := range d.Supplies {
		if _, loaded := inj.factories.LoadOrStore(m.Result.Direct(), &factory{method: m, config: t}); loaded {
			inj.logger.Debug("supplies method ignored, key already supplied", "key", m.Result.String(), "method", m.Name)
		}
	}

	if t.Implements(moduleType) {
		cfg, err := instance()
		if err != nil {
			return fmt.Errorf("configuration %s: %w", t, err)
		}

		module, ok := cfg.(Module)
		if !ok {
			return fmt.Errorf("configuration %s: instance %T is not a module", t, cfg)
		}

		if err := module.Configure(&trailBinder{inj: inj, tr: tr}); err != nil {
			return fmt.Errorf("configuration %s: %w", t, err)
		}
	}

	st.done.Store(true)
	inj.logger.Debug("configuration applied", "type", t.String(), "supplies", len(d.Supplies))
	return nil
}

// trailBinder is the Binder handed to modules. It keeps the caller's trail so
// bindings made while configuring take part in cycle detection.
type trailBinder struct {
	inj *Injector
	tr  *trail
}

func (b *trailBinder) Bind(key Key, target any, throwIfExists bool) error {
	return b.inj.bind(key, target, throwIfExists, b.tr)
}

func (b *trailBinder) BindSingleton(key Key, implementation reflect.Type, eager, throwIfExists bool) error {
	return b.inj.bindSingleton(key, implementation, eager, throwIfExists, b.tr)
}
