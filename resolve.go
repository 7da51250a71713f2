package graft

import (
	"fmt"
	"reflect"
	"slices"
)

// trail tracks the keys being resolved by one top-level call. It is never
// shared between calls, so concurrent resolutions do not see each other.
type trail struct {
	keys        []Key
	active      map[Key]struct{}
	configuring map[reflect.Type]struct{}
}

func newTrail() *trail {
	return &trail{
		active:      make(map[Key]struct{}),
		configuring: make(map[reflect.Type]struct{}),
	}
}

func (t *trail) push(key Key) error {
	key = key.Direct()
	if _, ok := t.active[key]; ok {
		return &Error{
			Kind:  ErrCyclicDependency,
			Key:   key,
			Trail: append(slices.Clone(t.keys), key),
		}
	}

	t.active[key] = struct{}{}
	t.keys = append(t.keys, key)
	return nil
}

func (t *trail) pop() {
	last := t.keys[len(t.keys)-1]
	t.keys = t.keys[:len(t.keys)-1]
	delete(t.active, last)
}

// factory is a binding contributed by a supplies method of a configuration type.
type factory struct {
	method Method
	config reflect.Type
}

func (inj *Injector) supplier(key Key, tr *trail) (Supplier, error) {
	if key.IsZero() {
		return nil, invalidArguments("nil key")
	}

	if key.Indirect() {
		direct := key.Direct()
		thunk := deferred(func() (Supplier, error) {
			return inj.Supplier(direct)
		})
		return constant(thunk), nil
	}

	if e, ok := inj.bindings.load(key); ok {
		return e.supplier, nil
	}

	if err := tr.push(key); err != nil {
		return nil, err
	}
	defer tr.pop()

	e, err := inj.resolve(key, tr)
	if err != nil {
		return nil, err
	}

	return inj.installResolved(e)
}

func (inj *Injector) installResolved(e *entry) (Supplier, error) {
	actual, installed := inj.bindings.install(e)
	if installed {
		inj.logger.Debug("binding installed",
			"key", actual.key.String(),
			"target", actual.target,
			"scope", actual.scope.String(),
		)
	} else {
		inj.logger.Debug("binding already installed, discarding plan", "key", e.key.String())
	}

	if err := inj.settle(actual); err != nil {
		return nil, err
	}
	return actual.supplier, nil
}

// settle constructs an eager singleton before its binding is handed out.
// Everyone racing on the key settles the one installed lazy singleton, so the
// instance is constructed once.
func (inj *Injector) settle(e *entry) error {
	if e.scope != EagerSingleton {
		return nil
	}

	if _, err := e.supplier(); err != nil {
		return fmt.Errorf("constructing eager singleton %s: %w", e.key, err)
	}
	return nil
}

// resolve builds the entry for an unbound key.
func (inj *Injector) resolve(key Key, tr *trail) (*entry, error) {
	if f, ok := inj.factories.Load(key.Direct()); ok {
		return inj.resolveFactory(key, f.(*factory), tr)
	}

	d, err := inj.describe(key.Type())
	if err != nil {
		return nil, &Error{Kind: ErrUnresolvableKey, Key: key, Err: err}
	}

	if d.Abstract {
		return inj.resolveAbstract(key, d, tr)
	}

	return inj.resolveConstructor(key, d, nil, tr)
}

// resolveAbstract links key to the supplier of its declared implementation so
// both share one lifecycle.
func (inj *Injector) resolveAbstract(key Key, d *Descriptor, tr *trail) (*entry, error) {
	if d.Implementation == nil {
		return nil, unresolvable(key, "no implementation declared for abstract type")
	}

	impl, err := inj.describe(d.Implementation)
	if err != nil {
		return nil, &Error{Kind: ErrUnresolvableKey, Key: key, Err: err}
	}
	if impl.Abstract {
		return nil, unresolvable(key, fmt.Sprintf("declared implementation %s is abstract", d.Implementation))
	}

	implKey := KeyFor(d.Implementation)
	s, err := inj.supplier(implKey, tr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", key, err)
	}

	e := &entry{key: key, supplier: s, target: d.Implementation.String()}
	if linked, ok := inj.bindings.load(implKey); ok {
		e.scope = linked.scope
	}
	return e, nil
}

// resolveConstructor plans construction of a concrete type. scope overrides
// the descriptor's scope when set.
func (inj *Injector) resolveConstructor(key Key, d *Descriptor, scope *Scope, tr *trail) (*entry, error) {
	if d.Configuration != nil {
		if err := inj.applyConfiguration(d.Configuration, tr); err != nil {
			return nil, fmt.Errorf("resolving %s: %w", key, err)
		}

		// The configuration may have contributed a factory for this very key.
		if f, ok := inj.factories.Load(key.Direct()); ok && scope == nil {
			return inj.resolveFactory(key, f.(*factory), tr)
		}
	}

	m, err := selectMethod(key, d)
	if err != nil {
		return nil, err
	}

	params, err := inj.parameters(m.Name, m.Params, tr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", key, err)
	}

	effective := d.Scope
	if scope != nil {
		effective = *scope
	}

	s := withPostConstruct(inj.base(key, m, params), d.PostConstruct, key)

	// Eager singletons are constructed by settle once installed.
	if effective != Transient {
		s = newLazySingleton(s)
	}

	return &entry{key: key, supplier: s, target: m.Name, scope: effective}, nil
}

func (inj *Injector) resolveFactory(key Key, f *factory, tr *trail) (*entry, error) {
	params, err := inj.parameters(f.method.Name, f.method.Params, tr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s supplied by %s: %w", key, f.config, err)
	}

	return &entry{
		key:      key,
		supplier: inj.base(key, f.method, params),
		target:   f.config.String() + "." + f.method.Name,
	}, nil
}

// base is the construct-one-instance supplier, adaptive when the method has a
// specialized path.
func (inj *Injector) base(key Key, m Method, params []Supplier) Supplier {
	generic := construct(m.Call, params)
	if m.Fast == nil {
		return generic
	}

	return newAdaptive(generic, construct(m.Fast, params), inj.threshold, func() {
		inj.logger.Debug("specialized invocation path activated", "key", key.String(), "method", m.Name)
	})
}

// parameters resolves parameter keys in declared order.
func (inj *Injector) parameters(owner string, keys []Key, tr *trail) ([]Supplier, error) {
	suppliers := make([]Supplier, len(keys))

	for i, k := range keys {
		s, err := inj.supplier(k, tr)
		if err != nil {
			return nil, fmt.Errorf("%s parameter %d %s: %w", owner, i, k, err)
		}
		suppliers[i] = s
	}

	return suppliers, nil
}

// selectMethod picks the construction method: the explicit entry point, else
// the only candidate, else the zero-parameter candidate.
func selectMethod(key Key, d *Descriptor) (Method, error) {
	if len(d.Methods) == 0 {
		return Method{}, unresolvable(key, "no construction method")
	}

	var entryPoint *Method
	for i := range d.Methods {
		if !d.Methods[i].Entry {
			continue
		}
		if entryPoint != nil {
			return Method{}, unresolvable(key, "more than one injection entry point")
		}
		entryPoint = &d.Methods[i]
	}

	if entryPoint != nil {
		return *entryPoint, nil
	}

	if len(d.Methods) == 1 {
		return d.Methods[0], nil
	}

	var zeroArg *Method
	for i := range d.Methods {
		if len(d.Methods[i].Params) != 0 {
			continue
		}
		if zeroArg != nil {
			return Method{}, unresolvable(key, "more than one zero-parameter construction method")
		}
		zeroArg = &d.Methods[i]
	}

	if zeroArg == nil {
		return Method{}, unresolvable(key, fmt.Sprintf("ambiguous construction method among %d candidates", len(d.Methods)))
	}
	return *zeroArg, nil
}
