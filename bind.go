package graft

import (
	"fmt"
	"reflect"
)

// Bind associates key with target. target is an implementation reflect.Type,
// a Supplier (or plain func() (any, error)) producer, or else an instance.
//
// The first binding for a key wins. With throwIfExists a later attempt fails
// with ErrDuplicateBinding; without it the attempt is silently ignored.
func (inj *Injector) Bind(key Key, target any, throwIfExists bool) error {
	return inj.bind(key, target, throwIfExists, newTrail())
}

// BindType binds key to the supplier of implementation.
func (inj *Injector) BindType(key Key, implementation reflect.Type, throwIfExists bool) error {
	if implementation == nil {
		return invalidArguments("bind: nil implementation type")
	}
	return inj.bind(key, implementation, throwIfExists, newTrail())
}

// BindInstance binds key to a constant.
func (inj *Injector) BindInstance(key Key, instance any, throwIfExists bool) error {
	if instance == nil {
		return invalidArguments("bind: nil instance")
	}
	return inj.bind(key, instance, throwIfExists, newTrail())
}

// BindSupplier binds key to a user-supplied producer.
func (inj *Injector) BindSupplier(key Key, s Supplier, throwIfExists bool) error {
	if s == nil {
		return invalidArguments("bind: nil supplier")
	}
	return inj.bind(key, s, throwIfExists, newTrail())
}

// BindSingleton binds key to a singleton of implementation regardless of the
// implementation's declared scope. An eager singleton is constructed before
// BindSingleton returns; if that fails the binding stays installed and
// construction is retried on the next request.
func (inj *Injector) BindSingleton(key Key, implementation reflect.Type, eager, throwIfExists bool) error {
	return inj.bindSingleton(key, implementation, eager, throwIfExists, newTrail())
}

func (inj *Injector) bind(key Key, target any, throwIfExists bool, tr *trail) error {
	if err := validBindKey(key); err != nil {
		return err
	}

	switch t := target.(type) {
	case nil:
		return invalidArguments("bind: nil target")
	case reflect.Type:
		return inj.bindType(key, t, throwIfExists, tr)
	case Supplier:
		return inj.bindResolved(key, t, "supplier", throwIfExists)
	case func() (any, error):
		return inj.bindResolved(key, t, "supplier", throwIfExists)
	default:
		if typ := reflect.TypeOf(t); !typ.AssignableTo(key.Type()) {
			return invalidArguments(fmt.Sprintf("bind: instance of %s is not assignable to %s", typ, key.Type()))
		}
		return inj.bindResolved(key, constant(t), fmt.Sprintf("instance %T", t), throwIfExists)
	}
}

func (inj *Injector) bindResolved(key Key, s Supplier, target string, throwIfExists bool) error {
	if bound, err := inj.checkBound(key, throwIfExists); bound || err != nil {
		return err
	}

	return inj.installBinding(&entry{key: key, supplier: s, target: target, resolved: true}, throwIfExists)
}

func (inj *Injector) bindType(key Key, impl reflect.Type, throwIfExists bool, tr *trail) error {
	if !impl.AssignableTo(key.Type()) {
		return invalidArguments(fmt.Sprintf("bind: %s is not assignable to %s", impl, key.Type()))
	}

	if bound, err := inj.checkBound(key, throwIfExists); bound || err != nil {
		return err
	}

	implKey := KeyFor(impl)

	// Binding a type to itself: plan it directly so the key is not installed twice.
	if implKey.Equal(key) {
		if err := tr.push(key); err != nil {
			return err
		}
		defer tr.pop()

		e, err := inj.resolve(key, tr)
		if err != nil {
			return err
		}
		return inj.installBinding(e, throwIfExists)
	}

	s, err := inj.supplier(implKey, tr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", key, err)
	}

	e := &entry{key: key, supplier: s, target: impl.String()}
	if linked, ok := inj.bindings.load(implKey); ok {
		e.scope = linked.scope
	}
	return inj.installBinding(e, throwIfExists)
}

func (inj *Injector) bindSingleton(key Key, impl reflect.Type, eager, throwIfExists bool, tr *trail) error {
	if err := validBindKey(key); err != nil {
		return err
	}
	if impl == nil {
		return invalidArguments("bind: nil implementation type")
	}
	if !impl.AssignableTo(key.Type()) {
		return invalidArguments(fmt.Sprintf("bind: %s is not assignable to %s", impl, key.Type()))
	}

	if bound, err := inj.checkBound(key, throwIfExists); bound || err != nil {
		return err
	}

	implKey := KeyFor(impl)
	d, err := inj.describe(impl)
	if err != nil {
		return &Error{Kind: ErrUnresolvableKey, Key: implKey, Err: err}
	}
	if d.Abstract {
		return unresolvable(implKey, "singleton implementation must be concrete")
	}

	scope := Singleton
	if eager {
		scope = EagerSingleton
	}

	if err := tr.push(key); err != nil {
		return err
	}
	defer tr.pop()

	e, err := inj.resolveConstructor(key, d, &scope, tr)
	if err != nil {
		return err
	}
	e.target = impl.String() + " via " + e.target

	return inj.installBinding(e, throwIfExists)
}

// checkBound reports whether key is already bound, failing when that is not allowed.
func (inj *Injector) checkBound(key Key, throwIfExists bool) (bool, error) {
	if _, ok := inj.bindings.load(key); !ok {
		return false, nil
	}
	if throwIfExists {
		return true, &Error{Kind: ErrDuplicateBinding, Key: key.Direct(), Msg: "binding already exists"}
	}
	return true, nil
}

func (inj *Injector) installBinding(e *entry, throwIfExists bool) error {
	actual, installed := inj.bindings.install(e)
	if !installed {
		if throwIfExists {
			return &Error{Kind: ErrDuplicateBinding, Key: actual.key, Msg: "binding already exists"}
		}
		inj.logger.Debug("binding ignored, key already bound", "key", actual.key.String())
		return nil
	}

	inj.logger.Debug("binding installed",
		"key", actual.key.String(),
		"target", actual.target,
		"scope", actual.scope.String(),
	)
	return inj.settle(actual)
}

func validBindKey(key Key) error {
	if key.IsZero() {
		return invalidArguments("bind: nil key")
	}
	if key.Indirect() {
		return invalidArguments("bind: cannot bind a provider key " + key.String())
	}
	return nil
}
