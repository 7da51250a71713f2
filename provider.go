package graft

import (
	"fmt"
	"reflect"
)

// Supplier produces an instance for a key.
type Supplier func() (any, error)

// Provider is a deferred producer of T. A constructor parameter of a Provider
// type is resolved lazily, which is what permits constructor cycles.
//
// Example:
//
//	func NewFoe(parent graft.Provider[*Foo]) *Foe {
//	    return &Foe{parent: parent}
//	}
type Provider[T any] func() (T, error)

func (Provider[T]) deferred() {}

// Get invokes the provider.
func (p Provider[T]) Get() (T, error) {
	return p()
}

type deferredProducer interface {
	deferred()
}

var (
	deferredType = reflect.TypeFor[deferredProducer]()
	errorType    = reflect.TypeFor[error]()
	supplierType = reflect.TypeFor[Supplier]()
)

// providerElem returns T for any Provider[T] type.
func providerElem(typ reflect.Type) (reflect.Type, bool) {
	if typ == nil || typ.Kind() != reflect.Func || !typ.Implements(deferredType) {
		return nil, false
	}
	return typ.Out(0), true
}

// providerFor adapts an untyped supplier to Provider[T].
func providerFor[T any](s Supplier) Provider[T] {
	return func() (T, error) {
		var zero T

		v, err := s()
		if err != nil {
			return zero, err
		}
		if v == nil {
			return zero, nil
		}

		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("provider: %T is not %s", v, reflect.TypeFor[T]())
		}
		return typed, nil
	}
}

// providerValue builds a value of the Provider type typ backed by s.
func providerValue(typ reflect.Type, s Supplier) reflect.Value {
	elem := typ.Out(0)

	return reflect.MakeFunc(typ, func([]reflect.Value) []reflect.Value {
		out := reflect.New(elem).Elem()
		errOut := reflect.New(errorType).Elem()

		v, err := s()
		if err == nil && v != nil {
			rv := reflect.ValueOf(v)
			if rv.Type().AssignableTo(elem) {
				out.Set(rv)
			} else {
				err = fmt.Errorf("provider: %s is not assignable to %s", rv.Type(), elem)
			}
		}

		if err != nil {
			errOut.Set(reflect.ValueOf(err))
		}
		return []reflect.Value{out, errOut}
	})
}

// argValue converts an evaluated parameter into a value of the parameter type.
func argValue(target reflect.Type, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(target), nil
	}

	if s, ok := v.(Supplier); ok && target != supplierType {
		if _, isProvider := providerElem(target); isProvider {
			return providerValue(target, s), nil
		}
	}

	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(target) {
		return reflect.Value{}, fmt.Errorf("argument of type %s is not assignable to %s", rv.Type(), target)
	}

	out := reflect.New(target).Elem()
	out.Set(rv)
	return out, nil
}

// arg is the typed counterpart of argValue used by specialized invokers.
func arg[A any](v any) (A, error) {
	var zero A

	if v == nil {
		return zero, nil
	}
	if a, ok := v.(A); ok {
		return a, nil
	}

	rv, err := argValue(reflect.TypeFor[A](), v)
	if err != nil {
		return zero, err
	}
	return rv.Interface().(A), nil
}
