package graft

import (
	"context"
	"fmt"
	"reflect"

	"github.com/overdevelop/graft/internal/logger"
)

// Get resolves T from the injector.
//
// Example:
//
//	repo, err := graft.Get[*Repository](inj, graft.Named("primary"))
func Get[T any](inj *Injector, qualifiers ...Qualifier) (T, error) {
	var zero T

	v, err := inj.Get(KeyOf[T](qualifiers...))
	if err != nil {
		return zero, err
	}
	return arg[T](v)
}

// MustGet resolves T and panics on failure.
func MustGet[T any](inj *Injector, qualifiers ...Qualifier) T {
	v, err := Get[T](inj, qualifiers...)
	if err != nil {
		msg := fmt.Sprintf("graft: could not resolve %s", reflect.TypeFor[T]())
		inj.logger.Log(context.Background(), logger.LevelPanic, msg, "error", err)
		panic(fmt.Sprintf("%s: %v", msg, err))
	}
	return v
}

// ProviderOf returns a typed producer for T. The binding is built eagerly;
// instances are produced on each call according to the binding's scope.
func ProviderOf[T any](inj *Injector, qualifiers ...Qualifier) (Provider[T], error) {
	s, err := inj.Supplier(KeyOf[T](qualifiers...))
	if err != nil {
		return nil, err
	}
	return providerFor[T](s), nil
}

// BindValue binds an instance of T.
func BindValue[T any](inj *Injector, v T, throwIfExists bool, qualifiers ...Qualifier) error {
	key := KeyOf[T](qualifiers...)
	if err := validBindKey(key); err != nil {
		return err
	}
	return inj.bindResolved(key, constant(v), fmt.Sprintf("instance %T", v), throwIfExists)
}

// BindTo binds T to its implementation I.
func BindTo[T, I any](inj *Injector, throwIfExists bool, qualifiers ...Qualifier) error {
	return inj.BindType(KeyOf[T](qualifiers...), reflect.TypeFor[I](), throwIfExists)
}

// BindSingletonTo binds T to a singleton of I.
func BindSingletonTo[T, I any](inj *Injector, eager, throwIfExists bool, qualifiers ...Qualifier) error {
	return inj.BindSingleton(KeyOf[T](qualifiers...), reflect.TypeFor[I](), eager, throwIfExists)
}

// Call invokes fn with its parameters resolved from the injector and returns
// its result as T.
//
// Example:
//
//	svc, err := graft.Call[*Service](inj, func(db *Database, log *slog.Logger) *Service {
//	    return NewService(db, log)
//	})
func Call[T any](inj *Injector, fn any, opts ...MethodOption) (T, error) {
	var zero T

	v, err := inj.Invoke(fn, opts...)
	if err != nil {
		return zero, err
	}
	return arg[T](v)
}
