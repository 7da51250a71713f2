package graft

import "reflect"

// Scope determines how instances produced for a key are shared.
type Scope int

const (
	// Transient constructs a new instance on every request.
	Transient Scope = iota
	// Singleton constructs one instance on first request.
	Singleton
	// EagerSingleton constructs one instance when the binding is created.
	EagerSingleton
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case EagerSingleton:
		return "eager-singleton"
	default:
		return "transient"
	}
}

// Invoker calls a construction method with already evaluated arguments.
type Invoker func(args []any) (any, error)

// Method is a construction candidate: a constructor, or a factory method of a
// configuration type whose receiver is the first parameter.
type Method struct {
	Name string

	// Entry marks the method as the explicit injection entry point.
	Entry bool

	// Params are the ordered parameter keys.
	Params []Key

	// Result is the key the method produces. Only used for supplies methods.
	Result Key

	// Call is the generic invocation path.
	Call Invoker

	// Fast is an optional specialized path; it must behave exactly like Call.
	Fast Invoker
}

// Descriptor is everything the engine needs to know about a type.
type Descriptor struct {
	Type reflect.Type

	// Abstract types cannot be constructed; Implementation names the concrete
	// type to use instead, when declared.
	Abstract       bool
	Implementation reflect.Type

	// Methods are the construction candidates.
	Methods []Method

	Scope Scope

	// PostConstruct runs once per constructed instance, before it is handed out.
	PostConstruct func(instance any) error

	// Configuration is applied before the type is first constructed.
	Configuration reflect.Type

	// Supplies are factory methods contributed when the type is used for configuration.
	Supplies []Method
}

// TypeDescriptorProvider is the introspection seam. The engine never inspects
// types itself.
type TypeDescriptorProvider interface {
	Describe(typ reflect.Type) (*Descriptor, error)
}

// PostConstructor is implemented by types with a post-construction hook.
type PostConstructor interface {
	PostConstruct() error
}

// Binder is the binding surface handed to modules.
type Binder interface {
	Bind(key Key, target any, throwIfExists bool) error
	BindSingleton(key Key, implementation reflect.Type, eager, throwIfExists bool) error
}

// Module is implemented by configuration types that declare bindings explicitly.
type Module interface {
	Configure(b Binder) error
}
