package graft

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry is a TypeDescriptorProvider backed by explicit registration.
//
// Types that were never registered are still described: interfaces are abstract
// without implementation, pointers to structs get an implicit zero-parameter
// constructor, and anything else has no construction method.
type Registry struct {
	types map[reflect.Type]*Descriptor
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[reflect.Type]*Descriptor),
	}
}

// TypeOption configures the descriptor of a registered type.
type TypeOption func(d *Descriptor) error

// MethodOption configures a constructor or supplies method.
type MethodOption func(m *methodSpec) error

type methodSpec struct {
	name       string
	entry      bool
	qualifiers map[int]Qualifier
	result     Qualifier
}

// Register describes T in r.
//
// Example:
//
//	graft.Register[*Foo](reg,
//	    graft.Constructor(NewFoo, graft.Inject()),
//	    graft.Scoped(graft.Singleton),
//	)
func Register[T any](r *Registry, opts ...TypeOption) error {
	return r.Register(reflect.TypeFor[T](), opts...)
}

// Register describes typ. Registering a type again extends its descriptor.
func (r *Registry) Register(typ reflect.Type, opts ...TypeOption) error {
	if r == nil || typ == nil {
		return invalidArguments("register: nil registry or type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d := &Descriptor{Type: typ}
	if existing, ok := r.types[typ]; ok {
		cp := *existing
		cp.Methods = append([]Method(nil), existing.Methods...)
		cp.Supplies = append([]Method(nil), existing.Supplies...)
		d = &cp
	}
	d.Abstract = typ.Kind() == reflect.Interface

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return fmt.Errorf("register %s: %w", typ, err)
		}
	}

	r.types[typ] = d
	return nil
}

// Describe implements TypeDescriptorProvider.
func (r *Registry) Describe(typ reflect.Type) (*Descriptor, error) {
	if typ == nil {
		return nil, invalidArguments("describe: nil type")
	}

	r.mu.RLock()
	registered, ok := r.types[typ]
	r.mu.RUnlock()

	d := &Descriptor{Type: typ, Abstract: typ.Kind() == reflect.Interface}
	if ok {
		cp := *registered
		d = &cp
	}

	if !d.Abstract && len(d.Methods) == 0 && isStructPointer(typ) {
		d.Methods = []Method{implicitConstructor(typ)}
	}

	if d.PostConstruct == nil && !d.Abstract && typ.Implements(postConstructorType) {
		d.PostConstruct = func(instance any) error {
			return instance.(PostConstructor).PostConstruct()
		}
	}

	return d, nil
}

var postConstructorType = reflect.TypeFor[PostConstructor]()

func isStructPointer(typ reflect.Type) bool {
	return typ.Kind() == reflect.Pointer && typ.Elem().Kind() == reflect.Struct
}

func implicitConstructor(typ reflect.Type) Method {
	return Method{
		Name: "new(" + typ.Elem().String() + ")",
		Call: func([]any) (any, error) {
			return reflect.New(typ.Elem()).Interface(), nil
		},
	}
}

// Constructor adds a construction candidate. fn is any function returning the
// registered type, optionally followed by an error. Wrap it with one of the
// Fn helpers to enable the specialized invocation path.
func Constructor(fn any, opts ...MethodOption) TypeOption {
	return func(d *Descriptor) error {
		m, err := buildMethod(fn, opts)
		if err != nil {
			return err
		}

		if !m.Result.Type().AssignableTo(d.Type) {
			return fmt.Errorf("constructor %s returns %s, not assignable to %s", m.Name, m.Result.Type(), d.Type)
		}

		d.Methods = append(d.Methods, m)
		return nil
	}
}

// Supplies adds a factory method contributed by the registered configuration
// type. fn must take the configuration type as its first parameter, which a
// method expression such as (*Config).Numbers does.
func Supplies(fn any, opts ...MethodOption) TypeOption {
	return func(d *Descriptor) error {
		m, err := buildMethod(fn, opts)
		if err != nil {
			return err
		}

		if len(m.Params) == 0 || m.Params[0].Type() != d.Type {
			return fmt.Errorf("supplies method %s must take %s as its first parameter", m.Name, d.Type)
		}

		d.Supplies = append(d.Supplies, m)
		return nil
	}
}

// ImplementedBy declares the concrete type used for an abstract type.
func ImplementedBy[I any]() TypeOption {
	return func(d *Descriptor) error {
		impl := reflect.TypeFor[I]()
		if !impl.AssignableTo(d.Type) {
			return fmt.Errorf("%s does not implement %s", impl, d.Type)
		}

		d.Implementation = impl
		return nil
	}
}

// Scoped sets the lifecycle of the registered type.
func Scoped(s Scope) TypeOption {
	return func(d *Descriptor) error {
		d.Scope = s
		return nil
	}
}

// ConfiguredBy associates a configuration type that is applied before the
// registered type is first constructed.
func ConfiguredBy[C any]() TypeOption {
	return func(d *Descriptor) error {
		d.Configuration = reflect.TypeFor[C]()
		return nil
	}
}

// PostConstructFunc sets an explicit post-construction hook.
func PostConstructFunc[T any](fn func(T) error) TypeOption {
	return func(d *Descriptor) error {
		if fn == nil {
			return invalidArguments("nil post-construct hook")
		}

		d.PostConstruct = func(instance any) error {
			typed, ok := instance.(T)
			if !ok {
				return fmt.Errorf("post-construct expects %s, got %T", reflect.TypeFor[T](), instance)
			}
			return fn(typed)
		}
		return nil
	}
}

// Inject marks the constructor as the injection entry point.
func Inject() MethodOption {
	return func(m *methodSpec) error {
		m.entry = true
		return nil
	}
}

// Qualify attaches a qualifier to the parameter at index.
func Qualify(index int, q Qualifier) MethodOption {
	return func(m *methodSpec) error {
		if index < 0 {
			return invalidArguments("negative parameter index")
		}

		if m.qualifiers == nil {
			m.qualifiers = make(map[int]Qualifier)
		}
		m.qualifiers[index] = q
		return nil
	}
}

// As qualifies the key a supplies method binds.
func As(q Qualifier) MethodOption {
	return func(m *methodSpec) error {
		m.result = q
		return nil
	}
}

// Name overrides the method name used in errors and logs.
func Name(n string) MethodOption {
	return func(m *methodSpec) error {
		m.name = n
		return nil
	}
}

func buildMethod(fn any, opts []MethodOption) (Method, error) {
	var fast Invoker
	if tf, ok := fn.(TypedFunc); ok {
		fn, fast = tf.fn, tf.invoker
	}

	if fn == nil {
		return Method{}, invalidArguments("nil function")
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return Method{}, fmt.Errorf("%s is not a function", fnType)
	}

	switch {
	case fnType.NumOut() == 1:
	case fnType.NumOut() == 2 && fnType.Out(1) == errorType:
	default:
		return Method{}, fmt.Errorf("function %s must return T or (T, error)", fnType)
	}

	spec := &methodSpec{name: fnType.String()}
	for _, opt := range opts {
		if err := opt(spec); err != nil {
			return Method{}, err
		}
	}

	numIn := fnType.NumIn()
	params := make([]Key, numIn)
	for i := range numIn {
		params[i] = KeyFor(fnType.In(i))
		if q, ok := spec.qualifiers[i]; ok {
			params[i] = params[i].Qualified(q)
		}
	}

	for i := range spec.qualifiers {
		if i >= numIn {
			return Method{}, fmt.Errorf("qualifier for parameter %d of %s which has %d parameters", i, fnType, numIn)
		}
	}

	return Method{
		Name:   spec.name,
		Entry:  spec.entry,
		Params: params,
		Result: KeyFor(fnType.Out(0), spec.result),
		Call:   reflectInvoker(fnValue, fnType),
		Fast:   fast,
	}, nil
}

// reflectInvoker is the generic invocation path.
func reflectInvoker(fnValue reflect.Value, fnType reflect.Type) Invoker {
	withError := fnType.NumOut() == 2
	variadic := fnType.IsVariadic()

	return func(args []any) (any, error) {
		if len(args) != fnType.NumIn() {
			return nil, fmt.Errorf("%s expects %d arguments, got %d", fnType, fnType.NumIn(), len(args))
		}

		in := make([]reflect.Value, len(args))
		for i, a := range args {
			v, err := argValue(fnType.In(i), a)
			if err != nil {
				return nil, fmt.Errorf("%s parameter %d: %w", fnType, i, err)
			}
			in[i] = v
		}

		var out []reflect.Value
		if variadic {
			out = fnValue.CallSlice(in)
		} else {
			out = fnValue.Call(in)
		}

		if withError && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}
}
